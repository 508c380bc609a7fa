package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/hazglobal/hazmatgo/internal/config"
)

// GmailGateway sends notification mail through the Gmail API using the
// branch mailbox's OAuth credentials.
type GmailGateway struct {
	svc    *gmail.Service
	domain string
}

// NewGmailGateway builds the Gmail client from the JSON token in config.
// Returns an error when no token is configured, callers decide whether
// running without mail is acceptable.
func NewGmailGateway(ctx context.Context, cfg config.MailConfig) (*GmailGateway, error) {
	if cfg.TokenJSON == "" {
		return nil, fmt.Errorf("gmail gateway: no token configured")
	}
	creds, err := google.CredentialsFromJSON(ctx, []byte(cfg.TokenJSON), gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("gmail gateway: parse credentials: %w", err)
	}
	svc, err := gmail.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("gmail gateway: build service: %w", err)
	}
	return &GmailGateway{svc: svc, domain: mailDomain(cfg.FromAddress)}, nil
}

// Send delivers a message and returns the Message-ID header it was sent with,
// which becomes the In-Reply-To of the next mail in the thread.
func (g *GmailGateway) Send(ctx context.Context, m Message) (string, error) {
	if len(m.To) == 0 {
		return "", fmt.Errorf("gmail gateway: no recipients")
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), g.domain)
	raw := base64.URLEncoding.EncodeToString(BuildMIME(m, messageID))

	_, err := g.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail gateway: send: %w", err)
	}
	return messageID, nil
}

func mailDomain(from string) string {
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		return from[at+1:]
	}
	return "hazglobal.com"
}
