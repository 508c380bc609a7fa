package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zoobz-io/pipz"

	"github.com/hazglobal/hazmatgo/internal/models"
	"github.com/hazglobal/hazmatgo/internal/services/mailer"
	"github.com/hazglobal/hazmatgo/internal/store"
)

// Gateway abstracts the outbound mail provider so tests can swap in a fake
type Gateway interface {
	Send(ctx context.Context, m mailer.Message) (string, error)
}

// Event asks the notifier to mail the shipment's recipients. Update is the
// human-readable status line recorded alongside the thread state.
type Event struct {
	Reference      string
	Update         string
	Subject        string
	HTMLBody       string
	AttachmentPath string
}

// Service delivers notification mail off the request path. Events are queued
// on a channel and a single worker drains it, so a slow mail provider never
// blocks a booking or scan response.
type Service struct {
	store    store.Store
	gateway  Gateway
	from     string
	events   chan Event
	pipeline pipz.Chainable[outbound]
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

type outbound struct {
	msg       mailer.Message
	messageID string
}

// NewService wires the delivery pipeline. A nil gateway disables sending,
// events are then logged and dropped, which keeps local development working
// without mail credentials.
func NewService(st store.Store, gateway Gateway, from string, sendTimeout time.Duration) *Service {
	s := &Service{
		store:   st,
		gateway: gateway,
		from:    from,
		events:  make(chan Event, 64),
	}

	send := pipz.Apply[outbound](pipz.NewIdentity("gateway_send", ""), func(ctx context.Context, o outbound) (outbound, error) {
		id, err := gateway.Send(ctx, o.msg)
		if err != nil {
			return o, err
		}
		o.messageID = id
		return o, nil
	})
	s.pipeline = pipz.NewBackoff[outbound](pipz.NewIdentity("mail_retry", ""),
		pipz.NewTimeout[outbound](pipz.NewIdentity("mail_timeout", ""), send, sendTimeout),
		3, 200*time.Millisecond)

	return s
}

// Start launches the worker goroutine
func (s *Service) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-s.events:
				s.deliver(ctx, ev)
			}
		}
	}()
}

// Stop shuts the worker down. Queued events that have not started delivery
// are dropped, status mail is best-effort.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Publish queues an event without blocking. When the queue is full the event
// is dropped with a log line, a stuck mail provider must not back up scans.
func (s *Service) Publish(ev Event) {
	select {
	case s.events <- ev:
	default:
		log.Printf("⚠️ Notify: queue full, dropping mail for %s", ev.Reference)
	}
}

// Deliver sends one event synchronously. Exposed for tests and for callers
// that need the result before responding.
func (s *Service) Deliver(ctx context.Context, ev Event) error {
	return s.deliver(ctx, ev)
}

func (s *Service) deliver(ctx context.Context, ev Event) error {
	if s.gateway == nil {
		log.Printf("📭 Notify: no mail gateway, skipping %q for %s", ev.Update, ev.Reference)
		return nil
	}

	upd, err := s.store.GetUpdate(ctx, ev.Reference)
	if err != nil {
		log.Printf("⚠️ Notify: no update state for %s: %v", ev.Reference, err)
		return err
	}

	var recipients []string
	if len(upd.Recipients) > 0 {
		if err := json.Unmarshal(upd.Recipients, &recipients); err != nil {
			return fmt.Errorf("notify %s: bad recipients: %w", ev.Reference, err)
		}
	}
	if len(recipients) == 0 {
		log.Printf("📭 Notify: no recipients for %s, skipping %q", ev.Reference, ev.Update)
		return nil
	}

	msg := mailer.Message{
		From:      s.from,
		To:        recipients,
		Subject:   ev.Subject,
		HTMLBody:  ev.HTMLBody,
		InReplyTo: upd.MessageID,
	}
	documentPath := ""
	if ev.AttachmentPath != "" {
		data, err := os.ReadFile(ev.AttachmentPath)
		if err != nil {
			log.Printf("⚠️ Notify: cannot attach %s: %v", ev.AttachmentPath, err)
		} else {
			msg.Attachment = &mailer.Attachment{
				Filename: filepath.Base(ev.AttachmentPath),
				Data:     data,
			}
			documentPath = ev.AttachmentPath
		}
	}

	out, err := s.pipeline.Process(ctx, outbound{msg: msg})
	if err != nil {
		log.Printf("⚠️ Notify: mail for %s failed after retries: %v", ev.Reference, err)
		return err
	}

	if err := s.store.RecordNotification(ctx, ev.Reference, ev.Update, documentPath, out.messageID); err != nil {
		return fmt.Errorf("notify %s: record thread state: %w", ev.Reference, err)
	}
	log.Printf("✉️ Notify: sent %q for %s to %d recipient(s)", ev.Update, ev.Reference, len(recipients))
	return nil
}

// Subject builds the thread subject line. The HMJ reference leads when known,
// a long dash placeholder keeps the format stable when it is not.
func Subject(phase string, s *models.Shipment) string {
	secondary := s.SecondaryRef
	if secondary == "" {
		secondary = "HMJ—"
	}
	return fmt.Sprintf("%s // (%s // %s)", phase, secondary, s.Reference)
}
