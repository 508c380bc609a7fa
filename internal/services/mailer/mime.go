package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
)

// Message is an outbound notification mail. InReplyTo carries the message id
// of the previous mail in the shipment's thread, empty for the first mail.
type Message struct {
	From       string
	To         []string
	Subject    string
	HTMLBody   string
	InReplyTo  string
	Attachment *Attachment
}

// Attachment is a file included with a Message, usually a waybill or POD PDF
type Attachment struct {
	Filename string
	Data     []byte
}

const mimeBoundary = "hazmat-mail-boundary-7f3a9c"

// BuildMIME assembles the RFC 5322 wire form of a message. The message id is
// generated by the caller before sending so thread continuity never depends
// on a read-back from the mail provider.
func BuildMIME(m Message, messageID string) []byte {
	var b bytes.Buffer

	writeHeader(&b, "From", m.From)
	writeHeader(&b, "To", strings.Join(m.To, ", "))
	writeHeader(&b, "Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	writeHeader(&b, "Message-ID", messageID)
	if m.InReplyTo != "" {
		writeHeader(&b, "In-Reply-To", m.InReplyTo)
		writeHeader(&b, "References", m.InReplyTo)
	}
	writeHeader(&b, "MIME-Version", "1.0")

	if m.Attachment == nil {
		writeHeader(&b, "Content-Type", `text/html; charset="utf-8"`)
		b.WriteString("\r\n")
		b.WriteString(m.HTMLBody)
		b.WriteString("\r\n")
		return b.Bytes()
	}

	writeHeader(&b, "Content-Type", fmt.Sprintf(`multipart/mixed; boundary="%s"`, mimeBoundary))
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	writeHeader(&b, "Content-Type", `text/html; charset="utf-8"`)
	b.WriteString("\r\n")
	b.WriteString(m.HTMLBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	writeHeader(&b, "Content-Type", fmt.Sprintf(`application/pdf; name="%s"`, m.Attachment.Filename))
	writeHeader(&b, "Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, m.Attachment.Filename))
	writeHeader(&b, "Content-Transfer-Encoding", "base64")
	b.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString(m.Attachment.Data)
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		b.WriteString(encoded[:n])
		b.WriteString("\r\n")
		encoded = encoded[n:]
	}

	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return b.Bytes()
}

func writeHeader(b *bytes.Buffer, name, value string) {
	fmt.Fprintf(b, "%s: %s\r\n", name, value)
}
