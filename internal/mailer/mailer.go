package mailer

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"alvara/internal/render"
)

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// ComposeAlvaraEmail builds the permit e-mail from an issued summary.
func ComposeAlvaraEmail(from, recipient string, s render.Summary) Message {
	var b strings.Builder
	b.WriteString("Olá!\n\n")
	b.WriteString(s.Declaration)
	b.WriteString("\n\nDocumentos aprovados:\n")
	for _, item := range s.Approved {
		if item.Authority != "" {
			fmt.Fprintf(&b, "  - %s (%s)\n", item.Name, item.Authority)
		} else {
			fmt.Fprintf(&b, "  - %s\n", item.Name)
		}
	}
	fmt.Fprintf(&b, "\nEvento: %s\nLocal: %s\nData: %s\nPúblico estimado: %d\n",
		s.Event.Name, s.Event.Location, s.Event.Date.Format("02/01/2006"), s.Event.Attendance)

	return Message{
		From:    from,
		To:      recipient,
		Subject: fmt.Sprintf("✅ Alvará do evento «%s»", s.Event.Name),
		Body:    b.String(),
	}
}

// SendAlvaraEmail composes the permit e-mail and records it in the log.
// Delivery is simulated; nothing leaves the process.
func SendAlvaraEmail(log *zerolog.Logger, from, recipient string, s render.Summary) (Message, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return Message{}, fmt.Errorf("recipient cannot be empty")
	}

	msg := ComposeAlvaraEmail(from, recipient, s)
	log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("body_bytes", len(msg.Body)).
		Msg("📧 Alvará e-mail simulated")
	return msg, nil
}
