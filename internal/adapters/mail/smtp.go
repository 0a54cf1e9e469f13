package mail

import (
	"context"
	"time"

	"gopkg.in/gomail.v2"

	"meiras_yachting/internal/adapters/observability"
	"meiras_yachting/internal/domain"
)

// sender is the part of *gomail.Dialer we use.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	d sender
}

func NewSMTP(host string, port int, user, pass string) *SMTPMailer {
	return &SMTPMailer{d: gomail.NewDialer(host, port, user, pass)}
}

// Send hands the message to the SMTP server. ctx is checked before dialing
// only: gomail cannot abort a dial, so once started the send runs to
// completion and its real outcome is returned.
func (m *SMTPMailer) Send(ctx context.Context, msg domain.Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := buildMessage(msg)

	start := time.Now()
	err := m.d.DialAndSend(gm)
	status := 250
	if err != nil {
		status = 0
	}
	observability.ObserveExternal("smtp", "send", status, time.Since(start))
	return err
}

func buildMessage(msg domain.Mail) *gomail.Message {
	gm := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	gm.SetHeader("From", msg.From)
	gm.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)
	return gm
}
