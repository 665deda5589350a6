package email

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	host string
	send func(m *gomail.Message) error
}

func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	d := gomail.NewDialer(host, port, username, password)
	return &SMTPSender{
		host: host,
		send: func(m *gomail.Message) error {
			return d.DialAndSend(m)
		},
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.host)

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)
	m.SetBody("text/html", msg.HTML)

	if err := s.send(m); err != nil {
		return "", fmt.Errorf("failed to send email via smtp: %w", err)
	}
	return id, nil
}
