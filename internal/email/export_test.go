package email

import "gopkg.in/gomail.v2"

// SetSendFunc replaces the SMTP transport.
func (s *SMTPSender) SetSendFunc(fn func(m *gomail.Message) error) {
	s.send = fn
}
