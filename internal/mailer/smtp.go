package mailer

import (
	"fmt"
	"net/smtp"

	"docshelf/internal/config"
)

// SMTPMailer sends plain-text mail over SMTP with PLAIN auth.
type SMTPMailer struct {
	auth smtp.Auth
	from string
	host string
	port string
}

// NewSMTP builds an SMTPMailer from config. From falls back to the SMTP user
// when not set explicitly.
func NewSMTP(cfg config.SMTPConfig) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPMailer{
		auth: smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host),
		from: from,
		host: cfg.Host,
		port: cfg.Port,
	}
}

var _ Mailer = (*SMTPMailer)(nil)

func (s *SMTPMailer) Send(to []string, subject, body string) error {
	msg := []byte("Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		body)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, s.auth, s.from, to, msg)
}
