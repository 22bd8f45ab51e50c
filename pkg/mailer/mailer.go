// Package mailer sends transactional email over SMTP. The only mail this
// application sends is the address-verification message re-issued when an
// unverified account tries to use the API.
package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends email through a single SMTP endpoint.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// Config contains SMTP connection options.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// New creates a Mailer. Host, username, password and from are required.
func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" || cfg.From == "" {
		return nil, errors.New("mailer requires host, username, password and from address")
	}
	port := cfg.Port
	if port == "" {
		port = "587"
	}
	return &Mailer{
		host:     cfg.Host,
		port:     port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}, nil
}

// Send delivers one plain-text message to the recipient.
func (m *Mailer) Send(recipient, subject, body string) error {
	if strings.TrimSpace(recipient) == "" {
		return errors.New("recipient cannot be empty")
	}
	if strings.TrimSpace(subject) == "" {
		return errors.New("subject cannot be empty")
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := smtp.SendMail(addr, auth, m.from, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", recipient, err)
	}
	return nil
}
