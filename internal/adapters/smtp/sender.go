package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Sender dispatches individual messages over SMTP with STARTTLS
// (PlainAuth). One message per call; batching and retry policy live in
// the engine, not here.
type Sender struct {
	host     string
	port     int
	from     string
	password string
}

func NewSender(host string, port int, from, password string) *Sender {
	if port <= 0 {
		port = 587
	}
	return &Sender{host: host, port: port, from: from, password: password}
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if s.host == "" || s.from == "" {
		return fmt.Errorf("smtp is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.from, s.password, s.host)
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	return nil
}
