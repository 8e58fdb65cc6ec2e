package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPGateway delivers rendered notifications over plain SMTP.
type SMTPGateway struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

func (g SMTPGateway) Send(_ context.Context, recipient, template string, vars Vars) error {
	if g.Host == "" || g.From == "" {
		return fmt.Errorf("smtp gateway not configured")
	}
	subject, body, err := Render(template, vars)
	if err != nil {
		return err
	}
	port := g.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", g.Host, port)
	var auth smtp.Auth
	if g.Username != "" {
		auth = smtp.PlainAuth("", g.Username, g.Password, g.Host)
	}
	msg := strings.Join([]string{
		"From: " + g.From,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(addr, auth, g.From, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}
	return nil
}
