// Package mailer delivers finished articles over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log"

	mail "github.com/wneessen/go-mail"
)

// Config holds SMTP connection settings. An empty Host disables delivery.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends notification emails. The zero value (or a config with no
// host) is a disabled mailer whose sends are silently skipped.
type Mailer struct {
	cfg Config
}

// New creates a mailer from the given config.
func New(cfg Config) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg}
}

// Enabled reports whether delivery is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// Send delivers a plain-text email to a single recipient.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.Enabled() {
		log.Printf("[MAIL] delivery disabled, skipping send to %s", to)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	log.Printf("[MAIL] sent %q to %s", subject, to)
	return nil
}

// SendPost emails a finished article to its requester.
func (m *Mailer) SendPost(ctx context.Context, to, title, content string) error {
	subject := fmt.Sprintf("Your blog post is ready: %s", title)
	body := fmt.Sprintf("Your blog post has been generated.\n\n%s\n\n---\n\n%s\n", title, content)
	return m.Send(ctx, to, subject, body)
}
