package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/wneessen/go-mail"
)

// Mailer sends a plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers through an SMTP relay, implicit TLS on port 465.
type SMTPMailer struct {
	cfg      SMTPConfig
	maxTries uint
	interval time.Duration
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, maxTries: 3, interval: time.Second}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, client.DialAndSendWithContext(ctx, msg)
	}, backoff.WithBackOff(exponential(m.interval)), backoff.WithMaxTries(m.maxTries))
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when no
// SMTP host is configured so that keys are still recoverable from the logs.
type LogMailer struct{ logger *log.Logger }

func NewLogMailer(logger *log.Logger) *LogMailer { return &LogMailer{logger: logger} }

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Printf("mail to %s (SMTP not configured)\nSubject: %s\n%s", to, subject, body)
	return nil
}
