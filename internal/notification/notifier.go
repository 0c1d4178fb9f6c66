// Package notification delivers applicant-facing emails.
package notification

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/segyhp/loan-origination/internal/config"
)

type Notifier interface {
	Notify(ctx context.Context, email, subject, body string) error
}

// New returns an SMTP notifier, or a log-only one when no SMTP host is configured.
func New(cfg config.SMTPConfig, log *zap.Logger) Notifier {
	if cfg.Host == "" {
		return NewLogNotifier(log)
	}
	return NewSMTPNotifier(cfg)
}

// sender is the part of gomail.Dialer the notifier uses.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPNotifier struct {
	from   string
	dialer sender
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		from:   cfg.Sender,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (n *SMTPNotifier) Notify(ctx context.Context, email, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	return n.dialer.DialAndSend(m)
}

// LogNotifier writes notifications to the log instead of sending them.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, email, subject, body string) error {
	n.log.Info("Notification",
		zap.String("to", email),
		zap.String("subject", subject),
		zap.Int("body_length", len(body)),
	)
	return nil
}
