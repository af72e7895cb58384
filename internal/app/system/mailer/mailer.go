// Package mailer delivers transactional mail through SMTP, SendGrid, or the
// application log (dev).
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Email is one outgoing message with a plain-text and an optional HTML body.
type Email struct {
	To       string
	ToName   string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers a single email. Implementations honor ctx and their own
// timeout; there are no retries.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// ErrDelivery is matched by every transport failure.
var ErrDelivery = errors.New("mail delivery failed")

// DeliveryError records which backend failed.
type DeliveryError struct {
	Backend string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDelivery, e.Backend, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }

// Backends.
const (
	BackendSMTP     = "smtp"
	BackendSendGrid = "sendgrid"
	BackendLog      = "log"
)

// Config selects and configures the backend.
type Config struct {
	Backend string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string

	SendGridKey string

	From     string
	FromName string
	Timeout  time.Duration
}

// New returns the Sender for cfg.Backend.
func New(cfg Config, logger *zap.Logger) (Sender, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	switch strings.ToLower(cfg.Backend) {
	case BackendSMTP:
		if cfg.SMTPHost == "" || cfg.From == "" {
			return nil, errors.New("smtp mailer needs host and from address")
		}
		port := cfg.SMTPPort
		if port == 0 {
			port = 587
		}
		return &SMTPMailer{
			Host: cfg.SMTPHost, Port: port,
			Username: cfg.SMTPUser, Password: cfg.SMTPPass,
			From: cfg.From, FromName: cfg.FromName,
			Timeout: cfg.Timeout,
		}, nil
	case BackendSendGrid:
		if cfg.SendGridKey == "" || cfg.From == "" {
			return nil, errors.New("sendgrid mailer needs api key and from address")
		}
		return NewSendGridMailer(cfg.SendGridKey, cfg.From, cfg.FromName), nil
	case BackendLog, "":
		return &LogMailer{Log: logger}, nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.Backend)
	}
}
