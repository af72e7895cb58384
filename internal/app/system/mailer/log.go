package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes mail to the log instead of sending it.
type LogMailer struct {
	Log *zap.Logger
}

func (m *LogMailer) Send(_ context.Context, e Email) error {
	m.Log.Info("mail (log backend)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("body", e.TextBody),
	)
	return nil
}
