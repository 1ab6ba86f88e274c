// Package mail abstracts outbound email delivery.
package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages to their recipient.
type Sender interface {
	Send(ctx context.Context, message Message) error
}

// LogSender is a provider that logs deliveries instead of sending them.
// Useful in development and as the default when no SMTP relay is configured.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender constructs a logging provider.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "mail").Logger()}
}

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, message Message) error {
	s.logger.Info().Str("to", message.To).Str("subject", message.Subject).Msg("email delivered to log sink")
	return nil
}
