// Package mail delivers finished report payloads to teachers.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/perfil/pkg/logger"
)

// Supported providers.
const (
	ProviderConsole  = "console"
	ProviderSendGrid = "sendgrid"
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sink accepts finished messages.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}

// Open returns the sink for provider. An empty provider selects the console sink.
func Open(provider, apiKey, appName, from string) (Sink, error) {
	switch provider {
	case "", ProviderConsole:
		return NewConsoleSink(logger.Get().Named("mail")), nil
	case ProviderSendGrid:
		return NewSendGridSink(apiKey, appName, from), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// ConsoleSink logs messages instead of sending them.
type ConsoleSink struct {
	log logger.Logger
}

// NewConsoleSink creates a sink that writes messages to log.
func NewConsoleSink(log logger.Logger) *ConsoleSink {
	return &ConsoleSink{log: log}
}

// Send logs msg.
func (s *ConsoleSink) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.log.Info(ctx, "email",
		logger.String("to", msg.To),
		logger.String("subject", msg.Subject),
		logger.String("body", msg.Text),
	)
	return nil
}
