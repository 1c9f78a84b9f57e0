// Package email composes and sends the lead follow-up email that introduces
// a visitor to the consultant.
package email

import (
	"context"
	"fmt"

	"github.com/lewisedginton/lead_capture_chatbot/internal/config"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// Message is a provider-neutral outgoing email.
type Message struct {
	From    string
	To      []string
	CC      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Sender delivers a Message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NewSender builds the Sender selected by cfg.Provider.
func NewSender(ctx context.Context, cfg config.EmailConfig, log logger.Logger) (Sender, error) {
	switch cfg.Provider {
	case config.EmailProviderResend:
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required for the resend email provider")
		}
		return NewResendSender(cfg.ResendAPIKey), nil
	case config.EmailProviderSES:
		return NewSESSenderFromConfig(ctx, cfg.SESRegion, cfg.SESProfile)
	case config.EmailProviderLog:
		return NewLogSender(log), nil
	}
	return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
}

// LogSender logs messages instead of sending them. It is meant for local
// development.
type LogSender struct {
	logger logger.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{logger: log}
}

// Send implements Sender.
func (s *LogSender) Send(_ context.Context, msg Message) (string, error) {
	s.logger.Info("Email send skipped by log provider",
		logger.Field("to", msg.To),
		logger.Field("cc", msg.CC),
		logger.StringField("subject", msg.Subject),
		logger.IntField("html_bytes", len(msg.HTML)))
	return "", nil
}
