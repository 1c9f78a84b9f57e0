// Package notify alerts the sales team when a visitor becomes a lead.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/lewisedginton/lead_capture_chatbot/internal/config"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// Lead is the alert payload.
type Lead struct {
	VisitorID      string
	ConversationID string
	Name           string
	Email          string
	Company        string
	Challenges     []string
	Reason         string
	EmailSent      bool
}

// Notifier delivers lead alerts.
type Notifier interface {
	NotifyLead(ctx context.Context, lead Lead) error
}

// Text renders the alert as plain text.
func (l Lead) Text() string {
	var b strings.Builder
	b.WriteString("New lead")
	if l.Name != "" {
		fmt.Fprintf(&b, ": %s", l.Name)
	}
	fmt.Fprintf(&b, " <%s>", l.Email)
	if l.Company != "" {
		fmt.Fprintf(&b, " (%s)", l.Company)
	}
	b.WriteString("\n")

	if len(l.Challenges) > 0 {
		b.WriteString("Challenges:\n")
		for _, c := range l.Challenges {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	status := "sent"
	if !l.EmailSent {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "Intro email: %s\n", status)
	fmt.Fprintf(&b, "Reason: %s | visitor %s | conversation %s", l.Reason, l.VisitorID, l.ConversationID)
	return b.String()
}

// Nop discards alerts.
type Nop struct{}

// NotifyLead implements Notifier.
func (Nop) NotifyLead(context.Context, Lead) error { return nil }

// Multi sends every alert to each notifier in turn.
type Multi []Notifier

// NotifyLead implements Notifier. Every notifier is tried; failures are
// combined into one error.
func (m Multi) NotifyLead(ctx context.Context, lead Lead) error {
	var result *multierror.Error
	for _, n := range m {
		if err := n.NotifyLead(ctx, lead); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// FromConfig builds the notifiers that are configured, or Nop when none is.
func FromConfig(slackCfg config.SlackConfig, telegramCfg config.TelegramConfig, log logger.Logger) (Notifier, error) {
	var notifiers Multi

	if slackCfg.Enabled() {
		notifiers = append(notifiers, NewSlackNotifier(slackCfg))
		log.Info("Slack lead alerts enabled", logger.StringField("channel", slackCfg.Channel))
	}

	if telegramCfg.Enabled() {
		n, err := NewTelegramNotifier(telegramCfg)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
		log.Info("Telegram lead alerts enabled", logger.Int64Field("chat_id", telegramCfg.ChatID))
	}

	if len(notifiers) == 0 {
		return Nop{}, nil
	}
	return notifiers, nil
}
