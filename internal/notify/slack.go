package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/lewisedginton/lead_capture_chatbot/internal/config"
)

// SlackNotifier posts lead alerts to a Slack channel.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

// NewSlackNotifier creates a SlackNotifier. Extra options are passed to the
// Slack client.
func NewSlackNotifier(cfg config.SlackConfig, opts ...slack.Option) *SlackNotifier {
	if cfg.Debug {
		opts = append(opts, slack.OptionDebug(true))
	}
	return &SlackNotifier{
		client:  slack.New(cfg.BotToken, opts...),
		channel: cfg.Channel,
	}
}

// NotifyLead implements Notifier.
func (n *SlackNotifier) NotifyLead(ctx context.Context, lead Lead) error {
	_, _, err := n.client.PostMessageContext(ctx, n.channel, slack.MsgOptionText(lead.Text(), false))
	if err != nil {
		return fmt.Errorf("slack lead alert failed: %w", err)
	}
	return nil
}
