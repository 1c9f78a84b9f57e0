package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"

	"github.com/lewisedginton/lead_capture_chatbot/internal/config"
)

// TelegramNotifier sends lead alerts to a Telegram chat.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
}

// NewTelegramNotifier creates a TelegramNotifier. The bot is only used to
// send, so no update handler is registered and polling is never started.
func NewTelegramNotifier(cfg config.TelegramConfig, opts ...bot.Option) (*TelegramNotifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)
	if cfg.Debug {
		opts = append(opts, bot.WithDebug())
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return &TelegramNotifier{bot: b, chatID: cfg.ChatID}, nil
}

// NotifyLead implements Notifier.
func (n *TelegramNotifier) NotifyLead(ctx context.Context, lead Lead) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   lead.Text(),
	})
	if err != nil {
		return fmt.Errorf("telegram lead alert failed: %w", err)
	}
	return nil
}
