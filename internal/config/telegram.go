package config

// TelegramConfig configures lead alerts sent to a Telegram chat.
type TelegramConfig struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN" yaml:"-"`
	ChatID   int64  `env:"TELEGRAM_LEADS_CHAT_ID" yaml:"chat_id"`
	Debug    bool   `env:"TELEGRAM_DEBUG" yaml:"debug"`
}

// Enabled returns true if Telegram is configured with a bot token and a chat
func (c *TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}
