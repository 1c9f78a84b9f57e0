package config

// SlackConfig configures lead alerts posted to a Slack channel.
type SlackConfig struct {
	BotToken string `env:"SLACK_BOT_TOKEN" yaml:"-"`
	Channel  string `env:"SLACK_LEADS_CHANNEL" yaml:"channel"`
	Debug    bool   `env:"SLACK_DEBUG" yaml:"debug"`
}

// Enabled returns true if Slack is configured with a token and a channel
func (c *SlackConfig) Enabled() bool {
	return c.BotToken != "" && c.Channel != ""
}
