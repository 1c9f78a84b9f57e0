package config

// Email provider constants
const (
	EmailProviderResend = "resend"
	EmailProviderSES    = "ses"
	EmailProviderLog    = "log"
)

// EmailConfig configures lead email dispatch. CC defaults to ReplyTo.
// ReportSuccessOnFailure makes the chat API report emailSent=true even when
// the provider rejected the message.
type EmailConfig struct {
	Provider     string `env:"EMAIL_PROVIDER" yaml:"provider" default:"resend"`
	ResendAPIKey string `env:"RESEND_API_KEY" yaml:"-"`
	SESRegion    string `env:"SES_REGION" yaml:"ses_region"`
	SESProfile   string `env:"SES_PROFILE" yaml:"ses_profile"`

	From    string `env:"EMAIL_FROM" yaml:"from"`
	ReplyTo string `env:"EMAIL_REPLY_TO" yaml:"reply_to"`
	CC      string `env:"EMAIL_CC" yaml:"cc"`
	Subject string `env:"EMAIL_SUBJECT" yaml:"subject"`

	ReportSuccessOnFailure bool `env:"EMAIL_REPORT_SUCCESS_ON_FAILURE" yaml:"report_success_on_failure" default:"true"`
	MaxChallenges          int  `env:"EMAIL_MAX_CHALLENGES" yaml:"max_challenges" default:"5"`
}

// CCAddress returns the address copied on lead emails.
func (c EmailConfig) CCAddress() string {
	if c.CC != "" {
		return c.CC
	}
	return c.ReplyTo
}
