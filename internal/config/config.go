// Package config defines the application configuration loaded by pkg/config.
package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	pkgconfig "github.com/lewisedginton/lead_capture_chatbot/pkg/config"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"lead-capture-chatbot"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	HTTP       HTTPConfig       `yaml:"http"`
	LLM        LLMConfig        `yaml:"llm"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Agent      AgentConfig      `yaml:"agent"`
	Email      EmailConfig      `yaml:"email"`
	Slack      SlackConfig      `yaml:"slack"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
	Storage    StorageConfig    `yaml:"storage"`
	Security   SecurityConfig   `yaml:"security"`
	Health     HealthConfig     `yaml:"health"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Load reads defaults, then the optional YAML file, then the environment, and validates.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := pkgconfig.GetConfig(cfg, path, false); err != nil {
		return nil, err
	}
	return cfg, nil
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

// Validate validates the configuration and returns an error if invalid
//
//nolint:revive // cognitive-complexity: flat list of independent checks
func (c *AppConfig) Validate() error {
	var result error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	if !oneOf(strings.ToLower(c.Logging.Level), "debug", "info", "warn", "warning", "error") {
		fail("log_level must be one of [debug, info, warn, error], got %q", c.Logging.Level)
	}
	if !oneOf(c.Logging.Format, "json", "text") {
		fail("log_format must be either 'json' or 'text', got %q", c.Logging.Format)
	}

	if !validPort(c.HTTP.Port) {
		fail("port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.RequestTimeout <= 0 {
		fail("request_timeout must be greater than 0")
	}
	if c.Health.Enabled && !validPort(c.Health.Port) {
		fail("health port must be between 1 and 65535, got %d", c.Health.Port)
	}
	if c.Monitoring.MetricsEnabled && !validPort(c.Monitoring.MetricsPort) {
		fail("metrics port must be between 1 and 65535, got %d", c.Monitoring.MetricsPort)
	}

	switch c.LLM.Provider {
	case ProviderClaude:
		if c.Anthropic.APIKey == "" {
			fail("ANTHROPIC_API_KEY is required when LLM_PROVIDER=%s", ProviderClaude)
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			fail("OPENAI_API_KEY is required when LLM_PROVIDER=%s", ProviderOpenAI)
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" && c.Gemini.Project == "" {
			fail("GEMINI_API_KEY or GOOGLE_CLOUD_PROJECT is required when LLM_PROVIDER=%s", ProviderGemini)
		}
	default:
		fail("llm provider must be one of [%s, %s, %s], got %q", ProviderClaude, ProviderOpenAI, ProviderGemini, c.LLM.Provider)
	}

	if c.Agent.MaxRounds < 1 {
		fail("max_rounds must be at least 1, got %d", c.Agent.MaxRounds)
	}
	if c.Agent.MaxTokensPerMessage < 1 {
		fail("max_tokens_per_message must be at least 1, got %d", c.Agent.MaxTokensPerMessage)
	}
	if c.Agent.TokenLimit < 1 {
		fail("token_limit must be at least 1, got %d", c.Agent.TokenLimit)
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		fail("temperature must be between 0 and 2, got %g", c.Agent.Temperature)
	}

	switch c.Email.Provider {
	case EmailProviderResend:
		if c.Email.ResendAPIKey == "" {
			fail("RESEND_API_KEY is required when EMAIL_PROVIDER=%s", EmailProviderResend)
		}
	case EmailProviderSES, EmailProviderLog:
	default:
		fail("email provider must be one of [%s, %s, %s], got %q", EmailProviderResend, EmailProviderSES, EmailProviderLog, c.Email.Provider)
	}
	if c.Email.Provider != EmailProviderLog && c.Email.From == "" {
		fail("EMAIL_FROM is required when EMAIL_PROVIDER=%s", c.Email.Provider)
	}
	if c.Email.MaxChallenges < 1 {
		fail("email max_challenges must be at least 1, got %d", c.Email.MaxChallenges)
	}

	if c.Database.Enabled() {
		if c.Database.MaxConnections < 1 {
			fail("database_max_connections must be greater than 0 when database is configured")
		}
		if c.Database.MinConnections > c.Database.MaxConnections {
			fail("database_min_connections (%d) cannot exceed database_max_connections (%d)", c.Database.MinConnections, c.Database.MaxConnections)
		}
	}

	switch c.KnowledgeBackend() {
	case KnowledgeBackendPostgres:
		if !c.Database.Enabled() {
			fail("knowledge backend %q requires DATABASE_URL", KnowledgeBackendPostgres)
		}
	case KnowledgeBackendBleve, KnowledgeBackendNone:
	default:
		fail("knowledge backend must be one of [%s, %s, %s], got %q", KnowledgeBackendPostgres, KnowledgeBackendBleve, KnowledgeBackendNone, c.Knowledge.Backend)
	}

	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			fail("STORAGE_S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		fail("storage backend must be 'local' or 's3', got %q", c.Storage.Backend)
	}

	if c.Security.MaxRequestSize <= 0 {
		fail("max_request_size must be greater than 0")
	}

	return result
}

// KnowledgeBackend returns the configured knowledge backend, resolving the
// empty value to postgres when a database is configured and bleve otherwise.
func (c *AppConfig) KnowledgeBackend() string {
	if c.Knowledge.Backend != "" {
		return c.Knowledge.Backend
	}
	if c.Database.Enabled() {
		return KnowledgeBackendPostgres
	}
	return KnowledgeBackendBleve
}

// GetLogLevel returns the parsed logger level
func (c *AppConfig) GetLogLevel() logger.Level {
	return logger.ParseLevel(c.Logging.Level)
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// LLMBaseURL returns the base URL of the selected provider, used by the readiness probe.
func (c *AppConfig) LLMBaseURL() string {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		return c.OpenAI.APIBaseURL
	case ProviderGemini:
		if c.Gemini.APIBaseURL != "" {
			return c.Gemini.APIBaseURL
		}
		return "https://generativelanguage.googleapis.com"
	default:
		return c.Anthropic.APIBaseURL
	}
}

// LogConfig logs the current configuration (without sensitive data)
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("version", c.Version),
		logger.StringField("environment", c.Environment),
		logger.IntField("port", c.HTTP.Port),
		logger.StringField("llm_provider", c.LLM.Provider),
		logger.StringField("email_provider", c.Email.Provider),
		logger.StringField("knowledge_backend", c.KnowledgeBackend()),
		logger.StringField("storage_backend", c.Storage.Backend),
		logger.IntField("max_rounds", c.Agent.MaxRounds),
		logger.IntField("token_limit", c.Agent.TokenLimit),
		logger.BoolField("metrics_enabled", c.Monitoring.MetricsEnabled),
		logger.BoolField("database_configured", c.Database.Enabled()),
		logger.BoolField("redis_configured", c.Redis.Enabled()),
		logger.BoolField("slack_alerts", c.Slack.Enabled()),
		logger.BoolField("telegram_alerts", c.Telegram.Enabled()),
	)
}
