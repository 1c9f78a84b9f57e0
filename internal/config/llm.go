package config

// LLM provider constants
const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LLMConfig selects the hosted model used for every chat turn.
type LLMConfig struct {
	Provider string `env:"LLM_PROVIDER" yaml:"provider" default:"claude"`
}
