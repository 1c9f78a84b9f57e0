package config

// AgentConfig holds the conversation limits and the persona/consultant
// details that appear in prompts, canned replies and lead emails.
type AgentConfig struct {
	PersonaName string `env:"AGENT_PERSONA_NAME" yaml:"persona_name" default:"eXIQ"`
	CompanyName string `env:"AGENT_COMPANY_NAME" yaml:"company_name" default:"FTCG Consulting"`
	CompanyURL  string `env:"AGENT_COMPANY_URL" yaml:"company_url" default:"https://ftcglobal.ca/"`

	// MaxRounds is the number of user/assistant exchanges before hand-off.
	MaxRounds           int     `env:"MAX_ROUNDS" yaml:"max_rounds" default:"5"`
	MaxTokensPerMessage int     `env:"MAX_TOKENS_PER_MESSAGE" yaml:"max_tokens_per_message" default:"500"`
	TokenLimit          int     `env:"TOKEN_LIMIT" yaml:"token_limit" default:"3000"`
	Temperature         float64 `env:"LLM_TEMPERATURE" yaml:"temperature" default:"0.7"`

	ConsultantName  string `env:"CONSULTANT_NAME" yaml:"consultant_name" default:"Patrick Burke"`
	ConsultantEmail string `env:"CONSULTANT_EMAIL" yaml:"consultant_email" default:"pburke@ftc-global.io"`
	ConsultantPhone string `env:"CONSULTANT_PHONE" yaml:"consultant_phone" default:"778-288-3420"`
	ContactEmail    string `env:"CONTACT_EMAIL" yaml:"contact_email" default:"eXIQ@ftcglobal.ca"`

	RecommendationLimit int `env:"RECOMMENDATION_LIMIT" yaml:"recommendation_limit" default:"3"`
}
