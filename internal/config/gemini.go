package config

import "time"

// GeminiConfig holds Google Gemini-specific configuration. Setting Project
// switches the client to the Vertex AI backend.
type GeminiConfig struct {
	APIKey     string        `env:"GEMINI_API_KEY" yaml:"-"`
	Model      string        `env:"GEMINI_MODEL" yaml:"model" default:"gemini-2.5-flash"`
	APIBaseURL string        `env:"GEMINI_API_URL" yaml:"api_base_url"`
	Project    string        `env:"GOOGLE_CLOUD_PROJECT" yaml:"project"`
	Region     string        `env:"GOOGLE_CLOUD_REGION" yaml:"region"`
	Timeout    time.Duration `env:"GEMINI_TIMEOUT" yaml:"timeout" default:"30s"`
}
