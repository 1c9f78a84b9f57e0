package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	os.Clearenv()
	t.Cleanup(os.Clearenv)
	for k, v := range env {
		require.NoError(t, os.Setenv(k, v))
	}
}

func minimalEnv() map[string]string {
	return map[string]string{
		"ANTHROPIC_API_KEY": "sk-test",
		"RESEND_API_KEY":    "re_test",
		"EMAIL_FROM":        "hello@example.com",
		"EMAIL_REPLY_TO":    "team@example.com",
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, minimalEnv())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "lead-capture-chatbot", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, ProviderClaude, cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Agent.MaxRounds)
	assert.Equal(t, 500, cfg.Agent.MaxTokensPerMessage)
	assert.Equal(t, 3000, cfg.Agent.TokenLimit)
	assert.InDelta(t, 0.7, cfg.Agent.Temperature, 1e-9)
	assert.Equal(t, "eXIQ", cfg.Agent.PersonaName)
	assert.Equal(t, "Patrick Burke", cfg.Agent.ConsultantName)
	assert.Equal(t, "pburke@ftc-global.io", cfg.Agent.ConsultantEmail)
	assert.True(t, cfg.Email.ReportSuccessOnFailure)
	assert.Equal(t, 5, cfg.Email.MaxChallenges)
	assert.Equal(t, "team@example.com", cfg.Email.CCAddress())
	assert.Equal(t, KnowledgeBackendBleve, cfg.KnowledgeBackend())
	assert.Equal(t, 30*time.Second, cfg.Anthropic.Timeout)
	assert.Equal(t, []string{"https://*", "http://*"}, cfg.Security.CORSAllowedOrigins)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Slack.Enabled())
}

func TestLoadFromFile(t *testing.T) {
	setEnv(t, map[string]string{
		"ANTHROPIC_API_KEY": "sk-test",
		"MAX_ROUNDS":        "7",
	})

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agent:
  max_rounds: 3
  consultant_name: Jane Roe
email:
  provider: log
  report_success_on_failure: false
knowledge:
  backend: none
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Agent.MaxRounds, "environment overrides file")
	assert.Equal(t, "Jane Roe", cfg.Agent.ConsultantName)
	assert.Equal(t, EmailProviderLog, cfg.Email.Provider)
	assert.False(t, cfg.Email.ReportSuccessOnFailure)
	assert.Equal(t, KnowledgeBackendNone, cfg.KnowledgeBackend())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing anthropic key", map[string]string{"ANTHROPIC_API_KEY": ""}, "ANTHROPIC_API_KEY is required"},
		{"openai without key", map[string]string{"LLM_PROVIDER": "openai"}, "OPENAI_API_KEY is required"},
		{"unknown provider", map[string]string{"LLM_PROVIDER": "llama"}, "llm provider must be one of"},
		{"resend without key", map[string]string{"RESEND_API_KEY": ""}, "RESEND_API_KEY is required"},
		{"ses without from", map[string]string{"EMAIL_PROVIDER": "ses", "EMAIL_FROM": ""}, "EMAIL_FROM is required"},
		{"zero rounds", map[string]string{"MAX_ROUNDS": "0"}, "max_rounds must be at least 1"},
		{"temperature too high", map[string]string{"LLM_TEMPERATURE": "3.5"}, "temperature must be between"},
		{"postgres knowledge without db", map[string]string{"KNOWLEDGE_BACKEND": "postgres"}, "requires DATABASE_URL"},
		{"s3 without bucket", map[string]string{"STORAGE_BACKEND": "s3"}, "STORAGE_S3_BUCKET is required"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "log_format must be either"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := minimalEnv()
			for k, v := range tt.env {
				env[k] = v
			}
			setEnv(t, env)

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGeminiAcceptsVertexProject(t *testing.T) {
	env := minimalEnv()
	env["LLM_PROVIDER"] = "gemini"
	env["GOOGLE_CLOUD_PROJECT"] = "my-project"
	setEnv(t, env)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://generativelanguage.googleapis.com", cfg.LLMBaseURL())
}

func TestKnowledgeBackendWithDatabase(t *testing.T) {
	env := minimalEnv()
	env["DATABASE_URL"] = "postgres://localhost/chatbot"
	setEnv(t, env)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, KnowledgeBackendPostgres, cfg.KnowledgeBackend())
}
