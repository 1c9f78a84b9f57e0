package config

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	LogLevel string `env:"LOG_LEVEL" yaml:"log_level" default:"info"`
	Port     int    `env:"HTTP_PORT" yaml:"port" default:"8080"`

	APIKey      string        `env:"API_KEY" yaml:"api_key" required:"true"`
	Debug       bool          `env:"DEBUG" yaml:"debug" default:"false"`
	Features    []string      `env:"FEATURES" yaml:"features"`
	Temperature float64       `env:"TEMPERATURE" yaml:"temperature" default:"0.7"`
	Timeout     time.Duration `env:"TIMEOUT" yaml:"timeout" default:"30s"`
}

func (c testConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

func TestGetConfigFromEnvVars(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
		want    testConfig
		wantErr bool
	}{
		{
			name: "All defaults, except required field",
			envVars: map[string]string{
				"API_KEY": "test-key",
			},
			want: testConfig{
				LogLevel:    "info",
				Port:        8080,
				APIKey:      "test-key",
				Debug:       false,
				Temperature: 0.7,
				Timeout:     30 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "Override with environment variables",
			envVars: map[string]string{
				"LOG_LEVEL":   "debug",
				"HTTP_PORT":   "3000",
				"API_KEY":     "env-key",
				"DEBUG":       "true",
				"FEATURES":    "feature1, feature2,feature3",
				"TEMPERATURE": "0.2",
				"TIMEOUT":     "5s",
			},
			want: testConfig{
				LogLevel:    "debug",
				Port:        3000,
				APIKey:      "env-key",
				Debug:       true,
				Features:    []string{"feature1", "feature2", "feature3"},
				Temperature: 0.2,
				Timeout:     5 * time.Second,
			},
			wantErr: false,
		},
		{
			name:    "Missing required field",
			envVars: map[string]string{},
			wantErr: true,
		},
		{
			name: "Invalid port number",
			envVars: map[string]string{
				"API_KEY":   "test-key",
				"HTTP_PORT": "99999",
			},
			wantErr: true, // Should fail validation
		},
		{
			name: "Unparsable duration",
			envVars: map[string]string{
				"API_KEY": "test-key",
				"TIMEOUT": "soon",
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tc.envVars {
				_ = os.Setenv(k, v)
			}

			// Test the function
			var got testConfig
			err := GetConfigFromEnvVars(&got)

			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.want, got)
			}

			// Cleanup
			os.Clearenv()
		})
	}
}

func TestGetConfigWithEnvInterpolation(t *testing.T) {
	// Create a temporary YAML file with environment variable placeholders
	yamlContent := `
log_level: info
port: 8080
api_key: ${TEST_API_KEY}
debug: ${TEST_DEBUG}
features:
  - ${TEST_FEATURE_1}
  - feature2
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	assert.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(yamlContent)
	assert.NoError(t, err)
	tmpFile.Close()

	// Clear environment and set test values
	os.Clearenv()
	os.Setenv("TEST_API_KEY", "secret-from-env")
	os.Setenv("TEST_DEBUG", "true")
	os.Setenv("TEST_FEATURE_1", "dynamic-feature")

	// Load config
	var cfg testConfig
	err = GetConfig(&cfg, tmpFile.Name(), false)
	require.NoError(t, err)

	// Verify environment variables were interpolated
	assert.Equal(t, "secret-from-env", cfg.APIKey)
	assert.Equal(t, true, cfg.Debug)
	assert.Equal(t, []string{"dynamic-feature", "feature2"}, cfg.Features)

	// Cleanup
	os.Clearenv()
}

func TestGetConfigWithEnvInterpolationUnsetVar(t *testing.T) {
	// Test that unset env vars become empty strings
	yamlContent := `
log_level: info
api_key: ${UNSET_VAR}
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	assert.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(yamlContent)
	assert.NoError(t, err)
	tmpFile.Close()

	os.Clearenv()

	var cfg testConfig
	err = GetConfig(&cfg, tmpFile.Name(), false)
	// Should fail because api_key is required and will be empty
	assert.Error(t, err)

	os.Clearenv()
}

func TestGetConfigMissingFile(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()
	_ = os.Setenv("API_KEY", "from-env")

	var strict testConfig
	assert.Error(t, GetConfig(&strict, "/nonexistent/config.yaml", false))

	var lenient testConfig
	require.NoError(t, GetConfig(&lenient, "/nonexistent/config.yaml", true))
	assert.Equal(t, "from-env", lenient.APIKey)
	assert.Equal(t, 8080, lenient.Port)
}

func TestGetConfigFileOverridesDefaultWithZero(t *testing.T) {
	type flags struct {
		Enabled bool   `env:"FLAG_ENABLED" yaml:"enabled" default:"true"`
		Name    string `env:"FLAG_NAME" yaml:"name" default:"eXIQ"`
	}

	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())
	_, err = tmpFile.WriteString("enabled: false\n")
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())

	os.Clearenv()
	defer os.Clearenv()

	var cfg flags
	require.NoError(t, GetConfig(&cfg, tmpFile.Name(), false))
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "eXIQ", cfg.Name)

	_ = os.Setenv("FLAG_ENABLED", "true")
	cfg = flags{}
	require.NoError(t, GetConfig(&cfg, tmpFile.Name(), false))
	assert.True(t, cfg.Enabled, "environment wins over the file")
}
