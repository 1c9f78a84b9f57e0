package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	os.Clearenv()
	t.Cleanup(os.Clearenv)
	for k, v := range env {
		require.NoError(t, os.Setenv(k, v))
	}
}

func newTestApp() (*cli.App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	app := NewApp("test")
	app.Writer = out
	app.ErrWriter = io.Discard
	return app, out
}

func TestNewAppCommands(t *testing.T) {
	app := NewApp("1.0.0")
	assert.Equal(t, "1.0.0", app.Version)

	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"config", "server", "migrate", "catalog"}, names)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name: "valid",
			env: map[string]string{
				"ANTHROPIC_API_KEY": "sk-test",
				"EMAIL_PROVIDER":    "log",
			},
		},
		{
			name:    "missing model key",
			env:     map[string]string{"EMAIL_PROVIDER": "log"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			app, out := newTestApp()

			err := app.Run([]string{"chatbot", "config", "validate"})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), "Configuration is valid")
		})
	}
}

func TestMaintenanceCommandsRequireDatabase(t *testing.T) {
	setEnv(t, map[string]string{})

	for _, args := range [][]string{
		{"chatbot", "migrate", "up"},
		{"chatbot", "migrate", "down", "--steps", "2"},
		{"chatbot", "catalog", "import"},
	} {
		app, _ := newTestApp()
		err := app.Run(args)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "DATABASE_URL is required")
	}
}

func TestCatalogValidate(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
articles:
  - id: kb-1
    title: Scaling support
    content: Automate tier one tickets.
services:
  - id: svc-1
    name: CX Automation
    keywords: support
`), 0o600))

	app, out := newTestApp()
	require.NoError(t, app.Run([]string{"chatbot", "catalog", "validate", "--file", good}))
	assert.Contains(t, out.String(), "1 articles, 1 services")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
services:
  - id: svc-1
  - id: svc-1
    name: Duplicate
`), 0o600))

	app, _ = newTestApp()
	err := app.Run([]string{"chatbot", "catalog", "validate", "--file", bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")
	assert.Contains(t, err.Error(), "name is required")
}
