package cli

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	appconfig "github.com/lewisedginton/lead_capture_chatbot/internal/config"
	pkgconfig "github.com/lewisedginton/lead_capture_chatbot/pkg/config"
)

// Config holds the sections the maintenance commands need. It omits the
// model and email settings so migrations can run without provider keys.
type Config struct {
	Database  appconfig.DatabaseConfig  `yaml:"database"`
	Storage   appconfig.StorageConfig   `yaml:"storage"`
	Knowledge appconfig.KnowledgeConfig `yaml:"knowledge"`
}

// Validate requires a database.
func (c *Config) Validate() error {
	if !c.Database.Enabled() {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func loadMaintenanceConfig(ctx *cli.Context) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.GetConfig(cfg, ctx.String(flagConfigFile), false); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
