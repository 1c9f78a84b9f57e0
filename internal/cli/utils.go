// Package cli implements the commands of the chatbot binary.
package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	appconfig "github.com/lewisedginton/lead_capture_chatbot/internal/config"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

const (
	metadataLogger = "logger"
	flagConfigFile = "config-file"
)

// getLogger retrieves the logger from the CLI context metadata
func getLogger(ctx *cli.Context) logger.Logger {
	if ctx.App.Metadata != nil {
		if log, ok := ctx.App.Metadata[metadataLogger].(logger.Logger); ok {
			return log
		}
	}

	// Fallback to default logger if not found
	return logger.NewLogger(logger.Config{
		Level:   logger.InfoLevel,
		Format:  "json",
		Service: "lead-capture-chatbot",
	})
}

// loadConfig loads and validates the application configuration from the
// optional --config-file and the environment.
func loadConfig(ctx *cli.Context) (*appconfig.AppConfig, error) {
	cfg, err := appconfig.Load(ctx.String(flagConfigFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newServiceLogger builds the logger configured by cfg.
func newServiceLogger(cfg *appconfig.AppConfig) logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:   cfg.GetLogLevel(),
		Format:  cfg.Logging.Format,
		Service: cfg.ServiceName,
	})
}
