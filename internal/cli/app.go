package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// NewApp builds the command-line application.
func NewApp(version string) *cli.App {
	return &cli.App{
		Name:    "lead-capture-chatbot",
		Usage:   "Lead capture chat API for marketing websites",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level for maintenance commands (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    flagConfigFile,
				Value:   "",
				Usage:   "Path to configuration file",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Before: func(ctx *cli.Context) error {
			log := logger.NewLogger(logger.Config{
				Level:   logger.ParseLevel(ctx.String("log-level")),
				Format:  "json",
				Service: "lead-capture-chatbot",
				Output:  ctx.App.ErrWriter,
			})

			// Store logger in context for commands to use
			ctx.App.Metadata = map[string]interface{}{
				metadataLogger: log,
			}
			return nil
		},
		Commands: []*cli.Command{
			ConfigCommand(),
			ServerCommand(),
			MigrateCommand(),
			CatalogCommand(),
		},
	}
}
