package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/lead_capture_chatbot/internal/knowledge"
	"github.com/lewisedginton/lead_capture_chatbot/internal/persistence"
	"github.com/lewisedginton/lead_capture_chatbot/internal/storage_manager"
	"github.com/lewisedginton/lead_capture_chatbot/pkg/logger"
)

// CatalogCommand returns a command for knowledge base and services catalog operations
func CatalogCommand() *cli.Command {
	fileFlag := &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Local catalog YAML; defaults to the catalog in configured storage",
	}
	return &cli.Command{
		Name:  "catalog",
		Usage: "Knowledge base and services catalog operations",
		Subcommands: []*cli.Command{
			{
				Name:   "import",
				Usage:  "Upsert the catalog into the database",
				Flags:  []cli.Flag{fileFlag},
				Action: catalogImportAction,
			},
			{
				Name:   "validate",
				Usage:  "Parse and validate a local catalog file",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Catalog YAML"}},
				Action: catalogValidateAction,
			},
		},
	}
}

func readCatalogFile(path string) (*knowledge.Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied catalog path
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return knowledge.ParseCatalog(data)
}

func catalogValidateAction(ctx *cli.Context) error {
	catalog, err := readCatalogFile(ctx.String("file"))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "Catalog is valid: %d articles, %d services\n",
		len(catalog.Articles), len(catalog.Services))
	return nil
}

func catalogImportAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	cfg, err := loadMaintenanceConfig(ctx)
	if err != nil {
		log.Error("Failed to load config", logger.ErrorField(err))
		return err
	}

	var catalog *knowledge.Catalog
	if path := ctx.String("file"); path != "" {
		catalog, err = readCatalogFile(path)
	} else {
		var sm *storage_manager.StorageManager
		sm, err = storage_manager.FromConfig(ctx.Context, cfg.Storage, log)
		if err != nil {
			return fmt.Errorf("failed to create storage manager: %w", err)
		}
		catalog, err = knowledge.LoadCatalog(ctx.Context, sm.GetRootProvider(), cfg.Knowledge.CatalogPath)
	}
	if err != nil {
		return err
	}

	pool, err := persistence.Connect(ctx.Context, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool, log)
	if err := repo.ImportCatalog(ctx.Context, catalog.Articles, catalog.Services); err != nil {
		return fmt.Errorf("failed to import catalog: %w", err)
	}

	log.Info("Catalog imported",
		logger.IntField("articles", len(catalog.Articles)),
		logger.IntField("services", len(catalog.Services)))
	return nil
}
