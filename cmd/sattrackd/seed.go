package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groundsegment/sattrack/internal/config"
	"github.com/groundsegment/sattrack/internal/logging"
	"github.com/groundsegment/sattrack/registry"
)

var catalogPath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a JSON catalog file into the database",
	Long: `Seed upserts every satellite in a JSON catalog file: unknown NORAD
numbers are created, known ones get their element set refreshed.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&catalogPath, "catalog", "configs/catalog.json", "path to a JSON catalog file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx := context.Background()

	f, err := os.Open(catalogPath)
	if err != nil {
		return fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()

	store, err := registry.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := registry.LoadCatalog(ctx, store, f)
	if err != nil {
		return err
	}
	log.Info(ctx, "catalog seeded",
		logging.String("path", catalogPath),
		logging.Int("created", res.Created),
		logging.Int("updated", res.Updated),
	)
	return nil
}
