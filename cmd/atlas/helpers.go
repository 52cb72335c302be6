package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/atlas/internal/cli"
	"github.com/Veraticus/atlas/internal/common"
	"github.com/Veraticus/atlas/internal/config"
	"github.com/Veraticus/atlas/internal/service"
	"github.com/Veraticus/atlas/internal/storage"
	"github.com/Veraticus/atlas/internal/taxonomy"
)

const defaultTaxonomyPath = "data/las_taxonomy.json"

// initStorage opens the run history database and applies migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = filepath.Join(config.DataDir(), "atlas.db")
	}

	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadTaxonomy reads the taxonomy file named by taxonomy.path.
func loadTaxonomy() (*taxonomy.Taxonomy, error) {
	path := viper.GetString("taxonomy.path")
	if path == "" {
		path = defaultTaxonomyPath
	}
	path = config.ExpandPath(path)

	tax, err := taxonomy.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: taxonomy file %s not found, set taxonomy.path or pass --taxonomy", common.ErrMissingConfig, path)
	}
	return tax, err
}

// addOutputFlags registers --format and --verbose on a command that prints results.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "o", "", "output format (text, json, yaml)")
	cmd.Flags().BoolP("verbose", "v", false, "include candidates, scores, and the stage trace")
}

// newFormatter returns a formatter writing to the command's output. Flags win
// over the output.format and output.verbose settings.
func newFormatter(cmd *cobra.Command) (*cli.Formatter, error) {
	name := viper.GetString("output.format")
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		name = f.Value.String()
	}
	format, err := cli.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	verbose := viper.GetBool("output.verbose")
	if f := cmd.Flags().Lookup("verbose"); f != nil && f.Changed {
		verbose, _ = cmd.Flags().GetBool("verbose")
	}
	return cli.NewFormatter(cmd.OutOrStdout(), format, verbose), nil
}
