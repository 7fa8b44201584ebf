package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"radiomon/internal/catalog"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create or migrate the catalog database and seed the stations",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}

		stations, err := loadStations(cfg.Store.StationsFile)
		if err != nil {
			return err
		}
		if len(stations) == 0 {
			zap.L().Warn("no stations file, skipping seed",
				zap.String("path", cfg.Store.StationsFile))
			return nil
		}
		if err := store.SeedStations(cmd.Context(), stations); err != nil {
			return err
		}

		fmt.Printf("catalog ready at %s (%d stations)\n", cfg.Store.Path, len(stations))
		return nil
	},
}

func loadStations(path string) ([]catalog.Station, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read stations file: %w", err)
	}
	var doc struct {
		Stations []catalog.Station `yaml:"stations"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stations file: %w", err)
	}
	return doc.Stations, nil
}

func init() {
	rootCmd.AddCommand(initdbCmd)
}
