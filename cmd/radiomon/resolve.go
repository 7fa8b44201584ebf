package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"radiomon/internal/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve unprocessed plays against the catalog and Spotify",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		spotifyP, _ := newProviders()
		limiter := rate.NewLimiter(rate.Every(cfg.Resolver.ProviderDelay), 1)
		finder := resolver.NewFinder(store, spotifyP, limiter)

		stats, err := resolver.NewBatch(store, finder, cfg.Resolver.ProviderQuota).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("processed %d plays: %d settled, %d pending\n",
			stats.Processed, stats.Settled, stats.Pending)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
