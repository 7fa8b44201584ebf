package main

import (
	"os"

	"github.com/spf13/cobra"

	"radiomon/internal/cluster"
	"radiomon/internal/review"
)

var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "Interactively merge duplicate works in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		terminal := review.NewTerminal(os.Stdin, os.Stdout)
		return cluster.NewRunner(store, terminal).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(dupesCmd)
}
