package main

import (
	"os"

	"github.com/spf13/cobra"

	"radiomon/internal/resolver"
	"radiomon/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Interactively settle pending plays",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		spotifyP, mbrainzP := newProviders()
		terminal := review.NewTerminal(os.Stdin, os.Stdout)
		return resolver.NewReview(store, spotifyP, mbrainzP, terminal).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
