package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"radiomon/internal/match"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <title> <performer>",
	Short: "Search the catalog the way the resolver would",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		title, performer := args[0], args[1]
		hits, err := store.SearchAliases(cmd.Context(), title, performer)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("no matches")
			return nil
		}

		w := table.NewWriter()
		w.SetOutputMirror(os.Stdout)
		w.AppendHeader(table.Row{"song", "title", "performers", "matched phrasing", "score"})
		for _, h := range hits {
			score := match.Score(title, performer, h.AliasTitle, h.AliasPerformers)
			w.AppendRow(table.Row{
				h.SongID, h.SongTitle, h.SongPerformers,
				fmt.Sprintf("%s / %s", h.AliasTitle, h.AliasPerformers),
				fmt.Sprintf("%.2f", score),
			})
		}
		w.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
