package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"radiomon/internal/ingest"
)

var ingestPoll bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Record what the monitored stations are playing",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		client := newHTTPClient()
		recorder := ingest.NewRecorder(store, []ingest.Source{
			ingest.NewDeejaySource(client),
			ingest.NewRDSSource(client),
			ingest.NewM2OSource(client),
			ingest.NewCapitalSource(client),
		}, cfg.Ingest.Window)

		if ingestPoll {
			return recorder.Poll(cmd.Context(), cfg.Ingest.Interval)
		}
		n, err := recorder.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("recorded %d plays\n", n)
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestPoll, "poll", false, "keep polling on the configured interval")
	rootCmd.AddCommand(ingestCmd)
}
