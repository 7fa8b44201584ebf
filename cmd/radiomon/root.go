package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"radiomon/internal/catalog"
	"radiomon/internal/config"
	"radiomon/internal/resolver"
	"radiomon/pkg/musicbrainz"
	"radiomon/pkg/spotify"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "radiomon",
	Short: "Radio airplay monitor",
	Long:  "Polls station now-playing feeds, resolves raw observations to canonical songs via the catalog and external providers, and supports interactive review of pending plays and duplicate works.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func openStore() (*catalog.Store, error) {
	store, err := catalog.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
	}
	return store, nil
}

func newProviders() (spotifyP, mbrainzP resolver.Provider) {
	spotifyP = resolver.NewSpotifyProvider(spotify.NewClient(cfg.Spotify.Credentials))

	var opts []musicbrainz.Option
	if cfg.MusicBrainz.UserAgent != "" {
		opts = append(opts, musicbrainz.WithUserAgent(cfg.MusicBrainz.UserAgent))
	}
	mbrainzP = resolver.NewMusicBrainzProvider(musicbrainz.NewClient(opts...))
	return spotifyP, mbrainzP
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
