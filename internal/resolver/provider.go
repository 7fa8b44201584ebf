// Package resolver turns raw play observations into scored candidate lists
// and resolutions, using the catalog first and external providers as a
// fallback.
package resolver

import (
	"context"

	"radiomon/pkg/musicbrainz"
	"radiomon/pkg/spotify"
)

// Release is one track candidate from an external provider.
type Release struct {
	Title           string
	Performers      []string
	ISRC            string
	Year            int
	Country         string
	DurationSeconds int
}

// Provider is an external song catalog that can be searched by title and
// performer. Name doubles as the candidate method recorded in the audit
// log.
type Provider interface {
	Name() string
	Search(ctx context.Context, title, performer string) ([]Release, error)
}

type spotifyProvider struct {
	client spotify.Client
}

// NewSpotifyProvider wraps a Spotify client as a Provider.
func NewSpotifyProvider(client spotify.Client) Provider {
	return spotifyProvider{client: client}
}

func (p spotifyProvider) Name() string { return "spotify" }

func (p spotifyProvider) Search(ctx context.Context, title, performer string) ([]Release, error) {
	found, err := p.client.Search(ctx, title, performer)
	if err != nil {
		return nil, err
	}
	releases := make([]Release, len(found))
	for i, r := range found {
		releases[i] = Release{
			Title:           r.Title,
			Performers:      r.Performers,
			ISRC:            r.ISRC,
			Year:            r.Year,
			Country:         r.Country,
			DurationSeconds: r.DurationSeconds,
		}
	}
	return releases, nil
}

type musicBrainzProvider struct {
	client musicbrainz.Client
}

// NewMusicBrainzProvider wraps a MusicBrainz client as a Provider.
func NewMusicBrainzProvider(client musicbrainz.Client) Provider {
	return musicBrainzProvider{client: client}
}

func (p musicBrainzProvider) Name() string { return "mbrainz" }

func (p musicBrainzProvider) Search(ctx context.Context, title, performer string) ([]Release, error) {
	found, err := p.client.Search(ctx, title, performer)
	if err != nil {
		return nil, err
	}
	releases := make([]Release, len(found))
	for i, r := range found {
		releases[i] = Release{
			Title:           r.Title,
			Performers:      r.Performers,
			ISRC:            r.ISRC,
			Year:            r.Year,
			Country:         r.Country,
			DurationSeconds: r.DurationSeconds,
		}
	}
	return releases, nil
}
