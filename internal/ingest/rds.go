package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const rdsURL = "https://cdnapi.rds.it/v2/site/get_player_info"

// RDSSource reads the RDS player info feed.
type RDSSource struct {
	url  string
	http *http.Client
}

// NewRDSSource creates the RDS source.
func NewRDSSource(client *http.Client) *RDSSource {
	return &RDSSource{url: rdsURL, http: client}
}

// NewRDSSourceURL creates the source against a custom feed URL (for
// testing).
func NewRDSSourceURL(client *http.Client, url string) *RDSSource {
	return &RDSSource{url: url, http: client}
}

func (s *RDSSource) Station() string { return "rds" }

// Fetch reads the current track. The station's own jingles are credited
// to "RDS" and are not observations. The play timestamp hides in the
// second '#' field of the mid token; an unparsable mid leaves the
// observation unstamped.
func (s *RDSSource) Fetch(ctx context.Context) ([]Observation, error) {
	body, err := getBody(ctx, s.http, s.url)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: rds feed")
	}

	var parsed struct {
		SongStatus struct {
			CurrentSong struct {
				Artist string `json:"artist"`
				Title  string `json:"title"`
				Mid    string `json:"mid"`
			} `json:"current_song"`
		} `json:"song_status"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "ingest: decode rds feed")
	}

	current := parsed.SongStatus.CurrentSong
	if current.Artist == "RDS" {
		return nil, nil
	}

	obs := Observation{
		Station:   s.Station(),
		Title:     current.Title,
		Performer: current.Artist,
		Payload:   string(body),
	}
	if parts := strings.Split(current.Mid, "#"); len(parts) > 2 {
		if ts, err := time.Parse(time.RFC3339, parts[2]); err == nil {
			obs.ObservedAt = ts
		}
	}
	return []Observation{obs}, nil
}
