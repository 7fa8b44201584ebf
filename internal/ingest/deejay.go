package ingest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const deejayURL = "https://www.deejay.it/api/broadcast_airplay/?get=now"

// DeejaySource reads Radio Deejay's broadcast airplay feed.
type DeejaySource struct {
	url  string
	http *http.Client
}

// NewDeejaySource creates the Radio Deejay source.
func NewDeejaySource(client *http.Client) *DeejaySource {
	return &DeejaySource{url: deejayURL, http: client}
}

// NewDeejaySourceURL creates the source against a custom feed URL (for
// testing).
func NewDeejaySourceURL(client *http.Client, url string) *DeejaySource {
	return &DeejaySource{url: url, http: client}
}

func (s *DeejaySource) Station() string { return "dj" }

// Fetch reads the current track. The feed's datePlay is best effort: when
// it does not parse, the observation carries no timestamp and the
// recorder stamps it on arrival.
func (s *DeejaySource) Fetch(ctx context.Context) ([]Observation, error) {
	body, err := getBody(ctx, s.http, s.url)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: deejay feed")
	}

	var parsed struct {
		Result struct {
			Artist   string `json:"artist"`
			Title    string `json:"title"`
			DatePlay string `json:"datePlay"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "ingest: decode deejay feed")
	}

	obs := Observation{
		Station:   s.Station(),
		Title:     parsed.Result.Title,
		Performer: parsed.Result.Artist,
		Payload:   string(body),
	}
	if ts, err := time.Parse(time.RFC3339, parsed.Result.DatePlay); err == nil {
		obs.ObservedAt = ts
	}
	return []Observation{obs}, nil
}

func getBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
