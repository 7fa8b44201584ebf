package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"unicode"

	"github.com/rotisserie/eris"
)

// On-air feeds shared by the Elemedia stations: one JSON document whose
// title field carries "<Mixed Case Title> <PERFORMER IN CAPS>".
const (
	m2oURL     = "https://www.m2o.it/api/pub/v2/all/gdwc-audio-player/onair?format=json"
	capitalURL = "https://www.capital.it/api/pub/v2/all/gdwc-audio-player/onair?format=json"
)

// OnAirSource reads a gdwc-audio-player on-air feed.
type OnAirSource struct {
	station string
	url     string
	http    *http.Client
}

// NewM2OSource creates the Radio m2o source.
func NewM2OSource(client *http.Client) *OnAirSource {
	return &OnAirSource{station: "m2o", url: m2oURL, http: client}
}

// NewCapitalSource creates the Radio Capital source.
func NewCapitalSource(client *http.Client) *OnAirSource {
	return &OnAirSource{station: "cap", url: capitalURL, http: client}
}

// NewOnAirSource creates a source for any station publishing this feed
// shape (and for testing).
func NewOnAirSource(station, url string, client *http.Client) *OnAirSource {
	return &OnAirSource{station: station, url: url, http: client}
}

func (s *OnAirSource) Station() string { return s.station }

// Fetch reads the current track and splits the combined title field.
func (s *OnAirSource) Fetch(ctx context.Context) ([]Observation, error) {
	body, err := getBody(ctx, s.http, s.url)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: %s feed", s.station)
	}

	var parsed struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrapf(err, "ingest: decode %s feed", s.station)
	}

	title, performer, err := splitUpperSuffix(parsed.Title)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: %s feed", s.station)
	}
	return []Observation{{
		Station:   s.station,
		Title:     title,
		Performer: performer,
		Payload:   string(body),
	}}, nil
}

// splitUpperSuffix splits a combined "<Title> <PERFORMER>" field at the
// first space after which no lowercase letter appears; everything before
// is the title, everything after the performer in caps.
func splitUpperSuffix(s string) (title, performer string, err error) {
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsSpace(r) {
			continue
		}
		upperTail := true
		for _, t := range runes[i:] {
			if unicode.IsLetter(t) && unicode.IsLower(t) {
				upperTail = false
				break
			}
		}
		if upperTail {
			return string(runes[:i]), string(runes[i+1:]), nil
		}
	}
	return "", "", eris.Errorf("no uppercase performer suffix in %q", s)
}
