// Package musicbrainz provides a client for the MusicBrainz recording
// search API.
package musicbrainz

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultUserAgent = "radiomon/1.0 (https://github.com/radiomon/radiomon)"

// Release is one recording candidate from a search.
type Release struct {
	Title           string
	Performers      []string
	ISRC            string
	Year            int // 0 when unknown
	Country         string
	DurationSeconds int
}

// Client defines the MusicBrainz search operations.
type Client interface {
	// Search returns recording candidates for a (title, performer) query.
	Search(ctx context.Context, title, performer string) ([]Release, error)
}

// Option configures the MusicBrainz client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithUserAgent overrides the User-Agent header the API requires.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) { c.userAgent = ua }
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a MusicBrainz client. No credentials are needed, but
// the API rejects anonymous user agents.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://musicbrainz.org",
		userAgent: defaultUserAgent,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Recordings []recording `json:"recordings"`
}

type recording struct {
	Title        string `json:"title"`
	LengthMS     int    `json:"length"`
	ISRCs        []string `json:"isrcs"`
	ArtistCredit []struct {
		Name string `json:"name"`
	} `json:"artist-credit"`
	FirstReleaseDate string `json:"first-release-date"`
	Releases         []struct {
		Date    string `json:"date"`
		Country string `json:"country"`
	} `json:"releases"`
}

// Search queries the recording search endpoint. Double quotes in the
// inputs are stripped so they cannot break the Lucene query syntax.
// Recordings that were never released are dropped.
func (c *httpClient) Search(ctx context.Context, title, performer string) ([]Release, error) {
	title = strings.ReplaceAll(title, `"`, "")
	performer = strings.ReplaceAll(performer, `"`, "")

	q := url.Values{}
	q.Set("query", `title:"`+title+`" AND artist:"`+performer+`"`)
	q.Set("inc", "isrcs+media+artist-credits")
	q.Set("fmt", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/ws/2/recording/?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "musicbrainz: build search request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "musicbrainz: search request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "musicbrainz: read search response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("musicbrainz: search status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "musicbrainz: decode search response")
	}

	var releases []Release
	for _, rec := range parsed.Recordings {
		if len(rec.Releases) == 0 {
			continue
		}
		releases = append(releases, rec.release())
	}
	return releases, nil
}

func (rec recording) release() Release {
	r := Release{
		Title:           rec.Title,
		DurationSeconds: rec.LengthMS / 1000,
		Country:         "XW",
	}
	for _, credit := range rec.ArtistCredit {
		r.Performers = append(r.Performers, credit.Name)
	}
	if len(rec.ISRCs) > 0 {
		r.ISRC = rec.ISRCs[0]
	}

	first := rec.Releases[0]
	r.Year = yearOf(first.Date)
	if r.Year == 0 {
		r.Year = yearOf(rec.FirstReleaseDate)
	}
	if first.Country != "" {
		r.Country = first.Country
	}
	if len(r.ISRC) >= 2 {
		r.Country = strings.ToUpper(r.ISRC[:2])
	}
	return r
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
