// Package spotify provides a client for the Spotify track-search API with
// client-credentials authentication.
package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Release is one ranked track candidate from a provider search.
type Release struct {
	Title           string
	Performers      []string
	ISRC            string
	Year            int // 0 when unknown
	Country         string
	DurationSeconds int
}

// Client defines the Spotify search operations.
type Client interface {
	// Search returns ranked track candidates for a (title, performer) query.
	Search(ctx context.Context, title, performer string) ([]Release, error)
}

// Option configures the Spotify client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithTokenURL sets a custom token endpoint (for testing).
func WithTokenURL(u string) Option {
	return func(c *httpClient) { c.tokenURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithTokenTTL caps how long a fetched access token is reused.
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *httpClient) { c.tokenTTL = ttl }
}

type httpClient struct {
	creds    string // "client_id:client_secret"
	baseURL  string
	tokenURL string
	tokenTTL time.Duration
	http     *http.Client

	token tokenHolder
}

// NewClient creates a Spotify client. creds is the "client_id:client_secret"
// pair used for the client-credentials grant.
func NewClient(creds string, opts ...Option) Client {
	c := &httpClient{
		creds:    creds,
		baseURL:  "https://api.spotify.com",
		tokenURL: "https://accounts.spotify.com/api/token",
		tokenTTL: 50 * time.Minute,
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
	Tracks struct {
		Items []trackItem `json:"items"`
	} `json:"tracks"`
}

type trackItem struct {
	Name       string `json:"name"`
	DurationMS int    `json:"duration_ms"`
	Album      struct {
		ReleaseDate string `json:"release_date"`
	} `json:"album"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	ExternalIDs struct {
		ISRC string `json:"isrc"`
	} `json:"external_ids"`
}

// Search queries the track-search endpoint. A 401 invalidates the cached
// access token and the request is retried once with a fresh one.
func (c *httpClient) Search(ctx context.Context, title, performer string) ([]Release, error) {
	body, status, err := c.searchOnce(ctx, title, performer)
	if status == http.StatusUnauthorized {
		c.token.invalidate()
		body, status, err = c.searchOnce(ctx, title, performer)
	}
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("spotify: search status %d: %s", status, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "spotify: decode search response")
	}

	releases := make([]Release, 0, len(parsed.Tracks.Items))
	for _, item := range parsed.Tracks.Items {
		releases = append(releases, item.release())
	}
	return releases, nil
}

func (item trackItem) release() Release {
	r := Release{
		Title:           item.Name,
		ISRC:            item.ExternalIDs.ISRC,
		DurationSeconds: item.DurationMS / 1000,
		Country:         "XX",
	}
	for _, a := range item.Artists {
		r.Performers = append(r.Performers, a.Name)
	}
	if len(item.Album.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(item.Album.ReleaseDate[:4]); err == nil {
			r.Year = y
		}
	}
	if len(r.ISRC) >= 2 {
		r.Country = strings.ToUpper(r.ISRC[:2])
	}
	return r
}

func (c *httpClient) searchOnce(ctx context.Context, title, performer string) ([]byte, int, error) {
	token, err := c.token.get(ctx, c.fetchToken)
	if err != nil {
		return nil, 0, err
	}

	q := url.Values{}
	q.Set("q", title+" artist:"+performer)
	q.Set("type", "track")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/search?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "spotify: build search request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, eris.Wrap(err, "spotify: search request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "spotify: read search response")
	}
	return body, resp.StatusCode, nil
}

func (c *httpClient) fetchToken(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, eris.Wrap(err, "spotify: build token request")
	}
	req.Header.Set("Authorization",
		"Basic "+base64.StdEncoding.EncodeToString([]byte(c.creds)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, eris.Wrap(err, "spotify: token request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, eris.Wrap(err, "spotify: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, eris.Errorf("spotify: token status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", 0, eris.Wrap(err, "spotify: decode token response")
	}
	if parsed.AccessToken == "" {
		return "", 0, eris.New("spotify: empty access token")
	}

	ttl := c.tokenTTL
	if granted := time.Duration(parsed.ExpiresIn) * time.Second; granted > 0 && granted < ttl {
		ttl = granted
	}
	return parsed.AccessToken, ttl, nil
}
