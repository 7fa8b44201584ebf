package spotify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{
	"tracks": {
		"items": [
			{
				"name": "Waterfalls",
				"duration_ms": 278000,
				"album": {"release_date": "1994-11-15"},
				"artists": [{"name": "TLC"}],
				"external_ids": {"isrc": "USAR19400301"}
			},
			{
				"name": "Waterfalls - Live",
				"duration_ms": 290500,
				"album": {"release_date": ""},
				"artists": [{"name": "TLC"}, {"name": "Someone Else"}],
				"external_ids": {}
			}
		]
	}
}`

func newTestServers(t *testing.T, tokenCalls *atomic.Int64, reject401 *atomic.Bool) (token, api *httptest.Server) {
	t.Helper()

	token = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := tokenCalls.Add(1)
		assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("id:secret")),
			r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		fmt.Fprintf(w, `{"access_token": "tok-%d", "expires_in": 3600}`, n)
	}))
	t.Cleanup(token.Close)

	api = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reject401 != nil && reject401.Load() && r.Header.Get("Authorization") == "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		fmt.Fprint(w, searchBody)
	}))
	t.Cleanup(api.Close)

	return token, api
}

func TestSearchParsesReleases(t *testing.T) {
	var tokenCalls atomic.Int64
	token, api := newTestServers(t, &tokenCalls, nil)

	client := NewClient("id:secret", WithTokenURL(token.URL), WithBaseURL(api.URL))

	releases, err := client.Search(context.Background(), "waterfalls", "tlc")
	require.NoError(t, err)
	require.Len(t, releases, 2)

	assert.Equal(t, Release{
		Title:           "Waterfalls",
		Performers:      []string{"TLC"},
		ISRC:            "USAR19400301",
		Year:            1994,
		Country:         "US",
		DurationSeconds: 278,
	}, releases[0])

	assert.Equal(t, 0, releases[1].Year)
	assert.Equal(t, "XX", releases[1].Country)
	assert.Equal(t, []string{"TLC", "Someone Else"}, releases[1].Performers)
}

func TestSearchReusesToken(t *testing.T) {
	var tokenCalls atomic.Int64
	token, api := newTestServers(t, &tokenCalls, nil)

	client := NewClient("id:secret", WithTokenURL(token.URL), WithBaseURL(api.URL))

	for i := 0; i < 3; i++ {
		_, err := client.Search(context.Background(), "waterfalls", "tlc")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), tokenCalls.Load())
}

func TestSearchRefreshesOn401(t *testing.T) {
	var tokenCalls atomic.Int64
	var reject atomic.Bool
	token, api := newTestServers(t, &tokenCalls, &reject)

	client := NewClient("id:secret", WithTokenURL(token.URL), WithBaseURL(api.URL))

	_, err := client.Search(context.Background(), "waterfalls", "tlc")
	require.NoError(t, err)

	// The first token stops working mid-session.
	reject.Store(true)

	releases, err := client.Search(context.Background(), "waterfalls", "tlc")
	require.NoError(t, err)
	assert.Len(t, releases, 2)
	assert.Equal(t, int64(2), tokenCalls.Load())
}

func TestSearchErrorStatus(t *testing.T) {
	var tokenCalls atomic.Int64
	token, _ := newTestServers(t, &tokenCalls, nil)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(api.Close)

	client := NewClient("id:secret", WithTokenURL(token.URL), WithBaseURL(api.URL))

	_, err := client.Search(context.Background(), "waterfalls", "tlc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
