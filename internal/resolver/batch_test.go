package resolver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"radiomon/internal/catalog"
)

func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()

	s, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.SeedStations(context.Background(), []catalog.Station{
		{Code: "dj", Name: "Radio Deejay"},
	}))
	return s
}

var testBase = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func addPlay(t *testing.T, s *catalog.Store, title, performer string, offset time.Duration) {
	t.Helper()
	inserted, err := s.InsertPlay(context.Background(), "dj", title, performer,
		testBase.Add(offset), "acq-test", "", time.Minute)
	require.NoError(t, err)
	require.True(t, inserted)
}

func newTestBatch(s *catalog.Store, provider Provider, quota int) *Batch {
	return NewBatch(s, NewFinder(s, provider, rate.NewLimiter(rate.Inf, 1)), quota)
}

func TestBatchSpendsQuotaAndResumes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addPlay(t, s, "Creep", "Radiohead", 0)
	addPlay(t, s, "Karma Police", "Radiohead", 10*time.Minute)
	addPlay(t, s, "No Surprises", "Radiohead", 20*time.Minute)

	provider := &fakeProvider{byQuery: map[string][]Release{
		"Creep|radiohead":        {{Title: "Creep", Performers: []string{"Radiohead"}, Year: 1992}},
		"Karma Police|radiohead": {{Title: "Karma Police", Performers: []string{"Radiohead"}, Year: 1997}},
		"No Surprises|radiohead": {{Title: "No Surprises", Performers: []string{"Radiohead"}, Year: 1997}},
	}}

	stats, err := newTestBatch(s, provider, 2).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 2, Settled: 2}, stats)
	assert.Len(t, provider.queries, 2)

	todos, err := s.FindPlayTodos(ctx, 10)
	require.NoError(t, err)
	require.Len(t, todos, 1)

	stats, err = newTestBatch(s, provider, 10).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, Settled: 1}, stats)

	todos, err = s.FindPlayTodos(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestBatchCatalogHitIsFree(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addPlay(t, s, "Creep", "Radiohead", 0)
	provider := &fakeProvider{byQuery: map[string][]Release{
		"Creep|radiohead": {{Title: "Creep", Performers: []string{"Radiohead"}, Year: 1992}},
	}}

	_, err := newTestBatch(s, provider, 5).Run(ctx)
	require.NoError(t, err)
	require.Len(t, provider.queries, 1)

	// A later identical phrasing is settled from the catalog alone.
	addPlay(t, s, "Creep", "Radiohead", 4*time.Hour)
	stats, err := newTestBatch(s, provider, 5).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, Settled: 1}, stats)
	assert.Len(t, provider.queries, 1)
}

func TestBatchUnusableRawGetsSentinel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addPlay(t, s, "", "", 0)
	provider := &fakeProvider{}

	stats, err := newTestBatch(s, provider, 5).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, Pending: 1}, stats)
	assert.Empty(t, provider.queries)

	// The play left the todo set even though it stayed pending.
	todos, err := s.FindPlayTodos(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, todos)

	pending, err := s.NextPending(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, int64(1), pending.SongID)
}

// One empty raw field is as unusable as two: the sentinel is written
// without spending a provider call.
func TestBatchBlankPerformerGetsSentinel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addPlay(t, s, "Waterfalls", "   ", 0)
	provider := &fakeProvider{}

	stats, err := newTestBatch(s, provider, 5).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, Pending: 1}, stats)
	assert.Empty(t, provider.queries)

	todos, err := s.FindPlayTodos(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

// A failing provider degrades to zero candidates for that play; the run
// itself carries on and still writes a sentinel resolution.
func TestBatchProviderErrorDoesNotAbortRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addPlay(t, s, "Creep", "Radiohead", 0)
	provider := &fakeProvider{err: errors.New("boom")}

	stats, err := newTestBatch(s, provider, 5).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, Pending: 1}, stats)
	require.Len(t, provider.queries, 1)

	todos, err := s.FindPlayTodos(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, todos)

	pending, err := s.NextPending(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, int64(1), pending.SongID)
}

func TestBatchProviderMissGetsSentinel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addPlay(t, s, "Completely Unknown", "Nobody", 0)
	provider := &fakeProvider{}

	stats, err := newTestBatch(s, provider, 5).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, Pending: 1}, stats)
	require.Len(t, provider.queries, 1)

	todos, err := s.FindPlayTodos(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, todos)
}
