// Package ingest polls station now-playing feeds and records raw play
// observations.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Observation is one raw now-playing reading from a station feed.
type Observation struct {
	Station    string
	Title      string
	Performer  string
	ObservedAt time.Time
	Payload    string // raw feed body, kept for debugging
}

// Source is one station's now-playing feed.
type Source interface {
	Station() string
	Fetch(ctx context.Context) ([]Observation, error)
}

// Store is the slice of the catalog the recorder writes.
type Store interface {
	InsertPlay(ctx context.Context, stationCode, title, performer string, observedAt time.Time, acquisitionID, payload string, window time.Duration) (bool, error)
}

// Recorder fetches every source and records what is playing. Sources are
// isolated from each other: one failing feed never blocks the rest.
type Recorder struct {
	store   Store
	sources []Source
	window  time.Duration
}

// NewRecorder creates a recorder. window is the duplicate-suppression
// horizon around each observation.
func NewRecorder(store Store, sources []Source, window time.Duration) *Recorder {
	return &Recorder{store: store, sources: sources, window: window}
}

// RunOnce polls every source concurrently under one acquisition id and
// returns how many new plays were recorded. Feed errors are logged per
// source, not returned.
func (r *Recorder) RunOnce(ctx context.Context) (int, error) {
	acquisitionID := uuid.NewString()
	counts := make([]int, len(r.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range r.sources {
		i, src := i, src
		g.Go(func() error {
			n, err := r.record(gctx, src, acquisitionID)
			if err != nil {
				zap.L().Warn("source fetch failed",
					zap.String("station", src.Station()),
					zap.Error(err),
				)
				return nil
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	zap.L().Info("acquisition finished",
		zap.String("acquisition_id", acquisitionID),
		zap.Int("recorded", total),
	)
	return total, nil
}

func (r *Recorder) record(ctx context.Context, src Source, acquisitionID string) (int, error) {
	observations, err := src.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	recorded := 0
	for _, obs := range observations {
		title := strings.TrimSpace(obs.Title)
		performer := strings.TrimSpace(obs.Performer)
		if title == "" && performer == "" {
			continue
		}
		observedAt := obs.ObservedAt
		if observedAt.IsZero() {
			observedAt = time.Now()
		}
		inserted, err := r.store.InsertPlay(ctx, obs.Station, title, performer,
			observedAt, acquisitionID, obs.Payload, r.window)
		if err != nil {
			return recorded, err
		}
		if inserted {
			recorded++
		}
	}
	return recorded, nil
}

// Poll runs RunOnce on a fixed interval until the context is cancelled.
func (r *Recorder) Poll(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
