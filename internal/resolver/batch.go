package resolver

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"radiomon/internal/catalog"
	"radiomon/internal/match"
	"radiomon/internal/song"
)

// BatchStore is the slice of the catalog the batch run writes.
type BatchStore interface {
	FindPlayTodos(ctx context.Context, limit int) ([]catalog.PlayTodo, error)
	PersistCandidates(ctx context.Context, byPlay map[int64]song.SortedList) error
	PersistResolution(ctx context.Context, byPlay map[int64]song.SortedList, reasonTag string) (map[int64]bool, error)
}

// Batch resolves unprocessed plays in rounds, spending at most quota
// external provider calls per run. Catalog hits are free and do not count
// against the quota.
type Batch struct {
	store  BatchStore
	finder *Finder
	quota  int
}

// NewBatch creates a batch runner. Provider pacing is the finder's job.
func NewBatch(store BatchStore, finder *Finder, quota int) *Batch {
	return &Batch{store: store, finder: finder, quota: quota}
}

// Stats summarises one batch run.
type Stats struct {
	Processed int
	Settled   int
	Pending   int
}

// Run drains the todo set until it is empty or the provider quota is
// spent. Each round fetches at most the remaining quota of todos, builds
// candidate lists, deduplicates songs across the round and persists
// candidates and resolutions together.
func (b *Batch) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	remaining := b.quota

	for remaining > 0 {
		todos, err := b.store.FindPlayTodos(ctx, remaining)
		if err != nil {
			return stats, err
		}
		if len(todos) == 0 {
			break
		}

		byPlay := make(map[int64]song.SortedList, len(todos))
		fromCatalog := make(map[int64]bool, len(todos))
		for _, todo := range todos {
			if remaining == 0 {
				break
			}
			list, usedProvider, err := b.listFor(ctx, todo)
			if err != nil {
				return stats, err
			}
			if usedProvider {
				remaining--
			}
			byPlay[todo.PlayID] = list
			fromCatalog[todo.PlayID] = !usedProvider && !list.Empty() && !list.Top().Sentinel()
		}
		if len(byPlay) == 0 {
			break
		}

		deduped, err := match.Dedup(byPlay)
		if err != nil {
			return stats, eris.Wrap(err, "resolver: dedup batch")
		}
		if err := b.store.PersistCandidates(ctx, deduped); err != nil {
			return stats, err
		}

		// Catalog evidence and provider evidence settle under distinct
		// statuses.
		catalogBatch := make(map[int64]song.SortedList)
		providerBatch := make(map[int64]song.SortedList)
		for playID, list := range deduped {
			if fromCatalog[playID] {
				catalogBatch[playID] = list
			} else {
				providerBatch[playID] = list
			}
		}
		for _, part := range []struct {
			byPlay map[int64]song.SortedList
			tag    string
		}{
			{catalogBatch, "db"},
			{providerBatch, "auto"},
		} {
			if len(part.byPlay) == 0 {
				continue
			}
			settled, err := b.store.PersistResolution(ctx, part.byPlay, part.tag)
			if err != nil {
				return stats, err
			}
			for _, ok := range settled {
				stats.Processed++
				if ok {
					stats.Settled++
				} else {
					stats.Pending++
				}
			}
		}
	}

	zap.L().Info("batch run finished",
		zap.Int("processed", stats.Processed),
		zap.Int("settled", stats.Settled),
		zap.Int("pending", stats.Pending),
		zap.Int("provider_calls", b.quota-remaining),
	)
	return stats, nil
}

// listFor builds one play's candidate list. An empty raw title or
// performer short-circuits to the no-observation sentinel without a
// provider call; so does a search that finds nothing, so the play leaves
// the todo set either way.
func (b *Batch) listFor(ctx context.Context, todo catalog.PlayTodo) (song.SortedList, bool, error) {
	if song.Fold(todo.Title) == "" || song.Fold(todo.Performer) == "" {
		return song.SentinelList(song.NoObservationCandidate()), false, nil
	}

	list, usedProvider, err := b.finder.FindCandidates(ctx, todo.Title, todo.Performer)
	if err != nil {
		return song.SortedList{}, usedProvider, err
	}
	if list.Empty() {
		return song.SentinelList(song.NoObservationCandidate()), usedProvider, nil
	}
	return list, usedProvider, nil
}
