package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"radiomon/internal/catalog"
	"radiomon/internal/match"
	"radiomon/internal/song"
)

// At most this many candidates survive per play.
const maxCandidates = 5

// Searcher is the slice of the catalog the finder reads.
type Searcher interface {
	SearchAliases(ctx context.Context, title, performer string) ([]catalog.AliasHit, error)
}

// Finder builds scored candidate lists for a raw (title, performer) pair,
// consulting the catalog's alias index first and an external provider when
// the catalog has nothing.
type Finder struct {
	store    Searcher
	provider Provider
	limiter  *rate.Limiter
}

// NewFinder creates a finder over the given catalog slice and fallback
// provider. A non-nil limiter paces the provider calls; catalog searches
// are never paced.
func NewFinder(store Searcher, provider Provider, limiter *rate.Limiter) *Finder {
	return &Finder{store: store, provider: provider, limiter: limiter}
}

// FindCandidates returns the candidate list for a raw pair and whether the
// external provider was consulted. Catalog hits win outright: the provider
// is only queried when the alias index returns nothing at all.
func (f *Finder) FindCandidates(ctx context.Context, title, performer string) (song.SortedList, bool, error) {
	list, err := f.FromCatalog(ctx, title, performer)
	if err != nil {
		return song.SortedList{}, false, err
	}
	if !list.Empty() {
		return list, false, nil
	}
	list, err = f.FromProvider(ctx, f.provider, title, performer)
	return list, true, err
}

// FromCatalog searches the alias index and rescores every hit against the
// canonical song behind it, collapsing hits per song. A raw pair that
// equals the matched phrasing itself was once confirmed to mean that song,
// so it scores 1.0 no matter how far the canonical strings drifted.
func (f *Finder) FromCatalog(ctx context.Context, title, performer string) (song.SortedList, error) {
	hits, err := f.store.SearchAliases(ctx, title, performer)
	if err != nil {
		return song.SortedList{}, err
	}

	best := make(map[int64]float64)
	order := make([]int64, 0, len(hits))
	for _, h := range hits {
		score := match.Score(title, performer, h.SongTitle, h.SongPerformers)
		if match.Score(title, performer, h.AliasTitle, h.AliasPerformers) == 1 {
			score = 1
		}
		if prev, seen := best[h.SongID]; !seen {
			best[h.SongID] = score
			order = append(order, h.SongID)
		} else if score > prev {
			best[h.SongID] = score
		}
	}

	candidates := make([]song.Candidate, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, song.NewByID(id, best[id], "alias"))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return song.NewSortedList(candidates)
}

// FromProvider queries an external provider with the core title and the
// first billed performer, scores the releases against the full raw pair
// and keeps the five oldest plausible ones. When a compound "A X B" credit
// finds nothing, the first artist alone is tried once more. A failing
// provider is logged and yields no candidates; it never fails the caller.
func (f *Finder) FromProvider(ctx context.Context, provider Provider, title, performer string) (song.SortedList, error) {
	queryTitle := match.CoreTitle(title)
	queryPerformer := match.PrimaryPerformer(performer)

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return song.SortedList{}, eris.Wrap(err, "resolver: wait for provider slot")
		}
	}
	releases, err := provider.Search(ctx, queryTitle, queryPerformer)
	if err != nil {
		zap.L().Warn("provider search failed",
			zap.String("provider", provider.Name()),
			zap.Error(err),
		)
		return song.SortedList{}, nil
	}
	if len(releases) == 0 {
		if head, ok := compoundHead(queryPerformer); ok {
			zap.L().Debug("retrying provider with compound head",
				zap.String("provider", provider.Name()),
				zap.String("performer", head),
			)
			releases, err = provider.Search(ctx, queryTitle, head)
			if err != nil {
				zap.L().Warn("provider retry failed",
					zap.String("provider", provider.Name()),
					zap.Error(err),
				)
				return song.SortedList{}, nil
			}
		}
	}

	candidates := make([]song.Candidate, 0, len(releases))
	for _, rel := range releases {
		sg := song.Song{
			Title:      rel.Title,
			Performers: strings.Join(rel.Performers, ", "),
			Credits:    rel.Performers,
			ISRC:       rel.ISRC,
			Year:       rel.Year,
			Country:    rel.Country,
			Duration:   rel.DurationSeconds,
		}
		candidates = append(candidates, song.NewBySong(sg, scoreRelease(title, performer, sg), provider.Name()))
	}

	// Old, well-scoring pressings first, so the canonical song carries the
	// original release year rather than a reissue's. Scores are floored
	// above zero and an unknown year ranks before any known one.
	sort.SliceStable(candidates, func(i, j int) bool {
		ri := float64(candidates[i].Song.Year) / candidates[i].Score
		rj := float64(candidates[j].Song.Year) / candidates[j].Score
		return ri < rj
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return song.NewSortedList(candidates)
}

// scoreRelease scores a release as the best of its joined credit string
// and each individual credit, floored at 0.01 so a release is never
// indistinguishable from absence.
func scoreRelease(rawTitle, rawPerformer string, sg song.Song) float64 {
	best := match.Score(rawTitle, rawPerformer, sg.Title, sg.Performers)
	for _, credit := range sg.Credits {
		if s := match.Score(rawTitle, rawPerformer, sg.Title, credit); s > best {
			best = s
		}
	}
	if best < 0.01 {
		best = 0.01
	}
	return best
}

// compoundHead splits an "A X B" collaboration credit, returning the first
// artist and whether the credit was compound.
func compoundHead(performer string) (string, bool) {
	head, _, found := strings.Cut(performer, " x ")
	head = strings.TrimSpace(head)
	if !found || head == "" || head == performer {
		return "", false
	}
	return head, true
}
