package resolver

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"radiomon/internal/catalog"
	"radiomon/internal/match"
	"radiomon/internal/song"
)

// ReviewStore is the slice of the catalog the review loop needs.
type ReviewStore interface {
	Searcher
	NextPending(ctx context.Context, afterID int64) (*catalog.PendingPlay, error)
	CountPending(ctx context.Context, afterID int64) (int, error)
	GetPlay(ctx context.Context, playID int64) (string, string, error)
	CandidateRows(ctx context.Context, playID int64) ([]catalog.CandidateRow, error)
	SongIDByKey(ctx context.Context, key string) (int64, bool, error)
	PersistCandidates(ctx context.Context, byPlay map[int64]song.SortedList) error
	PersistResolution(ctx context.Context, byPlay map[int64]song.SortedList, reasonTag string) (map[int64]bool, error)
	RecordAlias(ctx context.Context, playID, songID int64, source string) error
	UpdateSongMeta(ctx context.Context, songID int64, year *int, country string) error
}

// PlayView is what a reviewer sees for one pending play.
type PlayView struct {
	PlayID      int64
	Title       string
	Performer   string
	Remaining   int
	Candidates  []catalog.CandidateRow
	SuggestedID int64 // 0 when no automatic suggestion exists
}

// ActionOp enumerates what a reviewer can do with a pending play.
type ActionOp int

const (
	// OpPick resolves the play to a listed candidate song.
	OpPick ActionOp = iota
	// OpAccept resolves to the automatic suggestion.
	OpAccept
	// OpSpotify fetches fresh candidates from Spotify.
	OpSpotify
	// OpMusicBrainz fetches fresh candidates from MusicBrainz.
	OpMusicBrainz
	// OpManual resolves to a song typed in by the reviewer.
	OpManual
	// OpIgnore discards the play as not-a-song.
	OpIgnore
	// OpEdit corrects a listed song's year/country and re-presents.
	OpEdit
	// OpSkip leaves the play pending and moves on.
	OpSkip
	// OpQuit ends the session.
	OpQuit
)

// Action is a reviewer's decision for one presented play.
type Action struct {
	Op        ActionOp
	SongID    int64  // OpPick, OpEdit
	Title     string // OpManual
	Performer string // OpManual
	Year      *int   // OpEdit
	Country   string // OpEdit
}

// PlayReviewer adjudicates pending plays, one at a time.
type PlayReviewer interface {
	ReviewPlay(view PlayView) (Action, error)
}

// Review walks the pending plays in id order and settles them with a
// reviewer's help.
type Review struct {
	store    ReviewStore
	spotify  Provider
	mbrainz  Provider
	reviewer PlayReviewer
}

// NewReview creates a review session.
func NewReview(store ReviewStore, spotifyP, mbrainzP Provider, reviewer PlayReviewer) *Review {
	return &Review{store: store, spotify: spotifyP, mbrainz: mbrainzP, reviewer: reviewer}
}

// Run processes pending plays until none remain or the reviewer quits.
// Skipped plays stay pending and are not revisited within the session.
func (r *Review) Run(ctx context.Context) error {
	var after int64
	for {
		pending, err := r.store.NextPending(ctx, after)
		if err != nil {
			return err
		}
		if pending == nil {
			return nil
		}
		resolved, quit, err := r.reviewOne(ctx, pending.PlayID)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
		if !resolved {
			after = pending.PlayID
		}
	}
}

// reviewOne settles a single play. Before involving the reviewer it
// re-runs the catalog search: an alias learned since the play went
// pending may now settle it unattended, tagged as catalog evidence.
func (r *Review) reviewOne(ctx context.Context, playID int64) (resolved, quit bool, err error) {
	title, performer, err := r.store.GetPlay(ctx, playID)
	if err != nil {
		return false, false, err
	}

	settled, err := r.recheckCatalog(ctx, playID, title, performer)
	if err != nil {
		return false, false, err
	}
	if settled {
		zap.L().Info("pending play settled by catalog recheck",
			zap.Int64("play_id", playID))
		return true, false, nil
	}

	finder := &Finder{store: r.store}
	for {
		rows, err := r.store.CandidateRows(ctx, playID)
		if err != nil {
			return false, false, err
		}
		remaining, err := r.store.CountPending(ctx, 0)
		if err != nil {
			return false, false, err
		}
		suggested, _ := Suggest(title, performer, rows)

		action, err := r.reviewer.ReviewPlay(PlayView{
			PlayID:      playID,
			Title:       title,
			Performer:   performer,
			Remaining:   remaining,
			Candidates:  rows,
			SuggestedID: suggested,
		})
		if err != nil {
			return false, false, err
		}

		switch action.Op {
		case OpQuit:
			return false, true, nil
		case OpSkip:
			return false, false, nil

		case OpIgnore:
			_, err := r.store.PersistResolution(ctx, map[int64]song.SortedList{
				playID: song.SentinelList(song.IgnoredCandidate()),
			}, "human")
			return err == nil, false, err

		case OpAccept:
			if suggested == 0 {
				continue
			}
			err := r.saveHuman(ctx, playID, suggested)
			return err == nil, false, err

		case OpPick:
			if !listedSong(rows, action.SongID) {
				continue
			}
			err := r.saveHuman(ctx, playID, action.SongID)
			return err == nil, false, err

		case OpSpotify:
			settled, err := r.fetchFresh(ctx, finder, r.spotify, playID, title, performer, "mspotify")
			if err != nil {
				return false, false, err
			}
			if settled {
				return true, false, nil
			}

		case OpMusicBrainz:
			settled, err := r.fetchFresh(ctx, finder, r.mbrainz, playID, title, performer, "mbrainz")
			if err != nil {
				return false, false, err
			}
			if settled {
				return true, false, nil
			}

		case OpManual:
			if action.Title == "" || action.Performer == "" {
				continue
			}
			err := r.saveManual(ctx, playID, action.Title, action.Performer)
			return err == nil, false, err

		case OpEdit:
			if !listedSong(rows, action.SongID) {
				continue
			}
			if err := r.store.UpdateSongMeta(ctx, action.SongID, action.Year, action.Country); err != nil {
				return false, false, err
			}
			// Metadata changed under the reviewer: present the play again.

		default:
			return false, false, eris.Errorf("resolver: unknown review action %d", action.Op)
		}
	}
}

// recheckCatalog re-runs the alias search for the play and lets the
// decision rules settle it when the evidence is now strong enough.
func (r *Review) recheckCatalog(ctx context.Context, playID int64, title, performer string) (bool, error) {
	finder := &Finder{store: r.store}
	list, err := finder.FromCatalog(ctx, title, performer)
	if err != nil {
		return false, err
	}
	if list.Empty() {
		return false, nil
	}
	batch := map[int64]song.SortedList{playID: list}
	if err := r.store.PersistCandidates(ctx, batch); err != nil {
		return false, err
	}
	if _, status := match.Decide(list, "db"); status == match.StatusPending {
		// Candidates recorded for the reviewer, resolution untouched.
		return false, nil
	}
	settled, err := r.store.PersistResolution(ctx, batch, "db")
	if err != nil {
		return false, err
	}
	return settled[playID], nil
}

// fetchFresh pulls provider candidates for the play, audits them and
// re-runs the decision rules on the fresh evidence, so a confident retry
// settles the play under the provider tag without another prompt.
func (r *Review) fetchFresh(ctx context.Context, finder *Finder, provider Provider, playID int64, title, performer, reasonTag string) (bool, error) {
	list, err := finder.FromProvider(ctx, provider, title, performer)
	if err != nil {
		return false, err
	}
	if list.Empty() {
		return false, nil
	}
	batch := map[int64]song.SortedList{playID: list}
	if err := r.store.PersistCandidates(ctx, batch); err != nil {
		return false, err
	}
	settled, err := r.store.PersistResolution(ctx, batch, reasonTag)
	if err != nil {
		return false, err
	}
	return settled[playID], nil
}

// saveHuman resolves the play to songID with full confidence and records
// the play's raw phrasing as an alias of the song.
func (r *Review) saveHuman(ctx context.Context, playID, songID int64) error {
	list, err := song.NewSortedList([]song.Candidate{song.NewByID(songID, 1, "manual")})
	if err != nil {
		return err
	}
	batch := map[int64]song.SortedList{playID: list}
	if err := r.store.PersistCandidates(ctx, batch); err != nil {
		return err
	}
	if _, err := r.store.PersistResolution(ctx, batch, "human"); err != nil {
		return err
	}
	return r.store.RecordAlias(ctx, playID, songID, "manual")
}

// saveManual creates a reviewer-described song and resolves the play to
// it.
func (r *Review) saveManual(ctx context.Context, playID int64, title, performer string) error {
	sg := song.Song{Title: title, Performers: performer, Credits: []string{performer}}
	list, err := song.NewSortedList([]song.Candidate{song.NewBySong(sg, 1, "manual")})
	if err != nil {
		return err
	}
	batch := map[int64]song.SortedList{playID: list}
	if err := r.store.PersistCandidates(ctx, batch); err != nil {
		return err
	}
	if _, err := r.store.PersistResolution(ctx, batch, "human"); err != nil {
		return err
	}
	songID, ok, err := r.store.SongIDByKey(ctx, sg.Key())
	if err != nil {
		return err
	}
	if !ok {
		return eris.Errorf("resolver: manual song %q missing after persist", sg.Key())
	}
	return r.store.RecordAlias(ctx, playID, songID, "manual")
}

func listedSong(rows []catalog.CandidateRow, songID int64) bool {
	for _, r := range rows {
		if r.SongID == songID {
			return true
		}
	}
	return false
}
