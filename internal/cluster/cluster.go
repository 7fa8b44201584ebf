// Package cluster drives the offline duplicate-work review: walking the
// master songs in id order, proposing lookalike partners and recording the
// reviewer's verdicts as pairwise adjudications and work edges.
package cluster

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"radiomon/internal/catalog"
	"radiomon/internal/match"
)

// Partners scoring above this are worth a reviewer's attention.
const sameWorkFloor = 0.7

// Store is the slice of the catalog the cluster run needs.
type Store interface {
	NextMasterSong(ctx context.Context, afterID int64) (*catalog.MasterSong, error)
	MasterSongsAfter(ctx context.Context, minID int64) ([]catalog.MasterSong, error)
	SaveWorkReview(ctx context.Context, songID int64, otherIDs []int64, same bool) error
	UpdateSongMeta(ctx context.Context, songID int64, year *int, country string) error
}

// Partner is a lookalike song proposed alongside a master.
type Partner struct {
	catalog.MasterSong
	Score float64
}

// View is what a reviewer sees for one master song.
type View struct {
	Master   catalog.MasterSong
	Partners []Partner
}

// ActionOp enumerates what a reviewer can do with a proposed cluster.
type ActionOp int

const (
	// OpJoin merges the listed songs into the master's work.
	OpJoin ActionOp = iota
	// OpDifferent declares every shown partner a different work.
	OpDifferent
	// OpEdit corrects the master's metadata and re-presents it.
	OpEdit
	// OpSkip moves on without recording anything.
	OpSkip
	// OpQuit ends the session.
	OpQuit
)

// Action is a reviewer's verdict for one presented cluster.
type Action struct {
	Op       ActionOp
	MasterID int64   // OpJoin: the song the others merge into; 0 means the presented song
	JoinIDs  []int64 // OpJoin: songs that are the same work as the chosen master
	Year     *int    // OpEdit
	Country  string  // OpEdit
}

// Reviewer adjudicates proposed clusters, one master at a time.
type Reviewer interface {
	ReviewCluster(view View) (Action, error)
}

// Runner walks the master songs and settles their duplicate candidates.
type Runner struct {
	store    Store
	reviewer Reviewer
}

// NewRunner creates a cluster review session.
func NewRunner(store Store, reviewer Reviewer) *Runner {
	return &Runner{store: store, reviewer: reviewer}
}

// Run processes master songs in id order until none remain or the
// reviewer quits. Partners are only sought past each master's review
// frontier, so a master whose highest adjudicated partner precedes a
// newly arrived lookalike will see it; pairs below the frontier are never
// re-asked.
func (r *Runner) Run(ctx context.Context) error {
	var after int64
	for {
		master, err := r.store.NextMasterSong(ctx, after)
		if err != nil {
			return err
		}
		if master == nil {
			return nil
		}
		advance, quit, err := r.reviewMaster(ctx, *master)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
		if advance {
			after = master.SongID
		}
	}
}

func (r *Runner) reviewMaster(ctx context.Context, master catalog.MasterSong) (advance, quit bool, err error) {
	frontier := master.SongID
	if master.ReviewedUntil > frontier {
		frontier = master.ReviewedUntil
	}

	candidates, err := r.store.MasterSongsAfter(ctx, frontier)
	if err != nil {
		return false, false, err
	}
	if len(candidates) == 0 {
		return true, false, nil
	}
	// Candidates come back id-ascending; the last one bounds the stretch
	// this pass examined.
	lastExamined := candidates[len(candidates)-1].SongID

	var partners []Partner
	for _, c := range candidates {
		score := match.Score(master.Title, master.Performers, c.Title, c.Performers)
		if score > sameWorkFloor {
			partners = append(partners, Partner{MasterSong: c, Score: score})
		}
	}
	if len(partners) == 0 {
		// Nothing worth asking about: record the furthest examined id as
		// a different work so the frontier advances past this stretch.
		err := r.store.SaveWorkReview(ctx, master.SongID, []int64{lastExamined}, false)
		return err == nil, false, err
	}
	sort.SliceStable(partners, func(i, j int) bool {
		return partners[i].Score > partners[j].Score
	})

	shown := make(map[int64]bool, len(partners))
	for _, p := range partners {
		shown[p.SongID] = true
	}

	for {
		action, err := r.reviewer.ReviewCluster(View{Master: master, Partners: partners})
		if err != nil {
			return false, false, err
		}

		switch action.Op {
		case OpQuit:
			return false, true, nil
		case OpSkip:
			return true, false, nil

		case OpEdit:
			if err := r.store.UpdateSongMeta(ctx, master.SongID, action.Year, action.Country); err != nil {
				return false, false, err
			}
			// Metadata changed under the reviewer: present the master again.
			return false, false, nil

		case OpDifferent:
			err := r.store.SaveWorkReview(ctx, master.SongID, partnerIDs(partners), false)
			return err == nil, false, err

		case OpJoin:
			joinMaster, children, ok := validJoin(master.SongID, shown, action.MasterID, action.JoinIDs)
			if !ok {
				zap.L().Warn("join rejected: song id outside the shown set",
					zap.Int64("song_id", master.SongID))
				continue
			}
			if err := r.saveJoin(ctx, master.SongID, joinMaster, children, lastExamined); err != nil {
				return false, false, err
			}
			return true, false, nil

		default:
			return false, false, nil
		}
	}
}

// saveJoin records same-work pairs and edges from the chosen master to
// each child, then a not-same pair pushing the presented song's frontier
// past everything examined this pass.
func (r *Runner) saveJoin(ctx context.Context, songID, joinMaster int64, children []int64, lastExamined int64) error {
	if err := r.store.SaveWorkReview(ctx, joinMaster, children, true); err != nil {
		return err
	}
	return r.store.SaveWorkReview(ctx, songID, []int64{lastExamined}, false)
}

// validJoin checks a proposed merge against the shown partners plus the
// presented song itself. A zero master defaults to the presented song; the
// master showing up among the children is tolerated and dropped. Any id
// outside the shown set rejects the whole join with nothing written.
func validJoin(songID int64, shown map[int64]bool, masterID int64, ids []int64) (int64, []int64, bool) {
	if masterID == 0 {
		masterID = songID
	}
	if masterID != songID && !shown[masterID] {
		return 0, nil, false
	}
	children := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == masterID {
			continue
		}
		if id != songID && !shown[id] {
			return 0, nil, false
		}
		children = append(children, id)
	}
	if len(children) == 0 {
		return 0, nil, false
	}
	return masterID, children, true
}

func partnerIDs(partners []Partner) []int64 {
	ids := make([]int64, len(partners))
	for i, p := range partners {
		ids[i] = p.SongID
	}
	return ids
}
