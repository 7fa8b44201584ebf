package cluster

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radiomon/internal/catalog"
	"radiomon/internal/song"
)

type scriptedReviewer struct {
	t     *testing.T
	steps []func(View) Action
	views []View
}

func (r *scriptedReviewer) ReviewCluster(view View) (Action, error) {
	r.views = append(r.views, view)
	require.NotEmpty(r.t, r.steps, "unexpected cluster prompt for song %d", view.Master.SongID)
	step := r.steps[0]
	r.steps = r.steps[1:]
	return step(view), nil
}

type fixture struct {
	store  *catalog.Store
	offset time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.SeedStations(ctx, []catalog.Station{{Code: "dj", Name: "Radio Deejay"}}))
	return &fixture{store: s}
}

// addSong creates a resolved song through the normal play pipeline and
// returns its id.
func (f *fixture) addSong(t *testing.T, title, performers string, year int) int64 {
	t.Helper()
	ctx := context.Background()

	f.offset += 10 * time.Minute
	inserted, err := f.store.InsertPlay(ctx, "dj", title, performers,
		time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC).Add(f.offset), "acq-test", "", time.Minute)
	require.NoError(t, err)
	require.True(t, inserted)

	todos, err := f.store.FindPlayTodos(ctx, 100)
	require.NoError(t, err)
	playID := todos[len(todos)-1].PlayID

	list, err := song.NewSortedList([]song.Candidate{
		song.NewBySong(song.Song{Title: title, Performers: performers, Year: year}, 0.95, "spotify"),
	})
	require.NoError(t, err)

	batch := map[int64]song.SortedList{playID: list}
	require.NoError(t, f.store.PersistCandidates(ctx, batch))
	_, err = f.store.PersistResolution(ctx, batch, "auto")
	require.NoError(t, err)

	sg := song.Song{Title: title, Performers: performers}
	id, ok, err := f.store.SongIDByKey(ctx, sg.Key())
	require.NoError(t, err)
	require.True(t, ok)
	return id
}

func (f *fixture) masterIDs(t *testing.T) []int64 {
	t.Helper()
	masters, err := f.store.MasterSongsAfter(context.Background(), 0)
	require.NoError(t, err)
	ids := make([]int64, len(masters))
	for i, m := range masters {
		ids[i] = m.SongID
	}
	return ids
}

func TestRunJoinMergesPartner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addSong(t, "Waterfalls", "TLC", 1994)
	b := f.addSong(t, "Waterfalls (Live)", "TLC", 2003)
	c := f.addSong(t, "Creep", "Radiohead", 1992)

	reviewer := &scriptedReviewer{t: t, steps: []func(View) Action{
		func(v View) Action {
			require.Equal(t, a, v.Master.SongID)
			require.Len(t, v.Partners, 1)
			assert.Equal(t, b, v.Partners[0].SongID)
			assert.Greater(t, v.Partners[0].Score, sameWorkFloor)
			return Action{Op: OpJoin, JoinIDs: []int64{b}}
		},
	}}

	require.NoError(t, NewRunner(f.store, reviewer).Run(ctx))

	// The live version merged away; the two works remain masters.
	assert.Equal(t, []int64{a, c}, f.masterIDs(t))

	// The frontier advanced past everything examined this pass, not just
	// the shown partner.
	m, err := f.store.NextMasterSong(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, c, m.ReviewedUntil)
}

// The reviewer may pick any shown song as the merge target, including
// demoting the presented song itself to a child.
func TestRunJoinIntoChosenMaster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addSong(t, "Waterfalls", "TLC", 0)
	b := f.addSong(t, "Waterfalls (Single Version)", "TLC", 1995)

	reviewer := &scriptedReviewer{t: t, steps: []func(View) Action{
		func(v View) Action {
			require.Equal(t, a, v.Master.SongID)
			return Action{Op: OpJoin, MasterID: b, JoinIDs: []int64{a}}
		},
	}}
	require.NoError(t, NewRunner(f.store, reviewer).Run(ctx))

	// The presented song merged into its partner.
	assert.Equal(t, []int64{b}, f.masterIDs(t))
}

func TestRunDifferentKeepsBothMasters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addSong(t, "Waterfalls", "TLC", 1994)
	b := f.addSong(t, "Waterfalls (Live)", "TLC", 2003)

	reviewer := &scriptedReviewer{t: t, steps: []func(View) Action{
		func(v View) Action { return Action{Op: OpDifferent} },
	}}
	require.NoError(t, NewRunner(f.store, reviewer).Run(ctx))

	assert.Equal(t, []int64{a, b}, f.masterIDs(t))

	// Re-running has nothing left to ask.
	quiet := &scriptedReviewer{t: t}
	require.NoError(t, NewRunner(f.store, quiet).Run(ctx))
	assert.Empty(t, quiet.views)
}

func TestRunJoinRejectsUnlistedID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addSong(t, "Waterfalls", "TLC", 1994)
	b := f.addSong(t, "Waterfalls (Remix)", "TLC", 1995)

	reviewer := &scriptedReviewer{t: t, steps: []func(View) Action{
		func(v View) Action { return Action{Op: OpJoin, JoinIDs: []int64{999}} },
		func(v View) Action { return Action{Op: OpJoin, JoinIDs: []int64{a, b}} },
	}}
	require.NoError(t, NewRunner(f.store, reviewer).Run(ctx))

	// The bad join wrote nothing and the master was re-presented.
	assert.Len(t, reviewer.views, 2)
	assert.Equal(t, []int64{a}, f.masterIDs(t))
}

func TestRunEditRepresentsMaster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addSong(t, "Waterfalls", "TLC", 0)
	f.addSong(t, "Waterfalls (Single Version)", "TLC", 1995)

	year := 1994
	reviewer := &scriptedReviewer{t: t, steps: []func(View) Action{
		func(v View) Action {
			assert.Equal(t, 0, v.Master.Year)
			return Action{Op: OpEdit, Year: &year, Country: "US"}
		},
		func(v View) Action {
			assert.Equal(t, 1994, v.Master.Year)
			assert.Equal(t, "US", v.Master.Country)
			return Action{Op: OpDifferent}
		},
	}}
	require.NoError(t, NewRunner(f.store, reviewer).Run(ctx))
	assert.Len(t, reviewer.views, 2)
}

func TestRunSkipWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addSong(t, "Waterfalls", "TLC", 1994)
	f.addSong(t, "Waterfalls (Live)", "TLC", 2003)

	reviewer := &scriptedReviewer{t: t, steps: []func(View) Action{
		func(v View) Action { return Action{Op: OpSkip} },
		// The second master has no partners past its own id worth asking
		// about, so no further prompt happens.
	}}
	require.NoError(t, NewRunner(f.store, reviewer).Run(ctx))

	m, err := f.store.NextMasterSong(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, a, m.SongID)
	assert.Zero(t, m.ReviewedUntil)
}

// The frontier is the highest partner id any review row mentions. When a
// stretch of ids is auto-adjudicated because nothing in it scored, those
// pairs are never re-asked, even though no human saw them.
func TestFrontierNeverRevisitsExaminedStretch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addSong(t, "Waterfalls", "TLC", 1994)
	b := f.addSong(t, "Creep", "Radiohead", 1992)

	// No partner scores for either master: both frontiers advance without
	// a prompt.
	quiet := &scriptedReviewer{t: t}
	require.NoError(t, NewRunner(f.store, quiet).Run(ctx))
	assert.Empty(t, quiet.views)

	m, err := f.store.NextMasterSong(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, a, m.SongID)
	assert.Equal(t, b, m.ReviewedUntil)

	// A later lookalike is proposed, but the already-examined stretch is
	// not.
	c := f.addSong(t, "Waterfalls (Live)", "TLC", 2003)

	reviewer := &scriptedReviewer{t: t, steps: []func(View) Action{
		func(v View) Action {
			require.Equal(t, a, v.Master.SongID)
			require.Len(t, v.Partners, 1)
			assert.Equal(t, c, v.Partners[0].SongID)
			return Action{Op: OpQuit}
		},
	}}
	require.NoError(t, NewRunner(f.store, reviewer).Run(ctx))
	assert.Len(t, reviewer.views, 1)
}
