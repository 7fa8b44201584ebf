package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radiomon/internal/song"
)

func mustList(t *testing.T, items ...song.Candidate) song.SortedList {
	t.Helper()
	l, err := song.NewSortedList(items)
	require.NoError(t, err)
	return l
}

func TestDedup_ByID_KeepsFirstOccurrence(t *testing.T) {
	in := map[int64]song.SortedList{
		7: mustList(t,
			song.NewByID(10, 0.9, "db"),
			song.NewByID(11, 0.8, "db"),
			song.NewByID(10, 0.7, "db"),
		),
	}
	out, err := Dedup(in)
	require.NoError(t, err)

	items := out[7].Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(10), items[0].SongID)
	assert.Equal(t, 0.9, items[0].Score)
	assert.Equal(t, int64(11), items[1].SongID)
}

func TestDedup_BySong_HigherScoreWins(t *testing.T) {
	a := song.Song{Title: "Song", Performers: "Artist", Year: 2020}
	b := song.Song{Title: "song", Performers: "artist", Year: 2021} // same key
	in := map[int64]song.SortedList{
		1: mustList(t,
			song.NewBySong(a, 0.9, "spotify"),
			song.NewBySong(b, 0.5, "spotify"),
		),
	}
	out, err := Dedup(in)
	require.NoError(t, err)

	items := out[1].Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2020, items[0].Song.Year)
}

func TestDedup_BySong_TieBreaks(t *testing.T) {
	tests := []struct {
		name     string
		first    song.Song
		second   song.Song
		wantYear int
	}{
		{
			"known year beats unknown",
			song.Song{Title: "Song", Performers: "Artist"},
			song.Song{Title: "Song", Performers: "Artist", Year: 2018},
			2018,
		},
		{
			"earlier year beats later",
			song.Song{Title: "Song", Performers: "Artist", Year: 2020},
			song.Song{Title: "Song", Performers: "Artist", Year: 2015},
			2015,
		},
		{
			"unknown never displaces known",
			song.Song{Title: "Song", Performers: "Artist", Year: 2015},
			song.Song{Title: "Song", Performers: "Artist"},
			2015,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := map[int64]song.SortedList{
				1: mustList(t,
					song.NewBySong(tt.first, 0.8, "spotify"),
					song.NewBySong(tt.second, 0.8, "spotify"),
				),
			}
			out, err := Dedup(in)
			require.NoError(t, err)

			items := out[1].Items()
			require.Len(t, items, 1)
			assert.Equal(t, tt.wantYear, items[0].Song.Year)
		})
	}
}

func TestDedup_NeverGrowsAndNeverReintroduces(t *testing.T) {
	dup := song.Song{Title: "Same", Performers: "One"}
	in := map[int64]song.SortedList{
		1: mustList(t,
			song.NewBySong(song.Song{Title: "Other", Performers: "Two"}, 0.9, "spotify"),
			song.NewBySong(dup, 0.8, "spotify"),
			song.NewBySong(dup, 0.6, "spotify"),
			song.NewBySong(dup, 0.4, "spotify"),
		),
	}
	out, err := Dedup(in)
	require.NoError(t, err)

	items := out[1].Items()
	assert.LessOrEqual(t, len(items), 4)

	seen := make(map[string]int)
	for _, c := range items {
		seen[c.Song.Key()]++
	}
	for key, n := range seen {
		assert.Equal(t, 1, n, "key %q appears more than once", key)
	}
}

func TestDedup_SentinelListPassesThrough(t *testing.T) {
	in := map[int64]song.SortedList{
		1: song.SentinelList(song.NoObservationCandidate()),
	}
	out, err := Dedup(in)
	require.NoError(t, err)
	require.Equal(t, 1, out[1].Len())
	assert.Equal(t, song.NoObservation, out[1].Top().Kind)
}
