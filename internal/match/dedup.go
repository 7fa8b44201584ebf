package match

import (
	"github.com/rotisserie/eris"

	"radiomon/internal/song"
)

// Dedup collapses each play's candidate list to at most one entry per
// distinct song identity. ByID lists keep the first (highest-scored)
// occurrence of each song id. BySong lists group by identity key; within a
// group the higher score wins, a score tie prefers a known release year
// over an unknown one, and between two known years the earlier one wins.
// Rank order is preserved throughout.
func Dedup(byPlay map[int64]song.SortedList) (map[int64]song.SortedList, error) {
	out := make(map[int64]song.SortedList, len(byPlay))
	for playID, list := range byPlay {
		deduped, err := dedupList(list)
		if err != nil {
			return nil, eris.Wrapf(err, "match: dedup play %d", playID)
		}
		out[playID] = deduped
	}
	return out, nil
}

func dedupList(list song.SortedList) (song.SortedList, error) {
	seenIDs := make(map[int64]struct{})
	keyIndex := make(map[string]int)
	kept := make([]song.Candidate, 0, list.Len())

	for _, c := range list.Items() {
		switch c.Kind {
		case song.ByID:
			if _, ok := seenIDs[c.SongID]; ok {
				continue
			}
			seenIDs[c.SongID] = struct{}{}
			kept = append(kept, c)
		case song.BySong:
			key := c.Song.Key()
			idx, ok := keyIndex[key]
			if !ok {
				keyIndex[key] = len(kept)
				kept = append(kept, c)
				continue
			}
			if preferOver(c, kept[idx]) {
				kept[idx] = c
			}
		default:
			// Sentinels carry no identity to collapse.
			kept = append(kept, c)
		}
	}
	return song.NewSortedList(kept)
}

// preferOver reports whether challenger should replace incumbent for the
// same identity key. The list is sorted, so the challenger never carries a
// higher score; only ties are contested.
func preferOver(challenger, incumbent song.Candidate) bool {
	if challenger.Score != incumbent.Score {
		return false
	}
	cy, iy := challenger.Song.Year, incumbent.Song.Year
	if iy == 0 {
		return cy != 0
	}
	return cy != 0 && cy < iy
}
