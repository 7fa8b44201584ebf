package song

import (
	"github.com/rotisserie/eris"
)

// Kind discriminates what a candidate points at.
type Kind int

const (
	// ByID references an existing catalog song (catalog/alias evidence).
	ByID Kind = iota
	// BySong carries a fully described prospective song (provider evidence).
	BySong
	// NoObservation is the sentinel for unusable raw fields.
	NoObservation
	// Ignored is the sentinel for reviewer-discarded plays.
	Ignored
)

// Candidate is a scored, tentatively proposed link between one play and a
// song. Exactly one of SongID / Song is meaningful, selected by Kind;
// sentinel kinds carry neither.
type Candidate struct {
	Kind   Kind
	SongID int64
	Song   Song
	Score  float64
	Method string
}

// NewByID builds a candidate referencing an existing catalog song.
func NewByID(songID int64, score float64, method string) Candidate {
	return Candidate{Kind: ByID, SongID: songID, Score: score, Method: method}
}

// NewBySong builds a candidate carrying a prospective song.
func NewBySong(s Song, score float64, method string) Candidate {
	return Candidate{Kind: BySong, Song: s, Score: score, Method: method}
}

// NoObservationCandidate returns the sentinel candidate for a play with no
// usable raw fields.
func NoObservationCandidate() Candidate {
	return Candidate{Kind: NoObservation, SongID: NoObservationID, Method: "todo"}
}

// IgnoredCandidate returns the sentinel candidate for a reviewer-discarded
// play.
func IgnoredCandidate() Candidate {
	return Candidate{Kind: Ignored, SongID: IgnoredID, Score: 1, Method: "ignored"}
}

// Sentinel reports whether the candidate is one of the reserved kinds.
func (c Candidate) Sentinel() bool {
	return c.Kind == NoObservation || c.Kind == Ignored
}

// SortedList is a candidate list known to be sorted by score descending and
// to not mix ByID and BySong entries. Building one through NewSortedList is
// the only way to get it, so downstream code cannot receive a list that
// violates either precondition.
type SortedList struct {
	items []Candidate
}

// NewSortedList validates and wraps a candidate list. It returns an error
// when the list is not sorted by score descending or mixes ByID and BySong
// candidates; both indicate a defect in the producing component.
func NewSortedList(items []Candidate) (SortedList, error) {
	var hasID, hasSong bool
	for i, c := range items {
		if i > 0 && c.Score > items[i-1].Score {
			return SortedList{}, eris.New("song: candidate list not sorted by score")
		}
		switch c.Kind {
		case ByID:
			hasID = true
		case BySong:
			hasSong = true
		}
	}
	if hasID && hasSong {
		return SortedList{}, eris.New("song: candidate list mixes id and song kinds")
	}
	return SortedList{items: items}, nil
}

// SentinelList wraps a single sentinel candidate.
func SentinelList(c Candidate) SortedList {
	return SortedList{items: []Candidate{c}}
}

// Items returns the candidates in rank order. Callers must not reorder the
// returned slice.
func (l SortedList) Items() []Candidate { return l.items }

// Len returns the number of candidates.
func (l SortedList) Len() int { return len(l.items) }

// Empty reports whether the list holds no candidates.
func (l SortedList) Empty() bool { return len(l.items) == 0 }

// Top returns the highest-scored candidate. It panics on an empty list;
// callers check Empty first.
func (l SortedList) Top() Candidate { return l.items[0] }
