package match

import (
	"radiomon/internal/song"
)

// StatusPending marks a resolution that still needs a reviewer.
const StatusPending = "pending"

// Decision thresholds. A top score at or above autoAccept resolves
// outright; above soloAccept a lone candidate resolves; a lead of more
// than clearMargin over the runner-up resolves.
const (
	autoAccept  = 0.90
	soloAccept  = 0.60
	clearMargin = 0.20
)

// Decide maps a score-sorted candidate list to the chosen candidate and a
// resolution status. The chosen candidate is always the top-ranked one
// (or the no-observation sentinel for an empty list); only the status
// distinguishes automatic acceptance (reasonTag) from pending review.
// Rules are evaluated in order, first match wins.
func Decide(list song.SortedList, reasonTag string) (song.Candidate, string) {
	if list.Empty() {
		return song.NoObservationCandidate(), StatusPending
	}
	top := list.Top()
	switch {
	case top.Score >= autoAccept:
		// High confidence.
		return top, reasonTag
	case top.Score > soloAccept && list.Len() == 1:
		// Good confidence, no other options.
		return top, reasonTag
	case list.Len() == 1:
		// Low confidence, no alternative: defer to a reviewer.
		return top, StatusPending
	case top.Score-list.Items()[1].Score > clearMargin:
		// Clear margin over the runner-up.
		return top, reasonTag
	default:
		// Ambiguous.
		return top, StatusPending
	}
}
