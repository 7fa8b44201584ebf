package resolver

import (
	"radiomon/internal/catalog"
	"radiomon/internal/match"
	"radiomon/internal/song"
)

// How strongly the raw play must match the candidates' shared cleaned pair
// before their agreement counts as a suggestion.
const agreeFloor = 0.80

// Suggest proposes a song for a pending play from its audited candidate
// rows. Two attempts, in order: when every candidate reduces under the
// query cleaners to one (title, performer) pair and the raw play matches
// that pair well, the rows are treated as pressings of one work and the
// earliest year-bearing one wins; otherwise any candidate whose cleaned
// pair matches the cleaned raw pair exactly is picked, again earliest
// year first, a year-less row only when no exact match carries a year.
func Suggest(rawTitle, rawPerformer string, rows []catalog.CandidateRow) (int64, bool) {
	if id, ok := allAgree(rawTitle, rawPerformer, rows); ok {
		return id, true
	}
	return exactClean(rawTitle, rawPerformer, rows)
}

func allAgree(rawTitle, rawPerformer string, rows []catalog.CandidateRow) (int64, bool) {
	if len(rows) == 0 {
		return 0, false
	}
	cleanTitle := song.Fold(match.CoreTitle(rows[0].Title))
	cleanPerformer := song.Fold(match.PrimaryPerformer(rows[0].Performers))
	var oldest catalog.CandidateRow
	for _, r := range rows {
		if song.Fold(match.CoreTitle(r.Title)) != cleanTitle ||
			song.Fold(match.PrimaryPerformer(r.Performers)) != cleanPerformer {
			return 0, false
		}
		if r.Year != 0 && (oldest.Year == 0 || r.Year < oldest.Year) {
			oldest = r
		}
	}
	if oldest.Year == 0 {
		return 0, false
	}
	rawScore := match.Score(
		match.CoreTitle(rawTitle), match.PrimaryPerformer(rawPerformer),
		cleanTitle, cleanPerformer,
	)
	if rawScore <= agreeFloor {
		return 0, false
	}
	return oldest.SongID, true
}

func exactClean(rawTitle, rawPerformer string, rows []catalog.CandidateRow) (int64, bool) {
	cleanTitle := match.CoreTitle(rawTitle)
	cleanPerformer := match.PrimaryPerformer(rawPerformer)

	var best *catalog.CandidateRow
	for i := range rows {
		r := &rows[i]
		score := match.Score(cleanTitle, cleanPerformer,
			match.CoreTitle(r.Title), match.PrimaryPerformer(r.Performers))
		if score != 1 {
			continue
		}
		switch {
		case best == nil:
			best = r
		case r.Year != 0 && (best.Year == 0 || r.Year < best.Year):
			best = r
		}
	}
	if best == nil {
		return 0, false
	}
	return best.SongID, true
}
