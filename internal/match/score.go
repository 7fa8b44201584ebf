// Package match computes similarity between raw (title, performer) pairs
// and candidate songs, deduplicates candidate lists and applies the
// resolution decision rules.
package match

import (
	"regexp"
	"strings"

	"radiomon/internal/song"
)

// Weights of the three sub-scores combined by Score.
const (
	weightTitle     = 1.0
	weightPerformer = 1.0
	weightConcat    = 2.0
)

// junkWords are ignored by the word-set diff: connective noise that appears
// on one side of a credit list but not the other.
var junkWords = map[string]struct{}{
	"and":     {},
	"feat":    {},
	"feature": {},
}

var wordSplitRe = regexp.MustCompile(`\W+`)

// Score returns a similarity in [0,1] between a raw (title, performer) pair
// and a candidate pair. Inputs are folded (case, diacritics) before
// comparison. Only an exact folded match returns 1.0; everything else is a
// weighted mean of the title ratio, the performer ratio and a word-set
// ratio over the whole "title performer" phrase, capped at 0.99.
func Score(rawTitle, rawPerformer, candTitle, candPerformer string) float64 {
	rt := song.Fold(rawTitle)
	rp := song.Fold(rawPerformer)
	ct := song.Fold(candTitle)
	cp := song.Fold(candPerformer)

	if rt == ct && rp == cp {
		return 1.0
	}

	rTitle := matchRatio(ct, rt)
	rPerformer := matchRatio(cp, rp)
	rConcat := wordSetRatio(ct+" "+cp, rt+" "+rp)

	s := (rTitle*weightTitle + rPerformer*weightPerformer + rConcat*weightConcat) /
		(weightTitle + weightPerformer + weightConcat)
	return min(s, 0.99)
}

// matchRatio is a Ratcliff/Obershelp alignment ratio: twice the number of
// characters covered by recursively chosen longest common blocks, divided
// by the combined length. Inputs are already folded to ASCII.
func matchRatio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingChars(a, b)) / float64(total)
}

func matchingChars(a, b string) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

// longestCommonBlock finds the longest common substring of a and b,
// returning its start offsets and length. Earlier blocks win on ties.
func longestCommonBlock(a, b string) (int, int, int) {
	if a == "" || b == "" {
		return 0, 0, 0
	}
	b2j := make(map[byte][]int, len(b))
	for j := 0; j < len(b); j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	bestA, bestB, bestSize := 0, 0, 0
	j2len := make(map[int]int)
	for i := 0; i < len(a); i++ {
		next := make(map[int]int)
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestSize {
				bestA, bestB, bestSize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return bestA, bestB, bestSize
}

// wordSetRatio measures how much of the combined phrase length belongs to
// words present in one phrase's word set but not the other's, ignoring
// junk words: 1 means identical word sets, 0 means nothing shared.
func wordSetRatio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	aWords := wordSet(a)
	bWords := wordSet(b)

	diff := 0
	for w := range aWords {
		if _, ok := bWords[w]; !ok {
			diff += len(w)
		}
	}
	for w := range bWords {
		if _, ok := aWords[w]; !ok {
			diff += len(w)
		}
	}
	return 1.0 - float64(diff)/float64(total)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range wordSplitRe.Split(s, -1) {
		if _, junk := junkWords[w]; junk {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// performerSeparators mark the end of the first billed artist in a credit
// string.
var performerSeparators = []string{",", "&", " ft", " feat", " e ", " and "}

// PrimaryPerformer truncates a performer credit at the first separator to
// approximate the first billed artist. Used only to build provider
// queries, never inside Score.
func PrimaryPerformer(s string) string {
	s = strings.ToLower(s)
	for _, sep := range performerSeparators {
		if i := strings.Index(s, sep); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
	}
	return s
}

// titleSeparators introduce edition/remix suffixes.
var titleSeparators = []string{"(", " - "}

// CoreTitle strips edition/remix suffixes by truncating at "(" or " - "
// when the separator is not within the first two characters. Used only to
// build provider queries, never inside Score.
func CoreTitle(s string) string {
	for _, sep := range titleSeparators {
		if i := strings.Index(s, sep); i > 2 {
			s = strings.TrimSpace(s[:i])
		}
	}
	return s
}
