// Package song defines the canonical catalog entities and the candidate
// links produced while resolving raw plays against them.
package song

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Reserved catalog rows. Neither is a real song: resolutions may point at
// them, but they are excluded from search, counting and entity writes.
const (
	// NoObservationID marks plays whose raw fields were empty or unusable.
	NoObservationID int64 = 1
	// IgnoredID marks plays a reviewer explicitly discarded.
	IgnoredID int64 = 2
)

// Song is a canonical catalog entity or a fully described prospective one
// coming back from an external provider.
type Song struct {
	Title      string
	Performers string   // display string, e.g. "James Hype, Miggy Dela Rosa"
	Credits    []string // individual performer names, billing order
	ISRC       string
	Year       int // 0 when unknown
	Country    string
	Duration   int // seconds, 0 when unknown
}

// Key returns the identity key used to deduplicate songs: the folded
// "title|performers" string.
func (s Song) Key() string {
	return Fold(s.Title) + "|" + Fold(s.Performers)
}

var foldTransformer = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
)

// Fold lowercases, trims and strips diacritics from a string, dropping any
// rune that does not decompose to ASCII. All identity and similarity
// comparisons go through this.
func Fold(s string) string {
	decomposed, _, err := transform.String(foldTransformer, strings.TrimSpace(s))
	if err != nil {
		decomposed = strings.TrimSpace(s)
	}
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r < 128 {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
