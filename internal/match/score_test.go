package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_Reflexive(t *testing.T) {
	tests := []struct {
		title     string
		performer string
	}{
		{"Waterfalls", "James Hype"},
		{"Mañana Será Bonito", "Karol G"},
		{"a", "b"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, 1.0, Score(tt.title, tt.performer, tt.title, tt.performer))
		})
	}
}

func TestScore_CaseAndWhitespaceInvariant(t *testing.T) {
	assert.Equal(t, 1.0, Score("Waterfalls", "JAMES HYPE", "  waterfalls ", "James Hype"))
	assert.Equal(t, 1.0, Score("Beyoncé", "Beyoncé", "Beyonce", "beyonce"))
}

func TestScore_CappedBelowOneForInexact(t *testing.T) {
	// Near-identical but not an exact folded match: trailing punctuation on
	// the candidate title keeps the equality branch from firing.
	s := Score("the quick brown fox", "somebody", "the quick brown fox.", "somebody")
	assert.Equal(t, 0.99, s)
}

func TestScore_NoisyRemixTitle(t *testing.T) {
	// A remix-suffixed raw title against a clean provider hit with an extra
	// credited performer lands in the medium-confidence band.
	s := Score("Waterfalls (Not Existing Remix)", "JAMES HYPE", "Waterfalls", "James Hype, Sam Harper")
	assert.Greater(t, s, 0.4)
	assert.Less(t, s, 0.7)
}

func TestScore_UnrelatedPairsLow(t *testing.T) {
	s := Score("Waterfalls", "James Hype", "Bohemian Rhapsody", "Queen")
	assert.Less(t, s, 0.4)
}

func TestScore_JunkWordsIgnoredInConcat(t *testing.T) {
	with := Score("Song", "A feat B", "Song", "A B")
	without := Score("Song", "A xxxx B", "Song", "A B")
	assert.Greater(t, with, without)
}

func TestCoreTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips parenthetical", "Waterfalls (Not Existing Remix)", "Waterfalls"},
		{"strips dash suffix", "One More Time - Radio Edit", "One More Time"},
		{"keeps leading paren", "(Everything I Do) I Do It for You", "(Everything I Do) I Do It for You"},
		{"plain title untouched", "Waterfalls", "Waterfalls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoreTitle(tt.in))
		})
	}
}

func TestPrimaryPerformer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"comma list", "James Hype, Miggy Dela Rosa", "james hype"},
		{"ampersand", "Bob & Alice", "bob"},
		{"feat credit", "Artist feat. Other", "artist"},
		{"ft credit", "Artist ft Other", "artist"},
		{"and credit", "Tones and I", "tones"},
		{"single", "Queen", "queen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrimaryPerformer(tt.in))
		})
	}
}
