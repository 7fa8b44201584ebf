package catalog

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// AliasHit is one text-search hit: the matched alias phrasing together
// with the canonical song it points at, ordered by index relevance.
type AliasHit struct {
	SongID          int64
	SongTitle       string
	SongPerformers  string
	AliasTitle      string
	AliasPerformers string
	Relevance       float64
}

const searchLimit = 10

// SearchAliases runs a phrase search over all known phrasings. A non-empty
// title must phrase-match the alias title column and a non-empty performer
// the alias performers column; both empty is a caller defect.
func (s *Store) SearchAliases(ctx context.Context, title, performer string) ([]AliasHit, error) {
	expr, err := matchExpr(title, performer)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			v.song_id,
			s.song_title,
			s.song_performers,
			v.title,
			v.performers,
			bm25(song_fts) AS relevance
		FROM song_fts
		JOIN song_alias AS v ON v.song_alias_id = song_fts.rowid
		JOIN song AS s ON s.song_id = v.song_id
		WHERE song_fts MATCH ?
		ORDER BY relevance ASC
		LIMIT ?`, expr, searchLimit)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: search aliases")
	}
	defer rows.Close()

	var hits []AliasHit
	for rows.Next() {
		var h AliasHit
		if err := rows.Scan(&h.SongID, &h.SongTitle, &h.SongPerformers,
			&h.AliasTitle, &h.AliasPerformers, &h.Relevance); err != nil {
			return nil, eris.Wrap(err, "catalog: scan alias hit")
		}
		hits = append(hits, h)
	}
	return hits, eris.Wrap(rows.Err(), "catalog: iterate alias hits")
}

// matchExpr builds a column-scoped FTS5 MATCH expression requiring a
// phrase match on each non-empty input.
func matchExpr(title, performer string) (string, error) {
	var parts []string
	if p := quotePhrase(title); p != "" {
		parts = append(parts, "title:"+p)
	}
	if p := quotePhrase(performer); p != "" {
		parts = append(parts, "performers:"+p)
	}
	if len(parts) == 0 {
		return "", eris.New("catalog: search needs a title or a performer")
	}
	return strings.Join(parts, " AND "), nil
}

// quotePhrase escapes a string as an FTS5 phrase literal.
func quotePhrase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
