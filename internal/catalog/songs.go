package catalog

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
)

// CandidateRow is one outstanding candidate for a play, joined with its
// song's metadata and how many plays already settled on that song.
type CandidateRow struct {
	SongID     int64
	Title      string
	Performers string
	ISRC       string
	Year       int // 0 when unknown
	Country    string
	Duration   int
	Score      float64
	Uses       int
}

// SongInfo is a song's reviewable metadata.
type SongInfo struct {
	SongID     int64
	Title      string
	Performers string
	ISRC       string
	Year       int
	Country    string
	Duration   int
}

// MasterSong is a clustering work item: a non-sentinel, non-merged song
// with its review frontier and usage count.
type MasterSong struct {
	SongID         int64
	Title          string
	Performers     string
	Year           int
	Country        string
	ReviewedUntil  int64 // highest partner id already adjudicated
	ResolutionUses int
}

// CandidateRows returns a play's candidates collapsed per song (best score
// kept), ordered by score descending then first-audited. Sentinel songs
// are not reviewable and are excluded.
func (s *Store) CandidateRows(ctx context.Context, playID int64) ([]CandidateRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			mc.song_id,
			s.song_title,
			s.song_performers,
			COALESCE(s.isrc, ''),
			COALESCE(s.year, 0),
			COALESCE(s.country, ''),
			COALESCE(s.duration, 0),
			MAX(mc.candidate_score),
			(SELECT COUNT(*) FROM play_resolution pr
			 WHERE pr.song_id = mc.song_id AND pr.status != 'pending')
		FROM match_candidate AS mc
		JOIN song AS s ON s.song_id = mc.song_id
		WHERE mc.play_id = ? AND mc.song_id > 2
		GROUP BY mc.song_id
		ORDER BY MAX(mc.candidate_score) DESC, MIN(mc.match_candidate_id) ASC`,
		playID)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: candidates for play %d", playID)
	}
	defer rows.Close()

	var out []CandidateRow
	for rows.Next() {
		var r CandidateRow
		if err := rows.Scan(&r.SongID, &r.Title, &r.Performers, &r.ISRC,
			&r.Year, &r.Country, &r.Duration, &r.Score, &r.Uses); err != nil {
			return nil, eris.Wrap(err, "catalog: scan candidate row")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "catalog: iterate candidate rows")
}

// SongIDByKey resolves an identity key to a song id.
func (s *Store) SongIDByKey(ctx context.Context, key string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT song_id FROM song WHERE song_key = ?`, key,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrapf(err, "catalog: song by key %q", key)
	}
	return id, true, nil
}

// GetSong returns a song's metadata.
func (s *Store) GetSong(ctx context.Context, songID int64) (*SongInfo, error) {
	var info SongInfo
	err := s.db.QueryRowContext(ctx, `
		SELECT song_id, song_title, song_performers,
			COALESCE(isrc, ''), COALESCE(year, 0), COALESCE(country, ''), COALESCE(duration, 0)
		FROM song WHERE song_id = ?`, songID,
	).Scan(&info.SongID, &info.Title, &info.Performers, &info.ISRC,
		&info.Year, &info.Country, &info.Duration)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: get song %d", songID)
	}
	return &info, nil
}

// UpdateSongMeta corrects a song's year and/or country. Nil year or empty
// country leaves the stored value alone.
func (s *Store) UpdateSongMeta(ctx context.Context, songID int64, year *int, country string) error {
	var y any
	if year != nil {
		y = *year
	}
	var c any
	if country != "" {
		c = country
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE song
		SET year = COALESCE(?, year), country = COALESCE(?, country)
		WHERE song_id = ?`,
		y, c, songID,
	)
	return eris.Wrapf(err, "catalog: update song %d", songID)
}

// NextMasterSong returns the first clustering work item past afterID, or
// nil when the catalog is exhausted.
func (s *Store) NextMasterSong(ctx context.Context, afterID int64) (*MasterSong, error) {
	var m MasterSong
	err := s.db.QueryRowContext(ctx, `
		SELECT
			song_id,
			song_title,
			song_performers,
			COALESCE(year, 0),
			COALESCE(country, ''),
			COALESCE((SELECT MAX(song_id_b) FROM song_work_review WHERE song_id_a = v.song_id), 0),
			resolution_count
		FROM v_master_song AS v
		WHERE song_id > ?
		ORDER BY song_id ASC
		LIMIT 1`, afterID,
	).Scan(&m.SongID, &m.Title, &m.Performers, &m.Year, &m.Country,
		&m.ReviewedUntil, &m.ResolutionUses)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "catalog: next master song")
	}
	return &m, nil
}

// MasterSongsAfter lists clustering candidates with ids strictly greater
// than minID, ascending.
func (s *Store) MasterSongsAfter(ctx context.Context, minID int64) ([]MasterSong, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			song_id,
			song_title,
			song_performers,
			COALESCE(year, 0),
			COALESCE(country, ''),
			0,
			resolution_count
		FROM v_master_song
		WHERE song_id > ?
		ORDER BY song_id ASC`, minID)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: master songs after")
	}
	defer rows.Close()

	var out []MasterSong
	for rows.Next() {
		var m MasterSong
		if err := rows.Scan(&m.SongID, &m.Title, &m.Performers, &m.Year,
			&m.Country, &m.ReviewedUntil, &m.ResolutionUses); err != nil {
			return nil, eris.Wrap(err, "catalog: scan master song")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "catalog: iterate master songs")
}

// SaveWorkReview records pairwise adjudications of songID against each of
// otherIDs, and the work edges when they were judged the same work. Pairs
// are write-once; replays are no-ops. One transaction.
func (s *Store) SaveWorkReview(ctx context.Context, songID int64, otherIDs []int64, same bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "catalog: begin work review")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, other := range otherIDs {
		a, b := songID, other
		if b < a {
			a, b = b, a
		}
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO song_work_review (song_id_a, song_id_b, same_work)
			VALUES (?, ?, ?)`, a, b, boolToInt(same),
		)
		if err != nil {
			return eris.Wrapf(err, "catalog: work review pair %d/%d", a, b)
		}
		written, err := res.RowsAffected()
		if err != nil {
			return eris.Wrap(err, "catalog: work review rows affected")
		}
		if same && written > 0 {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO song_work (master_song_id, song_id)
				VALUES (?, ?)`, songID, other,
			); err != nil {
				return eris.Wrapf(err, "catalog: work edge %d->%d", songID, other)
			}
		}
	}
	return eris.Wrap(tx.Commit(), "catalog: commit work review")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
