package catalog

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"radiomon/internal/match"
	"radiomon/internal/song"
)

// PersistCandidates writes every candidate as an audit row, creating the
// referenced songs, artists and song-artist links on first sight. All
// writes are ignore-on-conflict, so replaying the same candidate set is a
// no-op. Sentinel candidates produce audit rows only, never entity rows.
// The whole batch is one transaction.
func (s *Store) PersistCandidates(ctx context.Context, byPlay map[int64]song.SortedList) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "catalog: begin persist candidates")
	}
	defer tx.Rollback() //nolint:errcheck

	for playID, list := range byPlay {
		for _, c := range list.Items() {
			if c.Kind == song.BySong {
				if err := upsertSong(ctx, tx, c.Song); err != nil {
					return eris.Wrapf(err, "catalog: upsert song for play %d", playID)
				}
			}
			if err := insertAudit(ctx, tx, playID, c); err != nil {
				return eris.Wrapf(err, "catalog: audit row for play %d", playID)
			}
		}
	}
	return eris.Wrap(tx.Commit(), "catalog: commit persist candidates")
}

func upsertSong(ctx context.Context, tx *sql.Tx, sg song.Song) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO song
			(song_title, song_performers, song_key, isrc, year, country, duration)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sg.Title, sg.Performers, sg.Key(),
		nullString(sg.ISRC), nullInt(sg.Year), nullString(sg.Country), nullInt(sg.Duration),
	); err != nil {
		return eris.Wrap(err, "insert song")
	}
	for _, name := range sg.Credits {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO artist (artist_name) VALUES (?)`, name,
		); err != nil {
			return eris.Wrapf(err, "insert artist %s", name)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO song_artist (song_id, artist_id)
			VALUES (
				(SELECT song_id FROM song WHERE song_key = ?),
				(SELECT artist_id FROM artist WHERE artist_name = ?)
			)`, sg.Key(), name,
		); err != nil {
			return eris.Wrapf(err, "link artist %s", name)
		}
	}
	return nil
}

func insertAudit(ctx context.Context, tx *sql.Tx, playID int64, c song.Candidate) error {
	if c.Kind == song.BySong {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO match_candidate (play_id, song_id, candidate_score, method)
			VALUES (?, (SELECT song_id FROM song WHERE song_key = ?), ?, ?)`,
			playID, c.Song.Key(), c.Score, c.Method,
		)
		return err
	}
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO match_candidate (play_id, song_id, candidate_score, method)
		VALUES (?, ?, ?, ?)`,
		playID, c.SongID, c.Score, c.Method,
	)
	return err
}

// PersistResolution decides each play's candidate list and replaces its
// resolution row. A BySong choice is resolved to a concrete song id via
// its identity key; failure to find one is a contract violation (the
// candidates must have been persisted first). Returns, per play, whether
// the resulting status settled (anything but pending).
func (s *Store) PersistResolution(ctx context.Context, byPlay map[int64]song.SortedList, reasonTag string) (map[int64]bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: begin persist resolution")
	}
	defer tx.Rollback() //nolint:errcheck

	settled := make(map[int64]bool, len(byPlay))
	for playID, list := range byPlay {
		chosen, status := match.Decide(list, reasonTag)

		songID := chosen.SongID
		if chosen.Kind == song.BySong {
			err := tx.QueryRowContext(ctx,
				`SELECT song_id FROM song WHERE song_key = ?`, chosen.Song.Key(),
			).Scan(&songID)
			if err == sql.ErrNoRows {
				return nil, eris.Errorf("catalog: chosen song %q not in store for play %d", chosen.Song.Key(), playID)
			}
			if err != nil {
				return nil, eris.Wrapf(err, "catalog: look up chosen song for play %d", playID)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO play_resolution (play_id, song_id, chosen_score, status)
			VALUES (?, ?, ?, ?)`,
			playID, songID, chosen.Score, status,
		); err != nil {
			return nil, eris.Wrapf(err, "catalog: write resolution for play %d", playID)
		}
		settled[playID] = status != match.StatusPending

		zap.L().Debug("resolution persisted",
			zap.Int64("play_id", playID),
			zap.Int64("song_id", songID),
			zap.Float64("score", chosen.Score),
			zap.String("status", status),
		)
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "catalog: commit persist resolution")
	}
	return settled, nil
}

// RecordAlias stores a play's raw phrasing as an alias of the given song,
// making the phrasing searchable for future plays.
func (s *Store) RecordAlias(ctx context.Context, playID, songID int64, source string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO song_alias (song_id, kind, title, performers, source)
		SELECT ?, 'alias', p.title_raw, p.performer_raw, ?
		FROM play AS p
		WHERE p.play_id = ?`,
		songID, source, playID,
	)
	return eris.Wrapf(err, "catalog: record alias for play %d", playID)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
