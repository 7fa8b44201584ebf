package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
)

// PlayTodo is a play with no candidates recorded yet.
type PlayTodo struct {
	PlayID    int64
	Title     string
	Performer string
}

// PendingPlay is a play whose current resolution still needs review.
type PendingPlay struct {
	PlayID int64
	SongID int64
}

// InsertPlay records one raw observation. When the nearest observations in
// time from the same station (within the window) carry an identical raw
// title and performer, the insert is a no-op. Returns whether a row was
// written.
func (s *Store) InsertPlay(ctx context.Context, stationCode, title, performer string, observedAt time.Time, acquisitionID, payload string, window time.Duration) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title_raw, performer_raw
		FROM play
		WHERE station_id = (SELECT station_id FROM station WHERE station_code = ?)
		  AND ABS(strftime('%s', observed_at) - strftime('%s', ?)) <= ?
		ORDER BY ABS(strftime('%s', observed_at) - strftime('%s', ?))
		LIMIT 2`,
		stationCode, observedAt.UTC().Format(time.RFC3339), int64(window.Seconds()),
		observedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, eris.Wrap(err, "catalog: query recent plays")
	}
	defer rows.Close()

	for rows.Next() {
		var t, p string
		if err := rows.Scan(&t, &p); err != nil {
			return false, eris.Wrap(err, "catalog: scan recent play")
		}
		if t == title && p == performer {
			return false, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, eris.Wrap(err, "catalog: iterate recent plays")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO play
			(station_id, observed_at, title_raw, performer_raw, acquisition_id, source_payload)
		VALUES
			((SELECT station_id FROM station WHERE station_code = ?), ?, ?, ?, ?, ?)`,
		stationCode, observedAt.UTC().Format(time.RFC3339), title, performer, acquisitionID, payload,
	)
	if err != nil {
		return false, eris.Wrapf(err, "catalog: insert play for %s", stationCode)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "catalog: insert play rows affected")
	}
	return n > 0, nil
}

// FindPlayTodos returns plays with no candidate rows yet, oldest first.
func (s *Store) FindPlayTodos(ctx context.Context, limit int) ([]PlayTodo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.play_id, p.title_raw, p.performer_raw
		FROM play AS p
		LEFT JOIN match_candidate AS mc ON mc.play_id = p.play_id
		WHERE mc.play_id IS NULL
		ORDER BY p.inserted_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: find play todos")
	}
	defer rows.Close()

	var todos []PlayTodo
	for rows.Next() {
		var t PlayTodo
		if err := rows.Scan(&t.PlayID, &t.Title, &t.Performer); err != nil {
			return nil, eris.Wrap(err, "catalog: scan play todo")
		}
		todos = append(todos, t)
	}
	return todos, eris.Wrap(rows.Err(), "catalog: iterate play todos")
}

// GetPlay returns a play's raw title and performer.
func (s *Store) GetPlay(ctx context.Context, playID int64) (string, string, error) {
	var title, performer string
	err := s.db.QueryRowContext(ctx,
		`SELECT title_raw, performer_raw FROM play WHERE play_id = ?`, playID,
	).Scan(&title, &performer)
	if err != nil {
		return "", "", eris.Wrapf(err, "catalog: get play %d", playID)
	}
	return title, performer, nil
}

// NextPending returns the first pending resolution with a play id greater
// than afterID, or nil when none remain.
func (s *Store) NextPending(ctx context.Context, afterID int64) (*PendingPlay, error) {
	var p PendingPlay
	err := s.db.QueryRowContext(ctx, `
		SELECT play_id, song_id
		FROM play_resolution
		WHERE status = 'pending' AND play_id > ?
		ORDER BY play_id ASC
		LIMIT 1`, afterID,
	).Scan(&p.PlayID, &p.SongID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "catalog: next pending")
	}
	return &p, nil
}

// CountPending counts pending resolutions past afterID.
func (s *Store) CountPending(ctx context.Context, afterID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(play_id) FROM play_resolution WHERE status = 'pending' AND play_id > ?`,
		afterID,
	).Scan(&n)
	return n, eris.Wrap(err, "catalog: count pending")
}
