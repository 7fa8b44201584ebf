// Package catalog is the persistence layer: the SQLite-backed song catalog
// with its alias text-search index, the append-only candidate audit log,
// the per-play resolution rows and the duplicate-work review state.
package catalog

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Store wraps the catalog database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path and configures WAL
// mode.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "catalog: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

// Migrate applies the schema, including the two sentinel song rows.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "catalog: migrate")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Station is a seed row for a monitored station.
type Station struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// SeedStations inserts the known stations, ignoring ones already present.
func (s *Store) SeedStations(ctx context.Context, stations []Station) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "catalog: begin seed stations")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, st := range stations {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO station (station_code, station_name) VALUES (?, ?)`,
			st.Code, st.Name,
		); err != nil {
			return eris.Wrapf(err, "catalog: seed station %s", st.Code)
		}
	}
	return eris.Wrap(tx.Commit(), "catalog: commit seed stations")
}
