package catalog

// Schema notes:
//   - song_alias carries every known phrasing of a song (the canonical one
//     as kind 'seed', reviewer-confirmed raw phrasings as kind 'alias') and
//     is mirrored into the song_fts FTS5 index by triggers, so text search
//     covers all phrasings, not just canonical titles.
//   - match_candidate is an append-only audit log; the unique key turns
//     replays into no-ops.
//   - play_resolution holds the single current decision per play and is
//     replaced wholesale on every resolution attempt.
//   - Songs 1 and 2 are the reserved sentinel rows; v_master_song excludes
//     them along with songs already merged into a work cluster.
const migration = `
CREATE TABLE IF NOT EXISTS station (
	station_id   INTEGER PRIMARY KEY,
	station_code TEXT NOT NULL UNIQUE,
	station_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS play (
	play_id        INTEGER PRIMARY KEY,
	station_id     INTEGER NOT NULL REFERENCES station(station_id),
	observed_at    TEXT NOT NULL,
	title_raw      TEXT NOT NULL,
	performer_raw  TEXT NOT NULL,
	acquisition_id TEXT NOT NULL,
	source_payload TEXT NOT NULL DEFAULT '',
	inserted_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (station_id, observed_at)
);

CREATE TABLE IF NOT EXISTS song (
	song_id         INTEGER PRIMARY KEY,
	song_title      TEXT NOT NULL,
	song_performers TEXT NOT NULL,
	song_key        TEXT NOT NULL UNIQUE,
	isrc            TEXT,
	year            INT,
	country         TEXT,
	duration        INT
);

CREATE TABLE IF NOT EXISTS artist (
	artist_id   INTEGER PRIMARY KEY,
	artist_name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS song_artist (
	song_id   INTEGER NOT NULL REFERENCES song(song_id),
	artist_id INTEGER NOT NULL REFERENCES artist(artist_id),
	PRIMARY KEY (song_id, artist_id)
);

CREATE TABLE IF NOT EXISTS song_alias (
	song_alias_id INTEGER PRIMARY KEY,
	song_id       INTEGER NOT NULL REFERENCES song(song_id),
	kind          TEXT NOT NULL CHECK (kind IN ('seed', 'alias')),
	title         TEXT NOT NULL,
	performers    TEXT NOT NULL,
	source        TEXT NOT NULL CHECK (source IN ('catalog', 'external', 'manual')),
	UNIQUE (song_id, title, performers)
);

CREATE VIRTUAL TABLE IF NOT EXISTS song_fts USING fts5(
	title,
	performers,
	content='song_alias',
	content_rowid='song_alias_id'
);

CREATE TRIGGER IF NOT EXISTS song_alias_ai AFTER INSERT ON song_alias BEGIN
	INSERT INTO song_fts (rowid, title, performers)
	VALUES (new.song_alias_id, new.title, new.performers);
END;

CREATE TRIGGER IF NOT EXISTS song_alias_ad AFTER DELETE ON song_alias BEGIN
	INSERT INTO song_fts (song_fts, rowid, title, performers)
	VALUES ('delete', old.song_alias_id, old.title, old.performers);
END;

CREATE TRIGGER IF NOT EXISTS song_alias_au AFTER UPDATE ON song_alias BEGIN
	INSERT INTO song_fts (song_fts, rowid, title, performers)
	VALUES ('delete', old.song_alias_id, old.title, old.performers);
	INSERT INTO song_fts (rowid, title, performers)
	VALUES (new.song_alias_id, new.title, new.performers);
END;

CREATE TRIGGER IF NOT EXISTS song_seed_alias_ai AFTER INSERT ON song
WHEN new.song_id NOT IN (1, 2) BEGIN
	INSERT OR IGNORE INTO song_alias (song_id, kind, title, performers, source)
	VALUES (new.song_id, 'seed', new.song_title, new.song_performers, 'external');
END;

CREATE TABLE IF NOT EXISTS match_candidate (
	match_candidate_id INTEGER PRIMARY KEY,
	play_id            INTEGER NOT NULL REFERENCES play(play_id),
	song_id            INTEGER NOT NULL REFERENCES song(song_id),
	candidate_score    REAL NOT NULL,
	method             TEXT NOT NULL,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (play_id, song_id, method)
);

CREATE TABLE IF NOT EXISTS play_resolution (
	play_id      INTEGER PRIMARY KEY REFERENCES play(play_id),
	song_id      INTEGER NOT NULL REFERENCES song(song_id),
	chosen_score REAL NOT NULL,
	status       TEXT NOT NULL,
	resolved_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS song_work_review (
	song_id_a INTEGER NOT NULL REFERENCES song(song_id),
	song_id_b INTEGER NOT NULL REFERENCES song(song_id),
	same_work INTEGER NOT NULL,
	PRIMARY KEY (song_id_a, song_id_b)
);

CREATE TABLE IF NOT EXISTS song_work (
	master_song_id INTEGER NOT NULL REFERENCES song(song_id),
	song_id        INTEGER NOT NULL REFERENCES song(song_id),
	PRIMARY KEY (master_song_id, song_id)
);

CREATE INDEX IF NOT EXISTS idx_play_station ON play(station_id);
CREATE INDEX IF NOT EXISTS idx_match_candidate_play ON match_candidate(play_id);
CREATE INDEX IF NOT EXISTS idx_play_resolution_song ON play_resolution(song_id);
CREATE INDEX IF NOT EXISTS idx_play_resolution_status ON play_resolution(status);

INSERT OR IGNORE INTO song (song_id, song_title, song_performers, song_key)
VALUES (1, '<no observation>', '', 'sentinel|no-observation');
INSERT OR IGNORE INTO song (song_id, song_title, song_performers, song_key)
VALUES (2, '<ignored>', '', 'sentinel|ignored');

CREATE VIEW IF NOT EXISTS v_master_song AS
SELECT
	s.song_id,
	s.song_title,
	s.song_performers,
	s.year,
	s.country,
	(SELECT COUNT(*) FROM play_resolution pr WHERE pr.song_id = s.song_id) AS resolution_count
FROM song s
WHERE s.song_id > 2
  AND s.song_id NOT IN (SELECT song_id FROM song_work);
`
