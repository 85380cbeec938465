// Package snapshot persists the per-source sets of item identifiers seen
// by the last successful run, plus the published episode history.
//
// The store is only written after a run fully succeeds: a run that fails
// partway leaves it untouched, so the next run re-diffs against the last
// good state and reprocesses content instead of losing it.
package snapshot

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Set holds the external IDs known for one source.
type Set map[string]struct{}

func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

// Open opens (creating if absent) the snapshot database. A missing file
// is a valid first run; a present but unreadable file is a loud error,
// never a silent reset.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS seen (
			source_id   TEXT NOT NULL,
			external_id TEXT NOT NULL,
			PRIMARY KEY (source_id, external_id)
		);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS episodes (
			guid        TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			file_name   TEXT NOT NULL,
			size_bytes  INTEGER NOT NULL,
			duration_s  REAL NOT NULL,
			pub_date    DATETIME NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			chapters    TEXT NOT NULL DEFAULT '[]'
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing snapshot schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// Load returns the seen set for a source. A source never committed
// before yields an empty set, not an error.
func (s *Store) Load(sourceID string) (Set, error) {
	rows, err := s.readDB.Query("SELECT external_id FROM seen WHERE source_id = ?", sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot for %s: %w", sourceID, err)
	}
	defer rows.Close()

	set := Set{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		set[id] = struct{}{}
	}
	return set, rows.Err()
}

// Commit replaces the stored set for a source wholesale and stamps the
// last success time. The replace is transactional: the next run sees
// either the old set or the new one, never a partial write.
func (s *Store) Commit(sourceID string, ids []string) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM seen WHERE source_id = ?", sourceID); err != nil {
		return fmt.Errorf("clearing snapshot for %s: %w", sourceID, err)
	}

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO seen (source_id, external_id) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.Exec(sourceID, id); err != nil {
			return fmt.Errorf("inserting snapshot id for %s: %w", sourceID, err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, lastSuccessKey(sourceID), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("stamping last success for %s: %w", sourceID, err)
	}

	return tx.Commit()
}

// LastSuccess returns the last committed run time for a source, zero if
// the source was never committed.
func (s *Store) LastSuccess(sourceID string) (time.Time, error) {
	var value string
	err := s.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", lastSuccessKey(sourceID)).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last success for %s: %w", sourceID, err)
	}
	return t, nil
}

// Reset drops the stored set for a source, forcing the next run to treat
// all of its content as new.
func (s *Store) Reset(sourceID string) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM seen WHERE source_id = ?", sourceID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM meta WHERE key = ?", lastSuccessKey(sourceID)); err != nil {
		return err
	}
	return tx.Commit()
}

// SourceStat summarizes one source's snapshot state.
type SourceStat struct {
	SourceID    string
	SeenCount   int
	LastSuccess time.Time
}

func (s *Store) Stats() ([]SourceStat, error) {
	rows, err := s.readDB.Query(`
		SELECT source_id, COUNT(*) FROM seen GROUP BY source_id ORDER BY source_id
	`)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot stats: %w", err)
	}
	defer rows.Close()

	var stats []SourceStat
	for rows.Next() {
		var st SourceStat
		if err := rows.Scan(&st.SourceID, &st.SeenCount); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range stats {
		t, err := s.LastSuccess(stats[i].SourceID)
		if err != nil {
			return nil, err
		}
		stats[i].LastSuccess = t
	}
	return stats, nil
}

func lastSuccessKey(sourceID string) string {
	return "last_success:" + sourceID
}
