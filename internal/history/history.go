// Package history persists a log of fired expansions to SQLite.
//
// The log is diagnostic only: recording failures never interrupt
// matching, and the engine works fine with history disabled.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Expansion outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeDeleteFailed   = "delete_failed"
	OutcomePasteFailed    = "paste_failed"
	OutcomeMissingContent = "missing_content"
)

const schema = `
CREATE TABLE IF NOT EXISTS expansions (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp_ns    INTEGER NOT NULL,
    trigger         TEXT NOT NULL,
    snippet_name    TEXT NOT NULL,
    content_id      TEXT NOT NULL,
    replacement_len INTEGER NOT NULL,
    outcome         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_expansions_timestamp ON expansions(timestamp_ns);
CREATE INDEX IF NOT EXISTS idx_expansions_trigger ON expansions(trigger, timestamp_ns);
`

// Entry is one recorded expansion attempt.
type Entry struct {
	Timestamp      time.Time
	Trigger        string
	SnippetName    string
	ContentID      string
	ReplacementLen int
	Outcome        string
}

// Store is the SQLite-backed expansion log.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=2000")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends one expansion attempt to the log.
func (s *Store) Record(e Entry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO expansions (timestamp_ns, trigger, snippet_name, content_id, replacement_len, outcome)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ts.UnixNano(), e.Trigger, e.SnippetName, e.ContentID, e.ReplacementLen, e.Outcome,
	)
	if err != nil {
		return fmt.Errorf("record expansion: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT timestamp_ns, trigger, snippet_name, content_id, replacement_len, outcome
		 FROM expansions ORDER BY timestamp_ns DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ns int64
		if err := rows.Scan(&ns, &e.Trigger, &e.SnippetName, &e.ContentID, &e.ReplacementLen, &e.Outcome); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Timestamp = time.Unix(0, ns)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByTrigger returns how many times each trigger fired
// successfully.
func (s *Store) CountByTrigger() (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT trigger, COUNT(*) FROM expansions WHERE outcome = ? GROUP BY trigger`, OutcomeOK)
	if err != nil {
		return nil, fmt.Errorf("query trigger counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var trigger string
		var n int
		if err := rows.Scan(&trigger, &n); err != nil {
			return nil, fmt.Errorf("scan trigger count: %w", err)
		}
		counts[trigger] = n
	}
	return counts, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
