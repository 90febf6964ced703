// Package ledger keeps an optional SQLite record of every URL processed by a
// run, including the reason a URL did not produce a document.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	outcome_id  INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	url         TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	seq         INTEGER NOT NULL DEFAULT 0,
	words       INTEGER NOT NULL DEFAULT 0,
	recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
CREATE INDEX IF NOT EXISTS idx_outcomes_url ON outcomes(url);
`

// Entry is one processed URL.
type Entry struct {
	URL     string
	Outcome string
	Reason  string
	// Seq is the document sequence number for successes, zero otherwise.
	Seq   int
	Words int
	At    time.Time
}

// Ledger is a handle on the outcomes database.
type Ledger struct {
	db    *sql.DB
	path  string
	runID string
}

// Open opens or creates the database at path. Entries recorded through the
// returned Ledger are tagged with runID.
func Open(path, runID string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	if runID == "" {
		runID = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return &Ledger{db: db, path: path, runID: runID}, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string { return l.path }

// RunID returns the tag applied to recorded entries.
func (l *Ledger) RunID() string { return l.runID }

// Close releases the database.
func (l *Ledger) Close() error { return l.db.Close() }

// Record stores e. A zero At is replaced by the current time.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, url, outcome, reason, seq, words, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.runID, e.URL, e.Outcome, e.Reason, e.Seq, e.Words, at)
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}

// Counts returns the number of entries per outcome for the current run.
func (l *Ledger) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*) FROM outcomes WHERE run_id = ? GROUP BY outcome
	`, l.runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}
