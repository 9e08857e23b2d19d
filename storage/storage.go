// Package storage provides the durable dispatch ledger backing at-most-once
// delivery. The ledger is the only state that must survive process restarts:
// the scheduler may be double-started or tick twice for the same logical day,
// and the claim table is what prevents a double send.
package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for dispatch claims.
type Store struct {
	db *sql.DB
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS dispatches (
	note_id TEXT NOT NULL,
	window INTEGER NOT NULL,
	run_date TEXT NOT NULL,
	claimed_at INTEGER NOT NULL DEFAULT (unixepoch()),
	PRIMARY KEY (note_id, window, run_date)
);
`

// New opens the SQLite database at dbPath, creates tables if they don't
// exist, and returns a Store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	// Enable WAL mode so a concurrently started process can read while a
	// claim is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// TryClaim atomically claims the (noteID, window, runDate) triple. It returns
// true exactly once per triple: the INSERT OR IGNORE and the rows-affected
// check form a single statement, so two callers racing on the same triple
// cannot both observe a successful claim.
func (s *Store) TryClaim(noteID string, window int, runDate string) (bool, error) {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO dispatches (note_id, window, run_date) VALUES (?, ?, ?)`,
		noteID, window, runDate,
	)
	if err != nil {
		return false, fmt.Errorf("storage: claim dispatch %s/%d/%s: %w", noteID, window, runDate, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: claim dispatch rows affected: %w", err)
	}
	return n == 1, nil
}

// Release removes a claim after a failed send so the next tick inside the
// same window retries the reminder.
func (s *Store) Release(noteID string, window int, runDate string) error {
	_, err := s.db.Exec(
		`DELETE FROM dispatches WHERE note_id = ? AND window = ? AND run_date = ?`,
		noteID, window, runDate,
	)
	if err != nil {
		return fmt.Errorf("storage: release dispatch %s/%d/%s: %w", noteID, window, runDate, err)
	}
	return nil
}

// Prune deletes claims for run dates before the given date (YYYY-MM-DD).
// Old claims are dead weight once their window has passed.
func (s *Store) Prune(beforeRunDate string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM dispatches WHERE run_date < ?`, beforeRunDate)
	if err != nil {
		return 0, fmt.Errorf("storage: prune dispatches before %s: %w", beforeRunDate, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage: prune rows affected: %w", err)
	}
	return n, nil
}
