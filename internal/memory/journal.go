package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/primerdb/primer/internal/model"
)

// Journal persists history and error entries across sessions, backed by
// SQLite. The bounded stores stay authoritative in memory; the journal
// only seeds them on startup and records appends.
type Journal struct {
	db *sqlx.DB
}

// OpenJournal opens (or creates) the journal database under dataDir.
// Pass empty string for in-memory.
func OpenJournal(dataDir string) (*Journal, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "primer.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		return nil, fmt.Errorf("migrate journal database: %w", err)
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS query_history (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL,
		question   TEXT NOT NULL,
		sql        TEXT NOT NULL,
		succeeded  INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS error_context (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL,
		sql        TEXT NOT NULL,
		message    TEXT NOT NULL,
		hint       TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);`

	if _, err := j.db.Exec(schema); err != nil {
		return fmt.Errorf("create journal tables: %w", err)
	}
	return nil
}

// historyRow is a flat struct that maps 1:1 to the query_history columns.
type historyRow struct {
	Seq       int64     `db:"seq"`
	ID        string    `db:"id"`
	Question  string    `db:"question"`
	SQL       string    `db:"sql"`
	Succeeded bool      `db:"succeeded"`
	CreatedAt time.Time `db:"created_at"`
}

// errorRow is a flat struct that maps 1:1 to the error_context columns.
type errorRow struct {
	Seq       int64     `db:"seq"`
	ID        string    `db:"id"`
	SQL       string    `db:"sql"`
	Message   string    `db:"message"`
	Hint      string    `db:"hint"`
	CreatedAt time.Time `db:"created_at"`
}

func (j *Journal) appendHistory(e model.HistoryEntry) error {
	const q = `INSERT INTO query_history (id, question, sql, succeeded, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := j.db.Exec(q, e.ID.String(), e.Question, e.SQL, e.Succeeded, e.Timestamp)
	if err != nil {
		return fmt.Errorf("journal history append: %w", err)
	}
	return nil
}

func (j *Journal) recentHistory(n int) ([]model.HistoryEntry, error) {
	const q = `SELECT seq, id, question, sql, succeeded, created_at
		FROM query_history ORDER BY seq DESC LIMIT ?`

	var rows []historyRow
	if err := j.db.Select(&rows, q, n); err != nil {
		return nil, fmt.Errorf("journal history read: %w", err)
	}

	// Rows arrive newest-first; reverse into chronological order.
	entries := make([]model.HistoryEntry, len(rows))
	for i, row := range rows {
		id, _ := uuid.Parse(row.ID)
		entries[len(rows)-1-i] = model.HistoryEntry{
			ID:        id,
			Question:  row.Question,
			SQL:       row.SQL,
			Succeeded: row.Succeeded,
			Timestamp: row.CreatedAt.UTC(),
		}
	}
	return entries, nil
}

func (j *Journal) clearHistory() error {
	if _, err := j.db.Exec("DELETE FROM query_history"); err != nil {
		return fmt.Errorf("journal history clear: %w", err)
	}
	return nil
}

func (j *Journal) appendError(e model.ErrorEntry) error {
	const q = `INSERT INTO error_context (id, sql, message, hint, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := j.db.Exec(q, e.ID.String(), e.SQL, e.Message, e.Hint, e.Timestamp)
	if err != nil {
		return fmt.Errorf("journal error append: %w", err)
	}
	return nil
}

func (j *Journal) recentErrors(n int) ([]model.ErrorEntry, error) {
	const q = `SELECT seq, id, sql, message, hint, created_at
		FROM error_context ORDER BY seq DESC LIMIT ?`

	var rows []errorRow
	if err := j.db.Select(&rows, q, n); err != nil {
		return nil, fmt.Errorf("journal error read: %w", err)
	}

	entries := make([]model.ErrorEntry, len(rows))
	for i, row := range rows {
		id, _ := uuid.Parse(row.ID)
		entries[len(rows)-1-i] = model.ErrorEntry{
			ID:        id,
			SQL:       row.SQL,
			Message:   row.Message,
			Hint:      row.Hint,
			Timestamp: row.CreatedAt.UTC(),
		}
	}
	return entries, nil
}

func (j *Journal) clearErrors() error {
	if _, err := j.db.Exec("DELETE FROM error_context"); err != nil {
		return fmt.Errorf("journal error clear: %w", err)
	}
	return nil
}
