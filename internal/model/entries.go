package model

import (
	"time"

	"github.com/google/uuid"
)

// ColumnStatistic holds per-column profile facts computed by the
// statistics store. Counts are exact over the full column unless the data
// source signalled a sampled estimate, in which case Approximate is set
// and formatted figures are marked accordingly.
type ColumnStatistic struct {
	Table         string  `json:"table"`
	Column        string  `json:"column"`
	RowCount      int64   `json:"row_count"`
	NonNullCount  int64   `json:"non_null_count"`
	DistinctCount int64   `json:"distinct_count"`
	Min           *string `json:"min,omitempty"` // orderable types only
	Max           *string `json:"max,omitempty"`
	Approximate   bool    `json:"approximate"`
}

// NullCount returns the number of NULL values in the column.
func (s ColumnStatistic) NullCount() int64 {
	return s.RowCount - s.NonNullCount
}

// ExampleEntry is one curated (question, SQL, note) triple used as a
// few-shot pattern. Library order is priority order.
type ExampleEntry struct {
	Question string `json:"question" yaml:"question"`
	SQL      string `json:"sql" yaml:"sql"`
	Note     string `json:"note,omitempty" yaml:"note,omitempty"`
}

// HistoryEntry records one completed SQL attempt from a prior session.
type HistoryEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Question  string    `json:"question" db:"question"`
	SQL       string    `json:"sql" db:"sql"`
	Succeeded bool      `json:"succeeded" db:"succeeded"`
	Timestamp time.Time `json:"timestamp" db:"created_at"`
}

// NewHistoryEntry builds a HistoryEntry with a fresh ID and the current time.
func NewHistoryEntry(question, sql string, succeeded bool) HistoryEntry {
	return HistoryEntry{
		ID:        uuid.New(),
		Question:  question,
		SQL:       sql,
		Succeeded: succeeded,
		Timestamp: time.Now().UTC(),
	}
}

// ErrorEntry records one failed SQL attempt together with the database
// error message and an optional corrective hint.
type ErrorEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SQL       string    `json:"sql" db:"sql"`
	Message   string    `json:"message" db:"message"`
	Hint      string    `json:"hint,omitempty" db:"hint"`
	Timestamp time.Time `json:"timestamp" db:"created_at"`
}

// NewErrorEntry builds an ErrorEntry with a fresh ID and the current time.
func NewErrorEntry(sql, message, hint string) ErrorEntry {
	return ErrorEntry{
		ID:        uuid.New(),
		SQL:       sql,
		Message:   message,
		Hint:      hint,
		Timestamp: time.Now().UTC(),
	}
}
