package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/primerdb/primer/internal/source"
)

// SQLiteSource implements source.Source for SQLite databases.
type SQLiteSource struct {
	db *sqlx.DB
}

// New creates a new SQLiteSource.
func New() source.Source {
	return &SQLiteSource{}
}

// Connect opens a connection to the SQLite database file specified in the
// DSN. The DSN is a file path (e.g. "/path/to/db.sqlite") or ":memory:";
// query parameters like ?_journal_mode=WAL are supported.
func (s *SQLiteSource) Connect(cfg source.ConnectionConfig) error {
	db, err := sqlx.Connect("sqlite", cfg.DSN)
	if err != nil {
		return fmt.Errorf("sqlite connect: %w", err)
	}
	source.ApplyPool(db, cfg)
	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *SQLiteSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (s *SQLiteSource) DB() *sqlx.DB { return s.db }

// DriverName returns the driver identifier for SQLite.
func (s *SQLiteSource) DriverName() string { return "sqlite" }

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double quotes.
func (s *SQLiteSource) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedTable returns the quoted table name. SQLite has no schema
// qualifier.
func (s *SQLiteSource) QualifiedTable(name string) string {
	return s.QuoteIdentifier(name)
}

// LimitClause returns the SQLite row-limit clause for sample queries.
func (s *SQLiteSource) LimitClause(n int) (prefix, suffix string) {
	return "", fmt.Sprintf(" LIMIT %d", n)
}

// DistinctExpr returns an exact COUNT(DISTINCT) expression.
func (s *SQLiteSource) DistinctExpr(quotedColumn string) (string, bool) {
	return "COUNT(DISTINCT " + quotedColumn + ")", false
}

// SampleRows returns the first n rows of the table.
func (s *SQLiteSource) SampleRows(ctx context.Context, table string, n int) (*source.Sample, error) {
	return source.QuerySample(ctx, s.db, table, source.SampleQuery(s, table, n))
}

// RunAggregateQuery runs a single-row aggregate query. SQLite aggregates
// are always exact.
func (s *SQLiteSource) RunAggregateQuery(ctx context.Context, query string, args ...any) (*source.AggregateResult, error) {
	row, err := source.QueryAggregate(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	return &source.AggregateResult{Row: row}, nil
}
