package postgres

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/primerdb/primer/internal/source"
)

// PostgresSource implements source.Source for PostgreSQL databases.
type PostgresSource struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new PostgresSource with default settings.
func New() source.Source {
	return &PostgresSource{schemaName: "public"}
}

// Connect establishes a connection using the pgx stdlib driver and stores
// the schema name for introspection queries.
func (s *PostgresSource) Connect(cfg source.ConnectionConfig) error {
	db, err := sqlx.Connect("pgx", cfg.DSN)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	source.ApplyPool(db, cfg)
	if cfg.SchemaName != "" {
		s.schemaName = cfg.SchemaName
	}
	s.db = db
	return nil
}

// Close closes the database connection pool.
func (s *PostgresSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *PostgresSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (s *PostgresSource) DB() *sqlx.DB { return s.db }

// DriverName returns the driver identifier for PostgreSQL.
func (s *PostgresSource) DriverName() string { return "postgres" }

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double quotes.
func (s *PostgresSource) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedTable returns the schema-qualified table reference. Tables are
// introspected under the configured schema, so queries must address the
// same namespace.
func (s *PostgresSource) QualifiedTable(name string) string {
	if s.schemaName == "" {
		return s.QuoteIdentifier(name)
	}
	return s.QuoteIdentifier(s.schemaName) + "." + s.QuoteIdentifier(name)
}

// LimitClause returns the PostgreSQL row-limit clause for sample queries.
func (s *PostgresSource) LimitClause(n int) (prefix, suffix string) {
	return "", fmt.Sprintf(" LIMIT %d", n)
}

// DistinctExpr returns an exact COUNT(DISTINCT) expression.
func (s *PostgresSource) DistinctExpr(quotedColumn string) (string, bool) {
	return "COUNT(DISTINCT " + quotedColumn + ")", false
}

// SampleRows returns the first n rows of the table.
func (s *PostgresSource) SampleRows(ctx context.Context, table string, n int) (*source.Sample, error) {
	return source.QuerySample(ctx, s.db, table, source.SampleQuery(s, table, n))
}

// RunAggregateQuery runs a single-row aggregate query. PostgreSQL
// aggregates are always exact.
func (s *PostgresSource) RunAggregateQuery(ctx context.Context, query string, args ...any) (*source.AggregateResult, error) {
	row, err := source.QueryAggregate(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	return &source.AggregateResult{Row: row}, nil
}
