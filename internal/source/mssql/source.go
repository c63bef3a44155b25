package mssql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/primerdb/primer/internal/source"
)

// MSSQLSource implements source.Source for SQL Server databases.
type MSSQLSource struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new MSSQLSource with default settings.
func New() source.Source {
	return &MSSQLSource{schemaName: "dbo"}
}

// Connect establishes a connection to the SQL Server database and stores
// the schema name for introspection queries.
func (s *MSSQLSource) Connect(cfg source.ConnectionConfig) error {
	db, err := sqlx.Connect("sqlserver", cfg.DSN)
	if err != nil {
		return fmt.Errorf("mssql connect: %w", err)
	}
	source.ApplyPool(db, cfg)
	if cfg.SchemaName != "" {
		s.schemaName = cfg.SchemaName
	}
	s.db = db
	return nil
}

// Close closes the database connection pool.
func (s *MSSQLSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *MSSQLSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (s *MSSQLSource) DB() *sqlx.DB { return s.db }

// DriverName returns the driver identifier for SQL Server.
func (s *MSSQLSource) DriverName() string { return "mssql" }

// QuoteIdentifier wraps a SQL identifier in brackets, escaping any
// embedded closing brackets.
func (s *MSSQLSource) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// QualifiedTable returns the schema-qualified table reference. Tables are
// introspected under the configured schema, so queries must address the
// same namespace.
func (s *MSSQLSource) QualifiedTable(name string) string {
	if s.schemaName == "" {
		return s.QuoteIdentifier(name)
	}
	return s.QuoteIdentifier(s.schemaName) + "." + s.QuoteIdentifier(name)
}

// LimitClause returns the SQL Server TOP clause for sample queries.
func (s *MSSQLSource) LimitClause(n int) (prefix, suffix string) {
	return fmt.Sprintf("TOP %d ", n), ""
}

// DistinctExpr returns an exact COUNT(DISTINCT) expression.
func (s *MSSQLSource) DistinctExpr(quotedColumn string) (string, bool) {
	return "COUNT(DISTINCT " + quotedColumn + ")", false
}

// SampleRows returns the first n rows of the table.
func (s *MSSQLSource) SampleRows(ctx context.Context, table string, n int) (*source.Sample, error) {
	return source.QuerySample(ctx, s.db, table, source.SampleQuery(s, table, n))
}

// RunAggregateQuery runs a single-row aggregate query. SQL Server
// aggregates are always exact.
func (s *MSSQLSource) RunAggregateQuery(ctx context.Context, query string, args ...any) (*source.AggregateResult, error) {
	row, err := source.QueryAggregate(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	return &source.AggregateResult{Row: row}, nil
}
