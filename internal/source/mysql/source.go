package mysql

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/primerdb/primer/internal/source"
)

// MySQLSource implements source.Source for MySQL databases.
type MySQLSource struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new MySQLSource.
func New() source.Source {
	return &MySQLSource{}
}

// Connect establishes a connection to the MySQL database and stores the
// schema name for introspection queries. When no schema name is supplied
// the current database name is used.
func (s *MySQLSource) Connect(cfg source.ConnectionConfig) error {
	db, err := sqlx.Connect("mysql", cfg.DSN)
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}
	source.ApplyPool(db, cfg)

	if cfg.SchemaName != "" {
		s.schemaName = cfg.SchemaName
	}
	if s.schemaName == "" {
		var dbName string
		if err := db.Get(&dbName, "SELECT DATABASE()"); err == nil && dbName != "" {
			s.schemaName = dbName
		}
	}

	s.db = db
	return nil
}

// Close closes the database connection pool.
func (s *MySQLSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *MySQLSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (s *MySQLSource) DB() *sqlx.DB { return s.db }

// DriverName returns the driver identifier for MySQL.
func (s *MySQLSource) DriverName() string { return "mysql" }

// QuoteIdentifier wraps a SQL identifier in backticks, escaping any
// embedded backticks.
func (s *MySQLSource) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QualifiedTable returns the schema-qualified table reference. With no
// configured schema the session default database applies.
func (s *MySQLSource) QualifiedTable(name string) string {
	if s.schemaName == "" {
		return s.QuoteIdentifier(name)
	}
	return s.QuoteIdentifier(s.schemaName) + "." + s.QuoteIdentifier(name)
}

// LimitClause returns the MySQL row-limit clause for sample queries.
func (s *MySQLSource) LimitClause(n int) (prefix, suffix string) {
	return "", fmt.Sprintf(" LIMIT %d", n)
}

// DistinctExpr returns an exact COUNT(DISTINCT) expression.
func (s *MySQLSource) DistinctExpr(quotedColumn string) (string, bool) {
	return "COUNT(DISTINCT " + quotedColumn + ")", false
}

// SampleRows returns the first n rows of the table.
func (s *MySQLSource) SampleRows(ctx context.Context, table string, n int) (*source.Sample, error) {
	return source.QuerySample(ctx, s.db, table, source.SampleQuery(s, table, n))
}

// RunAggregateQuery runs a single-row aggregate query. MySQL aggregates
// are always exact.
func (s *MySQLSource) RunAggregateQuery(ctx context.Context, query string, args ...any) (*source.AggregateResult, error) {
	row, err := source.QueryAggregate(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	return &source.AggregateResult{Row: row}, nil
}
