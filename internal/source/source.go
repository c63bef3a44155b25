package source

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/primerdb/primer/internal/model"
)

// ErrUnavailable indicates the underlying data source could not be
// reached or the query failed. Callers render an explicit "unavailable"
// marker rather than omitting the affected content silently.
var ErrUnavailable = errors.New("data source unavailable")

// ErrTimeout indicates a bounded source operation exceeded its deadline.
var ErrTimeout = errors.New("data source operation timed out")

// ConnectionConfig holds database connection parameters.
type ConnectionConfig struct {
	Driver          string
	DSN             string
	SchemaName      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PrivateKeyPath  string // PEM private key file for Snowflake keypair auth
}

// Sample is a small fixed-size row sample from one table. Cell values are
// pre-rendered to strings so formatting is deterministic across drivers.
type Sample struct {
	Table   string
	Columns []string
	Rows    [][]string
}

// AggregateResult is one row of aggregate output. Approximate is set when
// the dialect answered with a sampled or probabilistic estimate instead
// of an exact count.
type AggregateResult struct {
	Row         map[string]any
	Approximate bool
}

// Source is the database collaborator consumed by the catalog, the
// statistics store, and the assembly engine. Implementations are
// synchronous; callers bound them with a context deadline.
type Source interface {
	// Connection management
	Connect(cfg ConnectionConfig) error
	Close() error
	Ping(ctx context.Context) error
	DB() *sqlx.DB

	// Schema introspection
	ListTables(ctx context.Context) ([]string, error)
	DescribeColumns(ctx context.Context, table string) ([]model.Column, error)

	// Data access
	SampleRows(ctx context.Context, table string, n int) (*Sample, error)
	RunAggregateQuery(ctx context.Context, query string, args ...any) (*AggregateResult, error)

	// Dialect metadata
	DriverName() string
	QuoteIdentifier(name string) string
	// QualifiedTable returns the quoted table reference including the
	// configured schema where the dialect has one. Every query against a
	// table introspected under a schema must go through this, or it may
	// hit a same-named table in the session default schema.
	QualifiedTable(name string) string
	LimitClause(n int) (prefix, suffix string)
	// DistinctExpr returns the SQL expression for counting distinct values
	// of a quoted column, and whether the result is an estimate.
	DistinctExpr(quotedColumn string) (expr string, approximate bool)
}

// SampleQuery builds the dialect's row-sample query for a table, placing
// the limit via LimitClause (TOP prefix vs LIMIT suffix).
func SampleQuery(src Source, table string, n int) string {
	prefix, suffix := src.LimitClause(n)
	return "SELECT " + prefix + "* FROM " + src.QualifiedTable(table) + suffix
}

// DescribeAll introspects every table of the source into model tables,
// in the order ListTables returns them.
func DescribeAll(ctx context.Context, src Source) ([]model.Table, error) {
	names, err := src.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	tables := make([]model.Table, 0, len(names))
	for _, name := range names {
		cols, err := src.DescribeColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, model.Table{Name: name, Columns: cols})
	}
	return tables, nil
}

// SanitizeDSN ensures that URL-style DSNs (postgres://, sqlserver://) have
// their userinfo (especially the password) properly percent-encoded. Raw
// passwords containing @, #, %, or other URL-special characters cause the
// Go URL parser to mis-split the authority component, producing connection
// errors that are hard to trace back to the DSN.
//
// MySQL DSNs are normalized to use the tcp() wrapper required by
// go-sql-driver. Snowflake uses its own non-URL DSN format and is returned
// unchanged.
func SanitizeDSN(driver, dsn string) string {
	switch driver {
	case "postgres", "mssql":
		return sanitizeURLDSN(dsn)
	case "mysql":
		return sanitizeMySQLDSN(dsn)
	default:
		return dsn
	}
}

// mysqlBareHostPort matches "user:pass@host:port/db" (no tcp() wrapper).
var mysqlBareHostPort = regexp.MustCompile(`^(.+)@([^(@]+:\d+)(/.*)?$`)

// sanitizeMySQLDSN normalizes a MySQL DSN so that go-sql-driver/mysql can
// parse it. The driver requires user:pass@tcp(host:port)/dbname; users
// commonly omit the tcp() wrapper or the "tcp" keyword.
func sanitizeMySQLDSN(dsn string) string {
	if cfg, err := mysqldriver.ParseDSN(dsn); err == nil && (cfg.Net == "tcp" || cfg.Net == "unix") {
		return cfg.FormatDSN()
	}

	// Pattern: user:pass@(host:port)/db — missing "tcp" keyword.
	if idx := strings.LastIndex(dsn, "@("); idx >= 0 {
		fixed := dsn[:idx] + "@tcp" + dsn[idx+1:]
		if cfg, err := mysqldriver.ParseDSN(fixed); err == nil {
			return cfg.FormatDSN()
		}
	}

	// Pattern: user:pass@host:port/db — no parens at all.
	if m := mysqlBareHostPort.FindStringSubmatch(dsn); m != nil {
		fixed := m[1] + "@tcp(" + m[2] + ")" + m[3]
		if cfg, err := mysqldriver.ParseDSN(fixed); err == nil {
			return cfg.FormatDSN()
		}
	}

	// Nothing worked — return as-is and let the connect call give a clear error.
	return dsn
}

// sanitizeURLDSN parses a DSN that begins with a scheme (e.g.
// postgres://user:p@ss#word@host/db) and re-encodes the password so the
// URL library can parse it unambiguously.
func sanitizeURLDSN(dsn string) string {
	schemeEnd := strings.Index(dsn, "://")
	if schemeEnd < 0 {
		return dsn
	}

	scheme := dsn[:schemeEnd]
	rest := dsn[schemeEnd+3:]

	query := ""
	if qi := strings.IndexByte(rest, '?'); qi >= 0 {
		query = rest[qi:]
		rest = rest[:qi]
	}

	// Everything before the LAST '@' is userinfo.
	atIdx := strings.LastIndex(rest, "@")
	if atIdx < 0 {
		return dsn
	}

	userinfo := rest[:atIdx]
	hostpath := rest[atIdx+1:]

	user := userinfo
	pass := ""
	if ci := strings.IndexByte(userinfo, ':'); ci >= 0 {
		user = userinfo[:ci]
		pass = userinfo[ci+1:]
	}

	return scheme + "://" + url.PathEscape(user) + ":" + url.PathEscape(pass) + "@" + hostpath + query
}
