package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

// ApplyPool applies connection pool settings from the config to the pool.
func ApplyPool(db *sqlx.DB, cfg ConnectionConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// Classify wraps a driver error with the source taxonomy: deadline expiry
// maps to ErrTimeout, everything else to ErrUnavailable.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// QuerySample runs a sample query and renders the result into a Sample.
// The query must already carry the dialect's row limit.
func QuerySample(ctx context.Context, db *sqlx.DB, table, query string) (*Sample, error) {
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, Classify("sample "+table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, Classify("sample "+table, err)
	}

	sample := &Sample{Table: table, Columns: cols, Rows: [][]string{}}
	for rows.Next() {
		raw, err := rows.SliceScan()
		if err != nil {
			return nil, Classify("sample "+table, err)
		}
		rendered := make([]string, len(raw))
		for i, v := range raw {
			rendered[i] = RenderValue(v)
		}
		sample.Rows = append(sample.Rows, rendered)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify("sample "+table, err)
	}
	return sample, nil
}

// QueryAggregate runs an aggregate query expected to return a single row
// and scans it into a column-keyed map.
func QueryAggregate(ctx context.Context, db *sqlx.DB, query string, args ...any) (map[string]any, error) {
	row := db.QueryRowxContext(ctx, query, args...)
	result := map[string]any{}
	if err := row.MapScan(result); err != nil {
		return nil, Classify("aggregate query", err)
	}
	return result, nil
}

// RenderValue renders a scanned database value as deterministic display
// text. NULL becomes the literal "NULL" so samples read like query output.
func RenderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// AsInt64 converts a scanned aggregate value to int64. Drivers disagree on
// the concrete type of COUNT results.
func AsInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case float64:
		return int64(x), true
	case []byte:
		n, err := strconv.ParseInt(string(x), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
