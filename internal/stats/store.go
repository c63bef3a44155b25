// Package stats computes and caches per-column profile statistics through
// the database source. Entries are cached per (table, column, schema
// version) and invalidated only by explicit request; staleness is an
// accepted tradeoff. Concurrent cache misses for the same key collapse
// into one underlying scan.
package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
)

// ErrStatisticsUnavailable indicates the data source could not answer the
// profile query. The statistics section renders an explicit "unavailable"
// marker for the column instead of omitting it silently.
var ErrStatisticsUnavailable = errors.New("statistics unavailable")

type cacheKey struct {
	Table   string
	Column  string
	Version int64
}

// Store is the process-wide statistics cache.
type Store struct {
	src source.Source

	mu    sync.RWMutex
	cache map[cacheKey]model.ColumnStatistic
	group singleflight.Group
}

// New creates a Store backed by the given source.
func New(src source.Source) *Store {
	return &Store{
		src:   src,
		cache: make(map[cacheKey]model.ColumnStatistic),
	}
}

// Compute returns the statistic for (table, column) under the given schema
// version, running one aggregate scan on a cache miss. Concurrent misses
// for the same key share a single scan; all waiters receive the same
// result. Counts are exact unless the dialect signals an estimate.
func (s *Store) Compute(ctx context.Context, table, column string, colType model.ColumnType, version int64) (model.ColumnStatistic, error) {
	key := cacheKey{Table: table, Column: column, Version: version}

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	flightKey := fmt.Sprintf("%s\x00%s\x00%d", table, column, version)
	v, err, _ := s.group.Do(flightKey, func() (any, error) {
		stat, err := s.scan(ctx, table, column, colType)
		if err != nil {
			return model.ColumnStatistic{}, err
		}
		s.mu.Lock()
		s.cache[key] = stat
		s.mu.Unlock()
		return stat, nil
	})
	if err != nil {
		return model.ColumnStatistic{}, err
	}
	return v.(model.ColumnStatistic), nil
}

// Cached returns the cached statistic without triggering a scan.
func (s *Store) Cached(table, column string, version int64) (model.ColumnStatistic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stat, ok := s.cache[cacheKey{Table: table, Column: column, Version: version}]
	return stat, ok
}

// Invalidate clears cached entries for one table across all versions.
func (s *Store) Invalidate(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.cache {
		if key.Table == table {
			delete(s.cache, key)
		}
	}
}

// InvalidateAll clears the whole cache.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[cacheKey]model.ColumnStatistic)
}

// scan runs the single aggregate query that profiles one column. The
// table reference is schema-qualified so the scan hits the same table the
// snapshot was introspected from.
func (s *Store) scan(ctx context.Context, table, column string, colType model.ColumnType) (model.ColumnStatistic, error) {
	qtable := s.src.QualifiedTable(table)
	qcol := s.src.QuoteIdentifier(column)

	distinctExpr, approximate := s.src.DistinctExpr(qcol)

	var b strings.Builder
	b.WriteString("SELECT COUNT(*) AS row_count, COUNT(")
	b.WriteString(qcol)
	b.WriteString(") AS non_null_count, ")
	b.WriteString(distinctExpr)
	b.WriteString(" AS distinct_count")
	if colType.Orderable() {
		b.WriteString(", MIN(" + qcol + ") AS min_value, MAX(" + qcol + ") AS max_value")
	}
	b.WriteString(" FROM " + qtable)

	result, err := s.src.RunAggregateQuery(ctx, b.String())
	if err != nil {
		return model.ColumnStatistic{}, fmt.Errorf("%w: %s.%s: %w", ErrStatisticsUnavailable, table, column, err)
	}

	stat := model.ColumnStatistic{
		Table:       table,
		Column:      column,
		Approximate: approximate || result.Approximate,
	}
	stat.RowCount, _ = source.AsInt64(field(result.Row, "row_count"))
	stat.NonNullCount, _ = source.AsInt64(field(result.Row, "non_null_count"))
	stat.DistinctCount, _ = source.AsInt64(field(result.Row, "distinct_count"))

	if colType.Orderable() {
		if v := field(result.Row, "min_value"); v != nil {
			rendered := source.RenderValue(v)
			stat.Min = &rendered
		}
		if v := field(result.Row, "max_value"); v != nil {
			rendered := source.RenderValue(v)
			stat.Max = &rendered
		}
	}
	return stat, nil
}

// field looks up an aggregate output column case-insensitively; dialects
// disagree on result-column casing.
func field(row map[string]any, name string) any {
	if v, ok := row[name]; ok {
		return v
	}
	if v, ok := row[strings.ToUpper(name)]; ok {
		return v
	}
	return nil
}
