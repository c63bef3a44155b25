// Package catalog holds the schema snapshot for a connected database and
// the relationship graph derived from it. Snapshots are immutable and
// swapped behind an atomic pointer, so readers during a refresh observe
// either the old or the new snapshot, never a mixture.
package catalog

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
)

// SchemaLoadError indicates a refresh failed. The previous snapshot is
// retained, so assembly can continue with stale schema.
type SchemaLoadError struct {
	Err error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("schema load failed: %v", e.Err)
}

func (e *SchemaLoadError) Unwrap() error { return e.Err }

// Snapshot is one immutable, internally consistent view of the database
// structure. Edges and common joins are derived at construction time so
// they regenerate exactly when the catalog does.
type Snapshot struct {
	Version int64
	Tables  []model.Table
	Edges   []model.RelationshipEdge
	Joins   []model.JoinPair
}

// Table returns the named table from the snapshot, or nil.
func (s *Snapshot) Table(name string) *model.Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// Catalog owns the current schema snapshot.
type Catalog struct {
	current atomic.Pointer[Snapshot]
	version atomic.Int64
}

// New creates an empty catalog. Current() returns a zero snapshot until
// the first Load or Refresh.
func New() *Catalog {
	c := &Catalog{}
	c.current.Store(&Snapshot{})
	return c
}

// Load replaces the snapshot atomically with the given tables. No partial
// update is ever visible to readers.
func (c *Catalog) Load(tables []model.Table) *Snapshot {
	snap := c.build(tables)
	c.current.Store(snap)
	return snap
}

// Current returns the last fully loaded snapshot. Never nil.
func (c *Catalog) Current() *Snapshot {
	return c.current.Load()
}

// Refresh reintrospects the schema from the source and swaps in a new
// snapshot. On any failure the old snapshot stays intact and a
// *SchemaLoadError is returned.
func (c *Catalog) Refresh(ctx context.Context, src source.Source) (*Snapshot, error) {
	tables, err := source.DescribeAll(ctx, src)
	if err != nil {
		return nil, &SchemaLoadError{Err: err}
	}
	return c.Load(tables), nil
}

// build constructs an immutable snapshot: a defensive copy of the tables
// plus the derived relationship graph. Foreign keys whose endpoints do
// not resolve to a known column are dropped, keeping the snapshot
// internally consistent.
func (c *Catalog) build(tables []model.Table) *Snapshot {
	copied := make([]model.Table, len(tables))
	for i, t := range tables {
		cols := make([]model.Column, len(t.Columns))
		copy(cols, t.Columns)
		copied[i] = model.Table{Name: t.Name, Columns: cols, Annotation: t.Annotation}
	}

	edges := DeriveEdges(copied)
	return &Snapshot{
		Version: c.version.Add(1),
		Tables:  copied,
		Edges:   edges,
		Joins:   CommonJoins(edges),
	}
}
