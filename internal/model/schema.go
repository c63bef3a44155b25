package model

// ColumnType is the declared type of a column, normalized across database
// dialects into a small enumerated set.
type ColumnType string

const (
	TypeInteger  ColumnType = "integer"
	TypeReal     ColumnType = "real"
	TypeText     ColumnType = "text"
	TypeBoolean  ColumnType = "boolean"
	TypeDatetime ColumnType = "datetime"
	TypeBlob     ColumnType = "blob"
)

// Orderable reports whether min/max aggregates are meaningful for the type.
func (t ColumnType) Orderable() bool {
	switch t {
	case TypeInteger, TypeReal, TypeText, TypeDatetime:
		return true
	}
	return false
}

// ForeignKeyRef identifies the target of a foreign key column.
type ForeignKeyRef struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

// Column describes a single column within a table. Immutable once loaded
// from a schema snapshot.
type Column struct {
	Name       string         `json:"name" yaml:"name"`
	Type       ColumnType     `json:"type" yaml:"type"`
	Nullable   bool           `json:"nullable" yaml:"nullable"`
	PrimaryKey bool           `json:"primary_key" yaml:"primary_key"`
	ForeignKey *ForeignKeyRef `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
}

// Table describes the structure of a single table. Column order is
// declaration order and is preserved in all formatted output.
type Table struct {
	Name       string   `json:"name" yaml:"name"`
	Columns    []Column `json:"columns" yaml:"columns"`
	Annotation string   `json:"annotation,omitempty" yaml:"annotation,omitempty"`
}

// Column returns the named column, or nil if the table has no such column.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// RelationshipEdge is a foreign-key edge between two columns. Edges are
// derived from column annotations and regenerated with every schema
// snapshot, never persisted independently.
type RelationshipEdge struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

// JoinPair is a pair of tables connected by exactly one foreign key,
// making them a "common join" candidate. Left sorts before Right.
type JoinPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}
