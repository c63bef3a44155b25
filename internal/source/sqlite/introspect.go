package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
)

// tableInfoRow holds a row from PRAGMA table_info().
type tableInfoRow struct {
	CID     int     `db:"cid"`
	Name    string  `db:"name"`
	Type    string  `db:"type"`
	NotNull int     `db:"notnull"`
	Default *string `db:"dflt_value"`
	PK      int     `db:"pk"`
}

// foreignKeyRow holds a row from PRAGMA foreign_key_list().
type foreignKeyRow struct {
	ID       int    `db:"id"`
	Seq      int    `db:"seq"`
	Table    string `db:"table"`
	From     string `db:"from"`
	To       string `db:"to"`
	OnUpdate string `db:"on_update"`
	OnDelete string `db:"on_delete"`
	Match    string `db:"match"`
}

// ListTables returns all user table names in the database.
func (s *SQLiteSource) ListTables(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	var names []string
	if err := s.db.SelectContext(ctx, &names, query); err != nil {
		return nil, source.Classify("list tables", err)
	}
	return names, nil
}

// DescribeColumns returns the columns of a single table in declaration
// order, with primary-key and foreign-key annotations.
func (s *SQLiteSource) DescribeColumns(ctx context.Context, table string) ([]model.Column, error) {
	pragmaQuery := fmt.Sprintf("PRAGMA table_info(%s)", s.QuoteIdentifier(table))
	var rows []tableInfoRow
	if err := s.db.SelectContext(ctx, &rows, pragmaQuery); err != nil {
		return nil, source.Classify("table_info for "+table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("table %q not found", table)
	}

	fkQuery := fmt.Sprintf("PRAGMA foreign_key_list(%s)", s.QuoteIdentifier(table))
	var fkRows []foreignKeyRow
	if err := s.db.SelectContext(ctx, &fkRows, fkQuery); err != nil {
		return nil, source.Classify("foreign_key_list for "+table, err)
	}

	fkByColumn := make(map[string]*model.ForeignKeyRef, len(fkRows))
	for _, fk := range fkRows {
		fkByColumn[fk.From] = &model.ForeignKeyRef{Table: fk.Table, Column: fk.To}
	}

	columns := make([]model.Column, 0, len(rows))
	for _, row := range rows {
		isPK := row.PK > 0
		columns = append(columns, model.Column{
			Name:       row.Name,
			Type:       mapSQLiteType(row.Type),
			Nullable:   row.NotNull == 0 && !isPK,
			PrimaryKey: isPK,
			ForeignKey: fkByColumn[row.Name],
		})
	}
	return columns, nil
}

// mapSQLiteType maps a SQLite declared type to the normalized column type
// set, following SQLite affinity rules (https://sqlite.org/datatype3.html).
func mapSQLiteType(typeName string) model.ColumnType {
	upper := strings.ToUpper(strings.TrimSpace(typeName))

	// Strip parenthesized length/precision (e.g. VARCHAR(255) -> VARCHAR)
	if idx := strings.IndexByte(upper, '('); idx >= 0 {
		upper = strings.TrimSpace(upper[:idx])
	}

	switch {
	case strings.Contains(upper, "INT"):
		return model.TypeInteger
	case strings.Contains(upper, "BOOL"):
		return model.TypeBoolean
	case strings.Contains(upper, "DATE"),
		strings.Contains(upper, "TIME"):
		return model.TypeDatetime
	case strings.Contains(upper, "CHAR"),
		strings.Contains(upper, "CLOB"),
		strings.Contains(upper, "TEXT"):
		return model.TypeText
	case strings.Contains(upper, "BLOB") || upper == "":
		return model.TypeBlob
	case strings.Contains(upper, "REAL"),
		strings.Contains(upper, "FLOA"),
		strings.Contains(upper, "DOUB"),
		strings.Contains(upper, "NUMERIC"),
		strings.Contains(upper, "DECIMAL"):
		return model.TypeReal
	default:
		return model.TypeText
	}
}
