package postgres

import (
	"context"
	"strings"

	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
)

// columnRow holds the result of querying information_schema.columns.
type columnRow struct {
	ColumnName string `db:"column_name"`
	DataType   string `db:"data_type"`
	UDTName    string `db:"udt_name"`
	IsNullable string `db:"is_nullable"`
	Position   int    `db:"ordinal_position"`
}

// keyRow holds a key-column mapping from information_schema.
type keyRow struct {
	ColumnName       string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table"`
	ReferencedColumn string `db:"referenced_column"`
}

// ListTables returns all base table names in the configured schema.
func (s *PostgresSource) ListTables(ctx context.Context) ([]string, error) {
	const query = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	var names []string
	if err := s.db.SelectContext(ctx, &names, query, s.schemaName); err != nil {
		return nil, source.Classify("list tables", err)
	}
	return names, nil
}

// DescribeColumns returns the columns of a single table in declaration
// order, with primary-key and foreign-key annotations.
func (s *PostgresSource) DescribeColumns(ctx context.Context, table string) ([]model.Column, error) {
	const colQuery = `SELECT column_name, data_type, udt_name, is_nullable, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	var cols []columnRow
	if err := s.db.SelectContext(ctx, &cols, colQuery, s.schemaName, table); err != nil {
		return nil, source.Classify("describe columns for "+table, err)
	}

	const pkQuery = `SELECT kcu.column_name, '' AS referenced_table, '' AS referenced_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2`

	var pks []keyRow
	if err := s.db.SelectContext(ctx, &pks, pkQuery, s.schemaName, table); err != nil {
		return nil, source.Classify("primary keys for "+table, err)
	}
	pkSet := make(map[string]bool, len(pks))
	for _, pk := range pks {
		pkSet[pk.ColumnName] = true
	}

	const fkQuery = `SELECT
			kcu.column_name,
			ccu.table_name AS referenced_table,
			ccu.column_name AS referenced_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2`

	var fks []keyRow
	if err := s.db.SelectContext(ctx, &fks, fkQuery, s.schemaName, table); err != nil {
		return nil, source.Classify("foreign keys for "+table, err)
	}
	fkByColumn := make(map[string]*model.ForeignKeyRef, len(fks))
	for _, fk := range fks {
		fkByColumn[fk.ColumnName] = &model.ForeignKeyRef{
			Table:  fk.ReferencedTable,
			Column: fk.ReferencedColumn,
		}
	}

	columns := make([]model.Column, 0, len(cols))
	for _, col := range cols {
		isPK := pkSet[col.ColumnName]
		columns = append(columns, model.Column{
			Name:       col.ColumnName,
			Type:       mapPostgresType(col.UDTName, col.DataType),
			Nullable:   col.IsNullable == "YES" && !isPK,
			PrimaryKey: isPK,
			ForeignKey: fkByColumn[col.ColumnName],
		})
	}
	return columns, nil
}

// mapPostgresType maps a PostgreSQL udt/data type to the normalized
// column type set.
func mapPostgresType(udtName, dataType string) model.ColumnType {
	udt := strings.ToLower(udtName)

	switch udt {
	case "int2", "int4", "int8", "serial", "bigserial", "smallserial":
		return model.TypeInteger
	case "float4", "float8", "numeric", "money":
		return model.TypeReal
	case "bool":
		return model.TypeBoolean
	case "date", "time", "timetz", "timestamp", "timestamptz", "interval":
		return model.TypeDatetime
	case "bytea":
		return model.TypeBlob
	}

	switch strings.ToLower(dataType) {
	case "integer", "bigint", "smallint":
		return model.TypeInteger
	case "real", "double precision", "numeric":
		return model.TypeReal
	case "boolean":
		return model.TypeBoolean
	}
	return model.TypeText
}
