package mysql

import (
	"context"
	"strings"

	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
)

// columnRow holds the result of querying information_schema.COLUMNS.
type columnRow struct {
	ColumnName string `db:"COLUMN_NAME"`
	DataType   string `db:"DATA_TYPE"`
	ColumnType string `db:"COLUMN_TYPE"`
	IsNullable string `db:"IS_NULLABLE"`
	ColumnKey  string `db:"COLUMN_KEY"`
	Position   int    `db:"ORDINAL_POSITION"`
}

// fkRow holds a foreign key relationship from KEY_COLUMN_USAGE.
type fkRow struct {
	ColumnName       string `db:"COLUMN_NAME"`
	ReferencedTable  string `db:"REFERENCED_TABLE_NAME"`
	ReferencedColumn string `db:"REFERENCED_COLUMN_NAME"`
}

// ListTables returns all base table names in the configured schema.
func (s *MySQLSource) ListTables(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	var names []string
	if err := s.db.SelectContext(ctx, &names, query, s.schemaName); err != nil {
		return nil, source.Classify("list tables", err)
	}
	return names, nil
}

// DescribeColumns returns the columns of a single table in declaration
// order, with primary-key and foreign-key annotations.
func (s *MySQLSource) DescribeColumns(ctx context.Context, table string) ([]model.Column, error) {
	const colQuery = `SELECT COLUMN_NAME, DATA_TYPE, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY, ORDINAL_POSITION
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	var cols []columnRow
	if err := s.db.SelectContext(ctx, &cols, colQuery, s.schemaName, table); err != nil {
		return nil, source.Classify("describe columns for "+table, err)
	}

	const fkQuery = `SELECT COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
			AND REFERENCED_TABLE_NAME IS NOT NULL`

	var fks []fkRow
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
		isPK := col.ColumnKey == "PRI"
		columns = append(columns, model.Column{
			Name:       col.ColumnName,
			Type:       mapMySQLType(col.DataType, col.ColumnType),
			Nullable:   col.IsNullable == "YES" && !isPK,
			PrimaryKey: isPK,
			ForeignKey: fkByColumn[col.ColumnName],
		})
	}
	return columns, nil
}

// mapMySQLType maps a MySQL data type to the normalized column type set.
// tinyint(1) is MySQL's boolean convention.
func mapMySQLType(dataType, columnType string) model.ColumnType {
	dt := strings.ToLower(dataType)

	if dt == "tinyint" && strings.HasPrefix(strings.ToLower(columnType), "tinyint(1)") {
		return model.TypeBoolean
	}

	switch dt {
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint", "year":
		return model.TypeInteger
	case "decimal", "numeric", "float", "double":
		return model.TypeReal
	case "date", "datetime", "timestamp", "time":
		return model.TypeDatetime
	case "blob", "tinyblob", "mediumblob", "longblob", "binary", "varbinary", "bit":
		return model.TypeBlob
	default:
		return model.TypeText
	}
}
