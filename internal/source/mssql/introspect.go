package mssql

import (
	"context"
	"strings"

	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
)

// columnRow holds the result of querying INFORMATION_SCHEMA.COLUMNS.
type columnRow struct {
	ColumnName string `db:"COLUMN_NAME"`
	DataType   string `db:"DATA_TYPE"`
	IsNullable string `db:"IS_NULLABLE"`
	Position   int    `db:"ORDINAL_POSITION"`
}

// keyRow holds a key-column mapping.
type keyRow struct {
	ColumnName       string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table"`
	ReferencedColumn string `db:"referenced_column"`
}

// ListTables returns all base table names in the configured schema.
func (s *MSSQLSource) ListTables(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	var names []string
	if err := s.db.SelectContext(ctx, &names, query, s.schemaName); err != nil {
		return nil, source.Classify("list tables", err)
	}
	return names, nil
}

// DescribeColumns returns the columns of a single table in declaration
// order, with primary-key and foreign-key annotations.
func (s *MSSQLSource) DescribeColumns(ctx context.Context, table string) ([]model.Column, error) {
	const colQuery = `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, ORDINAL_POSITION
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION`

	var cols []columnRow
	if err := s.db.SelectContext(ctx, &cols, colQuery, s.schemaName, table); err != nil {
		return nil, source.Classify("describe columns for "+table, err)
	}

	const pkQuery = `SELECT kcu.COLUMN_NAME AS column_name,
			'' AS referenced_table, '' AS referenced_column
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
			AND tc.TABLE_SCHEMA = @p1
			AND tc.TABLE_NAME = @p2`

	var pks []keyRow
	if err := s.db.SelectContext(ctx, &pks, pkQuery, s.schemaName, table); err != nil {
		return nil, source.Classify("primary keys for "+table, err)
	}
	pkSet := make(map[string]bool, len(pks))
	for _, pk := range pks {
		pkSet[pk.ColumnName] = true
	}

	const fkQuery = `SELECT
			fk_col.name AS column_name,
			pk_tab.name AS referenced_table,
			pk_col.name AS referenced_column
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
		JOIN sys.tables fk_tab ON fkc.parent_object_id = fk_tab.object_id
		JOIN sys.columns fk_col ON fkc.parent_object_id = fk_col.object_id AND fkc.parent_column_id = fk_col.column_id
		JOIN sys.tables pk_tab ON fkc.referenced_object_id = pk_tab.object_id
		JOIN sys.columns pk_col ON fkc.referenced_object_id = pk_col.object_id AND fkc.referenced_column_id = pk_col.column_id
		JOIN sys.schemas sch ON fk_tab.schema_id = sch.schema_id
		WHERE sch.name = @p1 AND fk_tab.name = @p2`

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
			Type:       mapMSSQLType(col.DataType),
			Nullable:   col.IsNullable == "YES" && !isPK,
			PrimaryKey: isPK,
			ForeignKey: fkByColumn[col.ColumnName],
		})
	}
	return columns, nil
}

// mapMSSQLType maps a SQL Server data type to the normalized column type set.
func mapMSSQLType(dataType string) model.ColumnType {
	switch strings.ToLower(dataType) {
	case "tinyint", "smallint", "int", "bigint":
		return model.TypeInteger
	case "decimal", "numeric", "float", "real", "money", "smallmoney":
		return model.TypeReal
	case "bit":
		return model.TypeBoolean
	case "date", "datetime", "datetime2", "smalldatetime", "datetimeoffset", "time":
		return model.TypeDatetime
	case "binary", "varbinary", "image", "rowversion", "timestamp":
		return model.TypeBlob
	default:
		return model.TypeText
	}
}
