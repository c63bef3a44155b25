package snowflake

import (
	"context"
	"strings"

	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
)

// columnRow holds the result of querying information_schema.columns.
type columnRow struct {
	ColumnName string `db:"COLUMN_NAME"`
	DataType   string `db:"DATA_TYPE"`
	IsNullable string `db:"IS_NULLABLE"`
	Position   int    `db:"ORDINAL_POSITION"`
	NumScale   *int64 `db:"NUMERIC_SCALE"`
}

// keyRow holds a key-column mapping from SHOW output post-processing.
type keyRow struct {
	ColumnName       string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table"`
	ReferencedColumn string `db:"referenced_column"`
}

// ListTables returns all base table names in the configured schema.
func (s *SnowflakeSource) ListTables(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	var names []string
	if err := s.db.SelectContext(ctx, &names, query, s.schemaName); err != nil {
		return nil, source.Classify("list tables", err)
	}
	return names, nil
}

// DescribeColumns returns the columns of a single table in declaration
// order. Key constraints come from SHOW PRIMARY KEYS / SHOW IMPORTED KEYS
// since Snowflake's information_schema does not expose key columns.
func (s *SnowflakeSource) DescribeColumns(ctx context.Context, table string) ([]model.Column, error) {
	const colQuery = `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, ORDINAL_POSITION, NUMERIC_SCALE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	var cols []columnRow
	if err := s.db.SelectContext(ctx, &cols, colQuery, s.schemaName, table); err != nil {
		return nil, source.Classify("describe columns for "+table, err)
	}

	pkSet, err := s.fetchPrimaryKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	fkByColumn, err := s.fetchForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}

	columns := make([]model.Column, 0, len(cols))
	for _, col := range cols {
		isPK := pkSet[col.ColumnName]
		columns = append(columns, model.Column{
			Name:       col.ColumnName,
			Type:       mapSnowflakeType(col.DataType, col.NumScale),
			Nullable:   col.IsNullable == "YES" && !isPK,
			PrimaryKey: isPK,
			ForeignKey: fkByColumn[col.ColumnName],
		})
	}
	return columns, nil
}

// fetchPrimaryKeys runs SHOW PRIMARY KEYS and extracts the column names.
func (s *SnowflakeSource) fetchPrimaryKeys(ctx context.Context, table string) (map[string]bool, error) {
	query := "SHOW PRIMARY KEYS IN TABLE " +
		s.QuoteIdentifier(s.schemaName) + "." + s.QuoteIdentifier(table)

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, source.Classify("primary keys for "+table, err)
	}
	defer rows.Close()

	pkSet := make(map[string]bool)
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, source.Classify("primary keys for "+table, err)
		}
		if name, ok := row["column_name"].(string); ok {
			pkSet[name] = true
		}
	}
	return pkSet, rows.Err()
}

// fetchForeignKeys runs SHOW IMPORTED KEYS and maps FK columns to their
// referenced table/column.
func (s *SnowflakeSource) fetchForeignKeys(ctx context.Context, table string) (map[string]*model.ForeignKeyRef, error) {
	query := "SHOW IMPORTED KEYS IN TABLE " +
		s.QuoteIdentifier(s.schemaName) + "." + s.QuoteIdentifier(table)

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, source.Classify("foreign keys for "+table, err)
	}
	defer rows.Close()

	fkByColumn := make(map[string]*model.ForeignKeyRef)
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, source.Classify("foreign keys for "+table, err)
		}
		col, _ := row["fk_column_name"].(string)
		refTable, _ := row["pk_table_name"].(string)
		refColumn, _ := row["pk_column_name"].(string)
		if col != "" && refTable != "" {
			fkByColumn[col] = &model.ForeignKeyRef{Table: refTable, Column: refColumn}
		}
	}
	return fkByColumn, rows.Err()
}

// mapSnowflakeType maps a Snowflake data type to the normalized column
// type set. NUMBER with scale 0 is an integer, otherwise real.
func mapSnowflakeType(dataType string, scale *int64) model.ColumnType {
	switch strings.ToUpper(dataType) {
	case "NUMBER", "DECIMAL", "NUMERIC":
		if scale != nil && *scale == 0 {
			return model.TypeInteger
		}
		return model.TypeReal
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "BYTEINT":
		return model.TypeInteger
	case "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "REAL":
		return model.TypeReal
	case "BOOLEAN":
		return model.TypeBoolean
	case "DATE", "DATETIME", "TIME", "TIMESTAMP", "TIMESTAMP_LTZ", "TIMESTAMP_NTZ", "TIMESTAMP_TZ":
		return model.TypeDatetime
	case "BINARY", "VARBINARY":
		return model.TypeBlob
	default:
		return model.TypeText
	}
}
