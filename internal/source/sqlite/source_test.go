package sqlite

import (
	"context"
	"testing"

	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
)

func openTestSource(t *testing.T) source.Source {
	t.Helper()

	src := New()
	// A single connection keeps every statement on the same in-memory DB.
	cfg := source.ConnectionConfig{
		Driver:       "sqlite",
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
	if err := src.Connect(cfg); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	t.Cleanup(func() { src.Close() })

	schema := `
	CREATE TABLE customers (
		id     INTEGER PRIMARY KEY,
		region TEXT
	);
	CREATE TABLE orders (
		id          INTEGER PRIMARY KEY,
		customer_id INTEGER NOT NULL REFERENCES customers(id),
		amount      REAL,
		created_at  DATETIME
	);
	INSERT INTO customers (id, region) VALUES (1, 'emea'), (2, 'apac');
	INSERT INTO orders (id, customer_id, amount) VALUES
		(1, 1, 9.99), (2, 1, 20.5), (3, 2, NULL), (4, 2, 7.25);
	`
	if _, err := src.DB().Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return src
}

func TestListTables(t *testing.T) {
	src := openTestSource(t)

	tables, err := src.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables() error: %v", err)
	}

	want := []string{"customers", "orders"}
	if len(tables) != len(want) {
		t.Fatalf("ListTables() = %v, want %v", tables, want)
	}
	for i := range want {
		if tables[i] != want[i] {
			t.Errorf("tables[%d] = %q, want %q", i, tables[i], want[i])
		}
	}
}

func TestDescribeColumns(t *testing.T) {
	src := openTestSource(t)

	cols, err := src.DescribeColumns(context.Background(), "orders")
	if err != nil {
		t.Fatalf("DescribeColumns() error: %v", err)
	}
	if len(cols) != 4 {
		t.Fatalf("got %d columns, want 4", len(cols))
	}

	id := cols[0]
	if !id.PrimaryKey || id.Type != model.TypeInteger {
		t.Errorf("id column = %+v", id)
	}

	custID := cols[1]
	if custID.Nullable {
		t.Error("customer_id marked nullable despite NOT NULL")
	}
	if custID.ForeignKey == nil || custID.ForeignKey.Table != "customers" || custID.ForeignKey.Column != "id" {
		t.Errorf("customer_id foreign key = %+v", custID.ForeignKey)
	}

	if cols[2].Type != model.TypeReal || !cols[2].Nullable {
		t.Errorf("amount column = %+v", cols[2])
	}
	if cols[3].Type != model.TypeDatetime {
		t.Errorf("created_at column = %+v", cols[3])
	}
}

func TestDescribeColumnsMissingTable(t *testing.T) {
	src := openTestSource(t)

	if _, err := src.DescribeColumns(context.Background(), "nope"); err == nil {
		t.Error("DescribeColumns(nope) succeeded, want error")
	}
}

func TestSampleRows(t *testing.T) {
	src := openTestSource(t)

	sample, err := src.SampleRows(context.Background(), "orders", 3)
	if err != nil {
		t.Fatalf("SampleRows() error: %v", err)
	}

	if len(sample.Columns) != 4 || sample.Columns[0] != "id" {
		t.Errorf("columns = %v", sample.Columns)
	}
	if len(sample.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(sample.Rows))
	}
	// NULLs render as the literal for deterministic section text.
	if sample.Rows[2][2] != "NULL" {
		t.Errorf("null cell rendered as %q", sample.Rows[2][2])
	}
}

func TestRunAggregateQuery(t *testing.T) {
	src := openTestSource(t)

	expr, approximate := src.DistinctExpr(`"customer_id"`)
	if approximate {
		t.Error("sqlite distinct counts should be exact")
	}

	query := `SELECT COUNT(*) AS row_count, COUNT("amount") AS non_null_count, ` +
		expr + ` AS distinct_count FROM "orders"`
	result, err := src.RunAggregateQuery(context.Background(), query)
	if err != nil {
		t.Fatalf("RunAggregateQuery() error: %v", err)
	}

	if n, _ := source.AsInt64(result.Row["row_count"]); n != 4 {
		t.Errorf("row_count = %v", result.Row["row_count"])
	}
	if n, _ := source.AsInt64(result.Row["non_null_count"]); n != 3 {
		t.Errorf("non_null_count = %v", result.Row["non_null_count"])
	}
	if n, _ := source.AsInt64(result.Row["distinct_count"]); n != 2 {
		t.Errorf("distinct_count = %v", result.Row["distinct_count"])
	}
	if result.Approximate {
		t.Error("sqlite aggregate marked approximate")
	}
}

func TestQuoteIdentifier(t *testing.T) {
	src := New()

	if got := src.QuoteIdentifier("orders"); got != `"orders"` {
		t.Errorf("QuoteIdentifier(orders) = %s", got)
	}
	if got := src.QuoteIdentifier(`we"ird`); got != `"we""ird"` {
		t.Errorf("QuoteIdentifier(we\"ird) = %s", got)
	}
	if got := src.QualifiedTable("orders"); got != `"orders"` {
		t.Errorf("QualifiedTable(orders) = %s", got)
	}
	if got := source.SampleQuery(src, "orders", 3); got != `SELECT * FROM "orders" LIMIT 3` {
		t.Errorf("SampleQuery() = %s", got)
	}
}

func TestMapSQLiteType(t *testing.T) {
	tests := []struct {
		declared string
		want     model.ColumnType
	}{
		{"INTEGER", model.TypeInteger},
		{"int", model.TypeInteger},
		{"BIGINT", model.TypeInteger},
		{"VARCHAR(255)", model.TypeText},
		{"TEXT", model.TypeText},
		{"CLOB", model.TypeText},
		{"REAL", model.TypeReal},
		{"DOUBLE", model.TypeReal},
		{"NUMERIC(10,2)", model.TypeReal},
		{"BOOLEAN", model.TypeBoolean},
		{"DATETIME", model.TypeDatetime},
		{"DATE", model.TypeDatetime},
		{"BLOB", model.TypeBlob},
		{"", model.TypeBlob},
		{"mystery", model.TypeText},
	}

	for _, tt := range tests {
		if got := mapSQLiteType(tt.declared); got != tt.want {
			t.Errorf("mapSQLiteType(%q) = %s, want %s", tt.declared, got, tt.want)
		}
	}
}
