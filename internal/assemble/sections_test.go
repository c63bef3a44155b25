package assemble

import (
	"strings"
	"testing"

	"github.com/primerdb/primer/internal/catalog"
	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
)

func sampleSnapshot() *catalog.Snapshot {
	c := catalog.New()
	return c.Load([]model.Table{
		{
			Name:       "orders",
			Annotation: "one row per purchase",
			Columns: []model.Column{
				{Name: "id", Type: model.TypeInteger, PrimaryKey: true},
				{Name: "customer_id", Type: model.TypeInteger, Nullable: true,
					ForeignKey: &model.ForeignKeyRef{Table: "customers", Column: "id"}},
				{Name: "amount", Type: model.TypeReal, Nullable: true},
			},
		},
		{
			Name: "customers",
			Columns: []model.Column{
				{Name: "id", Type: model.TypeInteger, PrimaryKey: true},
				{Name: "region", Type: model.TypeText, Nullable: true},
			},
		},
	})
}

func TestSectionHeaderShape(t *testing.T) {
	header := sectionHeader(model.SectionSchema)

	lines := strings.Split(header, "\n")
	if lines[0] != "DATABASE SCHEMA" {
		t.Errorf("title = %q", lines[0])
	}
	if lines[1] != strings.Repeat("-", 72) {
		t.Errorf("rule = %q", lines[1])
	}
}

func TestFormatSchema(t *testing.T) {
	text := formatSchema(sampleSnapshot())

	for _, want := range []string{
		"TABLE orders",
		"  -- one row per purchase",
		"(primary key, not null)",
		"references customers.id",
		"TABLE customers",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("schema text missing %q:\n%s", want, text)
		}
	}
}

func TestFormatSchemaEmpty(t *testing.T) {
	if got := formatSchema(&catalog.Snapshot{}); got != "(no tables loaded)\n" {
		t.Errorf("empty schema text = %q", got)
	}
}

func TestFormatRelationships(t *testing.T) {
	text := formatRelationships(sampleSnapshot())

	if !strings.Contains(text, "orders.customer_id -> customers.id") {
		t.Errorf("missing edge line:\n%s", text)
	}
	if !strings.Contains(text, "Common joins:") || !strings.Contains(text, "customers <-> orders") {
		t.Errorf("missing common join:\n%s", text)
	}
}

func TestFormatBusiness(t *testing.T) {
	if got := formatBusiness(""); got != "(no business rules configured)\n" {
		t.Errorf("empty rules = %q", got)
	}
	if got := formatBusiness("Revenue is net of refunds.\n\n"); got != "Revenue is net of refunds.\n" {
		t.Errorf("trailing newlines not normalized: %q", got)
	}
}

func TestFormatExamples(t *testing.T) {
	text := formatExamples([]model.ExampleEntry{
		{Question: "total revenue", SQL: "SELECT SUM(amount) FROM orders", Note: "net of refunds"},
		{Question: "customer count", SQL: "SELECT COUNT(*) FROM customers"},
	})

	want := "Q: total revenue\n" +
		"SQL: SELECT SUM(amount) FROM orders\n" +
		"Note: net of refunds\n" +
		"\n" +
		"Q: customer count\n" +
		"SQL: SELECT COUNT(*) FROM customers\n"
	if text != want {
		t.Errorf("examples text = %q, want %q", text, want)
	}
}

func TestFormatSamples(t *testing.T) {
	samples := []tableSample{
		{
			table: "orders",
			sample: &source.Sample{
				Table:   "orders",
				Columns: []string{"id", "amount"},
				Rows:    [][]string{{"1", "9.99"}, {"2", "NULL"}},
			},
		},
		{
			table:  "customers",
			sample: &source.Sample{Table: "customers", Columns: []string{"id"}, Rows: [][]string{}},
		},
		{table: "audit_log", marker: "samples unavailable (timed out)"},
	}

	text := formatSamples(samples, 3)

	for _, want := range []string{
		"TABLE orders (first 3 rows)",
		"  id | amount",
		"  2 | NULL",
		"  (empty table)",
		"  [samples unavailable (timed out)]",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("samples text missing %q:\n%s", want, text)
		}
	}
}

func TestFormatStatistics(t *testing.T) {
	minVal, maxVal := "1", "500"
	stats := []columnStat{
		{
			table: "orders", column: "amount",
			stat: model.ColumnStatistic{
				RowCount: 100, NonNullCount: 90, DistinctCount: 40,
				Min: &minVal, Max: &maxVal,
			},
		},
		{
			table: "orders", column: "customer_id",
			stat: model.ColumnStatistic{
				RowCount: 100, NonNullCount: 100, DistinctCount: 12, Approximate: true,
			},
		},
		{table: "orders", column: "payload", marker: "statistics unavailable"},
	}

	text := formatStatistics(stats)

	for _, want := range []string{
		"orders.amount: rows=100 distinct=40 nulls=10 range=[1 .. 500]",
		"orders.customer_id: rows=100 distinct=12 nulls=0 (approximate)",
		"orders.payload: [statistics unavailable]",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("statistics text missing %q:\n%s", want, text)
		}
	}
}

func TestFormatHistory(t *testing.T) {
	entries := []model.HistoryEntry{
		{Question: "total revenue", SQL: "SELECT SUM(amount) FROM orders", Succeeded: true},
		{Question: "bad query", SQL: "SELECT * FROM odres", Succeeded: false},
	}

	text := formatHistory(entries)

	if !strings.Contains(text, "[ok] Q: total revenue") {
		t.Errorf("missing ok line:\n%s", text)
	}
	if !strings.Contains(text, "[failed] Q: bad query") {
		t.Errorf("missing failed line:\n%s", text)
	}
	if !strings.Contains(text, "     SQL: SELECT SUM(amount) FROM orders") {
		t.Errorf("missing sql line:\n%s", text)
	}
}

func TestFormatErrorsTransientFirst(t *testing.T) {
	transient := []model.ErrorEntry{
		{SQL: "SELECT x", Message: "no such column: x", Hint: "use amount"},
	}
	persisted := []model.ErrorEntry{
		{SQL: "SELECT * FROM odres", Message: "no such table: odres"},
	}

	text := formatErrors(transient, persisted)

	currentIdx := strings.Index(text, "CURRENT ATTEMPT:")
	earlierIdx := strings.Index(text, "EARLIER FAILURES:")
	if currentIdx < 0 || earlierIdx < 0 || currentIdx > earlierIdx {
		t.Fatalf("section ordering wrong:\n%s", text)
	}
	if !strings.Contains(text, "  Hint: use amount") {
		t.Errorf("missing hint:\n%s", text)
	}
}

func TestFormatErrorsEmpty(t *testing.T) {
	if got := formatErrors(nil, nil); got != "(no recorded errors)\n" {
		t.Errorf("empty errors text = %q", got)
	}
}
