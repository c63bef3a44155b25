package model

import "testing"

func TestColumnTypeOrderable(t *testing.T) {
	tests := []struct {
		typ  ColumnType
		want bool
	}{
		{TypeInteger, true},
		{TypeReal, true},
		{TypeText, true},
		{TypeDatetime, true},
		{TypeBoolean, false},
		{TypeBlob, false},
	}

	for _, tt := range tests {
		if got := tt.typ.Orderable(); got != tt.want {
			t.Errorf("Orderable(%s) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestTableColumn(t *testing.T) {
	table := Table{
		Name: "orders",
		Columns: []Column{
			{Name: "id", Type: TypeInteger, PrimaryKey: true},
			{Name: "amount", Type: TypeReal},
		},
	}

	if col := table.Column("amount"); col == nil || col.Type != TypeReal {
		t.Errorf("Column(amount) = %v, want real column", col)
	}
	if col := table.Column("missing"); col != nil {
		t.Errorf("Column(missing) = %v, want nil", col)
	}
}

func TestParseSection(t *testing.T) {
	for _, id := range CanonicalOrder {
		got, ok := ParseSection(string(id))
		if !ok || got != id {
			t.Errorf("ParseSection(%s) = %v, %v", id, got, ok)
		}
	}
	if _, ok := ParseSection("bogus"); ok {
		t.Error("ParseSection(bogus) succeeded, want failure")
	}
}

func TestCanonicalOrderCoversAllSections(t *testing.T) {
	if len(CanonicalOrder) != 8 {
		t.Fatalf("CanonicalOrder has %d sections, want 8", len(CanonicalOrder))
	}
	seen := map[SectionID]bool{}
	for _, id := range CanonicalOrder {
		if seen[id] {
			t.Errorf("duplicate section %s in CanonicalOrder", id)
		}
		seen[id] = true
	}
}

func TestColumnStatisticNullCount(t *testing.T) {
	stat := ColumnStatistic{RowCount: 100, NonNullCount: 88}
	if got := stat.NullCount(); got != 12 {
		t.Errorf("NullCount() = %d, want 12", got)
	}
}

func TestNewHistoryEntry(t *testing.T) {
	e := NewHistoryEntry("total revenue", "SELECT SUM(amount) FROM orders", true)

	if e.ID.String() == "" {
		t.Error("expected a generated ID")
	}
	if e.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
	if !e.Succeeded {
		t.Error("expected succeeded entry")
	}
}

func TestNewErrorEntry(t *testing.T) {
	e := NewErrorEntry("SELECT * FROM odres", "no such table: odres", "did you mean orders?")

	if e.ID.String() == "" {
		t.Error("expected a generated ID")
	}
	if e.Hint != "did you mean orders?" {
		t.Errorf("Hint = %q", e.Hint)
	}
}
