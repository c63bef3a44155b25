package postgres

import (
	"testing"

	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
)

func TestMapPostgresType(t *testing.T) {
	tests := []struct {
		udt      string
		dataType string
		want     model.ColumnType
	}{
		{"int4", "integer", model.TypeInteger},
		{"int8", "bigint", model.TypeInteger},
		{"serial", "integer", model.TypeInteger},
		{"float8", "double precision", model.TypeReal},
		{"numeric", "numeric", model.TypeReal},
		{"money", "money", model.TypeReal},
		{"bool", "boolean", model.TypeBoolean},
		{"timestamptz", "timestamp with time zone", model.TypeDatetime},
		{"interval", "interval", model.TypeDatetime},
		{"bytea", "bytea", model.TypeBlob},
		{"varchar", "character varying", model.TypeText},
		{"uuid", "uuid", model.TypeText},
		{"jsonb", "jsonb", model.TypeText},
		// Unknown udt falls back to the data_type column.
		{"custom_int_domain", "integer", model.TypeInteger},
		{"custom_num_domain", "numeric", model.TypeReal},
		{"custom_bool_domain", "boolean", model.TypeBoolean},
	}

	for _, tt := range tests {
		if got := mapPostgresType(tt.udt, tt.dataType); got != tt.want {
			t.Errorf("mapPostgresType(%q, %q) = %s, want %s", tt.udt, tt.dataType, got, tt.want)
		}
	}
}

func TestPostgresDialectHelpers(t *testing.T) {
	s := &PostgresSource{}

	if got := s.QuoteIdentifier(`or"ders`); got != `"or""ders"` {
		t.Errorf("QuoteIdentifier() = %s", got)
	}

	prefix, suffix := s.LimitClause(5)
	if prefix != "" || suffix != " LIMIT 5" {
		t.Errorf("LimitClause(5) = %q, %q", prefix, suffix)
	}

	expr, approximate := s.DistinctExpr(`"region"`)
	if expr != `COUNT(DISTINCT "region")` || approximate {
		t.Errorf("DistinctExpr() = %q, %v", expr, approximate)
	}

	if s.DriverName() != "postgres" {
		t.Errorf("DriverName() = %s", s.DriverName())
	}
}

func TestPostgresQualifiedQueries(t *testing.T) {
	src := New()

	if got := src.QualifiedTable("orders"); got != `"public"."orders"` {
		t.Errorf("QualifiedTable() = %s", got)
	}
	if got := source.SampleQuery(src, "orders", 5); got != `SELECT * FROM "public"."orders" LIMIT 5` {
		t.Errorf("SampleQuery() = %s", got)
	}
}
