package catalog

import (
	"testing"

	"github.com/primerdb/primer/internal/model"
)

func TestDeriveEdgesDropsDanglingForeignKeys(t *testing.T) {
	tables := []model.Table{
		{
			Name: "orders",
			Columns: []model.Column{
				{Name: "id", Type: model.TypeInteger},
				{Name: "customer_id", Type: model.TypeInteger,
					ForeignKey: &model.ForeignKeyRef{Table: "customers", Column: "id"}},
				{Name: "ghost_id", Type: model.TypeInteger,
					ForeignKey: &model.ForeignKeyRef{Table: "ghosts", Column: "id"}},
				{Name: "bad_col_id", Type: model.TypeInteger,
					ForeignKey: &model.ForeignKeyRef{Table: "customers", Column: "nope"}},
			},
		},
		{
			Name:    "customers",
			Columns: []model.Column{{Name: "id", Type: model.TypeInteger}},
		},
	}

	edges := DeriveEdges(tables)

	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1 (dangling references dropped)", len(edges))
	}
	if edges[0].FromColumn != "customer_id" {
		t.Errorf("surviving edge = %+v", edges[0])
	}
}

func TestDeriveEdgesDeterministicOrder(t *testing.T) {
	tables := []model.Table{
		{
			Name: "b_table",
			Columns: []model.Column{
				{Name: "z_ref", ForeignKey: &model.ForeignKeyRef{Table: "a_table", Column: "id"}},
				{Name: "a_ref", ForeignKey: &model.ForeignKeyRef{Table: "a_table", Column: "id"}},
			},
		},
		{
			Name:    "a_table",
			Columns: []model.Column{{Name: "id"}},
		},
	}

	edges := DeriveEdges(tables)

	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(edges))
	}
	if edges[0].FromColumn != "a_ref" || edges[1].FromColumn != "z_ref" {
		t.Errorf("edges not sorted by column: %+v", edges)
	}
}

func TestCommonJoinsSingleForeignKeyOnly(t *testing.T) {
	edges := []model.RelationshipEdge{
		// Exactly one FK between orders and customers.
		{FromTable: "orders", FromColumn: "customer_id", ToTable: "customers", ToColumn: "id"},
		// Two FKs between shipments and addresses: ambiguous, not a common join.
		{FromTable: "shipments", FromColumn: "from_addr", ToTable: "addresses", ToColumn: "id"},
		{FromTable: "shipments", FromColumn: "to_addr", ToTable: "addresses", ToColumn: "id"},
		// Self-reference is skipped.
		{FromTable: "employees", FromColumn: "manager_id", ToTable: "employees", ToColumn: "id"},
	}

	pairs := CommonJoins(edges)

	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1: %+v", len(pairs), pairs)
	}
	if pairs[0].Left != "customers" || pairs[0].Right != "orders" {
		t.Errorf("pair = %+v, want customers <-> orders", pairs[0])
	}
}

func TestCommonJoinsEmptyInput(t *testing.T) {
	if pairs := CommonJoins(nil); len(pairs) != 0 {
		t.Errorf("CommonJoins(nil) = %+v, want empty", pairs)
	}
}
