package catalog

import (
	"sort"

	"github.com/primerdb/primer/internal/model"
)

// DeriveEdges extracts foreign-key edges from column annotations. It is a
// pure function of the table set: identical input yields identical edges.
// Edges referencing a table or column that does not exist are dropped.
func DeriveEdges(tables []model.Table) []model.RelationshipEdge {
	known := make(map[string]*model.Table, len(tables))
	for i := range tables {
		known[tables[i].Name] = &tables[i]
	}

	var edges []model.RelationshipEdge
	for _, t := range tables {
		for _, col := range t.Columns {
			fk := col.ForeignKey
			if fk == nil {
				continue
			}
			target, ok := known[fk.Table]
			if !ok || target.Column(fk.Column) == nil {
				continue
			}
			edges = append(edges, model.RelationshipEdge{
				FromTable:  t.Name,
				FromColumn: col.Name,
				ToTable:    fk.Table,
				ToColumn:   fk.Column,
			})
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromTable != edges[j].FromTable {
			return edges[i].FromTable < edges[j].FromTable
		}
		return edges[i].FromColumn < edges[j].FromColumn
	})
	return edges
}

// CommonJoins returns table pairs connected by exactly one foreign key,
// ranked lexicographically. Ranking is deterministic by name since no
// usage telemetry is assumed.
func CommonJoins(edges []model.RelationshipEdge) []model.JoinPair {
	counts := make(map[model.JoinPair]int)
	for _, e := range edges {
		left, right := e.FromTable, e.ToTable
		if left == right {
			continue // self-references are not join candidates
		}
		if right < left {
			left, right = right, left
		}
		counts[model.JoinPair{Left: left, Right: right}]++
	}

	var pairs []model.JoinPair
	for pair, n := range counts {
		if n == 1 {
			pairs = append(pairs, pair)
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Left != pairs[j].Left {
			return pairs[i].Left < pairs[j].Left
		}
		return pairs[i].Right < pairs[j].Right
	})
	return pairs
}
