package assemble

import (
	"fmt"
	"strings"

	"github.com/primerdb/primer/internal/catalog"
	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
)

// Section text follows a stable convention: a title line, a separator
// rule, a body. Golden tests assert exact output for a fixed store state,
// so every formatter here must be pure: identical input, byte-identical
// text.

const ruleWidth = 72

var sectionTitles = map[model.SectionID]string{
	model.SectionSchema:        "DATABASE SCHEMA",
	model.SectionRelationships: "TABLE RELATIONSHIPS",
	model.SectionBusiness:      "BUSINESS RULES",
	model.SectionExamples:      "EXAMPLE QUERIES",
	model.SectionDataSamples:   "DATA SAMPLES",
	model.SectionStatistics:    "COLUMN STATISTICS",
	model.SectionHistory:       "QUERY HISTORY",
	model.SectionErrors:        "EXECUTION ERRORS",
}

func sectionHeader(id model.SectionID) string {
	return sectionTitles[id] + "\n" + strings.Repeat("-", ruleWidth) + "\n"
}

// formatSchema renders every table with its columns in declaration order.
func formatSchema(snap *catalog.Snapshot) string {
	if len(snap.Tables) == 0 {
		return "(no tables loaded)\n"
	}

	var b strings.Builder
	for i, t := range snap.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("TABLE " + t.Name + "\n")
		if t.Annotation != "" {
			b.WriteString("  -- " + t.Annotation + "\n")
		}
		for _, col := range t.Columns {
			b.WriteString(formatColumn(col))
		}
	}
	return b.String()
}

func formatColumn(col model.Column) string {
	var flags []string
	if col.PrimaryKey {
		flags = append(flags, "primary key")
	}
	if !col.Nullable {
		flags = append(flags, "not null")
	}
	if col.ForeignKey != nil {
		flags = append(flags, "references "+col.ForeignKey.Table+"."+col.ForeignKey.Column)
	}

	line := fmt.Sprintf("  %-24s %s", col.Name, col.Type)
	if len(flags) > 0 {
		line += "  (" + strings.Join(flags, ", ") + ")"
	}
	return line + "\n"
}

// formatRelationships renders foreign-key edges and common join pairs.
func formatRelationships(snap *catalog.Snapshot) string {
	if len(snap.Edges) == 0 {
		return "(no foreign-key relationships)\n"
	}

	var b strings.Builder
	for _, e := range snap.Edges {
		fmt.Fprintf(&b, "%s.%s -> %s.%s\n", e.FromTable, e.FromColumn, e.ToTable, e.ToColumn)
	}
	if len(snap.Joins) > 0 {
		b.WriteString("\nCommon joins:\n")
		for _, j := range snap.Joins {
			fmt.Fprintf(&b, "  %s <-> %s\n", j.Left, j.Right)
		}
	}
	return b.String()
}

// formatBusiness renders the static configured rules template.
func formatBusiness(rules string) string {
	if strings.TrimSpace(rules) == "" {
		return "(no business rules configured)\n"
	}
	text := strings.TrimRight(rules, "\n")
	return text + "\n"
}

// formatExamples renders few-shot entries in priority order.
func formatExamples(entries []model.ExampleEntry) string {
	if len(entries) == 0 {
		return "(no examples configured)\n"
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Q: %s\n", e.Question)
		fmt.Fprintf(&b, "SQL: %s\n", e.SQL)
		if e.Note != "" {
			fmt.Fprintf(&b, "Note: %s\n", e.Note)
		}
	}
	return b.String()
}

// tableSample pairs a table with its sample rows or the failure marker.
type tableSample struct {
	table  string
	sample *source.Sample
	marker string // non-empty when the fetch failed
}

// formatSamples renders per-table row samples. Failed fetches carry an
// explicit marker instead of disappearing, so the consumer is not misled
// by absence.
func formatSamples(samples []tableSample, rows int) string {
	if len(samples) == 0 {
		return "(no tables to sample)\n"
	}

	var b strings.Builder
	for i, ts := range samples {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "TABLE %s (first %d rows)\n", ts.table, rows)
		if ts.marker != "" {
			b.WriteString("  [" + ts.marker + "]\n")
			continue
		}
		b.WriteString("  " + strings.Join(ts.sample.Columns, " | ") + "\n")
		if len(ts.sample.Rows) == 0 {
			b.WriteString("  (empty table)\n")
			continue
		}
		for _, row := range ts.sample.Rows {
			b.WriteString("  " + strings.Join(row, " | ") + "\n")
		}
	}
	return b.String()
}

// columnStat pairs a column with its statistic or the failure marker.
type columnStat struct {
	table  string
	column string
	stat   model.ColumnStatistic
	marker string // non-empty when computation failed
}

// formatStatistics renders one line per column. Approximate figures are
// marked; unavailable ones carry an explicit marker.
func formatStatistics(stats []columnStat) string {
	if len(stats) == 0 {
		return "(no columns to profile)\n"
	}

	var b strings.Builder
	for _, cs := range stats {
		if cs.marker != "" {
			fmt.Fprintf(&b, "%s.%s: [%s]\n", cs.table, cs.column, cs.marker)
			continue
		}
		fmt.Fprintf(&b, "%s.%s: rows=%d distinct=%d nulls=%d",
			cs.table, cs.column, cs.stat.RowCount, cs.stat.DistinctCount, cs.stat.NullCount())
		if cs.stat.Min != nil && cs.stat.Max != nil {
			fmt.Fprintf(&b, " range=[%s .. %s]", *cs.stat.Min, *cs.stat.Max)
		}
		if cs.stat.Approximate {
			b.WriteString(" (approximate)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatHistory renders prior attempts in chronological order.
func formatHistory(entries []model.HistoryEntry) string {
	if len(entries) == 0 {
		return "(no prior queries)\n"
	}

	var b strings.Builder
	for _, e := range entries {
		status := "ok"
		if !e.Succeeded {
			status = "failed"
		}
		fmt.Fprintf(&b, "[%s] Q: %s\n", status, e.Question)
		fmt.Fprintf(&b, "     SQL: %s\n", e.SQL)
	}
	return b.String()
}

// formatErrors renders the union of transient and persisted error
// entries. Transient entries come first: they belong to the current
// self-correction attempt and matter most.
func formatErrors(transient, persisted []model.ErrorEntry) string {
	var b strings.Builder

	if len(transient) > 0 {
		b.WriteString("CURRENT ATTEMPT:\n")
		for _, e := range transient {
			writeErrorEntry(&b, e)
		}
	}
	if len(persisted) > 0 {
		if len(transient) > 0 {
			b.WriteString("\n")
		}
		b.WriteString("EARLIER FAILURES:\n")
		for _, e := range persisted {
			writeErrorEntry(&b, e)
		}
	}
	if b.Len() == 0 {
		return "(no recorded errors)\n"
	}
	return b.String()
}

func writeErrorEntry(b *strings.Builder, e model.ErrorEntry) {
	fmt.Fprintf(b, "  SQL: %s\n", e.SQL)
	fmt.Fprintf(b, "  Error: %s\n", e.Message)
	if e.Hint != "" {
		fmt.Fprintf(b, "  Hint: %s\n", e.Hint)
	}
}
