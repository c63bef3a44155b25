package mcp

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/primerdb/primer/internal/assemble"
	"github.com/primerdb/primer/internal/catalog"
	"github.com/primerdb/primer/internal/example"
	"github.com/primerdb/primer/internal/memory"
	"github.com/primerdb/primer/internal/model"
	"github.com/primerdb/primer/internal/source"
	"github.com/primerdb/primer/internal/stats"
)

// toolSource serves deterministic samples and aggregates for handler tests.
type toolSource struct{}

func (f *toolSource) Connect(source.ConnectionConfig) error { return nil }
func (f *toolSource) Close() error                          { return nil }
func (f *toolSource) Ping(context.Context) error            { return nil }
func (f *toolSource) DB() *sqlx.DB                          { return nil }

func (f *toolSource) ListTables(context.Context) ([]string, error) { return nil, nil }
func (f *toolSource) DescribeColumns(context.Context, string) ([]model.Column, error) {
	return nil, nil
}

func (f *toolSource) SampleRows(_ context.Context, table string, n int) (*source.Sample, error) {
	return &source.Sample{Table: table, Columns: []string{"id"}, Rows: [][]string{{"1"}}}, nil
}

func (f *toolSource) RunAggregateQuery(context.Context, string, ...any) (*source.AggregateResult, error) {
	return &source.AggregateResult{Row: map[string]any{
		"row_count":      int64(1),
		"non_null_count": int64(1),
		"distinct_count": int64(1),
	}}, nil
}

func (f *toolSource) DriverName() string                 { return "fake" }
func (f *toolSource) QuoteIdentifier(name string) string { return `"` + name + `"` }
func (f *toolSource) QualifiedTable(name string) string  { return `"` + name + `"` }
func (f *toolSource) LimitClause(n int) (string, string) { return "", "LIMIT" }
func (f *toolSource) DistinctExpr(col string) (string, bool) {
	return "COUNT(DISTINCT " + col + ")", false
}

func testServer(t *testing.T) *MCPServer {
	t.Helper()

	src := &toolSource{}
	cat := catalog.New()
	cat.Load([]model.Table{
		{
			Name: "orders",
			Columns: []model.Column{
				{Name: "id", Type: model.TypeInteger, PrimaryKey: true},
			},
		},
	})

	history := memory.NewHistoryStore(10)
	errs := memory.NewErrorStore(5)

	engine := assemble.New(assemble.Options{
		Catalog:  cat,
		Stats:    stats.New(src),
		Examples: example.NewLibrary(nil),
		History:  history,
		Errors:   errs,
		Source:   src,
	})

	return NewMCPServer(Options{
		Engine:  engine,
		Catalog: cat,
		Stats:   stats.New(src),
		History: history,
		Errors:  errs,
		Source:  src,
		Logger:  slog.New(slog.DiscardHandler),
	})
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, result *mcp.CallToolResult, i int) string {
	t.Helper()
	if i >= len(result.Content) {
		t.Fatalf("result has %d content items, want at least %d", len(result.Content), i+1)
	}
	tc, ok := result.Content[i].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[%d] is %T, want TextContent", i, result.Content[i])
	}
	return tc.Text
}

func TestHandleAssembleReportsSections(t *testing.T) {
	s := testServer(t)

	result, err := s.handleAssemble(context.Background(),
		callRequest(map[string]any{"question": "list products"}))
	if err != nil {
		t.Fatalf("handleAssemble() error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handleAssemble() returned tool error: %v", result.Content)
	}

	text := textContent(t, result, 0)
	if !strings.Contains(text, "DATABASE SCHEMA") {
		t.Errorf("context text missing schema section:\n%s", text)
	}

	meta := textContent(t, result, 1)
	for _, want := range []string{`"sections"`, `"schema"`, `"data_samples"`, `"history"`} {
		if !strings.Contains(meta, want) {
			t.Errorf("section trailer missing %s: %s", want, meta)
		}
	}
	if strings.Contains(meta, `"statistics"`) {
		t.Errorf("statistics reported without a trigger word: %s", meta)
	}
}

func TestHandleAssembleMissingQuestion(t *testing.T) {
	s := testServer(t)

	result, err := s.handleAssemble(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleAssemble() error: %v", err)
	}
	if !result.IsError {
		t.Error("missing question did not produce a tool error")
	}
}

func TestHandleRecordAttemptFeedsStores(t *testing.T) {
	s := testServer(t)

	result, err := s.handleRecordAttempt(context.Background(), callRequest(map[string]any{
		"question":      "total revenue",
		"sql":           "SELECT SUM(amount) FROM odres",
		"succeeded":     false,
		"error_message": "no such table: odres",
	}))
	if err != nil {
		t.Fatalf("handleRecordAttempt() error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handleRecordAttempt() returned tool error: %v", result.Content)
	}

	if s.history.Len() != 1 {
		t.Errorf("history entries = %d, want 1", s.history.Len())
	}
	if s.errors.Len() != 1 {
		t.Errorf("error entries = %d, want 1", s.errors.Len())
	}
}
