package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/primerdb/primer/internal/model"
)

// registerTools registers all primer MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Assembly tools -----

	srv.AddTool(
		mcp.NewTool("primer_assemble",
			mcp.WithDescription(
				"Assemble grounding context for a natural-language question about the "+
					"database. Returns a single text block with the schema, business rules, "+
					"data samples, and prior query history, plus relationship, example, "+
					"statistics, and error sections when the question calls for them. "+
					"Prepend the result to your SQL-generation prompt.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("question",
				mcp.Required(),
				mcp.Description("The natural-language question the SQL will answer"),
			),
			mcp.WithArray("errors",
				mcp.Description("Failed attempts from the current self-correction loop, "+
					"each an object with 'sql', 'message', and optional 'hint'"),
			),
		),
		s.handleAssemble,
	)

	srv.AddTool(
		mcp.NewTool("primer_record_attempt",
			mcp.WithDescription(
				"Record the outcome of an executed SQL attempt. Successful and failed "+
					"attempts both enter the query history; failed attempts additionally "+
					"enter the error store so later assemblies can warn about them. "+
					"Call this after every execution so future context reflects reality.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("question",
				mcp.Required(),
				mcp.Description("The natural-language question that was asked"),
			),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description("The SQL that was executed"),
			),
			mcp.WithBoolean("succeeded",
				mcp.Required(),
				mcp.Description("Whether the SQL executed without error"),
			),
			mcp.WithString("error_message",
				mcp.Description("The database error message, when succeeded is false"),
			),
			mcp.WithString("hint",
				mcp.Description("Optional corrective hint for future attempts"),
			),
		),
		s.handleRecordAttempt,
	)

	// ----- Discovery tools -----

	srv.AddTool(
		mcp.NewTool("primer_list_tables",
			mcp.WithDescription(
				"List all tables in the current schema snapshot with column summaries. "+
					"Use this to explore what data is available before asking for context.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListTables,
	)

	srv.AddTool(
		mcp.NewTool("primer_describe_table",
			mcp.WithDescription(
				"Get the detailed schema for a specific table, including all columns "+
					"with their types, nullability, primary keys, and foreign keys.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Name of the table to describe"),
			),
		),
		s.handleDescribeTable,
	)

	srv.AddTool(
		mcp.NewTool("primer_refresh_schema",
			mcp.WithDescription(
				"Re-introspect the database and replace the schema snapshot. Cached "+
					"statistics are invalidated. Call this after DDL changes; assemblies "+
					"in flight keep the snapshot they started with.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
		),
		s.handleRefreshSchema,
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

// handleAssemble builds context text for a question.
func (s *MCPServer) handleAssemble(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	question, err := requireString(request, "question")
	if err != nil {
		return toolError("%v", err)
	}

	transient := transientErrors(request)

	result, err := s.engine.Assemble(ctx, question, transient)
	if err != nil {
		return toolError("Context assembly failed: %v", err)
	}

	// The context text comes first; a JSON trailer names the sections
	// that fired so callers can assert selection without parsing the text.
	sections := make([]string, len(result.Included))
	for i, id := range result.Included {
		sections[i] = string(id)
	}
	meta, err := json.Marshal(map[string]any{"sections": sections})
	if err != nil {
		return nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(result.Text),
			mcp.NewTextContent(string(meta)),
		},
	}, nil
}

// handleRecordAttempt records one executed attempt into the memory stores.
func (s *MCPServer) handleRecordAttempt(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	question, err := requireString(request, "question")
	if err != nil {
		return toolError("%v", err)
	}
	sqlText, err := requireString(request, "sql")
	if err != nil {
		return toolError("%v", err)
	}
	succeeded, err := request.RequireBool("succeeded")
	if err != nil {
		return toolError("missing required parameter %q", "succeeded")
	}

	entry := model.NewHistoryEntry(question, sqlText, succeeded)
	s.history.Append(entry)

	if !succeeded {
		message := optionalString(request, "error_message")
		if message == "" {
			message = "execution failed"
		}
		s.errors.Append(model.NewErrorEntry(sqlText, message, optionalString(request, "hint")))
	}

	return successJSON(map[string]interface{}{
		"recorded":  entry.ID.String(),
		"succeeded": succeeded,
	})
}

// handleListTables returns the tables of the current snapshot.
func (s *MCPServer) handleListTables(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	snap := s.catalog.Current()

	type columnSummary struct {
		Name string `json:"name"`
		Type string `json:"type"`
		PK   bool   `json:"pk,omitempty"`
	}

	type tableInfo struct {
		Name    string          `json:"name"`
		Columns []columnSummary `json:"columns"`
	}

	tables := make([]tableInfo, 0, len(snap.Tables))
	for _, t := range snap.Tables {
		cols := make([]columnSummary, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = columnSummary{
				Name: c.Name,
				Type: string(c.Type),
				PK:   c.PrimaryKey,
			}
		}
		tables = append(tables, tableInfo{Name: t.Name, Columns: cols})
	}

	return successJSON(map[string]interface{}{
		"schema_version": snap.Version,
		"tables":         tables,
	})
}

// handleDescribeTable returns detailed schema for a specific table.
func (s *MCPServer) handleDescribeTable(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	tableName, err := requireString(request, "table")
	if err != nil {
		return toolError("%v", err)
	}

	snap := s.catalog.Current()
	table := snap.Table(tableName)
	if table == nil {
		// Provide available table names to help the LLM self-correct.
		names := make([]string, len(snap.Tables))
		for i, t := range snap.Tables {
			names[i] = t.Name
		}
		return toolError("Table %q not found.\n\nAvailable tables: %s",
			tableName, strings.Join(names, ", "))
	}

	return successJSON(table)
}

// handleRefreshSchema re-introspects the source into a new snapshot.
func (s *MCPServer) handleRefreshSchema(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	snap, err := s.catalog.Refresh(ctx, s.src)
	if err != nil {
		return toolError("Schema refresh failed, previous snapshot retained: %v", err)
	}
	s.stats.InvalidateAll()

	s.logger.Info("schema refreshed", "version", snap.Version, "tables", len(snap.Tables))
	return successJSON(map[string]interface{}{
		"schema_version": snap.Version,
		"tables":         len(snap.Tables),
	})
}

// transientErrors parses the optional 'errors' array into error entries.
func transientErrors(request mcp.CallToolRequest) []model.ErrorEntry {
	raw := getObjectSliceArg(request, "errors")
	if len(raw) == 0 {
		return nil
	}
	entries := make([]model.ErrorEntry, 0, len(raw))
	for _, obj := range raw {
		sqlText, _ := obj["sql"].(string)
		message, _ := obj["message"].(string)
		hint, _ := obj["hint"].(string)
		if sqlText == "" && message == "" {
			continue
		}
		entries = append(entries, model.NewErrorEntry(sqlText, message, hint))
	}
	return entries
}
