package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	// -------------------------------------------------------------------
	// primer://context/schema — the current schema snapshot
	// -------------------------------------------------------------------
	srv.AddResource(
		mcp.NewResource(
			"primer://context/schema",
			"Database Schema Snapshot",
			mcp.WithResourceDescription(
				"The current schema snapshot: tables, columns, primary keys, "+
					"foreign-key relationships, and common join pairs.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleSchemaResource,
	)
}

// handleSchemaResource returns the current snapshot as JSON.
func (s *MCPServer) handleSchemaResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	snap := s.catalog.Current()

	payload := map[string]interface{}{
		"schema_version": snap.Version,
		"tables":         snap.Tables,
		"relationships":  snap.Edges,
		"common_joins":   snap.Joins,
	}

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema snapshot: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "primer://context/schema",
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
