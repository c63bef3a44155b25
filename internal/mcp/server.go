package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/primerdb/primer/internal/assemble"
	"github.com/primerdb/primer/internal/catalog"
	"github.com/primerdb/primer/internal/memory"
	"github.com/primerdb/primer/internal/source"
	"github.com/primerdb/primer/internal/stats"
)

// MCPServer wraps the mcp-go server with primer-specific tool and resource
// registrations. It exposes context assembly and schema discovery as MCP
// tools so AI agents can ground their SQL generation on the live database.
type MCPServer struct {
	engine  *assemble.Engine
	catalog *catalog.Catalog
	stats   *stats.Store
	history *memory.HistoryStore
	errors  *memory.ErrorStore
	src     source.Source
	logger  *slog.Logger
	server  *server.MCPServer
}

// Options carries the collaborators the MCP tools operate on.
type Options struct {
	Engine  *assemble.Engine
	Catalog *catalog.Catalog
	Stats   *stats.Store
	History *memory.HistoryStore
	Errors  *memory.ErrorStore
	Source  source.Source
	Logger  *slog.Logger
}

// NewMCPServer creates an MCPServer pre-loaded with all primer tools and
// resources. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(opts Options) *MCPServer {
	s := &MCPServer{
		engine:  opts.Engine,
		catalog: opts.Catalog,
		stats:   opts.Stats,
		history: opts.History,
		errors:  opts.Errors,
		src:     opts.Source,
		logger:  opts.Logger,
	}

	mcpServer := server.NewMCPServer(
		"Primer Context Assembly",
		"0.1.0",
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance. Useful for
// advanced configuration or testing.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode. This is the primary
// integration path for MCP clients that launch the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":3001"). This is suitable for remote MCP clients.
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
