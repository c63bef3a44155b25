package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pmcp "github.com/primerdb/primer/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes context assembly
and schema discovery as tools for AI agents. Supports stdio (default) and
HTTP transports.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for direct integration with Claude Desktop or other MCP clients.

In HTTP mode, the server listens on the specified port for remote clients.`,
		Example: `  primer mcp                               # stdio mode (for Claude Desktop)
  primer mcp --transport http --port 3001  # HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd, transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport mode: stdio or http (default from config)")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(cmd *cobra.Command, transport string, port int) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if transport == "" {
		transport = a.cfg.MCP.Transport
	}

	mcpSrv := pmcp.NewMCPServer(pmcp.Options{
		Engine:  a.engine,
		Catalog: a.catalog,
		Stats:   a.stats,
		History: a.history,
		Errors:  a.errors,
		Source:  a.src,
		Logger:  a.logger,
	})

	switch transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
