package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server exposing the knowledge index
to AI assistants.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default, for Claude Desktop)
  centerbot mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  centerbot mcp serve --port 8090

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "centerbot": {
        "command": "/path/to/centerbot",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := mcp.NewServer(vectorStore)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if port > 0 {
		cmd.Printf("MCP server listening on :%d\n", port)
		return server.RunHTTP(ctx, fmt.Sprintf(":%d", port))
	}
	return server.Run(ctx)
}
