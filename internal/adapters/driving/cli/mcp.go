package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kurator/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve the query engine to MCP clients.

Tools:
  ask       grounded answer with citations, or the fixed abstention sentence
  retrieve  ranked passages for a query, no generation

Resource:
  kurator://store  the index generation being served

Stdio is the default transport, for desktop assistants that spawn the
binary. --port serves the streamable HTTP transport instead.

  kurator mcp serve
  kurator mcp serve --port 8080

The store is opened once at startup; restart the server to pick up a new
generation.`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "serve streamable HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ctx := commandContext(cmd)
	query, err := openQueryService(ctx)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{Query: query})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.Printf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
