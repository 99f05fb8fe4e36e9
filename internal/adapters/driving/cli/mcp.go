package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lessonkit/refpipe/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an assistant can validate
generation output, assemble slide plans and read extraction results.

By default the server communicates over stdio using JSON-RPC.
Use --port to serve streamable HTTP instead.

Examples:
  # Stdio mode (default)
  refpipe mcp serve

  # HTTP mode
  refpipe mcp serve --port 8081`,
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

	server, err := mcp.NewServer(mcpPorts())
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.Printf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(commandContext(cmd), addr)
	}

	return server.Run(commandContext(cmd))
}

// mcpPorts collects the configured services for the MCP server.
func mcpPorts() *mcp.Ports {
	return &mcp.Ports{
		Validation: validationService,
		Plans:      planService,
		Ingestion:  ingestionService,
		AllowLists: allowListProvider,
	}
}
