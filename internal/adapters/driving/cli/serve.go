package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lessonkit/refpipe/internal/adapters/driving/httpapi"
	"github.com/lessonkit/refpipe/internal/adapters/driving/mcp"
)

// defaultServeAddr is used when neither --addr nor settings name an address.
const defaultServeAddr = ":8080"

var (
	serveAddr    string
	serveWithMCP bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the extraction and validation API over HTTP.

Routes:
  POST /api/v1/lessons/{lessonID}/materials   upload files (multipart field "files")
  GET  /api/v1/lessons/{lessonID}/extractions list stored results
  GET  /api/v1/extractions/{fileID}           one stored result
  POST /api/v1/validate/{callType}            validate stage output
  POST /api/v1/plans                          assemble a slide plan
  GET  /health

With --mcp the MCP server is mounted at /mcp.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings, else :8080)")
	serveCmd.Flags().BoolVar(&serveWithMCP, "mcp", false, "mount the MCP server at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestionService == nil || validationService == nil {
		return errNotConfigured
	}

	ports := &httpapi.Ports{
		Ingestion:   ingestionService,
		Validation:  validationService,
		Plans:       planService,
		AllowLists:  allowListProvider,
		Recognition: recognitionStatus,
	}
	if serveWithMCP {
		server, err := mcp.NewServer(mcpPorts())
		if err != nil {
			return err
		}
		ports.MCP = server.Handler()
	}

	router, err := httpapi.NewRouter(ports, httpapi.DefaultConfig())
	if err != nil {
		return err
	}

	addr := resolveServeAddr()
	cmd.Printf("Serving on %s\n", addr)
	if err := httpapi.Serve(commandContext(cmd), addr, router); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// resolveServeAddr prefers the flag, then settings, then the default.
func resolveServeAddr() string {
	if serveAddr != "" {
		return serveAddr
	}
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil && s.ServerAddr != "" {
			return s.ServerAddr
		}
	}
	return defaultServeAddr
}
