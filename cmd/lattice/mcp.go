package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/aretw0/lattice/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the editor as an MCP Server bound to one session.
This allows AI agents to build questionnaires through tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		listen, _ := cmd.Flags().GetString("listen")
		baseURL, _ := cmd.Flags().GetString("base-url")
		sessionID, _ := cmd.Flags().GetString("session")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Stop()

		ws, err := cli.NewWorkspace(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize workspace: %w", err)
		}
		defer ws.Close()

		srv, err := mcp.NewServer(ctx, ws, sessionID)
		if err != nil {
			return err
		}
		logger.Info("Editing session", "session_id", srv.SessionID())

		switch transport {
		case "stdio":
			// Logs go to Stderr so they don't corrupt JSON-RPC on Stdout
			logger.Info("Starting Lattice MCP Server (Stdio)...")
			err := srv.ServeStdio()
			cli.LogShutdown(ctx, logger, "mcp-stdio", ws.Sessions)
			return err
		case "sse":
			if baseURL == "" {
				baseURL = "http://localhost" + listen
			}
			err := srv.ServeSSE(ctx, listen, baseURL)
			cli.LogShutdown(ctx, logger, "mcp-sse", ws.Sessions)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("MCP Server execution failed: %w", err)
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("listen", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public base URL of the SSE endpoint")
	mcpCmd.Flags().String("session", "", "Session to resume; a new one is created when empty")
}
