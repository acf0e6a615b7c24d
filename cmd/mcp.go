package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kaiz-lifeos/kaiz/internal/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server speaks over stdio and exposes tools to drive the timer and query
sessions, statistics and task history. Logs go to the log file.`,
	Annotations: map[string]string{annotationLogFile: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.config.MCP.Enabled {
			return fmt.Errorf("MCP server is disabled; set mcp.enabled = true in the config file")
		}

		ctx, cancel := setupSignalHandler(cmd.Context())
		defer cancel()

		logger := app.logger("mcp")
		logger.Printf("starting MCP server on stdio")

		server := mcp.NewServer(app.engine, app.engine.Sessions(), app.tasks, logger)
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP server error: %w", err)
		}
		logger.Printf("MCP server stopped")
		return nil
	},
}
