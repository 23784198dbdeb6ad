package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/xvierd/runstamp/internal/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server provides tools for resolving commits and recording runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.config.MCP.Enabled {
			return errors.New("MCP server is disabled (set mcp.enabled = true in the config)")
		}

		// stdout carries the protocol.
		fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server on stdio, press Ctrl+C to stop")

		server := mcp.NewServer(app.runs, Version)
		if err := server.Start(commandContext(cmd)); err != nil {
			return errors.Wrap(err, "MCP server error")
		}

		return nil
	},
}
