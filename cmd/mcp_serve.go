package cmd

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/mcptools"
)

var mcpServeCmd = &cobra.Command{
	Use:   "mcp-serve",
	Short: "Run MCP server on stdio",
	Long: `Starts a Model Context Protocol (MCP) server that exposes the scheduler
over stdio transport.

Available tools:
  - compute_daily_requests: Render the requests due for an account on a date
  - account_progress: Days passed, current and next level for an account
  - list_accounts: List accounts, optionally for one game
  - complete_level: Mark a level completed (or not) for an account

Example MCP client config:
  {
    "mcpServers": {
      "dailyctl": {
        "command": "/path/to/dailyctl",
        "args": ["mcp-serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	rootCmd.AddCommand(mcpServeCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	if store == nil {
		return cmd.Help()
	}

	server := mcptools.CreateMCPServer(&mcptools.Deps{
		Store:     store,
		Scheduler: scheduler,
		Planner:   planner,
		DataDir:   appConfig.DataDir,
	})

	// stdout carries the protocol; logrus already writes to stderr.
	log.WithFields(log.Fields{
		"storage":  appConfig.Storage,
		"data_dir": appConfig.DataDir,
	}).Info("starting dailyctl MCP server (stdio transport)")

	return server.Run(cmd.Context(), &mcp.StdioTransport{})
}
