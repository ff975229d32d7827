package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/internal/mcptools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the triage tools over MCP (stdio)",
	Long: `Serve analyze_issue, triage_issue, assign_issue, the mapping tools and the
automation log to an MCP client over stdio.

Example client configuration:
  {"command": "triage", "args": ["mcp", "--agents-dir", "~/.claude/agents"]}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		s := mcptools.NewServer(a.service, a.parseRepo, a.cfg.AssignOptions(), Version)
		logging.Info("mcp server starting", "tracker", a.cfg.Triage.Tracker, "agent_dir", a.cfg.Triage.AgentDir)
		return server.ServeStdio(s)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
