package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/triage/internal/automation"
)

const agentKeywordPreview = 6

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents found in the agent directory",
	Long: `List every agent profile in the agent directory with its version and the
keywords it is matched on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		service, err := newService(cmd, cfg, nil)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return listAgents(ctx, cmd.OutOrStdout(), service)
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

func listAgents(ctx context.Context, w io.Writer, service *automation.Service) error {
	dir := service.AgentDir("")
	caps, err := service.Index().Load(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to load agents from %s: %w", dir, err)
	}
	if caps.Len() == 0 {
		fmt.Fprintf(w, "No agents found in %s\n", dir)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tVERSION\tKEYWORDS")
	for _, id := range caps.Order {
		profile := caps.Profiles[id]
		version := profile.Version
		if version == "" {
			version = "-"
		}
		kws := caps.Keywords[id].Sorted()
		preview := kws
		if len(preview) > agentKeywordPreview {
			preview = preview[:agentKeywordPreview]
		}
		more := ""
		if extra := len(kws) - len(preview); extra > 0 {
			more = fmt.Sprintf(" (+%d)", extra)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s%s\n", id, version, strings.Join(preview, ", "), more)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d agents in %s\n", caps.Len(), dir)
	return nil
}
