package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/triage/internal/analyzer"
	"github.com/danielolaszy/triage/internal/automation"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [issue-number]",
	Short: "Rank agents for an issue",
	Long: `Rank the agents in the agent directory for an issue.

The issue is fetched from the tracker when an issue number is given, otherwise
it is built from --title, --body and --labels. Nothing is written to the tracker.

Example:
  triage analyze -r owner/repo 42
  triage analyze --title "Login page crashes" --labels bug,ui/ux`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, a.cfg.Triage.RequestTimeout, 1)
		defer cancel()

		var issue models.Issue
		if len(args) == 1 {
			number, err := parseIssueNumber(args[0])
			if err != nil {
				return err
			}
			owner, repo, err := a.repository(cmd)
			if err != nil {
				return err
			}
			fetched, err := a.tracker.FetchIssue(ctx, owner, repo, number, "")
			if err != nil {
				return fmt.Errorf("failed to fetch issue: %w", err)
			}
			issue = *fetched
		} else {
			title, _ := cmd.Flags().GetString("title")
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("an issue number or --title is required")
			}
			body, _ := cmd.Flags().GetString("body")
			labels, _ := cmd.Flags().GetStringSlice("labels")
			issue = models.Issue{Title: title, Body: body, Labels: labels, State: models.StateOpen}
		}

		maxMatches, _ := cmd.Flags().GetInt("max")
		threshold, _ := cmd.Flags().GetInt("threshold")
		asJSON, _ := cmd.Flags().GetBool("json")
		return runAnalyze(ctx, cmd.OutOrStdout(), a.service, issue, maxMatches, threshold, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().String("title", "", "Issue title for an ad-hoc analysis")
	analyzeCmd.Flags().String("body", "", "Issue body for an ad-hoc analysis")
	analyzeCmd.Flags().StringSlice("labels", nil, "Issue labels for an ad-hoc analysis")
	analyzeCmd.Flags().Int("max", 5, "Maximum number of agents to show (0 for all)")
	analyzeCmd.Flags().Int("threshold", 0, "Minimum score to show an agent")
	analyzeCmd.Flags().Bool("json", false, "Print the full analysis as JSON")
}

func runAnalyze(ctx context.Context, w io.Writer, service *automation.Service, issue models.Issue, maxMatches, threshold int, asJSON bool) error {
	analysis := service.Analyzer().AnalyzeIssue(ctx, issue, service.AgentDir(""))
	analysis.AgentMatches = analyzer.FilterMatches(analysis.AgentMatches, maxMatches, threshold)

	logging.Info("analyzed issue",
		"issue", issue.Number,
		"keywords", len(analysis.ExtractedKeywords),
		"matches", len(analysis.AgentMatches))

	if asJSON {
		return writeJSON(w, analysis)
	}

	fmt.Fprintf(w, "Issue: %s\n", issue.Title)
	fmt.Fprintf(w, "Keywords: %s\n", strings.Join(analysis.ExtractedKeywords, ", "))
	if len(analysis.SuggestedLabels) > 0 {
		fmt.Fprintf(w, "Suggested labels: %s\n", strings.Join(analysis.SuggestedLabels, ", "))
	}
	fmt.Fprintln(w)

	if len(analysis.AgentMatches) == 0 {
		fmt.Fprintln(w, "No matching agents.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tSCORE\tCONFIDENCE\tREASON")
	for _, m := range analysis.AgentMatches {
		fmt.Fprintf(tw, "%s\t%d\t%s %s\t%s\n", m.AgentName, m.Score, automation.ConfidenceMarker(m.Confidence), m.Confidence, m.MatchReason)
	}
	return tw.Flush()
}
