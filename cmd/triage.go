package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/triage/internal/automation"
	"github.com/danielolaszy/triage/pkg/models"
)

var triageCmd = &cobra.Command{
	Use:   "triage <issue-number>",
	Short: "Summarize an issue with suggested agents and labels",
	Long: `Produce a triage summary for an issue: up to three suggested agents, suggested
labels, and whether a human needs to review it.

The summary is printed; with --post it is also posted as a comment.

Example:
  triage triage -r owner/repo 42 --post`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := parseIssueNumber(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		owner, repo, err := a.repository(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd, a.cfg.Triage.RequestTimeout, 2)
		defer cancel()
		post, _ := cmd.Flags().GetBool("post")
		asJSON, _ := cmd.Flags().GetBool("json")
		return runTriage(ctx, cmd.OutOrStdout(), a.service, owner, repo, number, post, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(triageCmd)
	triageCmd.Flags().Bool("post", false, "Post the triage summary as a comment")
	triageCmd.Flags().Bool("json", false, "Print the triage result as JSON")
}

func runTriage(ctx context.Context, w io.Writer, service *automation.Service, owner, repo string, number int, post, asJSON bool) error {
	issue, err := service.Tracker().FetchIssue(ctx, owner, repo, number, "")
	if err != nil {
		return fmt.Errorf("failed to fetch issue: %w", err)
	}

	var result models.TriageResult
	if post {
		if result, err = service.PostTriage(ctx, *issue, owner, repo, "", ""); err != nil {
			return err
		}
	} else {
		result = service.TriageIssue(ctx, *issue, "")
	}

	if asJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintln(w, result.TriageComment)
	if post {
		fmt.Fprintf(w, "\nPosted triage summary to #%d\n", number)
	}
	return nil
}
