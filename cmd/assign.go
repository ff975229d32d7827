package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/danielolaszy/triage/internal/automation"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

var assignCmd = &cobra.Command{
	Use:   "assign <issue-number>",
	Short: "Assign an issue to the best matching agent",
	Long: `Assign an issue to the best matching agent.

The issue gets a comment listing the top agents. With --add-labels it is also
labeled 'agent:<name>' (or 'agent-suggested:<name>' with --require-confirmation)
plus any suggested labels. Closed, assigned and excluded issues are skipped.

Example:
  triage assign -r owner/repo 42 --add-labels
  triage assign -r owner/repo 42 --dry-run`,
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
		opts, err := assignOptions(cmd, a.cfg.AssignOptions())
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd, a.cfg.Triage.RequestTimeout, 3)
		defer cancel()
		asJSON, _ := cmd.Flags().GetBool("json")
		return runAssign(ctx, cmd.OutOrStdout(), a.service, owner, repo, number, opts, asJSON)
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch [issue-number...]",
	Short: "Assign several issues, or every open issue",
	Long: `Assign several issues in one run.

Without issue numbers every open issue (optionally filtered by --label) is
processed. Issues are handled one at a time; a failure on one issue never stops
the batch.

Example:
  triage batch -r owner/repo 12 15 19
  triage batch -r owner/repo --label needs-triage --add-labels`,
	RunE: func(cmd *cobra.Command, args []string) error {
		numbers := make([]int, 0, len(args))
		for _, arg := range args {
			number, err := parseIssueNumber(arg)
			if err != nil {
				return err
			}
			numbers = append(numbers, number)
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		owner, repo, err := a.repository(cmd)
		if err != nil {
			return err
		}
		opts, err := assignOptions(cmd, a.cfg.AssignOptions())
		if err != nil {
			return err
		}
		labels, _ := cmd.Flags().GetStringSlice("label")

		// batches have no overall deadline; each tracker call is bounded by the adapter timeout
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var result models.BatchResult
		if len(numbers) == 0 {
			result, err = a.service.AssignOpenIssues(ctx, owner, repo, "", models.IssueListOptions{Labels: labels}, opts)
			if err != nil {
				return err
			}
		} else {
			issues, failed := fetchIssues(ctx, a.tracker, owner, repo, "", numbers)
			result = mergeFailures(a.service.BatchAssignIssues(ctx, issues, owner, repo, "", opts), failed)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		return printBatch(cmd.OutOrStdout(), result, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(batchCmd)
	addAssignFlags(assignCmd)
	addAssignFlags(batchCmd)
	batchCmd.Flags().StringSlice("label", nil, "Only process open issues carrying these labels")
}

func addAssignFlags(cmd *cobra.Command) {
	cmd.Flags().Int("threshold", automation.DefaultConfidenceThreshold, "Minimum score for an assignment (default: TRIAGE_CONFIDENCE_THRESHOLD)")
	cmd.Flags().StringSlice("exclude-label", nil, "Skip issues carrying these labels (default: TRIAGE_EXCLUDE_LABELS)")
	cmd.Flags().Bool("add-labels", false, "Add the agent label and suggested labels")
	cmd.Flags().Bool("require-confirmation", false, "Label as a suggestion that a human must confirm")
	cmd.Flags().Bool("comment-on-no-match", false, "Comment even when no agent meets the threshold")
	cmd.Flags().Bool("dry-run", false, "Analyze without writing to the tracker")
	cmd.Flags().Bool("json", false, "Print results as JSON")
}

// assignOptions applies the flags the user set on top of the configured policy.
func assignOptions(cmd *cobra.Command, opts automation.AssignOptions) (automation.AssignOptions, error) {
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		threshold, _ := flags.GetInt("threshold")
		if threshold < 0 || threshold > 100 {
			return opts, fmt.Errorf("threshold must be between 0 and 100, got %d", threshold)
		}
		opts.ConfidenceThreshold = threshold
	}
	if flags.Changed("exclude-label") {
		opts.ExcludeLabels, _ = flags.GetStringSlice("exclude-label")
	}
	if flags.Changed("require-confirmation") {
		opts.RequireConfirmation, _ = flags.GetBool("require-confirmation")
	}
	opts.AddLabels, _ = flags.GetBool("add-labels")
	opts.CommentOnNoMatch, _ = flags.GetBool("comment-on-no-match")
	opts.DryRun, _ = flags.GetBool("dry-run")
	return opts, nil
}

func runAssign(ctx context.Context, w io.Writer, service *automation.Service, owner, repo string, number int, opts automation.AssignOptions, asJSON bool) error {
	issue, err := service.Tracker().FetchIssue(ctx, owner, repo, number, "")
	if err != nil {
		return fmt.Errorf("failed to fetch issue: %w", err)
	}

	result := service.AssignIssue(ctx, *issue, owner, repo, "", opts)
	if asJSON {
		if err := writeJSON(w, result); err != nil {
			return err
		}
	} else {
		printAssignment(w, result)
	}

	if !result.Success {
		return fmt.Errorf("assignment of issue #%d failed: %s", number, result.Error)
	}
	return nil
}

func printBatch(w io.Writer, result models.BatchResult, asJSON bool) error {
	logging.Info("batch complete",
		"total", result.Total,
		"assigned", result.Assigned,
		"skipped", result.Skipped,
		"failed", result.Failed)

	if asJSON {
		return writeJSON(w, result)
	}

	for _, r := range result.Results {
		printAssignment(w, r)
	}
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "\nProcessed %d issues: %d assigned, %d skipped, %d failed\n",
		result.Total, result.Assigned, result.Skipped, result.Failed)
	return nil
}
