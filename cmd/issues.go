package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/triage/internal/automation"
	"github.com/danielolaszy/triage/pkg/models"
)

// parseIssueNumber parses a positional issue number argument.
func parseIssueNumber(arg string) (int, error) {
	number, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || number <= 0 {
		return 0, fmt.Errorf("invalid issue number: %s", arg)
	}
	return number, nil
}

// commandContext bounds a single command run by the request timeout times
// the number of tracker calls it may make.
func commandContext(cmd *cobra.Command, timeout time.Duration, calls int) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	if calls < 1 {
		calls = 1
	}
	return context.WithTimeout(ctx, timeout*time.Duration(calls))
}

// fetchIssues fetches each issue number. Issues that cannot be fetched are
// returned as failed assignment results so batch totals stay complete.
func fetchIssues(ctx context.Context, tracker automation.IssueTracker, owner, repo, token string, numbers []int) ([]models.Issue, []models.AssignmentResult) {
	var issues []models.Issue
	var failed []models.AssignmentResult
	for _, number := range numbers {
		issue, err := tracker.FetchIssue(ctx, owner, repo, number, token)
		if err != nil {
			failed = append(failed, models.AssignmentResult{
				IssueNumber: number,
				Reason:      "Failed to fetch issue",
				Error:       err.Error(),
			})
			continue
		}
		issues = append(issues, *issue)
	}
	return issues, failed
}

// mergeFailures folds fetch failures into a batch result.
func mergeFailures(result models.BatchResult, failed []models.AssignmentResult) models.BatchResult {
	result.Total += len(failed)
	result.Failed += len(failed)
	result.Results = append(result.Results, failed...)
	return result
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAssignment(w io.Writer, r models.AssignmentResult) {
	switch {
	case !r.Success:
		fmt.Fprintf(w, "#%d failed: %s (%s)\n", r.IssueNumber, r.Reason, r.Error)
	case r.Assigned:
		fmt.Fprintf(w, "#%d %s\n", r.IssueNumber, r.Reason)
		if len(r.LabelsAdded) > 0 {
			fmt.Fprintf(w, "   labels: %s\n", strings.Join(r.LabelsAdded, ", "))
		}
	default:
		fmt.Fprintf(w, "#%d skipped: %s\n", r.IssueNumber, r.Reason)
	}
}
