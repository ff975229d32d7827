package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/triage/internal/automation"
	"github.com/danielolaszy/triage/internal/capability"
	"github.com/danielolaszy/triage/internal/scoring"
	"github.com/danielolaszy/triage/pkg/models"
)

// MockTracker implements automation.IssueTracker for testing
type MockTracker struct {
	FetchIssueFunc      func(owner, repo string, number int) (*models.Issue, error)
	FetchOpenIssuesFunc func(owner, repo string, opts models.IssueListOptions) ([]models.Issue, error)
	PostCommentFunc     func(owner, repo string, number int, body string) error
	AddLabelsFunc       func(owner, repo string, number int, labels []string) error
}

func (m *MockTracker) FetchIssue(ctx context.Context, owner, repo string, number int, token string) (*models.Issue, error) {
	if m.FetchIssueFunc != nil {
		return m.FetchIssueFunc(owner, repo, number)
	}
	return nil, errors.New("FetchIssue not implemented")
}

func (m *MockTracker) FetchOpenIssues(ctx context.Context, owner, repo, token string, opts models.IssueListOptions) ([]models.Issue, error) {
	if m.FetchOpenIssuesFunc != nil {
		return m.FetchOpenIssuesFunc(owner, repo, opts)
	}
	return nil, errors.New("FetchOpenIssues not implemented")
}

func (m *MockTracker) PostComment(ctx context.Context, owner, repo string, number int, body, token string) error {
	if m.PostCommentFunc != nil {
		return m.PostCommentFunc(owner, repo, number, body)
	}
	return errors.New("PostComment not implemented")
}

func (m *MockTracker) AddLabels(ctx context.Context, owner, repo string, number int, labels []string, token string) error {
	if m.AddLabelsFunc != nil {
		return m.AddLabelsFunc(owner, repo, number, labels)
	}
	return errors.New("AddLabels not implemented")
}

// writeAgents creates an agent directory with a frontend and a backend profile.
func writeAgents(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	profiles := map[string]string{
		"frontend-developer.md": "---\nname: frontend-developer\nversion: 1.2.0\nkeywords: [react, css, component, tailwind, frontend]\n---\n",
		"backend-developer.md":  "---\nname: backend-developer\nkeywords: [api, database, server, postgresql]\n---\n",
	}
	for name, content := range profiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func newTestService(t *testing.T, tracker automation.IssueTracker) *automation.Service {
	t.Helper()
	return automation.New(tracker, capability.NewFileProvider(), automation.Options{
		Scoring:  scoring.DefaultConfig(),
		AgentDir: writeAgents(t),
	})
}

func reactIssue(number int) *models.Issue {
	return &models.Issue{
		Number: number,
		Title:  "Add React component for user profile",
		Body:   "We need a NextJS component styled with Tailwind CSS.",
		Labels: []string{"ui/ux"},
		State:  models.StateOpen,
	}
}

// TestParseIssueNumber tests positional issue number parsing
func TestParseIssueNumber(t *testing.T) {
	testCases := []struct {
		name      string
		arg       string
		expected  int
		wantError bool
	}{
		{name: "Plain number", arg: "42", expected: 42},
		{name: "Hash prefix", arg: "#7", expected: 7},
		{name: "Zero", arg: "0", wantError: true},
		{name: "Negative", arg: "-3", wantError: true},
		{name: "Not a number", arg: "abc", wantError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			number, err := parseIssueNumber(tc.arg)
			if tc.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, number)
		})
	}
}

// TestFetchIssuesReportsFailures tests that unfetchable issues count as failed batch entries
func TestFetchIssuesReportsFailures(t *testing.T) {
	tracker := &MockTracker{
		FetchIssueFunc: func(owner, repo string, number int) (*models.Issue, error) {
			if number == 2 {
				return nil, errors.New("not found")
			}
			return reactIssue(number), nil
		},
	}

	issues, failed := fetchIssues(context.Background(), tracker, "octo", "app", "", []int{1, 2, 3})
	require.Len(t, issues, 2)
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].IssueNumber)
	assert.False(t, failed[0].Success)
	assert.Equal(t, "not found", failed[0].Error)

	result := mergeFailures(models.BatchResult{Total: 2, Assigned: 2}, failed)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, result.Total, result.Assigned+result.Skipped+result.Failed)
}

// TestRunAssign tests the assign command against a mock tracker
func TestRunAssign(t *testing.T) {
	var comments []string
	var labels []string
	tracker := &MockTracker{
		FetchIssueFunc: func(owner, repo string, number int) (*models.Issue, error) {
			return reactIssue(number), nil
		},
		PostCommentFunc: func(owner, repo string, number int, body string) error {
			comments = append(comments, body)
			return nil
		},
		AddLabelsFunc: func(owner, repo string, number int, l []string) error {
			labels = append(labels, l...)
			return nil
		},
	}
	service := newTestService(t, tracker)
	opts := automation.AssignOptions{ConfidenceThreshold: 1, AddLabels: true}

	var out bytes.Buffer
	require.NoError(t, runAssign(context.Background(), &out, service, "octo", "app", 42, opts, false))
	assert.Contains(t, out.String(), "#42 Assigned to frontend-developer")
	assert.Len(t, comments, 1)
	assert.Contains(t, labels, "agent:frontend-developer")
}

// TestRunAssignFailure tests that a failed assignment is reported as a command error
func TestRunAssignFailure(t *testing.T) {
	tracker := &MockTracker{
		FetchIssueFunc: func(owner, repo string, number int) (*models.Issue, error) {
			return reactIssue(number), nil
		},
		PostCommentFunc: func(owner, repo string, number int, body string) error {
			return errors.New("API error")
		},
	}
	service := newTestService(t, tracker)

	var out bytes.Buffer
	err := runAssign(context.Background(), &out, service, "octo", "app", 42, automation.AssignOptions{ConfidenceThreshold: 1}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error")

	var result models.AssignmentResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.False(t, result.Success)

	out.Reset()
	require.Error(t, runAssign(context.Background(), &out, service, "octo", "app", 42, automation.AssignOptions{ConfidenceThreshold: 1}, false))
	assert.Equal(t, "#42 failed: Assignment failed (failed to post comment: API error)\n", out.String())
}

// TestRunAssignFetchError tests the assign command when the issue cannot be fetched
func TestRunAssignFetchError(t *testing.T) {
	service := newTestService(t, &MockTracker{})

	err := runAssign(context.Background(), &bytes.Buffer{}, service, "octo", "app", 42, automation.DefaultAssignOptions(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch issue")
}

// TestPrintBatch tests the batch summary line
func TestPrintBatch(t *testing.T) {
	result := models.BatchResult{
		Total:    1234,
		Assigned: 1000,
		Skipped:  200,
		Failed:   34,
		Results: []models.AssignmentResult{
			{IssueNumber: 1, Success: true, Assigned: true, Reason: "Assigned to debugger"},
			{IssueNumber: 2, Success: true, Reason: "Issue is closed"},
			{IssueNumber: 3, Reason: "Failed to fetch issue", Error: "not found"},
		},
	}

	var out bytes.Buffer
	require.NoError(t, printBatch(&out, result, false))
	text := out.String()
	assert.Contains(t, text, "#1 Assigned to debugger")
	assert.Contains(t, text, "#2 skipped: Issue is closed")
	assert.Contains(t, text, "#3 failed: Failed to fetch issue (not found)")
	assert.Contains(t, text, "Processed 1,234 issues: 1,000 assigned, 200 skipped, 34 failed")
}

// TestRunTriage tests printing and posting a triage summary
func TestRunTriage(t *testing.T) {
	var comments []string
	tracker := &MockTracker{
		FetchIssueFunc: func(owner, repo string, number int) (*models.Issue, error) {
			return reactIssue(number), nil
		},
		PostCommentFunc: func(owner, repo string, number int, body string) error {
			comments = append(comments, body)
			return nil
		},
	}
	service := newTestService(t, tracker)

	var out bytes.Buffer
	require.NoError(t, runTriage(context.Background(), &out, service, "octo", "app", 9, false, false))
	assert.Contains(t, out.String(), "Triage Summary")
	assert.Empty(t, comments)

	out.Reset()
	require.NoError(t, runTriage(context.Background(), &out, service, "octo", "app", 9, true, false))
	assert.Len(t, comments, 1)
	assert.Contains(t, out.String(), "Posted triage summary to #9")
	assert.Len(t, service.AutomationLog(0), 2)
}

// TestRunAnalyze tests the analysis table and JSON output
func TestRunAnalyze(t *testing.T) {
	service := newTestService(t, &MockTracker{})
	issue := *reactIssue(1)

	var out bytes.Buffer
	require.NoError(t, runAnalyze(context.Background(), &out, service, issue, 5, 0, false))
	text := out.String()
	assert.Contains(t, text, "AGENT")
	assert.Contains(t, text, "frontend-developer")
	assert.NotContains(t, text, "backend-developer")

	out.Reset()
	require.NoError(t, runAnalyze(context.Background(), &out, service, issue, 1, 0, true))
	var analysis models.IssueAnalysis
	require.NoError(t, json.Unmarshal(out.Bytes(), &analysis))
	require.Len(t, analysis.AgentMatches, 1)

	out.Reset()
	empty := models.Issue{Title: "Quarterly planning", State: models.StateOpen}
	require.NoError(t, runAnalyze(context.Background(), &out, service, empty, 5, 0, false))
	assert.True(t, strings.Contains(out.String(), "No matching agents."))
}
