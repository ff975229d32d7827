package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/triage/internal/capability"
	"github.com/danielolaszy/triage/internal/mapping"
	"github.com/danielolaszy/triage/internal/scoring"
	"github.com/danielolaszy/triage/pkg/models"
)

func newTestAnalyzer(t *testing.T) (*Analyzer, string) {
	t.Helper()
	dir := t.TempDir()
	profiles := map[string]string{
		"frontend-developer.md": "---\nname: frontend-developer\ndescription: React and Next.js UIs\nkeywords: [react, css, component, tailwind, frontend]\n---\n",
		"backend-developer.md":  "---\nname: backend-developer\ndescription: REST APIs and databases\nkeywords: [api, database, server, postgresql]\n---\n",
		"debugger.md":           "---\nname: debugger\ndescription: Root-causes crashes\nkeywords: [debugging, crash, stacktrace, error]\n---\n",
		"ui-developer.md":       "---\nname: ui-developer\ndescription: Design systems\nkeywords: [figma, wireframe, typography]\n---\n",
	}
	for name, content := range profiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	scorer := scoring.New(scoring.DefaultConfig())
	index := capability.NewIndex(capability.NewFileProvider(), scorer)
	registry := mapping.NewRegistry(index, 0)
	a := New(index, registry, scorer)
	a.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return a, dir
}

func TestAnalyzeIssueReactComponent(t *testing.T) {
	a, dir := newTestAnalyzer(t)
	issue := models.Issue{
		Number: 7,
		Title:  "Add React component for user profile",
		Body:   "We need a NextJS component that renders the profile card. Style it with Tailwind CSS.",
		Labels: []string{"ui/ux"},
	}

	analysis := a.AnalyzeIssue(context.Background(), issue, dir)

	assert.Subset(t, analysis.ExtractedKeywords, []string{"react", "nextjs", "css"})
	require.NotEmpty(t, analysis.AgentMatches)
	assert.Equal(t, "frontend-developer", analysis.AgentMatches[0].AgentName)
	assert.Equal(t, models.ConfidenceHigh, analysis.AgentMatches[0].Confidence)
	assert.Contains(t, analysis.AgentMatches[0].MatchReason, "Label mapping: ui/ux")
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), analysis.AnalyzedAt)
	assert.Equal(t, issue, analysis.Issue)

	// ui-developer shares no keywords but is reachable through the label mapping
	var uiDev *models.AgentMatch
	for i := range analysis.AgentMatches {
		if analysis.AgentMatches[i].AgentName == "ui-developer" {
			uiDev = &analysis.AgentMatches[i]
		}
	}
	require.NotNil(t, uiDev)
	assert.Equal(t, 40, uiDev.Score)
	assert.Equal(t, models.ConfidenceMedium, uiDev.Confidence)

	for i := 1; i < len(analysis.AgentMatches); i++ {
		assert.GreaterOrEqual(t, analysis.AgentMatches[i-1].Score, analysis.AgentMatches[i].Score)
	}
	assert.Contains(t, analysis.SuggestedLabels, "enhancement")
}

func TestAnalyzeIssueMissingAgentDir(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	issue := models.Issue{Title: "Improve docs", Labels: []string{"unmapped"}}

	analysis := a.AnalyzeIssue(context.Background(), issue, filepath.Join(t.TempDir(), "missing"))

	assert.Empty(t, analysis.AgentMatches)
	assert.NotEmpty(t, analysis.ExtractedKeywords)
}

func TestLabelMappingSkipsAgentsWithoutProfile(t *testing.T) {
	a, dir := newTestAnalyzer(t)
	issue := models.Issue{Title: "Checkout broke after upgrade", Labels: []string{"bug", "regression"}}

	missing := a.AnalyzeIssue(context.Background(), issue, filepath.Join(t.TempDir(), "missing"))
	assert.Empty(t, missing.AgentMatches)

	// tester is mapped from both labels but has no profile
	analysis := a.AnalyzeIssue(context.Background(), issue, dir)
	require.NotEmpty(t, analysis.AgentMatches)
	for _, m := range analysis.AgentMatches {
		assert.NotEqual(t, "tester", m.AgentName)
	}
	assert.Equal(t, "debugger", analysis.AgentMatches[0].AgentName)
}

func TestLabelMappingAddsToKeywordScore(t *testing.T) {
	a, dir := newTestAnalyzer(t)
	issue := models.Issue{Title: "Crash when saving", Body: "stacktrace attached"}

	without := a.AnalyzeIssue(context.Background(), issue, dir)
	issue.Labels = []string{"bug"}
	with := a.AnalyzeIssue(context.Background(), issue, dir)

	scoreOf := func(matches []models.AgentMatch, agent string) int {
		for _, m := range matches {
			if m.AgentName == agent {
				return m.Score
			}
		}
		return 0
	}
	assert.Greater(t, scoreOf(with.AgentMatches, "debugger"), scoreOf(without.AgentMatches, "debugger"))
	assert.Equal(t, "debugger", with.AgentMatches[0].AgentName)
}

func TestBestMatchAndTopMatches(t *testing.T) {
	a, dir := newTestAnalyzer(t)
	ctx := context.Background()
	issue := models.Issue{
		Title:  "REST API returns 500 from the database layer",
		Body:   "The server logs show a postgres error.",
		Labels: []string{"backend"},
	}

	best := a.BestMatch(ctx, issue, 40, dir)
	require.NotNil(t, best)
	assert.Equal(t, "backend-developer", best.AgentName)

	assert.Nil(t, a.BestMatch(ctx, issue, 101, dir))

	top := a.TopMatches(ctx, issue, 1, 0, dir)
	require.Len(t, top, 1)
	assert.Equal(t, "backend-developer", top[0].AgentName)

	assert.Empty(t, a.TopMatches(ctx, issue, 5, 101, dir))
}

func TestFilterMatches(t *testing.T) {
	matches := []models.AgentMatch{
		{AgentName: "a", Score: 90},
		{AgentName: "b", Score: 60},
		{AgentName: "c", Score: 30},
	}

	assert.Len(t, FilterMatches(matches, 0, 0), 3)
	assert.Len(t, FilterMatches(matches, 2, 0), 2)
	assert.Len(t, FilterMatches(matches, 5, 50), 2)
	assert.Empty(t, FilterMatches(nil, 5, 0))
}

func TestSuggestLabels(t *testing.T) {
	testCases := []struct {
		name     string
		issue    models.Issue
		contains []string
		excludes []string
	}{
		{
			name:     "Crash suggests bug",
			issue:    models.Issue{Title: "App crashes on launch", Body: "fatal signal 11"},
			contains: []string{"bug"},
			excludes: []string{"documentation"},
		},
		{
			name:     "Existing label is not suggested again",
			issue:    models.Issue{Title: "Fatal error in parser", Labels: []string{"Bug"}},
			excludes: []string{"bug"},
		},
		{
			name:     "Docs and questions",
			issue:    models.Issue{Title: "How do I configure the README badge?"},
			contains: []string{"documentation", "question"},
		},
		{
			name:     "Performance and security",
			issue:    models.Issue{Title: "Slow login", Body: "Possible SQL injection in the login form"},
			contains: []string{"performance", "security"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := SuggestLabels(tc.issue)
			for _, l := range tc.contains {
				assert.Contains(t, got, l)
			}
			for _, l := range tc.excludes {
				assert.NotContains(t, got, l)
			}
		})
	}
}
