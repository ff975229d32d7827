package automation

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielolaszy/triage/internal/analyzer"
	"github.com/danielolaszy/triage/pkg/models"
)

const triageSuggestionLimit = 3

// TriageIssue analyzes an issue without committing to an assignment. It
// always returns suggestions, possibly none, and flags the issue for manual
// review when nothing reaches medium confidence.
func (s *Service) TriageIssue(ctx context.Context, issue models.Issue, agentDir string) models.TriageResult {
	analysis := s.analyzer.AnalyzeIssue(ctx, issue, s.AgentDir(agentDir))

	result := models.TriageResult{
		Issue:           issue,
		SuggestedAgents: analyzer.FilterMatches(analysis.AgentMatches, triageSuggestionLimit, 0),
		SuggestedLabels: analysis.SuggestedLabels,
		Timestamp:       s.now(),
	}
	if result.SuggestedLabels == nil {
		result.SuggestedLabels = []string{}
	}

	medium := s.scorer.Config().MediumThreshold
	result.RequiresManualReview = len(analysis.AgentMatches) == 0 || analysis.AgentMatches[0].Score < medium
	result.TriageComment = GenerateTriageComment(result, analysis.ExtractedKeywords)

	summary := "no suggestions"
	if len(result.SuggestedAgents) > 0 {
		names := make([]string, len(result.SuggestedAgents))
		for i, m := range result.SuggestedAgents {
			names[i] = m.AgentName
		}
		summary = strings.Join(names, ", ")
	}
	if result.RequiresManualReview {
		summary += " (manual review)"
	}
	s.record(issue.Number, ActionTriaged, summary)

	s.logger.Debug("issue triaged",
		"issue_number", issue.Number,
		"suggested_agents", len(result.SuggestedAgents),
		"manual_review", result.RequiresManualReview)
	return result
}

// PostTriage triages an issue and posts the triage comment.
func (s *Service) PostTriage(ctx context.Context, issue models.Issue, owner, repo, token, agentDir string) (models.TriageResult, error) {
	result := s.TriageIssue(ctx, issue, agentDir)
	if err := s.tracker.PostComment(ctx, owner, repo, issue.Number, result.TriageComment, token); err != nil {
		s.record(issue.Number, ActionFailed, err.Error())
		return result, fmt.Errorf("failed to post triage comment: %w", err)
	}
	return result, nil
}
