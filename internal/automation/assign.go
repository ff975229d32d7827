package automation

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielolaszy/triage/internal/analyzer"
	"github.com/danielolaszy/triage/pkg/models"
)

const (
	// DefaultConfidenceThreshold is the minimum score for an assignment.
	DefaultConfidenceThreshold = 60

	// AgentLabelPrefix prefixes the label naming the chosen agent.
	AgentLabelPrefix = "agent:"
	// SuggestedAgentLabelPrefix is used instead when assignments need confirmation.
	SuggestedAgentLabelPrefix = "agent-suggested:"

	commentMatchLimit   = 3
	commentKeywordLimit = 10
)

// AssignOptions controls AssignIssue and the batch variants.
type AssignOptions struct {
	// AgentDir overrides the service's agent directory.
	AgentDir            string
	ConfidenceThreshold int
	ExcludeLabels       []string
	// AddLabels applies the agent label and suggested labels after commenting.
	AddLabels bool
	// RequireConfirmation asks a maintainer to confirm the suggestion.
	RequireConfirmation bool
	// CommentOnNoMatch posts the fallback comment when no agent qualifies.
	CommentOnNoMatch bool
	// DryRun analyzes without writing to the tracker.
	DryRun bool
}

// DefaultAssignOptions returns options with the default threshold.
func DefaultAssignOptions() AssignOptions {
	return AssignOptions{ConfidenceThreshold: DefaultConfidenceThreshold}
}

// ExclusionResult tells whether automation must leave an issue alone.
type ExclusionResult struct {
	Excluded bool
	Reason   string
}

// ShouldExcludeIssue checks, in order: closed state, existing assignees and
// excluded labels (case-insensitive).
func ShouldExcludeIssue(issue models.Issue, excludeLabels []string) ExclusionResult {
	if issue.IsClosed() {
		return ExclusionResult{Excluded: true, Reason: "Issue is closed"}
	}
	if len(issue.Assignees) > 0 {
		return ExclusionResult{Excluded: true, Reason: "Issue is already assigned"}
	}
	if label, ok := excludedLabel(issue.Labels, excludeLabels); ok {
		return ExclusionResult{Excluded: true, Reason: fmt.Sprintf("Issue has excluded label: %s", label)}
	}
	return ExclusionResult{}
}

func excludedLabel(labels, exclude []string) (string, bool) {
	for _, l := range labels {
		for _, x := range exclude {
			if strings.EqualFold(strings.TrimSpace(l), strings.TrimSpace(x)) {
				return l, true
			}
		}
	}
	return "", false
}

// AssignIssue analyzes issue and, when an agent reaches the confidence
// threshold, posts a suggestion comment and optionally labels the issue.
// Every outcome, including a recovered panic, is reported in the result and
// recorded in the automation log.
func (s *Service) AssignIssue(ctx context.Context, issue models.Issue, owner, repo, token string, opts AssignOptions) (result models.AssignmentResult) {
	result = models.AssignmentResult{IssueNumber: issue.Number}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Assigned = false
			result.Error = fmt.Sprintf("panic while assigning issue: %v", r)
			s.logger.Error("recovered from panic during assignment",
				"issue_number", issue.Number,
				"panic", r)
			s.record(issue.Number, ActionFailed, result.Error)
		}
	}()

	if excl := ShouldExcludeIssue(issue, opts.ExcludeLabels); excl.Excluded {
		result.Success = true
		result.Reason = excl.Reason
		s.logger.Debug("issue excluded from assignment",
			"issue_number", issue.Number,
			"reason", excl.Reason)
		s.record(issue.Number, ActionExcluded, excl.Reason)
		return result
	}

	analysis := s.analyzer.AnalyzeIssue(ctx, issue, s.AgentDir(opts.AgentDir))

	var best *models.AgentMatch
	if len(analysis.AgentMatches) > 0 && analysis.AgentMatches[0].Score >= opts.ConfidenceThreshold {
		best = &analysis.AgentMatches[0]
	}

	if best == nil {
		result.Success = true
		result.Reason = fmt.Sprintf("No agent met the confidence threshold of %d", opts.ConfidenceThreshold)
		if opts.CommentOnNoMatch && !opts.DryRun {
			body := GenerateAssignmentComment(nil, analysis.ExtractedKeywords)
			if err := s.tracker.PostComment(ctx, owner, repo, issue.Number, body, token); err != nil {
				return s.fail(result, fmt.Errorf("failed to post comment: %w", err))
			}
			result.CommentPosted = true
		}
		s.record(issue.Number, ActionSkipped, result.Reason)
		return result
	}

	result.ChosenAgent = best.AgentName
	result.Score = best.Score

	labels := assignmentLabels(best.AgentName, analysis.SuggestedLabels, opts)

	if opts.DryRun {
		result.Success = true
		result.Assigned = true
		result.LabelsAdded = labels
		result.Reason = fmt.Sprintf("Dry run: would assign %s (score %d)", best.AgentName, best.Score)
		s.logger.Info("dry run assignment",
			"issue_number", issue.Number,
			"agent", best.AgentName,
			"score", best.Score)
		s.record(issue.Number, ActionDryRun, fmt.Sprintf("%s (%d)", best.AgentName, best.Score))
		return result
	}

	body := GenerateAssignmentComment(analyzer.FilterMatches(analysis.AgentMatches, commentMatchLimit, 0), analysis.ExtractedKeywords)
	if opts.RequireConfirmation {
		body += confirmationFooter
	}
	if err := s.tracker.PostComment(ctx, owner, repo, issue.Number, body, token); err != nil {
		return s.fail(result, fmt.Errorf("failed to post comment: %w", err))
	}
	result.CommentPosted = true

	if len(labels) > 0 {
		if err := s.tracker.AddLabels(ctx, owner, repo, issue.Number, labels, token); err != nil {
			return s.fail(result, fmt.Errorf("failed to add labels: %w", err))
		}
		result.LabelsAdded = labels
	}

	result.Success = true
	result.Assigned = true
	result.Reason = fmt.Sprintf("Assigned to %s (score %d, %s confidence)", best.AgentName, best.Score, best.Confidence)

	s.logger.Info("issue assigned",
		"owner", owner,
		"repo", repo,
		"issue_number", issue.Number,
		"agent", best.AgentName,
		"score", best.Score)
	s.record(issue.Number, ActionAssigned, fmt.Sprintf("%s (%d)", best.AgentName, best.Score))
	return result
}

func assignmentLabels(agent string, suggested []string, opts AssignOptions) []string {
	if !opts.AddLabels {
		return nil
	}
	prefix := AgentLabelPrefix
	if opts.RequireConfirmation {
		prefix = SuggestedAgentLabelPrefix
	}
	labels := []string{prefix + agent}
	return append(labels, suggested...)
}

func (s *Service) fail(result models.AssignmentResult, err error) models.AssignmentResult {
	result.Success = false
	result.Assigned = false
	result.Reason = "Assignment failed"
	result.Error = err.Error()
	s.logger.Error("assignment failed",
		"issue_number", result.IssueNumber,
		"error", err)
	s.record(result.IssueNumber, ActionFailed, result.Error)
	return result
}

// BatchAssignIssues assigns issues one at a time. A failure on one issue never
// stops the batch; the counts always add up to Total.
func (s *Service) BatchAssignIssues(ctx context.Context, issues []models.Issue, owner, repo, token string, opts AssignOptions) models.BatchResult {
	batch := models.BatchResult{
		Total:   len(issues),
		Results: make([]models.AssignmentResult, 0, len(issues)),
	}

	for _, issue := range issues {
		r := s.AssignIssue(ctx, issue, owner, repo, token, opts)
		switch {
		case !r.Success:
			batch.Failed++
		case r.Assigned:
			batch.Assigned++
		default:
			batch.Skipped++
		}
		batch.Results = append(batch.Results, r)
	}

	s.logger.Info("batch assignment complete",
		"owner", owner,
		"repo", repo,
		"total", batch.Total,
		"assigned", batch.Assigned,
		"skipped", batch.Skipped,
		"failed", batch.Failed)
	return batch
}

// AssignOpenIssues fetches the open issues of a repository and assigns them
// as a batch.
func (s *Service) AssignOpenIssues(ctx context.Context, owner, repo, token string, list models.IssueListOptions, opts AssignOptions) (models.BatchResult, error) {
	if list.State == "" {
		list.State = models.StateOpen
	}
	issues, err := s.tracker.FetchOpenIssues(ctx, owner, repo, token, list)
	if err != nil {
		return models.BatchResult{}, fmt.Errorf("failed to fetch open issues: %w", err)
	}
	return s.BatchAssignIssues(ctx, issues, owner, repo, token, opts), nil
}
