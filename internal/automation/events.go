package automation

import (
	"context"
	"fmt"

	"github.com/danielolaszy/triage/pkg/models"
)

// ActionOpened is the only issue event action automation reacts to.
const ActionOpened = "opened"

// Config is the automation policy applied to incoming issue events.
type Config struct {
	Enabled             bool
	AutoAssign          bool
	ConfidenceThreshold int
	ExcludeLabels       []string
	RequireConfirmation bool
	// AgentDir overrides the service's agent directory.
	AgentDir string
}

// AssignOptions derives the options used for automatic assignment.
func (c Config) AssignOptions() AssignOptions {
	return AssignOptions{
		AgentDir:            c.AgentDir,
		ConfidenceThreshold: c.ConfidenceThreshold,
		ExcludeLabels:       c.ExcludeLabels,
		AddLabels:           true,
		RequireConfirmation: c.RequireConfirmation,
	}
}

// EventResult reports what ProcessIssueEvent did with an event.
type EventResult struct {
	Processed  bool                     `json:"processed"`
	Reason     string                   `json:"reason"`
	Assignment *models.AssignmentResult `json:"assignment,omitempty"`
	Triage     *models.TriageResult     `json:"triage,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// ProcessIssueEvent is the webhook entry point. Only "opened" events are
// handled, and only while automation is enabled and the issue carries no
// excluded label. With AutoAssign the issue is assigned; otherwise a triage
// comment is posted.
func (s *Service) ProcessIssueEvent(ctx context.Context, action string, issue models.Issue, owner, repo, token string, cfg Config) EventResult {
	if action != ActionOpened {
		return EventResult{Reason: fmt.Sprintf("Ignoring action: %s", action)}
	}
	if !cfg.Enabled {
		return EventResult{Reason: "Automation disabled"}
	}
	if label, ok := excludedLabel(issue.Labels, cfg.ExcludeLabels); ok {
		return EventResult{Reason: fmt.Sprintf("Issue has excluded label: %s", label)}
	}

	s.logger.Info("processing issue event",
		"owner", owner,
		"repo", repo,
		"issue_number", issue.Number,
		"auto_assign", cfg.AutoAssign)

	if cfg.AutoAssign {
		r := s.AssignIssue(ctx, issue, owner, repo, token, cfg.AssignOptions())
		res := EventResult{Processed: true, Reason: r.Reason, Assignment: &r, Error: r.Error}
		if !r.Success && res.Reason == "" {
			res.Reason = "Assignment failed"
		}
		return res
	}

	triage, err := s.PostTriage(ctx, issue, owner, repo, token, cfg.AgentDir)
	res := EventResult{Processed: true, Reason: "Triage comment posted", Triage: &triage}
	if err != nil {
		res.Reason = "Triage comment failed"
		res.Error = err.Error()
	}
	return res
}
