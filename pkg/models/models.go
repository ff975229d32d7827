// Package models defines data structures shared across the application.
package models

import (
	"time"
)

// Issue is an immutable snapshot of a tracker issue
type Issue struct {
	// ID is the tracker's internal identifier
	ID int64

	// Number is the issue number in the repository (e.g., 42)
	Number int

	// Title is the issue's title or summary
	Title string

	// Body is the full description of the issue
	Body string

	// Labels is a slice of label names attached to the issue
	Labels []string

	// State is "open" or "closed"
	State string

	// Assignees holds the logins of the users assigned to the issue
	Assignees []string

	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time

	// URL is the API URL and HTMLURL the browser URL of the issue
	URL     string
	HTMLURL string
}

// IsClosed reports whether the issue is in the closed state.
func (i Issue) IsClosed() bool {
	return i.State == StateClosed
}

// Issue states.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// IssueListOptions filters FetchOpenIssues.
type IssueListOptions struct {
	Labels  []string
	State   string
	PerPage int
}

// Confidence is the coarse bucket derived from a match score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AgentCapabilityProfile is what the capability index knows about one agent.
type AgentCapabilityProfile struct {
	AgentID     string
	Description string
	Version     string
	Keywords    []string
	SourcePath  string
}

// AgentMatch scores one agent against one issue. Confidence is always
// derived from Score by the scoring engine.
type AgentMatch struct {
	AgentName       string     `json:"agentName"`
	Score           int        `json:"score"`
	Confidence      Confidence `json:"confidence"`
	MatchedKeywords []string   `json:"matchedKeywords"`
	MatchReason     string     `json:"matchReason"`
}

// IssueAnalysis is the ranked result of analyzing a single issue.
type IssueAnalysis struct {
	Issue             Issue        `json:"issue"`
	ExtractedKeywords []string     `json:"extractedKeywords"`
	AgentMatches      []AgentMatch `json:"agentMatches"`
	SuggestedLabels   []string     `json:"suggestedLabels"`
	AnalyzedAt        time.Time    `json:"analyzedAt"`
}

// LabelMapping routes a label to agents in priority order.
type LabelMapping struct {
	Label    string   `json:"label" yaml:"label"`
	Agents   []string `json:"agents" yaml:"agents"`
	Priority int      `json:"priority" yaml:"priority"`
}

// AssignmentResult reports the outcome of assigning one issue.
type AssignmentResult struct {
	IssueNumber   int      `json:"issueNumber"`
	Success       bool     `json:"success"`
	Assigned      bool     `json:"assigned"`
	ChosenAgent   string   `json:"chosenAgent,omitempty"`
	Score         int      `json:"score,omitempty"`
	CommentPosted bool     `json:"commentPosted"`
	LabelsAdded   []string `json:"labelsAdded,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// BatchResult summarizes a batch run. Assigned+Skipped+Failed always equals Total.
type BatchResult struct {
	Total    int                `json:"total"`
	Assigned int                `json:"assigned"`
	Skipped  int                `json:"skipped"`
	Failed   int                `json:"failed"`
	Results  []AssignmentResult `json:"results"`
}

// TriageResult is the non-committal analysis of an issue.
type TriageResult struct {
	Issue                Issue        `json:"issue"`
	SuggestedAgents      []AgentMatch `json:"suggestedAgents"`
	SuggestedLabels      []string     `json:"suggestedLabels"`
	TriageComment        string       `json:"triageComment"`
	RequiresManualReview bool         `json:"requiresManualReview"`
	Timestamp            time.Time    `json:"timestamp"`
}

// AutomationLogEntry is one audit record of an orchestrator action.
type AutomationLogEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	IssueNumber int       `json:"issueNumber"`
	Action      string    `json:"action"`
	Result      string    `json:"result"`
}
