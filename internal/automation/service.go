// Package automation assigns incoming issues to agents.
//
// A Service owns the shared state of the engine: the capability index, the
// label mapping registry and the automation log. Create one per process (or
// per test) with New; nothing in this package keeps global state.
//
// Batches run one issue at a time. Callers must not mutate the mapping
// registry while a batch is running.
package automation

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielolaszy/triage/internal/analyzer"
	"github.com/danielolaszy/triage/internal/capability"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/internal/mapping"
	"github.com/danielolaszy/triage/internal/scoring"
	"github.com/danielolaszy/triage/pkg/models"
)

// IssueTracker is the issue-tracker API the engine talks to. Implementations
// authenticate each call with token; an empty token selects the
// implementation's default credentials.
type IssueTracker interface {
	FetchIssue(ctx context.Context, owner, repo string, number int, token string) (*models.Issue, error)
	FetchOpenIssues(ctx context.Context, owner, repo, token string, opts models.IssueListOptions) ([]models.Issue, error)
	PostComment(ctx context.Context, owner, repo string, number int, body, token string) error
	AddLabels(ctx context.Context, owner, repo string, number int, labels []string, token string) error
}

// DefaultLogCapacity bounds the automation log when Options.LogCapacity is 0.
const DefaultLogCapacity = 1000

// Options configures a Service.
type Options struct {
	Scoring             scoring.Config
	LabelPriorityWeight int
	// AgentDir is used when a call does not name an agent directory.
	AgentDir    string
	LogCapacity int
}

// Service is the assignment and triage engine.
type Service struct {
	tracker  IssueTracker
	index    *capability.Index
	registry *mapping.Registry
	analyzer *analyzer.Analyzer
	scorer   *scoring.Scorer
	audit    *AuditLog
	agentDir string
	now      func() time.Time
	logger   *slog.Logger
}

// New wires a Service from a tracker and a capability provider.
func New(tracker IssueTracker, provider capability.Provider, opts Options) *Service {
	scorer := scoring.New(opts.Scoring)
	index := capability.NewIndex(provider, scorer)
	registry := mapping.NewRegistry(index, opts.LabelPriorityWeight)

	capacity := opts.LogCapacity
	if capacity == 0 {
		capacity = DefaultLogCapacity
	}

	return &Service{
		tracker:  tracker,
		index:    index,
		registry: registry,
		analyzer: analyzer.New(index, registry, scorer),
		scorer:   scorer,
		audit:    NewAuditLog(capacity),
		agentDir: opts.AgentDir,
		now:      time.Now,
		logger:   logging.With("component", "automation"),
	}
}

// Analyzer returns the issue analyzer.
func (s *Service) Analyzer() *analyzer.Analyzer { return s.analyzer }

// Registry returns the label mapping registry.
func (s *Service) Registry() *mapping.Registry { return s.registry }

// Index returns the capability index.
func (s *Service) Index() *capability.Index { return s.index }

// Tracker returns the issue tracker.
func (s *Service) Tracker() IssueTracker { return s.tracker }

// AgentDir resolves dir against the service default.
func (s *Service) AgentDir(dir string) string {
	if dir != "" {
		return dir
	}
	return s.agentDir
}

// AutomationLog returns the newest limit entries, oldest first. A
// non-positive limit returns every retained entry.
func (s *Service) AutomationLog(limit int) []models.AutomationLogEntry {
	return s.audit.Entries(limit)
}

// ClearAutomationLog empties the automation log.
func (s *Service) ClearAutomationLog() {
	s.audit.Clear()
}

// InvalidateCapabilities drops the cached capability index.
func (s *Service) InvalidateCapabilities() {
	s.index.Invalidate()
}

// Reset clears the automation log, custom mappings and capability cache.
func (s *Service) Reset() {
	s.audit.Clear()
	s.registry.ClearCustomMappings()
	s.index.Invalidate()
}

func (s *Service) record(issueNumber int, action, result string) {
	s.audit.Append(models.AutomationLogEntry{
		Timestamp:   s.now(),
		IssueNumber: issueNumber,
		Action:      action,
		Result:      result,
	})
}
