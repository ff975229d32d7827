// Package analyzer ranks agents for an issue by combining keyword matching
// against agent capabilities with the label mapping registry.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/danielolaszy/triage/internal/capability"
	"github.com/danielolaszy/triage/internal/keywords"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/internal/mapping"
	"github.com/danielolaszy/triage/internal/scoring"
	"github.com/danielolaszy/triage/pkg/models"
)

// labelRule suggests a label when the issue text matches pattern.
type labelRule struct {
	label   string
	pattern *regexp.Regexp
}

var labelRules = []labelRule{
	{"bug", regexp.MustCompile(`(?i)\b(crash(es|ed|ing)?|fatal|exception|broken|errors?|fails?|failing|failure|bug|panic|segfault|regression)\b`)},
	{"enhancement", regexp.MustCompile(`(?i)(^|\W)(add|feature|implement|support for|request|improve|enhance)\b`)},
	{"documentation", regexp.MustCompile(`(?i)\b(docs?|documentation|readme|typo|guide|tutorial)\b`)},
	{"performance", regexp.MustCompile(`(?i)\b(slow|latency|performance|memory leak|cpu|optimi[sz]e|timeout|lag)\b`)},
	{"testing", regexp.MustCompile(`(?i)\b(tests?|testing|coverage|flaky|e2e)\b`)},
	{"security", regexp.MustCompile(`(?i)\b(security|vulnerab\w*|xss|csrf|injection|cve-\d+|exploit)\b`)},
}

var questionTitle = regexp.MustCompile(`(?i)^\s*(how|what|why|is there|can i|does)\b|\?\s*$`)

// Analyzer produces IssueAnalysis values. It holds no per-issue state.
type Analyzer struct {
	index    *capability.Index
	registry *mapping.Registry
	scorer   *scoring.Scorer
	now      func() time.Time
	logger   *slog.Logger
}

// New creates an Analyzer over the shared index and registry.
func New(index *capability.Index, registry *mapping.Registry, scorer *scoring.Scorer) *Analyzer {
	return &Analyzer{
		index:    index,
		registry: registry,
		scorer:   scorer,
		now:      time.Now,
		logger:   logging.With("component", "analyzer"),
	}
}

// Scorer returns the scorer used for ranking.
func (a *Analyzer) Scorer() *scoring.Scorer {
	return a.scorer
}

// AnalyzeIssue extracts keywords, ranks agents from their capabilities, adds
// label-mapping scores on top, and suggests labels from the issue text. A
// failing capability source is logged and treated as having no agents.
func (a *Analyzer) AnalyzeIssue(ctx context.Context, issue models.Issue, agentDir string) *models.IssueAnalysis {
	kws := keywords.ExtractIssueKeywords(issue)

	caps, err := a.index.Load(ctx, agentDir)
	if err != nil {
		a.logger.Error("failed to load agent capabilities",
			"agent_dir", agentDir,
			"error", err)
		caps = &capability.Capabilities{}
	}

	matches := a.scorer.RankAgents(kws, caps.Keywords, caps.Order)
	matches = a.mergeLabelScores(matches, issue.Labels, caps)

	analysis := &models.IssueAnalysis{
		Issue:             issue,
		ExtractedKeywords: kws.Sorted(),
		AgentMatches:      matches,
		SuggestedLabels:   SuggestLabels(issue),
		AnalyzedAt:        a.now(),
	}

	a.logger.Debug("issue analyzed",
		"issue_number", issue.Number,
		"keywords", len(analysis.ExtractedKeywords),
		"matches", len(matches),
		"suggested_labels", analysis.SuggestedLabels)
	return analysis
}

// mergeLabelScores adds label-mapping scores to keyword matches. Agents only
// reachable through a label are appended as new matches when caps indexes
// them; mapped agents without a profile are dropped. Scores are capped and
// confidence recomputed, then the list is re-sorted (stable).
func (a *Analyzer) mergeLabelScores(matches []models.AgentMatch, labels []string, caps *capability.Capabilities) []models.AgentMatch {
	labelScores := a.registry.ScoreLabels(labels)
	if len(labelScores) == 0 {
		return matches
	}

	pos := make(map[string]int, len(matches))
	for i, m := range matches {
		pos[m.AgentName] = i
	}

	for _, ls := range labelScores {
		reason := fmt.Sprintf("Label mapping: %s", strings.Join(ls.Labels, ", "))
		if i, ok := pos[ls.Agent]; ok {
			m := &matches[i]
			a.scorer.Rescore(m, m.Score+ls.Score)
			m.MatchReason += "; " + reason
			continue
		}
		if !caps.Has(ls.Agent) {
			a.logger.Debug("skipping label-mapped agent without a profile",
				"agent", ls.Agent,
				"labels", ls.Labels)
			continue
		}
		pos[ls.Agent] = len(matches)
		matches = append(matches, a.scorer.NewMatch(ls.Agent, ls.Score, []string{}, reason))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// BestMatch returns the top match if its score reaches threshold, else nil.
func (a *Analyzer) BestMatch(ctx context.Context, issue models.Issue, threshold int, agentDir string) *models.AgentMatch {
	analysis := a.AnalyzeIssue(ctx, issue, agentDir)
	if len(analysis.AgentMatches) == 0 {
		return nil
	}
	best := analysis.AgentMatches[0]
	if best.Score < threshold {
		return nil
	}
	return &best
}

// TopMatches returns up to max matches scoring at least threshold, best first.
func (a *Analyzer) TopMatches(ctx context.Context, issue models.Issue, max, threshold int, agentDir string) []models.AgentMatch {
	return FilterMatches(a.AnalyzeIssue(ctx, issue, agentDir).AgentMatches, max, threshold)
}

// FilterMatches keeps matches at or above threshold, at most max of them. A
// non-positive max means no limit. matches must already be sorted.
func FilterMatches(matches []models.AgentMatch, max, threshold int) []models.AgentMatch {
	out := make([]models.AgentMatch, 0, len(matches))
	for _, m := range matches {
		if m.Score < threshold {
			break
		}
		if max > 0 && len(out) == max {
			break
		}
		out = append(out, m)
	}
	return out
}

// SuggestLabels applies simple content heuristics to the title and body.
// Labels already on the issue are not suggested.
func SuggestLabels(issue models.Issue) []string {
	present := make(map[string]bool, len(issue.Labels))
	for _, l := range issue.Labels {
		present[strings.ToLower(strings.TrimSpace(l))] = true
	}

	text := issue.Title + "\n" + issue.Body
	var out []string
	for _, rule := range labelRules {
		if !present[rule.label] && rule.pattern.MatchString(text) {
			out = append(out, rule.label)
		}
	}
	if !present["question"] && questionTitle.MatchString(issue.Title) {
		out = append(out, "question")
	}
	return out
}
