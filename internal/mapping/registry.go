// Package mapping routes issue labels to agents.
//
// A Registry holds built-in default mappings and user-supplied custom
// mappings. When both exist for the same label the custom mapping replaces the
// default entirely; the two agent lists are never merged.
package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

const (
	MinPriority = 1
	MaxPriority = 10

	// DefaultPriorityWeight scales a mapping's priority into score points.
	DefaultPriorityWeight = 5
)

// AgentLister resolves the agent ids known for a source.
type AgentLister interface {
	AgentIDs(ctx context.Context, source string) ([]string, error)
}

// LabelScore is the accumulated label-mapping score of one agent.
type LabelScore struct {
	Agent  string
	Score  int
	Labels []string
}

// ValidationResult reports problems found in a mapping set.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Registry is the process-wide label to agent routing table.
type Registry struct {
	priorityWeight int
	agents         AgentLister
	logger         *slog.Logger

	mu       sync.RWMutex
	defaults map[string]models.LabelMapping
	custom   map[string]models.LabelMapping
}

// NewRegistry creates a Registry seeded with DefaultMappings. agents is used by
// Validate; priorityWeight <= 0 selects DefaultPriorityWeight.
func NewRegistry(agents AgentLister, priorityWeight int) *Registry {
	if priorityWeight <= 0 {
		priorityWeight = DefaultPriorityWeight
	}
	r := &Registry{
		priorityWeight: priorityWeight,
		agents:         agents,
		logger:         logging.With("component", "mapping"),
		defaults:       make(map[string]models.LabelMapping),
		custom:         make(map[string]models.LabelMapping),
	}
	for _, m := range DefaultMappings() {
		r.defaults[foldLabel(m.Label)] = m
	}
	return r
}

// DefaultMappings returns the built-in label mappings.
func DefaultMappings() []models.LabelMapping {
	return []models.LabelMapping{
		{Label: "bug", Agents: []string{"debugger", "tester"}, Priority: 9},
		{Label: "regression", Agents: []string{"tester", "debugger"}, Priority: 8},
		{Label: "enhancement", Agents: []string{"backend-developer", "frontend-developer"}, Priority: 5},
		{Label: "feature", Agents: []string{"backend-developer", "frontend-developer"}, Priority: 5},
		{Label: "documentation", Agents: []string{"researcher", "project-manager"}, Priority: 4},
		{Label: "performance", Agents: []string{"performance-engineer", "backend-developer"}, Priority: 8},
		{Label: "testing", Agents: []string{"tester"}, Priority: 7},
		{Label: "ui/ux", Agents: []string{"ui-developer", "frontend-developer"}, Priority: 8},
		{Label: "ui", Agents: []string{"ui-developer", "frontend-developer"}, Priority: 7},
		{Label: "design", Agents: []string{"ui-developer"}, Priority: 6},
		{Label: "frontend", Agents: []string{"frontend-developer", "ui-developer"}, Priority: 8},
		{Label: "backend", Agents: []string{"backend-developer"}, Priority: 8},
		{Label: "api", Agents: []string{"backend-developer"}, Priority: 7},
		{Label: "database", Agents: []string{"data-engineer", "backend-developer"}, Priority: 7},
		{Label: "data", Agents: []string{"data-engineer"}, Priority: 7},
		{Label: "security", Agents: []string{"backend-developer", "debugger"}, Priority: 6},
		{Label: "research", Agents: []string{"researcher"}, Priority: 7},
		{Label: "question", Agents: []string{"researcher"}, Priority: 3},
		{Label: "planning", Agents: []string{"project-manager"}, Priority: 6},
	}
}

// foldLabel normalizes a label for case-insensitive lookup. A Caser is not
// safe for concurrent use, so one is created per call.
func foldLabel(label string) string {
	return cases.Fold().String(strings.TrimSpace(label))
}

// MappingForLabel returns the effective mapping for label: the custom one if
// present, otherwise the default.
func (r *Registry) MappingForLabel(label string) (models.LabelMapping, bool) {
	key := foldLabel(label)
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.custom[key]; ok {
		return cloneMapping(m), true
	}
	if m, ok := r.defaults[key]; ok {
		return cloneMapping(m), true
	}
	return models.LabelMapping{}, false
}

// AgentsForLabel returns the agents mapped to label in priority order, or nil.
func (r *Registry) AgentsForLabel(label string) []string {
	m, ok := r.MappingForLabel(label)
	if !ok {
		return nil
	}
	return m.Agents
}

// ScoreLabels accumulates a score per agent across labels. Each mapping adds
// priority*weight/(position+1) to the agent at that position. Every
// contribution is non-negative, so matching more labels never lowers a score.
// Repeated labels count once. The result is sorted by score, then agent id.
func (r *Registry) ScoreLabels(labels []string) []LabelScore {
	byAgent := make(map[string]*LabelScore)
	seen := make(map[string]bool)

	for _, label := range labels {
		key := foldLabel(label)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		m, ok := r.MappingForLabel(label)
		if !ok {
			continue
		}
		for pos, agent := range m.Agents {
			ls, ok := byAgent[agent]
			if !ok {
				ls = &LabelScore{Agent: agent}
				byAgent[agent] = ls
			}
			ls.Score += m.Priority * r.priorityWeight / (pos + 1)
			ls.Labels = append(ls.Labels, m.Label)
		}
	}

	out := make([]LabelScore, 0, len(byAgent))
	for _, ls := range byAgent {
		out = append(out, *ls)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Agent < out[j].Agent
	})
	return out
}

// AgentsForLabels returns agent id to accumulated label score.
func (r *Registry) AgentsForLabels(labels []string) map[string]int {
	out := make(map[string]int)
	for _, ls := range r.ScoreLabels(labels) {
		out[ls.Agent] = ls.Score
	}
	return out
}

// AddCustomMapping stores m, replacing any custom mapping for the same label.
func (r *Registry) AddCustomMapping(m models.LabelMapping) error {
	m = normalizeMapping(m)
	if errs := checkMapping(m); len(errs) > 0 {
		return fmt.Errorf("invalid mapping for label %q: %s", m.Label, strings.Join(errs, "; "))
	}

	r.mu.Lock()
	r.custom[foldLabel(m.Label)] = m
	r.mu.Unlock()

	r.logger.Debug("custom mapping added", "label", m.Label, "agents", m.Agents, "priority", m.Priority)
	return nil
}

// RemoveCustomMapping deletes the custom mapping for label and reports
// whether one existed. The default mapping, if any, applies again.
func (r *Registry) RemoveCustomMapping(label string) bool {
	key := foldLabel(label)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.custom[key]; !ok {
		return false
	}
	delete(r.custom, key)
	return true
}

// SetCustomMappings replaces all custom mappings. Nothing changes if any
// mapping is invalid.
func (r *Registry) SetCustomMappings(mappings []models.LabelMapping) error {
	next := make(map[string]models.LabelMapping, len(mappings))
	for _, m := range mappings {
		m = normalizeMapping(m)
		if errs := checkMapping(m); len(errs) > 0 {
			return fmt.Errorf("invalid mapping for label %q: %s", m.Label, strings.Join(errs, "; "))
		}
		next[foldLabel(m.Label)] = m
	}

	r.mu.Lock()
	r.custom = next
	r.mu.Unlock()
	return nil
}

// ClearCustomMappings removes every custom mapping.
func (r *Registry) ClearCustomMappings() {
	r.mu.Lock()
	r.custom = make(map[string]models.LabelMapping)
	r.mu.Unlock()
}

// CustomMappings returns a copy of the custom mappings sorted by label.
func (r *Registry) CustomMappings() []models.LabelMapping {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedMappings(r.custom)
}

// EffectiveMappings returns the mapping in force for every known label.
func (r *Registry) EffectiveMappings() []models.LabelMapping {
	r.mu.RLock()
	defer r.mu.RUnlock()

	merged := make(map[string]models.LabelMapping, len(r.defaults)+len(r.custom))
	for k, m := range r.defaults {
		merged[k] = m
	}
	for k, m := range r.custom {
		merged[k] = m
	}
	return sortedMappings(merged)
}

// Validate checks mappings for structural problems and for agents unknown to
// agentDir. It does not modify the registry.
func (r *Registry) Validate(ctx context.Context, mappings []models.LabelMapping, agentDir string) ValidationResult {
	var errs []string

	known := make(map[string]bool)
	if r.agents == nil {
		errs = append(errs, "no agent source configured")
	} else {
		ids, err := r.agents.AgentIDs(ctx, agentDir)
		if err != nil {
			errs = append(errs, fmt.Sprintf("loading agents from %s: %v", agentDir, err))
		}
		for _, id := range ids {
			known[id] = true
		}
	}

	for i, m := range mappings {
		m = normalizeMapping(m)
		name := m.Label
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		for _, e := range checkMapping(m) {
			errs = append(errs, fmt.Sprintf("mapping %s: %s", name, e))
		}
		if r.agents == nil {
			continue
		}
		for _, agent := range m.Agents {
			if agent != "" && !known[agent] {
				errs = append(errs, fmt.Sprintf("mapping %s: unknown agent %q", name, agent))
			}
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func normalizeMapping(m models.LabelMapping) models.LabelMapping {
	out := models.LabelMapping{
		Label:    strings.TrimSpace(m.Label),
		Priority: m.Priority,
		Agents:   make([]string, 0, len(m.Agents)),
	}
	for _, a := range m.Agents {
		out.Agents = append(out.Agents, strings.TrimSpace(a))
	}
	return out
}

func checkMapping(m models.LabelMapping) []string {
	var errs []string
	if m.Label == "" {
		errs = append(errs, "label is empty")
	}
	if len(m.Agents) == 0 {
		errs = append(errs, "no agents")
	}
	for i, a := range m.Agents {
		if a == "" {
			errs = append(errs, fmt.Sprintf("agent #%d is empty", i))
		}
	}
	if m.Priority < MinPriority || m.Priority > MaxPriority {
		errs = append(errs, fmt.Sprintf("priority %d out of range [%d,%d]", m.Priority, MinPriority, MaxPriority))
	}
	return errs
}

func cloneMapping(m models.LabelMapping) models.LabelMapping {
	m.Agents = append([]string(nil), m.Agents...)
	return m
}

func sortedMappings(in map[string]models.LabelMapping) []models.LabelMapping {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.LabelMapping, 0, len(keys))
	for _, k := range keys {
		out = append(out, cloneMapping(in[k]))
	}
	return out
}
