package capability

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/danielolaszy/triage/internal/keywords"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/internal/scoring"
	"github.com/danielolaszy/triage/pkg/models"
)

// Capabilities is the loaded index for one source.
type Capabilities struct {
	// Keywords maps agent id to its keyword set.
	Keywords map[string]keywords.KeywordSet
	// Profiles maps agent id to the profile it was built from.
	Profiles map[string]models.AgentCapabilityProfile
	// Order lists agent ids sorted, giving ranking ties a stable order.
	Order []string
}

// Len returns the number of indexed agents.
func (c *Capabilities) Len() int {
	return len(c.Order)
}

// Has reports whether the agent id is indexed.
func (c *Capabilities) Has(agentID string) bool {
	_, ok := c.Keywords[agentID]
	return ok
}

func emptyCapabilities() *Capabilities {
	return &Capabilities{
		Keywords: map[string]keywords.KeywordSet{},
		Profiles: map[string]models.AgentCapabilityProfile{},
	}
}

// Index caches capabilities per source. The cache is only cleared by
// Invalidate; profile edits on disk are not picked up until then.
type Index struct {
	provider Provider
	scorer   *scoring.Scorer
	logger   *slog.Logger

	mu    sync.RWMutex
	cache map[string]*Capabilities
}

// NewIndex creates an Index backed by provider.
func NewIndex(provider Provider, scorer *scoring.Scorer) *Index {
	return &Index{
		provider: provider,
		scorer:   scorer,
		logger:   logging.With("component", "capability"),
		cache:    make(map[string]*Capabilities),
	}
}

// Load returns the capabilities for source, loading them on first use. A
// missing source yields an empty index rather than an error so that analysis
// degrades to "no matches". Other provider failures are returned and not cached.
func (i *Index) Load(ctx context.Context, source string) (*Capabilities, error) {
	i.mu.RLock()
	cached, ok := i.cache[source]
	i.mu.RUnlock()
	if ok {
		return cached, nil
	}

	profiles, err := i.provider.Load(ctx, source)
	if err != nil {
		if !errors.Is(err, ErrSourceNotFound) {
			return nil, err
		}
		i.logger.Warn("agent capability source not found, using empty index", "source", source)
		profiles = nil
	}

	caps := emptyCapabilities()
	for _, p := range profiles {
		if _, dup := caps.Profiles[p.AgentID]; dup {
			i.logger.Warn("duplicate agent id, keeping first profile",
				"agent", p.AgentID,
				"ignored", p.SourcePath)
			continue
		}
		caps.Profiles[p.AgentID] = p
		caps.Keywords[p.AgentID] = keywords.NewKeywordSet(p.Keywords...)
		caps.Order = append(caps.Order, p.AgentID)
	}
	sort.Strings(caps.Order)

	i.mu.Lock()
	// another caller may have loaded the same source meanwhile; keep theirs
	if existing, ok := i.cache[source]; ok {
		caps = existing
	} else {
		i.cache[source] = caps
	}
	i.mu.Unlock()

	i.logger.Debug("loaded agent capabilities", "source", source, "agents", caps.Len())
	return caps, nil
}

// Invalidate drops every cached source.
func (i *Index) Invalidate() {
	i.mu.Lock()
	i.cache = make(map[string]*Capabilities)
	i.mu.Unlock()
	i.logger.Debug("capability cache invalidated")
}

// AgentIDs returns the sorted agent ids for source.
func (i *Index) AgentIDs(ctx context.Context, source string) ([]string, error) {
	caps, err := i.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), caps.Order...), nil
}

// FindAgentsByKeywords scores every indexed agent against kws and returns the
// agents with a positive score.
func (i *Index) FindAgentsByKeywords(ctx context.Context, kws keywords.KeywordSet, source string) (map[string]int, error) {
	caps, err := i.Load(ctx, source)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int)
	for _, id := range caps.Order {
		if score, _ := i.scorer.Score(kws, caps.Keywords[id]); score > 0 {
			out[id] = score
		}
	}
	return out, nil
}
