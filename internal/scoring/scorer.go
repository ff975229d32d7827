// Package scoring computes how well an agent's capabilities match an issue.
//
// A score is an integer in [0,100] that grows with the number of keywords an
// issue shares with an agent. Confidence tiers are derived from the score
// alone, so two matches with the same score always share a tier.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danielolaszy/triage/internal/keywords"
	"github.com/danielolaszy/triage/pkg/models"
)

const (
	// MaxScore caps every score.
	MaxScore = 100

	DefaultHighThreshold    = 70
	DefaultMediumThreshold  = 40
	DefaultPointsPerKeyword = 20

	// reasonKeywordLimit bounds how many keywords a match reason lists.
	reasonKeywordLimit = 5
)

// Config holds the tunable scoring constants.
type Config struct {
	// HighThreshold is the lowest score with high confidence.
	HighThreshold int
	// MediumThreshold is the lowest score with medium confidence.
	MediumThreshold int
	// PointsPerKeyword is added for every keyword shared with the issue.
	PointsPerKeyword int
}

// DefaultConfig returns the stock thresholds (70/40) and 20 points per keyword.
func DefaultConfig() Config {
	return Config{
		HighThreshold:    DefaultHighThreshold,
		MediumThreshold:  DefaultMediumThreshold,
		PointsPerKeyword: DefaultPointsPerKeyword,
	}
}

// Validate reports whether the thresholds are usable.
func (c Config) Validate() error {
	if c.HighThreshold < 0 || c.HighThreshold > MaxScore {
		return fmt.Errorf("high threshold %d out of range [0,%d]", c.HighThreshold, MaxScore)
	}
	if c.MediumThreshold < 0 || c.MediumThreshold > c.HighThreshold {
		return fmt.Errorf("medium threshold %d must be in [0,%d]", c.MediumThreshold, c.HighThreshold)
	}
	if c.PointsPerKeyword <= 0 {
		return fmt.Errorf("points per keyword must be positive, got %d", c.PointsPerKeyword)
	}
	return nil
}

// Scorer scores and ranks agents.
type Scorer struct {
	cfg Config
}

// New creates a Scorer. An invalid configuration falls back to DefaultConfig.
func New(cfg Config) *Scorer {
	if err := cfg.Validate(); err != nil {
		cfg = DefaultConfig()
	}
	return &Scorer{cfg: cfg}
}

// Config returns the configuration in use.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score returns the match score between the two keyword sets together with
// the keywords they share. The score never decreases as the overlap grows.
func (s *Scorer) Score(issueKeywords, agentKeywords keywords.KeywordSet) (int, keywords.KeywordSet) {
	matched := issueKeywords.Intersect(agentKeywords)
	return s.scoreForOverlap(matched.Len()), matched
}

func (s *Scorer) scoreForOverlap(n int) int {
	if n <= 0 {
		return 0
	}
	// n*points would overflow for large point values
	points := s.cfg.PointsPerKeyword
	if points >= MaxScore || n >= (MaxScore+points-1)/points {
		return MaxScore
	}
	return Clamp(n * points)
}

// Confidence maps a score to its tier.
func (s *Scorer) Confidence(score int) models.Confidence {
	switch {
	case score >= s.cfg.HighThreshold:
		return models.ConfidenceHigh
	case score >= s.cfg.MediumThreshold:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// NewMatch builds an AgentMatch with the confidence derived from score.
func (s *Scorer) NewMatch(agent string, score int, matched []string, reason string) models.AgentMatch {
	score = Clamp(score)
	return models.AgentMatch{
		AgentName:       agent,
		Score:           score,
		Confidence:      s.Confidence(score),
		MatchedKeywords: matched,
		MatchReason:     reason,
	}
}

// Rescore sets a new score on m and recomputes its confidence.
func (s *Scorer) Rescore(m *models.AgentMatch, score int) {
	m.Score = Clamp(score)
	m.Confidence = s.Confidence(m.Score)
}

// RankAgents scores every agent in order and returns those with a positive
// score, best first. Agents with equal scores keep their relative order.
func (s *Scorer) RankAgents(issueKeywords keywords.KeywordSet, agents map[string]keywords.KeywordSet, order []string) []models.AgentMatch {
	matches := make([]models.AgentMatch, 0, len(order))
	for _, id := range order {
		agentKeywords, ok := agents[id]
		if !ok {
			continue
		}
		score, matched := s.Score(issueKeywords, agentKeywords)
		if score == 0 {
			continue
		}
		words := matched.Sorted()
		matches = append(matches, s.NewMatch(id, score, words, keywordReason(words)))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Clamp bounds a score to [0,100].
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func keywordReason(words []string) string {
	shown := words
	if len(shown) > reasonKeywordLimit {
		shown = shown[:reasonKeywordLimit]
	}
	noun := "keywords"
	if len(words) == 1 {
		noun = "keyword"
	}
	reason := fmt.Sprintf("Matched %d %s: %s", len(words), noun, strings.Join(shown, ", "))
	if len(words) > len(shown) {
		reason += fmt.Sprintf(" (+%d more)", len(words)-len(shown))
	}
	return reason
}
