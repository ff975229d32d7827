// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/danielolaszy/triage/internal/automation"
	"github.com/danielolaszy/triage/internal/mapping"
	"github.com/danielolaszy/triage/internal/scoring"
)

// Supported trackers.
const (
	TrackerGitHub = "github"
	TrackerJira   = "jira"
)

// Defaults that are not owned by another package.
const (
	DefaultAgentDir       = "~/.claude/agents"
	DefaultListenAddr     = ":8080"
	DefaultRequestTimeout = 30 * time.Second
)

// DefaultExcludeLabels are the labels automation leaves alone out of the box.
var DefaultExcludeLabels = []string{"wontfix", "duplicate", "invalid"}

// Config holds all configuration parameters for the application.
type Config struct {
	GitHub GitHubConfig
	Jira   JiraConfig
	Triage TriageConfig
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token  string
	Domain string
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	URL      string
	Username string
	Token    string
}

// TriageConfig holds the automation policy and scoring constants.
type TriageConfig struct {
	Tracker             string
	AgentDir            string
	Enabled             bool
	AutoAssign          bool
	ConfidenceThreshold int
	ExcludeLabels       []string
	RequireConfirmation bool

	HighThreshold       int
	MediumThreshold     int
	PointsPerKeyword    int
	LabelPriorityWeight int

	RequestTimeout time.Duration
	LogCapacity    int
	ListenAddr     string
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"github.token":                 "GITHUB_TOKEN",
	"github.domain":                "GITHUB_DOMAIN",
	"jira.url":                     "JIRA_URL",
	"jira.username":                "JIRA_USERNAME",
	"jira.token":                   "JIRA_TOKEN",
	"triage.tracker":               "TRIAGE_TRACKER",
	"triage.agent_dir":             "TRIAGE_AGENT_DIR",
	"triage.enabled":               "TRIAGE_ENABLED",
	"triage.auto_assign":           "TRIAGE_AUTO_ASSIGN",
	"triage.confidence_threshold":  "TRIAGE_CONFIDENCE_THRESHOLD",
	"triage.exclude_labels":        "TRIAGE_EXCLUDE_LABELS",
	"triage.require_confirmation":  "TRIAGE_REQUIRE_CONFIRMATION",
	"triage.high_threshold":        "TRIAGE_HIGH_THRESHOLD",
	"triage.medium_threshold":      "TRIAGE_MEDIUM_THRESHOLD",
	"triage.points_per_keyword":    "TRIAGE_POINTS_PER_KEYWORD",
	"triage.label_priority_weight": "TRIAGE_LABEL_PRIORITY_WEIGHT",
	"triage.request_timeout":       "TRIAGE_REQUEST_TIMEOUT",
	"triage.log_capacity":          "TRIAGE_LOG_CAPACITY",
	"triage.listen_addr":           "TRIAGE_LISTEN_ADDR",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.domain", "github.com")
	v.SetDefault("triage.tracker", TrackerGitHub)
	v.SetDefault("triage.agent_dir", DefaultAgentDir)
	v.SetDefault("triage.enabled", true)
	v.SetDefault("triage.auto_assign", false)
	v.SetDefault("triage.confidence_threshold", automation.DefaultConfidenceThreshold)
	v.SetDefault("triage.exclude_labels", DefaultExcludeLabels)
	v.SetDefault("triage.require_confirmation", false)
	v.SetDefault("triage.high_threshold", scoring.DefaultHighThreshold)
	v.SetDefault("triage.medium_threshold", scoring.DefaultMediumThreshold)
	v.SetDefault("triage.points_per_keyword", scoring.DefaultPointsPerKeyword)
	v.SetDefault("triage.label_priority_weight", mapping.DefaultPriorityWeight)
	v.SetDefault("triage.request_timeout", DefaultRequestTimeout)
	v.SetDefault("triage.log_capacity", automation.DefaultLogCapacity)
	v.SetDefault("triage.listen_addr", DefaultListenAddr)
}

// LoadConfig loads configuration from environment variables only.
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load reads the optional YAML file at configFile, then applies environment
// variables on top, and validates the result.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	agentDir, err := ExpandHome(v.GetString("triage.agent_dir"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		GitHub: GitHubConfig{
			Token:  v.GetString("github.token"),
			Domain: v.GetString("github.domain"),
		},
		Jira: JiraConfig{
			URL:      v.GetString("jira.url"),
			Username: v.GetString("jira.username"),
			Token:    v.GetString("jira.token"),
		},
		Triage: TriageConfig{
			Tracker:             strings.ToLower(v.GetString("triage.tracker")),
			AgentDir:            agentDir,
			Enabled:             v.GetBool("triage.enabled"),
			AutoAssign:          v.GetBool("triage.auto_assign"),
			ConfidenceThreshold: v.GetInt("triage.confidence_threshold"),
			ExcludeLabels:       stringList(v.Get("triage.exclude_labels")),
			RequireConfirmation: v.GetBool("triage.require_confirmation"),
			HighThreshold:       v.GetInt("triage.high_threshold"),
			MediumThreshold:     v.GetInt("triage.medium_threshold"),
			PointsPerKeyword:    v.GetInt("triage.points_per_keyword"),
			LabelPriorityWeight: v.GetInt("triage.label_priority_weight"),
			RequestTimeout:      v.GetDuration("triage.request_timeout"),
			LogCapacity:         v.GetInt("triage.log_capacity"),
			ListenAddr:          v.GetString("triage.listen_addr"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// stringList accepts a YAML sequence or a comma-separated string.
func stringList(raw interface{}) []string {
	var items []string
	switch val := raw.(type) {
	case string:
		items = strings.Split(val, ",")
	case []string:
		items = val
	case []interface{}:
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// validateConfig ensures that the configuration values are usable.
func validateConfig(config *Config) error {
	t := config.Triage

	if t.Tracker != TrackerGitHub && t.Tracker != TrackerJira {
		return fmt.Errorf("unsupported tracker %q, expected %s or %s", t.Tracker, TrackerGitHub, TrackerJira)
	}
	if t.ConfidenceThreshold < 0 || t.ConfidenceThreshold > scoring.MaxScore {
		return fmt.Errorf("confidence threshold %d out of range [0,%d]", t.ConfidenceThreshold, scoring.MaxScore)
	}
	if err := config.ScoringConfig().Validate(); err != nil {
		return fmt.Errorf("invalid scoring configuration: %w", err)
	}
	if t.LabelPriorityWeight < 0 {
		return fmt.Errorf("label priority weight must not be negative, got %d", t.LabelPriorityWeight)
	}
	if t.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", t.RequestTimeout)
	}
	if t.LogCapacity < 0 {
		return fmt.Errorf("log capacity must not be negative, got %d", t.LogCapacity)
	}

	if t.Tracker == TrackerJira {
		return ValidateJiraConfig(config)
	}
	return nil
}

// ValidateJiraConfig validates JIRA-specific configuration.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if config.Jira.Username == "" {
		missingVars = append(missingVars, "JIRA_USERNAME")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}

// ScoringConfig returns the scoring constants.
func (c *Config) ScoringConfig() scoring.Config {
	return scoring.Config{
		HighThreshold:    c.Triage.HighThreshold,
		MediumThreshold:  c.Triage.MediumThreshold,
		PointsPerKeyword: c.Triage.PointsPerKeyword,
	}
}

// ServiceOptions returns the options for the automation service.
func (c *Config) ServiceOptions() automation.Options {
	return automation.Options{
		Scoring:             c.ScoringConfig(),
		LabelPriorityWeight: c.Triage.LabelPriorityWeight,
		AgentDir:            c.Triage.AgentDir,
		LogCapacity:         c.Triage.LogCapacity,
	}
}

// AutomationConfig returns the policy applied to webhook events.
func (c *Config) AutomationConfig() automation.Config {
	return automation.Config{
		Enabled:             c.Triage.Enabled,
		AutoAssign:          c.Triage.AutoAssign,
		ConfidenceThreshold: c.Triage.ConfidenceThreshold,
		ExcludeLabels:       c.Triage.ExcludeLabels,
		RequireConfirmation: c.Triage.RequireConfirmation,
		AgentDir:            c.Triage.AgentDir,
	}
}

// AssignOptions returns assignment options built from the policy.
func (c *Config) AssignOptions() automation.AssignOptions {
	return automation.AssignOptions{
		AgentDir:            c.Triage.AgentDir,
		ConfidenceThreshold: c.Triage.ConfidenceThreshold,
		ExcludeLabels:       c.Triage.ExcludeLabels,
		RequireConfirmation: c.Triage.RequireConfirmation,
	}
}
