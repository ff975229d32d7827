// Package cmd provides the command-line interface for the triage tool.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/triage/internal/automation"
	"github.com/danielolaszy/triage/internal/capability"
	"github.com/danielolaszy/triage/internal/config"
	"github.com/danielolaszy/triage/internal/github"
	"github.com/danielolaszy/triage/internal/jira"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/internal/mapping"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Triage routes tracker issues to specialized agents",
	Long: `Triage analyzes GitHub or JIRA issues and routes them to the agent profiles
whose declared capabilities best match the issue's text and labels.

It can suggest agents, post assignment or triage comments, label issues,
process whole backlogs, receive GitHub webhooks and serve its tools over MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add persistent flags that will be available to all commands
	rootCmd.PersistentFlags().StringP("repository", "r", "", "Repository name (e.g., 'owner/repo', or a JIRA project key)")
	rootCmd.PersistentFlags().StringP("agents-dir", "a", "", "Directory of agent profiles (default: TRIAGE_AGENT_DIR or ~/.claude/agents)")
	rootCmd.PersistentFlags().StringP("tracker", "t", "", "Issue tracker: github or jira (default: TRIAGE_TRACKER or github)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringP("mappings", "m", "", "Custom label mappings file (JSON or YAML) loaded at start-up")
}

// app bundles what a command needs once configuration is resolved.
type app struct {
	cfg       *config.Config
	tracker   automation.IssueTracker
	service   *automation.Service
	parseRepo func(string) (string, string, error)
}

// loadConfig loads configuration and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if tracker, _ := cmd.Flags().GetString("tracker"); tracker != "" {
		cfg.Triage.Tracker = strings.ToLower(tracker)
	}
	if dir, _ := cmd.Flags().GetString("agents-dir"); dir != "" {
		if cfg.Triage.AgentDir, err = config.ExpandHome(dir); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newService builds the automation service and loads the --mappings file.
// tracker may be nil for commands that never reach the tracker.
func newService(cmd *cobra.Command, cfg *config.Config, tracker automation.IssueTracker) (*automation.Service, error) {
	service := automation.New(tracker, capability.NewFileProvider(), cfg.ServiceOptions())

	if file, _ := cmd.Flags().GetString("mappings"); file != "" {
		if err := loadMappings(service.Registry(), file); err != nil {
			return nil, err
		}
	}
	return service, nil
}

// newApp loads configuration and builds the tracker adapter and automation
// service.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	switch cfg.Triage.Tracker {
	case config.TrackerGitHub:
		client, err := github.NewClient(github.Config{
			Token:   cfg.GitHub.Token,
			Domain:  cfg.GitHub.Domain,
			Timeout: cfg.Triage.RequestTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize github client: %w", err)
		}
		a.tracker, a.parseRepo = client, github.ParseRepository
	case config.TrackerJira:
		if err := config.ValidateJiraConfig(cfg); err != nil {
			return nil, err
		}
		client, err := jira.NewClient(jira.Config{
			URL:      cfg.Jira.URL,
			Username: cfg.Jira.Username,
			Token:    cfg.Jira.Token,
			Timeout:  cfg.Triage.RequestTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize jira client: %w", err)
		}
		a.tracker, a.parseRepo = client, jira.ParseProject
	default:
		return nil, fmt.Errorf("unsupported tracker %q: use %s or %s", cfg.Triage.Tracker, config.TrackerGitHub, config.TrackerJira)
	}

	if a.service, err = newService(cmd, cfg, a.tracker); err != nil {
		return nil, err
	}

	logging.Debug("configuration loaded",
		"tracker", cfg.Triage.Tracker,
		"agent_dir", cfg.Triage.AgentDir,
		"github_token", logging.MaskSensitive(cfg.GitHub.Token))
	return a, nil
}

// repository parses the --repository flag for the configured tracker.
func (a *app) repository(cmd *cobra.Command) (owner, repo string, err error) {
	repository, err := cmd.Flags().GetString("repository")
	if err != nil {
		return "", "", err
	}
	if repository == "" {
		return "", "", fmt.Errorf("repository flag is required")
	}
	return a.parseRepo(repository)
}

// loadMappings imports a mapping file into registry. Any rejected entry
// fails start-up so a typo never silently drops a route.
func loadMappings(registry *mapping.Registry, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read mappings file: %w", err)
	}

	result := importMappings(registry, file, data)
	if !result.Success {
		return fmt.Errorf("failed to import %s: %s", file, result.Error)
	}
	if result.Rejected > 0 {
		return fmt.Errorf("failed to import %s: %s", file, strings.Join(result.Errors, "; "))
	}

	logging.Info("loaded custom mappings", "file", file, "count", result.Imported)
	return nil
}

func importMappings(registry *mapping.Registry, file string, data []byte) mapping.ImportResult {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return registry.ImportYAML(data)
	default:
		return registry.Import(data)
	}
}
