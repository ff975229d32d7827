// Package jira implements the issue tracker on top of the JIRA REST API.
//
// A JIRA project plays the role of a repository: repo is the project key and
// issue number 42 addresses the issue KEY-42. The owner argument is ignored.
package jira

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

const (
	// DefaultTimeout bounds every API request.
	DefaultTimeout = 30 * time.Second

	searchPageSize = 50
	doneCategory   = "done"
)

// Config holds JIRA connection settings.
type Config struct {
	URL      string
	Username string
	Token    string
	Timeout  time.Duration
}

// Validate reports missing connection settings by their environment names.
func (c Config) Validate() error {
	var missingVars []string
	if c.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if c.Username == "" {
		missingVars = append(missingVars, "JIRA_USERNAME")
	}
	if c.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}
	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}
	return nil
}

// Client handles interactions with the JIRA API. A per-call token replaces
// the configured API token for that call.
type Client struct {
	cfg     Config
	baseURL string

	mu      sync.Mutex
	clients map[string]*jira.Client
}

// NewClient creates a JIRA tracker from cfg.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(cfg.URL, "/") + "/",
		clients: make(map[string]*jira.Client),
	}
	// fail early on a malformed URL
	if _, err := c.clientFor(""); err != nil {
		return nil, err
	}

	logging.Debug("jira configuration",
		"url", cfg.URL,
		"username", cfg.Username,
		"token", logging.MaskSensitive(cfg.Token))
	return c, nil
}

func (c *Client) clientFor(token string) (*jira.Client, error) {
	if token == "" {
		token = c.cfg.Token
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[token]; ok {
		return client, nil
	}

	tp := jira.BasicAuthTransport{
		Username: c.cfg.Username,
		Password: token,
	}
	httpClient := tp.Client()
	httpClient.Timeout = c.cfg.Timeout

	client, err := jira.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("error creating JIRA client: %w", err)
	}
	c.clients[token] = client
	return client, nil
}

// ParseProject accepts "KEY" or "owner/KEY" and returns the project key in
// the repo position.
func ParseProject(repository string) (owner, repo string, err error) {
	parts := strings.Split(strings.TrimSpace(repository), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return "", strings.ToUpper(parts[0]), nil
	case len(parts) == 2 && parts[1] != "":
		return parts[0], strings.ToUpper(parts[1]), nil
	}
	return "", "", fmt.Errorf("invalid project format: %s, expected format: KEY or owner/KEY", repository)
}

// IssueKey builds the JIRA key for an issue number in a project.
func IssueKey(projectKey string, number int) string {
	return fmt.Sprintf("%s-%d", strings.ToUpper(projectKey), number)
}

// FetchIssue retrieves the issue <repo>-<number>.
func (c *Client) FetchIssue(ctx context.Context, owner, repo string, number int, token string) (*models.Issue, error) {
	client, err := c.clientFor(token)
	if err != nil {
		return nil, err
	}

	key := IssueKey(repo, number)
	issue, resp, err := client.Issue.GetWithContext(ctx, key, nil)
	if err != nil {
		logging.Error("failed to get jira issue", "key", key, "error", err, "status_code", statusCode(resp))
		return nil, fmt.Errorf("failed to get JIRA issue %s: %v (status: %d)", key, err, statusCode(resp))
	}

	converted := c.convertIssue(*issue)
	return &converted, nil
}

// FetchOpenIssues searches a project. "open" matches every status outside the
// done category and "closed" matches the done category; any other state
// matches everything.
func (c *Client) FetchOpenIssues(ctx context.Context, owner, repo, token string, opts models.IssueListOptions) ([]models.Issue, error) {
	client, err := c.clientFor(token)
	if err != nil {
		return nil, err
	}

	jql := buildJQL(repo, opts)
	pageSize := opts.PerPage
	if pageSize <= 0 {
		pageSize = searchPageSize
	}

	var result []models.Issue
	startAt := 0
	for {
		issues, resp, err := client.Issue.SearchWithContext(ctx, jql, &jira.SearchOptions{
			StartAt:    startAt,
			MaxResults: pageSize,
		})
		if err != nil {
			logging.Error("failed to search jira issues", "jql", jql, "error", err, "status_code", statusCode(resp))
			return nil, fmt.Errorf("failed to search JIRA issues: %v (status: %d)", err, statusCode(resp))
		}

		for _, issue := range issues {
			result = append(result, c.convertIssue(issue))
		}

		startAt += len(issues)
		if len(issues) == 0 || resp == nil || startAt >= resp.Total {
			break
		}
	}

	logging.Debug("fetched jira issues", "jql", jql, "count", len(result))
	return result, nil
}

func buildJQL(projectKey string, opts models.IssueListOptions) string {
	clauses := []string{fmt.Sprintf("project = %q", strings.ToUpper(projectKey))}

	switch opts.State {
	case "", models.StateOpen:
		clauses = append(clauses, "statusCategory != Done")
	case models.StateClosed:
		clauses = append(clauses, "statusCategory = Done")
	}

	if len(opts.Labels) > 0 {
		quoted := make([]string, len(opts.Labels))
		for i, l := range opts.Labels {
			quoted[i] = strconv.Quote(l)
		}
		clauses = append(clauses, fmt.Sprintf("labels in (%s)", strings.Join(quoted, ", ")))
	}

	return strings.Join(clauses, " AND ") + " ORDER BY created ASC"
}

// PostComment adds a comment to <repo>-<number>.
func (c *Client) PostComment(ctx context.Context, owner, repo string, number int, body, token string) error {
	client, err := c.clientFor(token)
	if err != nil {
		return err
	}

	key := IssueKey(repo, number)
	_, resp, err := client.Issue.AddCommentWithContext(ctx, key, &jira.Comment{Body: body})
	if err != nil {
		logging.Error("error posting jira comment", "key", key, "error", err, "status_code", statusCode(resp))
		return fmt.Errorf("failed to comment on JIRA issue %s: %v (status: %d)", key, err, statusCode(resp))
	}

	logging.Debug("posted jira comment", "key", key)
	return nil
}

// AddLabels adds labels to <repo>-<number>. JIRA labels cannot contain
// spaces, so spaces are replaced by dashes.
func (c *Client) AddLabels(ctx context.Context, owner, repo string, number int, labels []string, token string) error {
	client, err := c.clientFor(token)
	if err != nil {
		return err
	}

	ops := make([]map[string]string, 0, len(labels))
	for _, l := range labels {
		ops = append(ops, map[string]string{"add": strings.ReplaceAll(l, " ", "-")})
	}
	data := map[string]interface{}{
		"update": map[string]interface{}{
			"labels": ops,
		},
	}

	key := IssueKey(repo, number)
	resp, err := client.Issue.UpdateIssueWithContext(ctx, key, data)
	if err != nil {
		logging.Error("error adding jira labels", "key", key, "labels", labels, "error", err, "status_code", statusCode(resp))
		return fmt.Errorf("failed to add labels to JIRA issue %s: %v (status: %d)", key, err, statusCode(resp))
	}

	logging.Debug("added jira labels", "key", key, "labels", labels)
	return nil
}

func (c *Client) convertIssue(issue jira.Issue) models.Issue {
	out := models.Issue{
		URL:     issue.Self,
		HTMLURL: c.baseURL + "browse/" + issue.Key,
		State:   models.StateOpen,
		Labels:  []string{},
	}
	if id, err := strconv.ParseInt(issue.ID, 10, 64); err == nil {
		out.ID = id
	}
	if i := strings.LastIndex(issue.Key, "-"); i >= 0 {
		out.Number, _ = strconv.Atoi(issue.Key[i+1:])
	}

	f := issue.Fields
	if f == nil {
		return out
	}

	out.Title = f.Summary
	out.Body = f.Description
	if f.Labels != nil {
		out.Labels = f.Labels
	}
	if f.Status != nil && strings.EqualFold(f.Status.StatusCategory.Key, doneCategory) {
		out.State = models.StateClosed
	}
	if f.Assignee != nil {
		out.Assignees = []string{assigneeName(f.Assignee)}
	}
	out.CreatedAt = time.Time(f.Created)
	out.UpdatedAt = time.Time(f.Updated)
	if resolved := time.Time(f.Resolutiondate); !resolved.IsZero() {
		out.ClosedAt = &resolved
	}
	return out
}

func assigneeName(u *jira.User) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.AccountID != "":
		return u.AccountID
	default:
		return u.DisplayName
	}
}

func statusCode(resp *jira.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
