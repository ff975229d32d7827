// Package github implements the issue tracker on top of the GitHub API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

const (
	// DefaultDomain is the public GitHub host.
	DefaultDomain = "github.com"
	// DefaultTimeout bounds every API request.
	DefaultTimeout = 30 * time.Second

	maxPerPage = 100
)

// Config configures the GitHub tracker.
type Config struct {
	// Token is used when a call does not carry its own token.
	Token string
	// Domain is github.com or a GitHub Enterprise host.
	Domain string
	// BaseURL overrides the API URL derived from Domain.
	BaseURL string
	Timeout time.Duration
}

// Client talks to the GitHub issues API. It keeps one authenticated API
// client per token.
type Client struct {
	apiURL  *url.URL
	token   string
	timeout time.Duration

	mu      sync.Mutex
	clients map[string]*github.Client
}

// APIURL returns the REST endpoint for a GitHub domain.
func APIURL(domain string) string {
	if domain == "" || domain == DefaultDomain {
		return "https://api.github.com/"
	}
	return fmt.Sprintf("https://%s/api/v3/", domain)
}

// NewClient creates a GitHub tracker. It does not contact the API; use
// Verify to test the configured token.
func NewClient(cfg Config) (*Client, error) {
	domain := cfg.Domain
	if domain == "" {
		domain = DefaultDomain
	}

	apiURL := cfg.BaseURL
	if apiURL == "" {
		apiURL = APIURL(domain)
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	parsedURL, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid github api url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logging.Debug("github configuration",
		"domain", domain,
		"api_url", apiURL,
		"token", logging.MaskSensitive(cfg.Token))

	return &Client{
		apiURL:  parsedURL,
		token:   cfg.Token,
		timeout: timeout,
		clients: make(map[string]*github.Client),
	}, nil
}

// clientFor returns the API client authenticated with token, falling back to
// the configured token. Without any token requests are anonymous.
func (c *Client) clientFor(token string) *github.Client {
	if token == "" {
		token = c.token
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[token]; ok {
		return client
	}

	base := &http.Client{Timeout: c.timeout}
	httpClient := base
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	client := github.NewClient(httpClient)
	client.BaseURL = c.apiURL
	// GitHub Enterprise serves uploads from the same endpoint
	client.UploadURL = c.apiURL

	c.clients[token] = client
	return client
}

// Verify checks that token (or the configured token) authenticates and
// returns the login it belongs to.
func (c *Client) Verify(ctx context.Context, token string) (string, error) {
	user, resp, err := c.clientFor(token).Users.Get(ctx, "")
	if err != nil {
		logging.Error("failed to test github token",
			"error", err,
			"status_code", statusCode(resp))
		return "", fmt.Errorf("error testing github token: %w", err)
	}

	logging.Info("github authentication successful",
		"username", user.GetLogin())
	return user.GetLogin(), nil
}

// ParseRepository splits "owner/repo".
func ParseRepository(repository string) (owner, repo string, err error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format: %s, expected format: owner/repo", repository)
	}
	return parts[0], parts[1], nil
}

// FetchIssue retrieves a single issue.
func (c *Client) FetchIssue(ctx context.Context, owner, repo string, number int, token string) (*models.Issue, error) {
	issue, resp, err := c.clientFor(token).Issues.Get(ctx, owner, repo, number)
	if err != nil {
		logging.Error("failed to get github issue",
			"owner", owner,
			"repo", repo,
			"issue_number", number,
			"error", err,
			"status_code", statusCode(resp))
		return nil, fmt.Errorf("failed to get GitHub issue %s/%s#%d: %w", owner, repo, number, err)
	}

	converted := ConvertIssue(issue)
	return &converted, nil
}

// FetchOpenIssues lists issues of a repository, following pagination. Pull
// requests returned by the issues API are skipped.
func (c *Client) FetchOpenIssues(ctx context.Context, owner, repo, token string, opts models.IssueListOptions) ([]models.Issue, error) {
	state := opts.State
	if state == "" {
		state = models.StateOpen
	}
	perPage := opts.PerPage
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}

	listOpts := &github.IssueListByRepoOptions{
		State:  state,
		Labels: opts.Labels,
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	client := c.clientFor(token)
	var result []models.Issue
	for {
		issues, resp, err := client.Issues.ListByRepo(ctx, owner, repo, listOpts)
		if err != nil {
			logging.Error("failed to fetch github issues",
				"owner", owner,
				"repo", repo,
				"error", err,
				"status_code", statusCode(resp))
			return nil, fmt.Errorf("failed to fetch GitHub issues: %w", err)
		}

		for _, issue := range issues {
			if issue.PullRequestLinks != nil {
				continue
			}
			result = append(result, ConvertIssue(issue))
		}

		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}

	logging.Debug("fetched github issues",
		"owner", owner,
		"repo", repo,
		"state", state,
		"count", len(result))
	return result, nil
}

// PostComment adds a comment to an issue.
func (c *Client) PostComment(ctx context.Context, owner, repo string, number int, body, token string) error {
	comment := &github.IssueComment{Body: github.String(body)}
	_, resp, err := c.clientFor(token).Issues.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		logging.Error("error posting comment",
			"owner", owner,
			"repo", repo,
			"issue_number", number,
			"error", err,
			"status_code", statusCode(resp))
		return fmt.Errorf("failed to comment on issue %s#%d: %w", repo, number, err)
	}

	logging.Debug("posted comment", "owner", owner, "repo", repo, "issue_number", number)
	return nil
}

// AddLabels adds labels to an issue. GitHub creates labels that don't exist
// yet.
func (c *Client) AddLabels(ctx context.Context, owner, repo string, number int, labels []string, token string) error {
	logging.Debug("adding labels", "labels", labels, "issue_number", number)

	_, resp, err := c.clientFor(token).Issues.AddLabelsToIssue(ctx, owner, repo, number, labels)
	if err != nil {
		logging.Error("error adding labels to issue",
			"owner", owner,
			"repo", repo,
			"issue_number", number,
			"error", err,
			"status_code", statusCode(resp))
		return fmt.Errorf("failed to add labels to issue %s#%d: %w", repo, number, err)
	}

	logging.Debug("successfully added labels", "labels", labels, "owner", owner, "repo", repo, "issue_number", number)
	return nil
}

// ConvertIssue maps a go-github issue to the tracker-neutral model.
func ConvertIssue(issue *github.Issue) models.Issue {
	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}

	assignees := make([]string, 0, len(issue.Assignees))
	for _, user := range issue.Assignees {
		assignees = append(assignees, user.GetLogin())
	}
	if len(assignees) == 0 && issue.Assignee != nil {
		assignees = append(assignees, issue.Assignee.GetLogin())
	}

	return models.Issue{
		ID:        issue.GetID(),
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		Labels:    labels,
		State:     issue.GetState(),
		Assignees: assignees,
		CreatedAt: issue.GetCreatedAt(),
		UpdatedAt: issue.GetUpdatedAt(),
		ClosedAt:  issue.ClosedAt,
		URL:       issue.GetURL(),
		HTMLURL:   issue.GetHTMLURL(),
	}
}

func statusCode(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
