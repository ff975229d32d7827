// Package mcptools exposes issue analysis, triage and label mappings as MCP
// tools so coding agents can route work without the CLI.
//
// Each tool follows the same shape:
//   - a struct with its dependencies injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() processes the request and returns a result
//
// Tool failures are reported as error results, never as Go errors.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/danielolaszy/triage/internal/automation"
	"github.com/danielolaszy/triage/pkg/models"
)

// RepositoryParser splits a repository argument into owner and repo for the
// configured tracker.
type RepositoryParser func(repository string) (owner, repo string, err error)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// listArg accepts a JSON array of strings or a comma-separated string.
func listArg(req mcp.CallToolRequest, key string) []string {
	var raw []string
	switch v := req.GetArguments()[key].(type) {
	case string:
		raw = strings.Split(v, ",")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// issueSource resolves the issue a tool call refers to: either fetched from
// the tracker by repository and number, or built from inline fields.
type issueSource struct {
	tracker   automation.IssueTracker
	parseRepo RepositoryParser
}

func withIssueArgs(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append([]mcp.ToolOption{
		mcp.WithString("repository",
			mcp.Description("Repository (owner/repo, or a JIRA project key) to fetch the issue from"),
		),
		mcp.WithNumber("number",
			mcp.Description("Issue number to fetch; requires repository"),
		),
		mcp.WithString("title",
			mcp.Description("Issue title, used when no issue is fetched"),
		),
		mcp.WithString("body",
			mcp.Description("Issue body, used when no issue is fetched"),
		),
		mcp.WithString("labels",
			mcp.Description("Comma-separated labels, used when no issue is fetched"),
		),
		mcp.WithString("agent_dir",
			mcp.Description("Directory of agent profiles (default: configured agent directory)"),
		),
	}, opts...)
}

// resolve returns the issue plus owner and repo when it was fetched.
func (s issueSource) resolve(ctx context.Context, req mcp.CallToolRequest) (issue models.Issue, owner, repo string, err error) {
	number := intArg(req, "number", 0)
	repository := strings.TrimSpace(req.GetString("repository", ""))

	if number > 0 {
		if repository == "" {
			return issue, "", "", fmt.Errorf("'repository' is required with 'number'")
		}
		owner, repo, err = s.parseRepo(repository)
		if err != nil {
			return issue, "", "", err
		}
		fetched, err := s.tracker.FetchIssue(ctx, owner, repo, number, "")
		if err != nil {
			return issue, "", "", err
		}
		return *fetched, owner, repo, nil
	}

	title := strings.TrimSpace(req.GetString("title", ""))
	if title == "" {
		return issue, "", "", fmt.Errorf("either 'title' or 'repository' and 'number' are required")
	}
	return models.Issue{
		Title:  title,
		Body:   req.GetString("body", ""),
		Labels: listArg(req, "labels"),
		State:  models.StateOpen,
	}, "", "", nil
}
