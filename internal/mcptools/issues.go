package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/danielolaszy/triage/internal/analyzer"
	"github.com/danielolaszy/triage/internal/automation"
)

// AnalyzeIssueTool handles the analyze_issue MCP tool.
type AnalyzeIssueTool struct {
	service *automation.Service
	source  issueSource
}

// NewAnalyzeIssueTool creates an AnalyzeIssueTool.
func NewAnalyzeIssueTool(service *automation.Service, parseRepo RepositoryParser) *AnalyzeIssueTool {
	return &AnalyzeIssueTool{service: service, source: issueSource{service.Tracker(), parseRepo}}
}

// Definition returns the MCP tool definition for registration.
func (t *AnalyzeIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_issue", withIssueArgs(
		mcp.WithDescription(
			"Rank agents for an issue by keyword and label matching. "+
				"Pass an inline title/body/labels, or a repository and issue number to fetch it.",
		),
		mcp.WithNumber("max_matches",
			mcp.Description("Maximum number of matches to return (default: all)"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Minimum score a match needs (default: 0)"),
		),
	)...)
}

// Handle processes the analyze_issue tool call.
func (t *AnalyzeIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issue, _, _, err := t.source.resolve(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	agentDir := t.service.AgentDir(req.GetString("agent_dir", ""))
	analysis := t.service.Analyzer().AnalyzeIssue(ctx, issue, agentDir)
	analysis.AgentMatches = analyzer.FilterMatches(analysis.AgentMatches, intArg(req, "max_matches", 0), intArg(req, "threshold", 0))
	return jsonResult(analysis)
}

// TriageIssueTool handles the triage_issue MCP tool.
type TriageIssueTool struct {
	service *automation.Service
	source  issueSource
}

// NewTriageIssueTool creates a TriageIssueTool.
func NewTriageIssueTool(service *automation.Service, parseRepo RepositoryParser) *TriageIssueTool {
	return &TriageIssueTool{service: service, source: issueSource{service.Tracker(), parseRepo}}
}

// Definition returns the MCP tool definition for registration.
func (t *TriageIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("triage_issue", withIssueArgs(
		mcp.WithDescription(
			"Suggest agents and labels for an issue and flag it for manual review when no agent is confident. "+
				"Set post=true with a fetched issue to publish the triage comment.",
		),
		mcp.WithBoolean("post",
			mcp.Description("Post the triage comment to the issue (default: false)"),
		),
	)...)
}

// Handle processes the triage_issue tool call.
func (t *TriageIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issue, owner, repo, err := t.source.resolve(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	agentDir := req.GetString("agent_dir", "")
	if !boolArg(req, "post", false) {
		return jsonResult(t.service.TriageIssue(ctx, issue, agentDir))
	}

	if repo == "" {
		return mcp.NewToolResultError("'post' requires 'repository' and 'number'"), nil
	}
	result, err := t.service.PostTriage(ctx, issue, owner, repo, "", agentDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

// AssignIssueTool handles the assign_issue MCP tool.
type AssignIssueTool struct {
	service  *automation.Service
	source   issueSource
	defaults automation.AssignOptions
}

// NewAssignIssueTool creates an AssignIssueTool. defaults supplies the
// threshold and exclusion policy when the call does not override them.
func NewAssignIssueTool(service *automation.Service, parseRepo RepositoryParser, defaults automation.AssignOptions) *AssignIssueTool {
	return &AssignIssueTool{service: service, source: issueSource{service.Tracker(), parseRepo}, defaults: defaults}
}

// Definition returns the MCP tool definition for registration.
func (t *AssignIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("assign_issue",
		mcp.WithDescription(
			"Assign a tracker issue to the best matching agent: posts a suggestion comment "+
				"and optionally labels the issue. Use dry_run to preview.",
		),
		mcp.WithString("repository",
			mcp.Required(),
			mcp.Description("Repository (owner/repo, or a JIRA project key)"),
		),
		mcp.WithNumber("number",
			mcp.Required(),
			mcp.Description("Issue number"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Minimum score for an assignment (default: configured threshold)"),
		),
		mcp.WithBoolean("add_labels",
			mcp.Description("Add the agent label and suggested labels (default: false)"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Analyze without writing to the tracker (default: false)"),
		),
		mcp.WithString("agent_dir",
			mcp.Description("Directory of agent profiles (default: configured agent directory)"),
		),
	)
}

// Handle processes the assign_issue tool call.
func (t *AssignIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if intArg(req, "number", 0) <= 0 {
		return mcp.NewToolResultError("'number' is required"), nil
	}
	issue, owner, repo, err := t.source.resolve(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch issue: %v", err)), nil
	}

	opts := t.defaults
	opts.ConfidenceThreshold = intArg(req, "threshold", opts.ConfidenceThreshold)
	opts.AddLabels = boolArg(req, "add_labels", opts.AddLabels)
	opts.DryRun = boolArg(req, "dry_run", false)
	if dir := req.GetString("agent_dir", ""); dir != "" {
		opts.AgentDir = dir
	}

	return jsonResult(t.service.AssignIssue(ctx, issue, owner, repo, "", opts))
}
