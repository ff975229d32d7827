package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/danielolaszy/triage/internal/automation"
)

const defaultLogLimit = 50

// AutomationLogTool handles the automation_log MCP tool.
type AutomationLogTool struct {
	service *automation.Service
}

// NewAutomationLogTool creates an AutomationLogTool.
func NewAutomationLogTool(service *automation.Service) *AutomationLogTool {
	return &AutomationLogTool{service: service}
}

// Definition returns the MCP tool definition for registration.
func (t *AutomationLogTool) Definition() mcp.Tool {
	return mcp.NewTool("automation_log",
		mcp.WithDescription("Show the most recent automation decisions (assignments, skips, failures, triage), oldest first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries (default: 50)"),
		),
		mcp.WithBoolean("clear",
			mcp.Description("Clear the log after reading it (default: false)"),
		),
	)
}

// Handle processes the automation_log tool call.
func (t *AutomationLogTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", defaultLogLimit)
	if limit < 0 {
		return mcp.NewToolResultError("'limit' must not be negative"), nil
	}

	entries := t.service.AutomationLog(limit)
	if boolArg(req, "clear", false) {
		t.service.ClearAutomationLog()
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No automation activity recorded."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Automation log (%d entries)\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s #%d **%s**: %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.IssueNumber, e.Action, e.Result)
	}
	return mcp.NewToolResultText(b.String()), nil
}
