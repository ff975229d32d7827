package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/danielolaszy/triage/internal/automation"
)

// NewServer creates the MCP server with every triage tool registered.
// defaults carries the configured assignment policy for assign_issue.
func NewServer(service *automation.Service, parseRepo RepositoryParser, defaults automation.AssignOptions, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"triage",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	analyzeTool := NewAnalyzeIssueTool(service, parseRepo)
	s.AddTool(analyzeTool.Definition(), analyzeTool.Handle)

	triageTool := NewTriageIssueTool(service, parseRepo)
	s.AddTool(triageTool.Definition(), triageTool.Handle)

	assignTool := NewAssignIssueTool(service, parseRepo, defaults)
	s.AddTool(assignTool.Definition(), assignTool.Handle)

	// --- Label mappings ---

	listTool := NewListMappingsTool(service.Registry())
	s.AddTool(listTool.Definition(), listTool.Handle)

	addTool := NewAddMappingTool(service.Registry(), service.AgentDir)
	s.AddTool(addTool.Definition(), addTool.Handle)

	removeTool := NewRemoveMappingTool(service.Registry())
	s.AddTool(removeTool.Definition(), removeTool.Handle)

	logTool := NewAutomationLogTool(service)
	s.AddTool(logTool.Definition(), logTool.Handle)

	return s
}

func serverInstructions() string {
	return `Triage routes tracker issues to specialized agents.

Use analyze_issue to rank agents for an issue before acting on it. Use
triage_issue for a summary with suggested labels; it flags issues that need a
human. Only call assign_issue when the user asked for an assignment, and prefer
dry_run first: it comments on the issue and may add labels.

Label mappings (list_mappings, add_mapping, remove_mapping) boost agents for
issues carrying a label. automation_log shows what was decided and why.`
}
