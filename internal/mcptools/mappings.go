package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/danielolaszy/triage/internal/mapping"
	"github.com/danielolaszy/triage/pkg/models"
)

// ListMappingsTool handles the list_mappings MCP tool.
type ListMappingsTool struct {
	registry *mapping.Registry
}

// NewListMappingsTool creates a ListMappingsTool.
func NewListMappingsTool(registry *mapping.Registry) *ListMappingsTool {
	return &ListMappingsTool{registry: registry}
}

// Definition returns the MCP tool definition for registration.
func (t *ListMappingsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_mappings",
		mcp.WithDescription("List the label to agent mappings in force. Custom mappings override the defaults for the same label."),
		mcp.WithBoolean("custom_only",
			mcp.Description("Only list custom mappings (default: false)"),
		),
	)
}

// Handle processes the list_mappings tool call.
func (t *ListMappingsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mappings := t.registry.EffectiveMappings()
	if boolArg(req, "custom_only", false) {
		mappings = t.registry.CustomMappings()
	}
	return jsonResult(map[string]interface{}{
		"mappings": mappings,
		"count":    len(mappings),
	})
}

// AddMappingTool handles the add_mapping MCP tool.
type AddMappingTool struct {
	registry *mapping.Registry
	agentDir func(string) string
}

// NewAddMappingTool creates an AddMappingTool. agentDir resolves the agent
// directory used to validate the mapping's agents.
func NewAddMappingTool(registry *mapping.Registry, agentDir func(string) string) *AddMappingTool {
	return &AddMappingTool{registry: registry, agentDir: agentDir}
}

// Definition returns the MCP tool definition for registration.
func (t *AddMappingTool) Definition() mcp.Tool {
	return mcp.NewTool("add_mapping",
		mcp.WithDescription(
			"Add or replace a custom label mapping. Issues carrying the label score the listed agents "+
				"by the mapping priority. Agents are checked against the agent directory.",
		),
		mcp.WithString("label",
			mcp.Required(),
			mcp.Description("Issue label, e.g. 'bug'"),
		),
		mcp.WithString("agents",
			mcp.Required(),
			mcp.Description("Comma-separated agent names"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Mapping priority (default: 1)"),
		),
		mcp.WithString("agent_dir",
			mcp.Description("Directory of agent profiles used for validation (default: configured agent directory)"),
		),
	)
}

// Handle processes the add_mapping tool call.
func (t *AddMappingTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label := strings.TrimSpace(req.GetString("label", ""))
	if label == "" {
		return mcp.NewToolResultError("'label' is required"), nil
	}
	agents := listArg(req, "agents")
	if len(agents) == 0 {
		return mcp.NewToolResultError("'agents' is required"), nil
	}

	m := models.LabelMapping{Label: label, Agents: agents, Priority: intArg(req, "priority", 1)}
	check := t.registry.Validate(ctx, []models.LabelMapping{m}, t.agentDir(req.GetString("agent_dir", "")))
	if !check.Valid {
		return mcp.NewToolResultError("Invalid mapping:\n- " + strings.Join(check.Errors, "\n- ")), nil
	}
	if err := t.registry.AddCustomMapping(m); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Mapped label '%s' to %s (priority %d)",
		label, strings.Join(agents, ", "), m.Priority)), nil
}

// RemoveMappingTool handles the remove_mapping MCP tool.
type RemoveMappingTool struct {
	registry *mapping.Registry
}

// NewRemoveMappingTool creates a RemoveMappingTool.
func NewRemoveMappingTool(registry *mapping.Registry) *RemoveMappingTool {
	return &RemoveMappingTool{registry: registry}
}

// Definition returns the MCP tool definition for registration.
func (t *RemoveMappingTool) Definition() mcp.Tool {
	return mcp.NewTool("remove_mapping",
		mcp.WithDescription("Remove a custom label mapping. A built-in mapping for the label applies again."),
		mcp.WithString("label",
			mcp.Required(),
			mcp.Description("Label of the custom mapping to remove"),
		),
	)
}

// Handle processes the remove_mapping tool call.
func (t *RemoveMappingTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label := strings.TrimSpace(req.GetString("label", ""))
	if label == "" {
		return mcp.NewToolResultError("'label' is required"), nil
	}
	if !t.registry.RemoveCustomMapping(label) {
		return mcp.NewToolResultError(fmt.Sprintf("No custom mapping for label '%s'", label)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed custom mapping for '%s'", label)), nil
}
