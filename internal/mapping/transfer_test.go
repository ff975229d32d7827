package mapping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/triage/pkg/models"
)

func TestExportImportRoundTrip(t *testing.T) {
	source := NewRegistry(nil, 0)
	original := []models.LabelMapping{
		{Label: "bug", Agents: []string{"tester", "debugger"}, Priority: 6},
		{Label: "infra", Agents: []string{"devops-engineer"}, Priority: 4},
		{Label: "UI/UX", Agents: []string{"ui-developer"}, Priority: 10},
	}
	require.NoError(t, source.SetCustomMappings(original))

	data, err := source.Export()
	require.NoError(t, err)

	target := NewRegistry(nil, 0)
	result := target.Import(data)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 0, result.Rejected)

	for _, m := range original {
		assert.Equal(t, source.AgentsForLabel(m.Label), target.AgentsForLabel(m.Label), "label %s", m.Label)
	}
	assert.Equal(t, source.CustomMappings(), target.CustomMappings())
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	r := NewRegistry(nil, 0)

	result := r.Import([]byte(`[{"label": "bug",`))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "invalid JSON")
	assert.Empty(t, r.CustomMappings())

	result = r.Import([]byte(`{"label": "bug"}`))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "array")
}

func TestImportToleratesInvalidEntries(t *testing.T) {
	r := NewRegistry(nil, 0)

	result := r.Import([]byte(`[
		{"label": "bug", "agents": ["tester"], "priority": 5},
		{"label": "docs", "agents": [], "priority": 5},
		{"label": "perf", "agents": ["performance-engineer"], "priority": 42},
		{"label": "extra", "agents": ["tester"], "priority": 5, "color": "red"},
		{"agents": ["tester"], "priority": 5},
		{"label": "data", "agents": ["data-engineer"], "priority": 7}
	]`))

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 4, result.Rejected)
	require.Len(t, result.Errors, 4)
	assert.True(t, strings.HasPrefix(result.Errors[0], "entry 1:"), result.Errors[0])
	assert.True(t, strings.HasPrefix(result.Errors[1], "entry 2:"), result.Errors[1])

	assert.Equal(t, []string{"tester"}, r.AgentsForLabel("bug"))
	assert.Equal(t, []string{"data-engineer"}, r.AgentsForLabel("data"))
	assert.Nil(t, r.AgentsForLabel("perf"))
}

func TestImportYAML(t *testing.T) {
	r := NewRegistry(nil, 0)

	result := r.ImportYAML([]byte(`
- label: security
  agents: [debugger]
  priority: 7
- label: mobile
  agents:
    - frontend-developer
  priority: 3
`))
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, []string{"debugger"}, r.AgentsForLabel("Security"))

	result = r.ImportYAML([]byte("- label: [broken"))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "invalid YAML")
}
