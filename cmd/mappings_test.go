package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/triage/internal/mapping"
	"github.com/danielolaszy/triage/pkg/models"
)

// TestDecodeMappings tests reading mapping files by extension
func TestDecodeMappings(t *testing.T) {
	testCases := []struct {
		name      string
		file      string
		data      string
		expected  []models.LabelMapping
		wantError bool
	}{
		{
			name:     "JSON",
			file:     "mappings.json",
			data:     `[{"label": "checkout", "agents": ["frontend-developer"], "priority": 4}]`,
			expected: []models.LabelMapping{{Label: "checkout", Agents: []string{"frontend-developer"}, Priority: 4}},
		},
		{
			name:     "YAML",
			file:     "mappings.yml",
			data:     "- label: billing\n  agents: [backend-developer]\n  priority: 6\n",
			expected: []models.LabelMapping{{Label: "billing", Agents: []string{"backend-developer"}, Priority: 6}},
		},
		{
			name:      "Malformed JSON",
			file:      "mappings.json",
			data:      `[{"label": `,
			wantError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mappings, err := decodeMappings(tc.file, []byte(tc.data))
			if tc.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, mappings)
		})
	}
}

// TestRunImport tests that valid entries are kept and rejected ones reported
func TestRunImport(t *testing.T) {
	registry := mapping.NewRegistry(nil, 0)
	data := []byte("- label: checkout\n  agents: [frontend-developer]\n  priority: 4\n- label: broken\n  agents: []\n")
	output := filepath.Join(t.TempDir(), "out.json")

	var out, errOut bytes.Buffer
	require.NoError(t, runImport(&out, &errOut, registry, "routes.yaml", data, output))
	assert.Contains(t, errOut.String(), "Imported 1 mappings, rejected 1")
	assert.Contains(t, errOut.String(), "rejected entry 1")

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(written), `"label": "checkout"`)
	assert.NotContains(t, string(written), "broken")
}

// TestRunImportInvalidDocument tests that an unreadable document fails the import
func TestRunImportInvalidDocument(t *testing.T) {
	registry := mapping.NewRegistry(nil, 0)

	err := runImport(&bytes.Buffer{}, &bytes.Buffer{}, registry, "routes.json", []byte(`{"label": "bug"}`), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a JSON array")
}

// TestListMappings tests the source column of the mapping listing
func TestListMappings(t *testing.T) {
	registry := mapping.NewRegistry(nil, 0)
	require.NoError(t, registry.AddCustomMapping(models.LabelMapping{Label: "bug", Agents: []string{"frontend-developer"}, Priority: 2}))

	var out bytes.Buffer
	require.NoError(t, listMappings(&out, registry, false))
	assert.Contains(t, out.String(), "LABEL")
	assert.Regexp(t, `bug\s+frontend-developer\s+2\s+custom`, out.String())
	assert.Regexp(t, `planning\s+project-manager\s+6\s+built-in`, out.String())

	out.Reset()
	require.NoError(t, listMappings(&out, registry, true))
	assert.NotContains(t, out.String(), "planning")

	out.Reset()
	require.NoError(t, listMappings(&out, mapping.NewRegistry(nil, 0), true))
	assert.Equal(t, "No mappings.\n", out.String())
}

// TestExportMappings tests exporting custom and effective mappings
func TestExportMappings(t *testing.T) {
	registry := mapping.NewRegistry(nil, 0)
	require.NoError(t, registry.AddCustomMapping(models.LabelMapping{Label: "checkout", Agents: []string{"frontend-developer"}, Priority: 3}))

	custom, err := exportMappings(registry, false)
	require.NoError(t, err)
	assert.Contains(t, string(custom), "checkout")
	assert.NotContains(t, string(custom), "planning")

	all, err := exportMappings(registry, true)
	require.NoError(t, err)
	assert.Contains(t, string(all), "checkout")
	assert.Contains(t, string(all), "planning")
}

// TestValidateAgainstAgentDirectory tests validation of mapping agents
func TestValidateAgainstAgentDirectory(t *testing.T) {
	service := newTestService(t, &MockTracker{})
	mappings := []models.LabelMapping{
		{Label: "checkout", Agents: []string{"frontend-developer"}, Priority: 3},
		{Label: "billing", Agents: []string{"accountant"}, Priority: 3},
	}

	result := service.Registry().Validate(context.Background(), mappings, service.AgentDir(""))
	var out bytes.Buffer
	err := reportValidation(&out, "routes.json", len(mappings), result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 problems found")
	assert.Contains(t, out.String(), `unknown agent "accountant"`)

	out.Reset()
	result = service.Registry().Validate(context.Background(), mappings[:1], service.AgentDir(""))
	require.NoError(t, reportValidation(&out, "routes.json", 1, result))
	assert.Contains(t, out.String(), "1 mappings are valid")
}

// TestMappingsValidateCommand tests the validate command end to end
func TestMappingsValidateCommand(t *testing.T) {
	t.Setenv("TRIAGE_TRACKER", "")
	dir := writeAgents(t)
	file := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(file, []byte("- label: checkout\n  agents: [frontend-developer]\n  priority: 3\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"mappings", "validate", file, "--agents-dir", dir})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "1 mappings are valid")
}
