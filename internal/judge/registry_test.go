package judge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModelsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegistryFromFile(t *testing.T) {
	path := writeModelsFile(t, `
models:
  - id: gpt-4o-mini
    name: GPT-4o mini
    cost_estimate: 0.15
  - id: claude-haiku
    cost_estimate: 0.25
`)

	registry, err := LoadRegistry(path)
	require.NoError(t, err)

	models := registry.Models()
	require.Len(t, models, 2)
	assert.Equal(t, "gpt-4o-mini", models[0].ID)
	assert.Equal(t, "GPT-4o mini", models[0].Name)
	assert.Equal(t, 0.15, models[0].CostEstimate)
	assert.Equal(t, "claude-haiku", models[1].Name, "missing name falls back to the id")

	m, ok := registry.Get("claude-haiku")
	require.True(t, ok)
	assert.Equal(t, 0.25, m.CostEstimate)

	assert.NoError(t, registry.Known([]string{"gpt-4o-mini", "claude-haiku"}))
	assert.Error(t, registry.Known([]string{"gpt-5-maxi"}))
}

func TestLoadRegistryEmptyPathUsesDefaults(t *testing.T) {
	registry, err := LoadRegistry("")
	require.NoError(t, err)
	assert.NotEmpty(t, registry.Models())
}

func TestLoadRegistryRejectsBadFiles(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"no models", "models: []"},
		{"duplicate id", "models:\n  - id: a\n  - id: a"},
		{"empty id", "models:\n  - name: unnamed"},
		{"not yaml", "{{{{"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadRegistry(writeModelsFile(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
