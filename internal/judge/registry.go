package judge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model describes one selectable judge. The engine only cares about the ID;
// name and cost estimate exist for display.
type Model struct {
	ID           string  `yaml:"id" json:"id"`
	Name         string  `yaml:"name" json:"name"`
	CostEstimate float64 `yaml:"cost_estimate" json:"costEstimate"`
}

// Registry is the set of judges a battle may select from, loaded once at
// startup.
type Registry struct {
	models map[string]Model
	order  []string
}

type registryFile struct {
	Models []Model `yaml:"models"`
}

// LoadRegistry reads a YAML model list. An empty path falls back to the
// built-in defaults.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse models file: %w", err)
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("models file %s lists no models", path)
	}
	return newRegistry(file.Models)
}

func DefaultRegistry() *Registry {
	r, _ := newRegistry([]Model{
		{ID: "gpt-4o-mini", Name: "GPT-4o mini", CostEstimate: 0.15},
		{ID: "gpt-4o", Name: "GPT-4o", CostEstimate: 2.50},
	})
	return r
}

func newRegistry(models []Model) (*Registry, error) {
	r := &Registry{models: make(map[string]Model, len(models))}
	for _, m := range models {
		if m.ID == "" {
			return nil, fmt.Errorf("model with empty id")
		}
		if _, dup := r.models[m.ID]; dup {
			return nil, fmt.Errorf("duplicate model id %q", m.ID)
		}
		if m.Name == "" {
			m.Name = m.ID
		}
		r.models[m.ID] = m
		r.order = append(r.order, m.ID)
	}
	return r, nil
}

func (r *Registry) Get(id string) (Model, bool) {
	m, ok := r.models[id]
	return m, ok
}

// Models returns the registry in file order.
func (r *Registry) Models() []Model {
	out := make([]Model, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.models[id])
	}
	return out
}

// Known verifies every requested judge ID exists.
func (r *Registry) Known(ids []string) error {
	for _, id := range ids {
		if _, ok := r.models[id]; !ok {
			return fmt.Errorf("unknown judge model %q", id)
		}
	}
	return nil
}
