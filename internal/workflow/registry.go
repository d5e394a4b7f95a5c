package workflow

import (
	"fmt"
	"maps"
	"slices"

	"github.com/savaki/cicd-helper/internal/errors"
)

// Registry collects the workflows of a project before they are synthesized
type Registry struct {
	workflows map[string]*Workflow
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		workflows: map[string]*Workflow{},
	}
}

// Add registers a workflow. Names must be unique within the registry.
func (r *Registry) Add(w *Workflow) error {
	if w == nil || w.Name == "" {
		return errors.ErrEmptyWorkflowName
	}
	if _, ok := r.workflows[w.Name]; ok {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateWorkflow, w.Name)
	}
	r.workflows[w.Name] = w
	return nil
}

// Get looks up a workflow by name
func (r *Registry) Get(name string) (*Workflow, bool) {
	w, ok := r.workflows[name]
	return w, ok
}

// Workflows returns the registered workflows sorted by name
func (r *Registry) Workflows() []*Workflow {
	var results []*Workflow
	for _, name := range slices.Sorted(maps.Keys(r.workflows)) {
		results = append(results, r.workflows[name])
	}
	return results
}

// Names returns the registered workflow names in sorted order
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.workflows))
}

// Len returns the number of registered workflows
func (r *Registry) Len() int {
	return len(r.workflows)
}
