package graph

import (
	"fmt"

	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

// Registry is the Definition-phase task arena: every task() and target()
// intrinsic call in the script host appends to it. It never shrinks.
type Registry struct {
	tasks    []*Task
	byName   map[string]*Task
	targets  []*Task
	targetSeen map[string]bool
	closed   bool
}

// NewRegistry returns an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:     make(map[string]*Task),
		targetSeen: make(map[string]bool),
	}
}

// Close marks the Definition phase concluded. Register and AddTarget return
// errors once closed, enforcing §4.1's "re-entrance of task/target during
// body execution is a runtime error" rule.
func (r *Registry) Close() { r.closed = true }

// Closed reports whether the Definition phase has concluded.
func (r *Registry) Closed() bool { return r.closed }

// Register appends a fresh Task. Registering two tasks with the same name
// is a definition-time error (§3 invariant).
func (r *Registry) Register(name, description string, deps []*Task, body BodyFunc) (*Task, error) {
	if r.closed {
		return nil, hpgerrors.NewGraphError("task() called after definition phase concluded", nil)
	}
	if name == "" {
		return nil, hpgerrors.NewGraphError("task name must not be empty", nil)
	}
	if _, exists := r.byName[name]; exists {
		return nil, hpgerrors.NewGraphError(fmt.Sprintf("duplicate task name %q", name), nil)
	}

	normalized := normalizeDeps(deps)

	t := &Task{
		Name:          name,
		Description:   description,
		Deps:          normalized,
		Body:          body,
		DefinitionOrd: len(r.tasks),
	}
	r.tasks = append(r.tasks, t)
	r.byName[name] = t
	return t, nil
}

// normalizeDeps turns an ordered dependency list into a deduplicated set
// that preserves first-seen order, per §4.1's "normalized to a set" rule.
func normalizeDeps(deps []*Task) []*Task {
	if len(deps) == 0 {
		return nil
	}
	seen := make(map[*Task]bool, len(deps))
	out := make([]*Task, 0, len(deps))
	for _, d := range deps {
		if d == nil || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// AddTarget appends tasks to the default target list. Appending the same
// task twice is a no-op (§3 Target list invariant).
func (r *Registry) AddTarget(tasks ...*Task) error {
	if r.closed {
		return hpgerrors.NewGraphError("target() called after definition phase concluded", nil)
	}
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if r.targetSeen[t.Name] {
			continue
		}
		r.targetSeen[t.Name] = true
		r.targets = append(r.targets, t)
	}
	return nil
}

// Tasks returns every registered task in definition order.
func (r *Registry) Tasks() []*Task {
	return append([]*Task(nil), r.tasks...)
}

// Targets returns the default target list in the order tasks were appended.
func (r *Registry) Targets() []*Task {
	return append([]*Task(nil), r.targets...)
}

// Lookup resolves a task by name.
func (r *Registry) Lookup(name string) (*Task, bool) {
	t, ok := r.byName[name]
	return t, ok
}
