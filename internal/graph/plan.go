package graph

import (
	"fmt"
	"sort"
	"strings"

	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

// Plan is the subgraph induced by a requested target set, in a stable
// topological order (§3 Execution plan, §4.1 Plan construction).
type Plan struct {
	Order []*Task
}

// color marks DFS visitation state for cycle detection.
type color int

const (
	white color = iota
	gray
	black
)

// BuildPlan resolves requested task names (plus the default target list
// when useDefaults is set) to their transitive dependency closure, detects
// cycles, and returns a deterministic topological order.
//
// Determinism is a contract (§4.1): ties are broken first by definition
// order, then lexicographically by name, so two invocations over the same
// registry produce byte-identical plans.
func BuildPlan(reg *Registry, requestedNames []string, useDefaults bool) (*Plan, error) {
	roots := make([]*Task, 0, len(requestedNames))
	seenRoot := make(map[string]bool)

	addRoot := func(t *Task) {
		if t == nil || seenRoot[t.Name] {
			return
		}
		seenRoot[t.Name] = true
		roots = append(roots, t)
	}

	for _, name := range requestedNames {
		t, ok := reg.Lookup(name)
		if !ok {
			return nil, hpgerrors.NewGraphError(fmt.Sprintf("unknown task %q", name), nil)
		}
		addRoot(t)
	}
	if useDefaults {
		for _, t := range reg.Targets() {
			addRoot(t)
		}
	}

	// Transitive closure via DFS from every root, with three-color cycle
	// detection: a back edge (revisiting a gray node) is a cycle.
	closure := make(map[*Task]bool)
	colors := make(map[*Task]color)
	var path []*Task

	var visit func(t *Task) error
	visit = func(t *Task) error {
		switch colors[t] {
		case gray:
			return cycleError(path, t)
		case black:
			return nil
		}
		colors[t] = gray
		path = append(path, t)
		for _, dep := range t.Deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		colors[t] = black
		closure[t] = true
		return nil
	}

	for _, root := range roots {
		if err := visit(root); err != nil {
			return nil, err
		}
	}

	ordered := make([]*Task, 0, len(closure))
	for t := range closure {
		ordered = append(ordered, t)
	}
	// Registration requires every dependency to already exist in the
	// registry (Design Notes §9), so a dependency's DefinitionOrd is always
	// smaller than its dependent's: sorting the closure by
	// (DefinitionOrd, Name) is therefore already a valid topological order,
	// and it is the specific stable order §4.1 contracts for.
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.DefinitionOrd != b.DefinitionOrd {
			return a.DefinitionOrd < b.DefinitionOrd
		}
		return a.Name < b.Name
	})

	return &Plan{Order: ordered}, nil
}

func cycleError(path []*Task, closing *Task) error {
	names := make([]string, 0, len(path)+1)
	start := 0
	for i, t := range path {
		if t == closing {
			start = i
			break
		}
	}
	for _, t := range path[start:] {
		names = append(names, t.Name)
	}
	names = append(names, closing.Name)
	return hpgerrors.NewGraphError(
		fmt.Sprintf("dependency cycle detected: %s", strings.Join(names, " -> ")),
		nil,
	)
}
