// Package graph implements HPG's two-phase task graph engine (§4.1 of the
// spec): Definition-phase registration of tasks and targets, followed by
// plan construction (cycle detection, stable topological order) and serial
// scheduling with cancellation/failure propagation.
//
// It is grounded on the teacher's internal/engine package (dag.go,
// planner.go, executor.go) but the scheduling model is reworked from
// Streamy's level-parallel executor into HPG's strictly serial walk, and the
// outcome model gains the Skipped/Cancel states §3 requires.
package graph

import "context"

// BodyFunc is the opaque callable a Task's body re-enters into the script
// host with. It returns the task's terminal Outcome; a non-nil error
// indicates an uncaught script-level runtime error, which the scheduler
// always maps to a Fail outcome regardless of what Outcome was returned.
type BodyFunc func(ctx context.Context) (Outcome, error)

// Task is a named, dependency-bearing unit of work. Tasks are
// value-identical by Name and are created only during the Definition phase;
// once registered they are never mutated.
type Task struct {
	Name          string
	Description   string
	Deps          []*Task // normalized set, iteration order = first-seen order
	Body          BodyFunc
	DefinitionOrd int // monotonic counter assigned at registration
}

// HasDep reports whether dep is a direct dependency of t.
func (t *Task) HasDep(dep *Task) bool {
	for _, d := range t.Deps {
		if d == dep {
			return true
		}
	}
	return false
}
