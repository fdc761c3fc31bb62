package graph

import (
	"context"
	"fmt"

	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

// Sink receives scheduling progress. It is a narrower view of the full
// event-sink contract in internal/events, kept here to avoid an import
// cycle between graph and events.
type Sink interface {
	TaskBegin(name string)
	TaskEnd(name string, outcome Outcome)
}

// Result pairs a task with its terminal outcome, in plan order.
type Result struct {
	Task    *Task
	Outcome Outcome
}

// Execute walks the plan strictly serially (§5: no parallelism across
// tasks) and returns the terminal outcome of every task, or the error that
// halted the plan.
//
// Scheduling rules (§4.1):
//  1. a task whose direct dependency outcomes include Cancel or Skipped
//     becomes Skipped;
//  2. otherwise its body runs, and its return value/error is interpreted
//     into Success, Cancel, or Fail;
//  3. the first Fail aborts the plan — remaining tasks are neither started
//     nor marked.
func Execute(ctx context.Context, plan *Plan, sink Sink) ([]Result, error) {
	outcomes := make(map[*Task]Outcome, len(plan.Order))
	results := make([]Result, 0, len(plan.Order))

	for _, t := range plan.Order {
		if ctx.Err() != nil {
			return results, hpgerrors.NewTaskFailureError(t.Name, "cancelled by context", ctx.Err())
		}

		if causer := firstBlockingDep(t, outcomes); causer != nil {
			outcome := SkippedOutcome(causer.Name)
			outcomes[t] = outcome
			sink.TaskBegin(t.Name)
			sink.TaskEnd(t.Name, outcome)
			results = append(results, Result{Task: t, Outcome: outcome})
			continue
		}

		sink.TaskBegin(t.Name)
		outcome := runBody(ctx, t)
		outcomes[t] = outcome
		sink.TaskEnd(t.Name, outcome)
		results = append(results, Result{Task: t, Outcome: outcome})

		if outcome.Halts() {
			return results, hpgerrors.NewTaskFailureError(t.Name, outcome.Reason, nil)
		}
	}

	return results, nil
}

// firstBlockingDep returns the first direct dependency of t whose outcome
// propagates (Cancel or Skipped), or nil if t is clear to run.
func firstBlockingDep(t *Task, outcomes map[*Task]Outcome) *Task {
	for _, dep := range t.Deps {
		if o, ok := outcomes[dep]; ok && o.Propagates() {
			return dep
		}
	}
	return nil
}

// runBody invokes the task body and interprets its result. A task with no
// body succeeds trivially (a grouping/no-op task).
func runBody(ctx context.Context, t *Task) Outcome {
	if t.Body == nil {
		return SuccessOutcome
	}

	outcome, err := t.Body(ctx)
	if err != nil {
		reason := err.Error()
		if reason == "" {
			reason = fmt.Sprintf("task %s: uncaught runtime error", t.Name)
		}
		return FailOutcome(reason)
	}
	if outcome.Kind == Unrun {
		return SuccessOutcome
	}
	return outcome
}
