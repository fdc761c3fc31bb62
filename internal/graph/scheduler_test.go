package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	begun []string
	ended []Result
}

func (s *recordingSink) TaskBegin(name string) { s.begun = append(s.begun, name) }
func (s *recordingSink) TaskEnd(name string, outcome Outcome) {
	s.ended = append(s.ended, Result{Task: &Task{Name: name}, Outcome: outcome})
}

func TestExecuteLinearChainAllSucceed(t *testing.T) {
	reg := NewRegistry()
	a, _ := reg.Register("a", "", nil, func(ctx context.Context) (Outcome, error) { return SuccessOutcome, nil })
	b, _ := reg.Register("b", "", []*Task{a}, func(ctx context.Context) (Outcome, error) { return SuccessOutcome, nil })
	_, _ = reg.Register("c", "", []*Task{b}, func(ctx context.Context) (Outcome, error) { return SuccessOutcome, nil })

	plan, err := BuildPlan(reg, []string{"c"}, false)
	require.NoError(t, err)

	sink := &recordingSink{}
	results, err := Execute(context.Background(), plan, sink)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		require.Equal(t, Success, r.Outcome.Kind)
	}
}

func TestExecuteCancelPropagatesToSkipped(t *testing.T) {
	reg := NewRegistry()
	a, _ := reg.Register("a", "", nil, func(ctx context.Context) (Outcome, error) {
		return CancelOutcome("not applicable"), nil
	})
	_, _ = reg.Register("b", "", []*Task{a}, func(ctx context.Context) (Outcome, error) {
		t.Fatal("b's body must not run when a is cancelled")
		return Outcome{}, nil
	})

	plan, err := BuildPlan(reg, []string{"b"}, false)
	require.NoError(t, err)

	sink := &recordingSink{}
	results, err := Execute(context.Background(), plan, sink)
	require.NoError(t, err)
	require.Equal(t, Cancel, results[0].Outcome.Kind)
	require.Equal(t, Skipped, results[1].Outcome.Kind)
}

func TestExecuteFailureHaltsPlan(t *testing.T) {
	reg := NewRegistry()
	ran := map[string]bool{}
	a, _ := reg.Register("a", "", nil, func(ctx context.Context) (Outcome, error) {
		ran["a"] = true
		return FailOutcome("bad"), nil
	})
	_, _ = reg.Register("c", "", nil, func(ctx context.Context) (Outcome, error) {
		ran["c"] = true
		return SuccessOutcome, nil
	})
	_, _ = reg.Register("b", "", []*Task{a}, func(ctx context.Context) (Outcome, error) {
		ran["b"] = true
		return SuccessOutcome, nil
	})

	plan, err := BuildPlan(reg, []string{"b", "c"}, false)
	require.NoError(t, err)

	sink := &recordingSink{}
	results, err := Execute(context.Background(), plan, sink)
	require.Error(t, err)
	require.True(t, ran["a"])
	require.False(t, ran["c"], "c must not run once a fails")
	require.False(t, ran["b"])
	require.Len(t, results, 1)
	require.Equal(t, Fail, results[0].Outcome.Kind)
}

func TestExecuteUncaughtErrorBecomesFail(t *testing.T) {
	reg := NewRegistry()
	_, _ = reg.Register("a", "", nil, func(ctx context.Context) (Outcome, error) {
		return Outcome{}, errors.New("boom")
	})

	plan, err := BuildPlan(reg, []string{"a"}, false)
	require.NoError(t, err)

	results, err := Execute(context.Background(), plan, &recordingSink{})
	require.Error(t, err)
	require.Equal(t, Fail, results[0].Outcome.Kind)
	require.Equal(t, "boom", results[0].Outcome.Reason)
}

func TestExecuteTaskWithNoBodySucceeds(t *testing.T) {
	reg := NewRegistry()
	_, _ = reg.Register("noop", "", nil, nil)

	plan, err := BuildPlan(reg, []string{"noop"}, false)
	require.NoError(t, err)

	results, err := Execute(context.Background(), plan, &recordingSink{})
	require.NoError(t, err)
	require.Equal(t, Success, results[0].Outcome.Kind)
}
