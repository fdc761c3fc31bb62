package exec

import (
	"context"
	"runtime"
	"sync"
	"testing"

	"github.com/hpg-dev/hpg/internal/actions"
	"github.com/stretchr/testify/require"
)

type capturingSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *capturingSink) Line(stream, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, stream+":"+text)
}

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell assumptions do not hold on Windows")
	}
}

func TestExecActionCapturesStdout(t *testing.T) {
	skipOnWindows(t)
	sink := &capturingSink{}
	ctx := actions.WithLineSink(context.Background(), sink)

	res, err := Action{}.Run(ctx, actions.Options{
		"command": "echo",
		"args":    []string{"hello"},
	})
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Contains(t, sink.lines, "stdout:hello")
}

func TestExecActionFailureReturnsError(t *testing.T) {
	skipOnWindows(t)
	ctx := actions.WithLineSink(context.Background(), actions.DiscardLineSink)
	_, err := Action{}.Run(ctx, actions.Options{
		"command": "false",
	})
	require.Error(t, err)
}

func TestShellActionRunsScript(t *testing.T) {
	skipOnWindows(t)
	sink := &capturingSink{}
	ctx := actions.WithLineSink(context.Background(), sink)

	res, err := ShellAction{}.Run(ctx, actions.Options{
		"script": "echo one; echo two >&2",
	})
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Contains(t, sink.lines, "stdout:one")
	require.Contains(t, sink.lines, "stderr:two")
}

func TestExecActionRejectsMissingCommand(t *testing.T) {
	_, err := Action{}.Run(context.Background(), actions.Options{})
	require.Error(t, err)
}
