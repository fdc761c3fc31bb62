// Package exec implements the "exec" and "shell" actions: run a subprocess,
// stream its stdout/stderr line-by-line into whatever LineSink the
// dispatcher attached to the context, and report success or failure.
//
// Neither variant can tell whether the command it ran "changed" anything —
// an arbitrary command has no idempotent-report contract of its own — so a
// clean exit is always reported as Changed per §4.2.
package exec

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/hpg-dev/hpg/internal/actions"
)

// Options are the recognized keys for the "exec" action: an argv-form
// command, optional working directory and environment overrides.
type Options struct {
	actions.CommonOptions `mapstructure:",squash"`
	Command string   `mapstructure:"command" validate:"required"`
	Args    []string `mapstructure:"args"`
	Dir     string   `mapstructure:"dir"`
	Env     []string `mapstructure:"env"`
}

// ShellOptions are the recognized keys for the "shell" action: a script
// body interpreted by /bin/sh -c.
type ShellOptions struct {
	actions.CommonOptions `mapstructure:",squash"`
	Script string   `mapstructure:"script" validate:"required"`
	Dir    string   `mapstructure:"dir"`
	Env    []string `mapstructure:"env"`
}

// Action runs an argv-form subprocess.
type Action struct{}

func (Action) Name() string { return "exec" }

func (Action) Run(ctx context.Context, opts actions.Options) (*actions.Result, error) {
	var o Options
	if err := actions.Decode(opts, &o); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, o.Command, o.Args...)
	cmd.Dir = o.Dir
	if len(o.Env) > 0 {
		cmd.Env = append(cmd.Environ(), o.Env...)
	}
	return run(ctx, cmd)
}

// ShellAction runs a script string through /bin/sh -c.
type ShellAction struct{}

func (ShellAction) Name() string { return "shell" }

func (ShellAction) Run(ctx context.Context, opts actions.Options) (*actions.Result, error) {
	var o ShellOptions
	if err := actions.Decode(opts, &o); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", o.Script)
	cmd.Dir = o.Dir
	if len(o.Env) > 0 {
		cmd.Env = append(cmd.Environ(), o.Env...)
	}
	return run(ctx, cmd)
}

// run streams cmd's stdout/stderr into the context's LineSink, grounded on
// the teacher's RunStreaming (io.MultiWriter fan-out of a captured buffer
// plus a live callback) but operating line-by-line via a pipe+scanner so
// each line can be emitted as it arrives rather than only after exit.
func run(ctx context.Context, cmd *exec.Cmd) (*actions.Result, error) {
	sink := actions.LineSinkFromContext(ctx)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("exec: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("exec: stderr pipe: %w", err)
	}

	var lastErrLine string
	done := make(chan struct{}, 2)
	go streamLines(stdout, "stdout", sink, nil, done)
	go streamLines(stderr, "stderr", sink, &lastErrLine, done)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("exec: start: %w", err)
	}
	<-done
	<-done
	waitErr := cmd.Wait()
	if waitErr != nil {
		detail := lastErrLine
		if detail == "" {
			detail = waitErr.Error()
		}
		return nil, fmt.Errorf("exec: %s: %w", strings.TrimSpace(detail), waitErr)
	}
	return &actions.Result{Changed: true, Detail: "command exited 0"}, nil
}

func streamLines(r io.Reader, stream string, sink actions.LineSink, last *string, done chan<- struct{}) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if last != nil {
			*last = line
		}
		sink.Line(stream, line)
	}
	done <- struct{}{}
}
