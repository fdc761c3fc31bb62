// Package actions implements the dispatch contract for HPG's side-effecting
// operations (§4.2): a typed option bundle in, an idempotent-report result
// out, with the begin/end event pair and ignore_exit policy applied
// uniformly by the Dispatcher regardless of which concrete action ran.
//
// The concrete catalog (subprocess, file, archive, user/group, systemd...)
// is a pluggable capability set per §1; only the contract is specified.
package actions

import (
	"context"
	"fmt"
	"sync"

	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

// Options is the decoded Lua table an action receives. Concrete actions
// decode the recognized subset into a typed Go struct (see Decode) and must
// reject unrecognized keys explicitly — silently ignored keys are
// forbidden per §4.2.
type Options map[string]interface{}

// Result is the idempotent-report contract: did this action change system
// state, and a human-readable detail describing what happened. Data
// carries an optional structured value (e.g. a parsed JSON body) back to
// the calling script; most actions leave it nil.
type Result struct {
	Changed bool
	Detail  string
	Data    interface{}
}

// Action is a single side-effecting operation callable from a task body.
type Action interface {
	Name() string
	Run(ctx context.Context, opts Options) (*Result, error)
}

// Sink is the narrow event surface the dispatcher needs; internal/events.Bus
// satisfies it.
type Sink interface {
	ActionBegin(task, actionKind, summary string)
	ActionEnd(task, actionKind string, changed bool, detail string)
}

// stdioSink is an optional richer Sink that can also carry captured
// subprocess output lines; internal/events.Bus satisfies this too.
type stdioSink interface {
	StdioLine(task, stream, line string)
}

// Registry is the dispatch table: action name -> handler.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry returns an empty action registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds an action. Registering the same name twice panics: this
// only happens at process wiring time (executor.NewActionRegistry), never from untrusted
// script input, so it is a programmer error rather than a runtime one.
func (r *Registry) Register(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[a.Name()]; exists {
		panic(fmt.Sprintf("action %q already registered", a.Name()))
	}
	r.actions[a.Name()] = a
}

// Get resolves an action by name.
func (r *Registry) Get(name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[name]
	return a, ok
}

// Names lists every registered action name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.actions))
	for name := range r.actions {
		out = append(out, name)
	}
	return out
}

// Dispatcher wraps a Registry with the uniform event-emission and
// ignore_exit policy every action must honor (§4.2), so no individual
// action implementation can forget to emit its begin/end pair.
type Dispatcher struct {
	reg  *Registry
	sink Sink
}

// NewDispatcher builds a Dispatcher over reg, emitting events to sink.
func NewDispatcher(reg *Registry, sink Sink) *Dispatcher {
	return &Dispatcher{reg: reg, sink: sink}
}

// Dispatch runs the named action under task, applying ignore_exit and
// emitting the begin/end event pair (§4.2's "emit at least one event pair"
// invariant, enforced centrally rather than trusted to each action).
func (d *Dispatcher) Dispatch(ctx context.Context, task, name string, opts Options) (*Result, error) {
	action, ok := d.reg.Get(name)
	if !ok {
		return nil, hpgerrors.NewActionFailureError(name, fmt.Errorf("unknown action %q", name))
	}

	summary := summarize(name, opts)
	if d.sink != nil {
		d.sink.ActionBegin(task, name, summary)
	}

	if stdio, ok := d.sink.(stdioSink); ok {
		ctx = WithLineSink(ctx, LineSinkFunc(func(stream, line string) {
			stdio.StdioLine(task, stream, line)
		}))
	}

	res, err := action.Run(ctx, opts)
	if err != nil {
		if ignoreExit(opts) {
			detail := err.Error()
			if d.sink != nil {
				d.sink.ActionEnd(task, name, false, detail)
			}
			return &Result{Changed: false, Detail: detail}, nil
		}
		if d.sink != nil {
			d.sink.ActionEnd(task, name, false, err.Error())
		}
		return nil, hpgerrors.NewActionFailureError(name, err)
	}

	if res == nil {
		res = &Result{}
	}
	if d.sink != nil {
		d.sink.ActionEnd(task, name, res.Changed, res.Detail)
	}
	return res, nil
}

func ignoreExit(opts Options) bool {
	v, ok := opts["ignore_exit"]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func summarize(name string, opts Options) string {
	if path, ok := opts["path"].(string); ok {
		return fmt.Sprintf("%s %s", name, path)
	}
	if cmd, ok := opts["command"].(string); ok {
		return fmt.Sprintf("%s %s", name, cmd)
	}
	if url, ok := opts["url"].(string); ok {
		return fmt.Sprintf("%s %s", name, url)
	}
	return name
}
