// Package events implements HPG's structured progress stream (§4.7): task
// and action begin/end pairs, stdio lines, and log entries, consumed by a
// pluggable sink. Grounded on the teacher's
// internal/infrastructure/events.LoggingPublisher pub/sub shape, reworked
// from Streamy's generic domain-event bus into HPG's fixed event vocabulary.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/hpg-dev/hpg/internal/graph"
)

// Kind enumerates the event vocabulary fixed by §4.7.
type Kind string

const (
	TaskBegin   Kind = "task_begin"
	TaskEnd     Kind = "task_end"
	ActionBegin Kind = "action_begin"
	ActionEnd   Kind = "action_end"
	Stdio       Kind = "stdio"
	Log         Kind = "log"
)

// Event is the single wire/render shape every event kind is carried in.
// Fields irrelevant to a given Kind are left zero.
type Event struct {
	ID        string    `msgpack:"id"`
	Kind      Kind      `msgpack:"kind"`
	Timestamp time.Time `msgpack:"ts"`

	Task string `msgpack:"task,omitempty"`

	// TaskEnd
	Outcome string `msgpack:"outcome,omitempty"`
	Reason  string `msgpack:"reason,omitempty"`

	// ActionBegin/ActionEnd
	ActionKind string `msgpack:"action_kind,omitempty"`
	Summary    string `msgpack:"summary,omitempty"`
	Changed    bool   `msgpack:"changed,omitempty"`
	Detail     string `msgpack:"detail,omitempty"`

	// Stdio
	Stream string `msgpack:"stream,omitempty"`
	Line   string `msgpack:"line,omitempty"`

	// Log
	Level   string `msgpack:"level,omitempty"`
	Message string `msgpack:"message,omitempty"`
}

func newEvent(kind Kind) Event {
	return Event{ID: uuid.NewString(), Kind: kind, Timestamp: time.Now()}
}

// Sink is anything that consumes the event stream: the default renderer,
// the transport forwarder on the remote agent side, or a test recorder.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Bus fans a single event stream out to every subscribed Sink and doubles
// as the narrow graph.Sink / action sink adapters the scheduler and action
// dispatcher consume, so callers only need to hold one handle.
type Bus struct {
	sinks []Sink
}

// NewBus returns a Bus that fans out to the given sinks; called with none,
// events are simply dropped until Subscribe is called, mirroring the
// teacher's zero-value-safe publisher.
func NewBus(sinks ...Sink) *Bus {
	return &Bus{sinks: sinks}
}

// Subscribe adds a sink to receive every future event.
func (b *Bus) Subscribe(s Sink) {
	b.sinks = append(b.sinks, s)
}

// Emit implements Sink, letting a Bus nest inside another Bus.
func (b *Bus) Emit(e Event) {
	for _, s := range b.sinks {
		s.Emit(e)
	}
}

// --- graph.Sink adapter -----------------------------------------------

var _ graph.Sink = (*Bus)(nil)

func (b *Bus) TaskBegin(name string) {
	e := newEvent(TaskBegin)
	e.Task = name
	b.Emit(e)
}

func (b *Bus) TaskEnd(name string, outcome graph.Outcome) {
	e := newEvent(TaskEnd)
	e.Task = name
	e.Outcome = outcome.Kind.String()
	e.Reason = outcome.Reason
	b.Emit(e)
}

// --- action sink adapter -------------------------------------------------

func (b *Bus) ActionBegin(task, actionKind, summary string) {
	e := newEvent(ActionBegin)
	e.Task = task
	e.ActionKind = actionKind
	e.Summary = summary
	b.Emit(e)
}

func (b *Bus) ActionEnd(task, actionKind string, changed bool, detail string) {
	e := newEvent(ActionEnd)
	e.Task = task
	e.ActionKind = actionKind
	e.Changed = changed
	e.Detail = detail
	b.Emit(e)
}

func (b *Bus) StdioLine(task, stream, line string) {
	e := newEvent(Stdio)
	e.Task = task
	e.Stream = stream
	e.Line = line
	b.Emit(e)
}

func (b *Bus) LogMessage(level, message string) {
	e := newEvent(Log)
	e.Level = level
	e.Message = message
	b.Emit(e)
}
