// Package errors defines the HPG error taxonomy (see §7 of the spec): each
// kind carries the exit-code class the CLI should surface. On the wire the
// remote agent reports a run's exit class in its Done frame; handshake,
// sync and invoke failures reach the driver as an Error frame carrying only
// the message text (see internal/agent).
package errors

import "fmt"

// ExitCode enumerates the process exit classes the CLI maps errors to.
type ExitCode int

const (
	ExitSuccess         ExitCode = 0
	ExitTaskFailure     ExitCode = 1
	ExitDefinitionError ExitCode = 2
	ExitTransportError  ExitCode = 3
)

// Classified is implemented by every error kind in this package so the
// executor can compute the process exit code without type-switching on
// every concrete type.
type Classified interface {
	error
	ExitClass() ExitCode
}

// ConfigParseError represents a script-loader failure (parse or load time,
// before any task body runs).
type ConfigParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

func NewConfigParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ConfigParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ConfigParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("config parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("config parse error: %s: %s", e.Path, e.Message)
}

func (e *ConfigParseError) Unwrap() error       { return e.Err }
func (e *ConfigParseError) ExitClass() ExitCode { return ExitDefinitionError }

// GraphError covers cycle detection, duplicate task names, and unresolved
// dependency references caught during plan construction.
type GraphError struct {
	Message string
	Err     error
}

func NewGraphError(message string, err error) error {
	return &GraphError{Message: message, Err: err}
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("graph error: %s", e.Message)
}

func (e *GraphError) Unwrap() error       { return e.Err }
func (e *GraphError) ExitClass() ExitCode { return ExitDefinitionError }

// ActionFailureError is raised by an action on hard failure. It becomes a
// TaskFailureError unless the action's ignore_exit option absorbs it.
type ActionFailureError struct {
	Action  string
	Message string
	Err     error
}

func NewActionFailureError(action string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ActionFailureError{Action: action, Message: message, Err: err}
}

func (e *ActionFailureError) Error() string {
	if e == nil {
		return ""
	}
	if e.Action != "" {
		return fmt.Sprintf("action %q failed: %s", e.Action, e.Message)
	}
	return fmt.Sprintf("action failed: %s", e.Message)
}

func (e *ActionFailureError) Unwrap() error       { return e.Err }
func (e *ActionFailureError) ExitClass() ExitCode { return ExitTaskFailure }

// TaskFailureError is the fail() sigil or an uncaught script runtime error
// surfacing out of a task body. It halts the plan.
type TaskFailureError struct {
	Task   string
	Reason string
	Err    error
}

func NewTaskFailureError(task, reason string, err error) error {
	return &TaskFailureError{Task: task, Reason: reason, Err: err}
}

func (e *TaskFailureError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("task %q failed: %s", e.Task, e.Reason)
}

func (e *TaskFailureError) Unwrap() error       { return e.Err }
func (e *TaskFailureError) ExitClass() ExitCode { return ExitTaskFailure }

// CancelledError is an error form of the cancel() sigil outcome. It is not
// a failure and classifies as ExitSuccess. The scheduler does not construct
// it: cancellation and downstream Skipped propagation are carried by
// graph.Outcome values, and a run that ends with only Cancelled/Skipped/
// Success outcomes exits zero.
type CancelledError struct {
	Task   string
	Reason string
}

func NewCancelledError(task, reason string) *CancelledError {
	return &CancelledError{Task: task, Reason: reason}
}

func (e *CancelledError) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason != "" {
		return fmt.Sprintf("task %q cancelled: %s", e.Task, e.Reason)
	}
	return fmt.Sprintf("task %q cancelled", e.Task)
}

func (e *CancelledError) ExitClass() ExitCode { return ExitSuccess }

// TransportError covers codec, I/O, and handshake failures on the wire.
type TransportError struct {
	Message string
	Err     error
}

func NewTransportError(message string, err error) error {
	return &TransportError{Message: message, Err: err}
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error       { return e.Err }
func (e *TransportError) ExitClass() ExitCode { return ExitTransportError }

// SshError covers auth and channel failures, tagged with the remote host.
type SshError struct {
	Host    string
	Message string
	Err     error
}

func NewSshError(host, message string, err error) error {
	return &SshError{Host: host, Message: message, Err: err}
}

func (e *SshError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("ssh error [%s]: %s", e.Host, e.Message)
}

func (e *SshError) Unwrap() error       { return e.Err }
func (e *SshError) ExitClass() ExitCode { return ExitTransportError }

// AgentCrashedError is raised when the remote agent exits, or the channel
// closes, before sending a Done frame.
type AgentCrashedError struct {
	Host    string
	Message string
}

func NewAgentCrashedError(host, message string) error {
	return &AgentCrashedError{Host: host, Message: message}
}

func (e *AgentCrashedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("agent on %s crashed: %s", e.Host, e.Message)
}

func (e *AgentCrashedError) ExitClass() ExitCode { return ExitTransportError }

// ExitCodeFor inspects err and returns the exit class it maps to, falling
// back to ExitTaskFailure for any error that does not implement Classified
// (an uncaught script-level error, per §4.1's Fail-on-uncaught-error rule).
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	if classified, ok := err.(Classified); ok {
		return classified.ExitClass()
	}
	return ExitTaskFailure
}
