package actions

import "context"

// CommonOptions carries the option keys every action accepts regardless of
// kind. Concrete option structs embed this so Decode's unused-key rejection
// doesn't trip on ignore_exit.
type CommonOptions struct {
	IgnoreExit bool `mapstructure:"ignore_exit"`
}

// LineSink receives captured subprocess output one line at a time, tagged
// by stream ("stdout" or "stderr"). Concrete actions that shell out use
// this to let the dispatcher forward lines as Stdio events without the
// action package depending on internal/events.
type LineSink interface {
	Line(stream, text string)
}

// LineSinkFunc adapts a function to LineSink.
type LineSinkFunc func(stream, text string)

func (f LineSinkFunc) Line(stream, text string) { f(stream, text) }

// DiscardLineSink drops every line; used when a caller doesn't care about
// live output (e.g. tests).
var DiscardLineSink LineSink = LineSinkFunc(func(string, string) {})

type lineSinkKey struct{}

// WithLineSink attaches a LineSink that subprocess-backed actions (exec,
// shell) will stream captured output lines into. The Dispatcher installs
// one per Dispatch call so every action gets live stdio routing without
// the Action interface itself needing a sink parameter.
func WithLineSink(ctx context.Context, sink LineSink) context.Context {
	return context.WithValue(ctx, lineSinkKey{}, sink)
}

// LineSinkFromContext returns the sink attached by WithLineSink, or
// DiscardLineSink if none was attached.
func LineSinkFromContext(ctx context.Context) LineSink {
	if sink, ok := ctx.Value(lineSinkKey{}).(LineSink); ok && sink != nil {
		return sink
	}
	return DiscardLineSink
}
