// Package logger wraps charmbracelet/log into HPG's structured logging
// contract, grounded on the teacher's internal/infrastructure/logging
// adapter but collapsed into a single layer since HPG has no domain/
// application/infrastructure split.
package logger

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"

	cblog "github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Options configures a Logger instance.
type Options struct {
	Writer       io.Writer
	Level        string
	ReportCaller bool
	JSON         bool
	Component    string
}

// Logger is HPG's structured logging handle. All calls take key/value pairs
// and are safe for concurrent use.
type Logger struct {
	base   *cblog.Logger
	fields []interface{}
}

// New builds a Logger from Options, defaulting to stderr/info.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := cblog.InfoLevel
	if opts.Level != "" {
		parsed, err := cblog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	logOpts := cblog.Options{
		Level:           level,
		ReportTimestamp: true,
		ReportCaller:    opts.ReportCaller,
	}
	if opts.JSON {
		logOpts.Formatter = cblog.JSONFormatter
	}

	base := cblog.NewWithOptions(writer, logOpts)

	l := &Logger{base: base}
	if opts.Component != "" {
		l.fields = append(l.fields, "component", opts.Component)
	}
	return l, nil
}

// NewDiscard returns a Logger writing to io.Discard; cmd/hpg falls back to
// it when New fails.
func NewDiscard() *Logger {
	l, _ := New(Options{Writer: io.Discard})
	return l
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.DebugLevel, msg, fields...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.InfoLevel, msg, fields...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.WarnLevel, msg, fields...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...interface{}) {
	l.log(ctx, cblog.ErrorLevel, msg, fields...)
}

// With returns a derived logger that always emits the supplied fields.
func (l *Logger) With(fields ...interface{}) *Logger {
	if l == nil {
		return l
	}
	merged := append(append([]interface{}{}, l.fields...), fields...)
	return &Logger{base: l.base, fields: merged}
}

func (l *Logger) log(ctx context.Context, level cblog.Level, msg string, fields ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	args := append([]interface{}{}, l.fields...)
	if id := CorrelationID(ctx); id != "" {
		args = append(args, "correlation_id", id)
	}
	args = append(args, fields...)
	l.base.Log(level, msg, sortedPairs(args)...)
}

// sortedPairs stabilizes key ordering for reproducible log output, mirroring
// the teacher's map-key-sorting behavior in its events publisher.
func sortedPairs(args []interface{}) []interface{} {
	type pair struct {
		key string
		val interface{}
	}
	var pairs []pair
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return args
		}
		pairs = append(pairs, pair{key: key, val: args[i+1]})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
	out := make([]interface{}, 0, len(pairs)*2)
	for _, p := range pairs {
		out = append(out, p.key, p.val)
	}
	return out
}

type correlationIDKey struct{}

// WithCorrelationID attaches a correlation ID (one per CLI invocation) to ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID extracts the correlation ID from ctx, or "" if unset.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// NewCorrelationID mints a fresh correlation ID for a CLI invocation.
func NewCorrelationID() string {
	return uuid.NewString()
}
