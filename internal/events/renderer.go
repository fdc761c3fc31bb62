package events

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// LineRenderer is the default line-oriented terminal sink (§4.7: "rendering
// is orthogonal to the contract" — this is one conforming implementation,
// not the only one). Grounded on the teacher's styling choices in
// internal/tui/components, reduced to plain ANSI lines since the full
// bubbletea dashboard is out of this spec's scope.
type LineRenderer struct {
	w      io.Writer
	color  bool
	styles styleSet
}

type styleSet struct {
	success lipgloss.Style
	cancel  lipgloss.Style
	fail    lipgloss.Style
	skipped lipgloss.Style
	dim     lipgloss.Style
}

// NewLineRenderer builds a renderer writing to w. Color is enabled only
// when w is a terminal (golang.org/x/term.IsTerminal), matching the
// teacher's TTY-aware rendering.
func NewLineRenderer(w io.Writer) *LineRenderer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &LineRenderer{
		w:     w,
		color: color,
		styles: styleSet{
			success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
			cancel:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
			fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
			skipped: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
			dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		},
	}
}

func (r *LineRenderer) Emit(e Event) {
	switch e.Kind {
	case TaskBegin:
		fmt.Fprintf(r.w, "==> %s\n", r.style(r.styles.dim, e.Task))
	case TaskEnd:
		style := r.outcomeStyle(e.Outcome)
		label := e.Outcome
		if e.Reason != "" {
			label = fmt.Sprintf("%s (%s)", label, e.Reason)
		}
		fmt.Fprintf(r.w, "    %s: %s\n", e.Task, r.style(style, label))
	case ActionBegin:
		fmt.Fprintf(r.w, "    -> %s: %s\n", e.ActionKind, e.Summary)
	case ActionEnd:
		state := "ok"
		if e.Changed {
			state = "changed"
		}
		fmt.Fprintf(r.w, "    <- %s: %s %s\n", e.ActionKind, state, e.Detail)
	case Stdio:
		fmt.Fprintf(r.w, "    [%s] %s\n", e.Stream, e.Line)
	case Log:
		fmt.Fprintf(r.w, "    [%s] %s\n", e.Level, e.Message)
	}
}

func (r *LineRenderer) outcomeStyle(outcome string) lipgloss.Style {
	switch outcome {
	case "success":
		return r.styles.success
	case "cancel":
		return r.styles.cancel
	case "fail":
		return r.styles.fail
	case "skipped":
		return r.styles.skipped
	default:
		return r.styles.dim
	}
}

func (r *LineRenderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}
