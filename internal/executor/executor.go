// Package executor is the local driver (§4.3): parse CLI → construct
// script host → load root config → run Definition → print/plan/execute
// per flags → exit with the aggregated status. Grounded on the teacher's
// cmd/streamy/apply.go flow (Prepare → Apply), collapsed since HPG has no
// interactive TUI dashboard and no parallel level-by-level apply loop.
package executor

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/hpg-dev/hpg/internal/actions"
	"github.com/hpg-dev/hpg/internal/actions/archive"
	"github.com/hpg-dev/hpg/internal/actions/dir"
	"github.com/hpg-dev/hpg/internal/actions/exec"
	"github.com/hpg-dev/hpg/internal/actions/file"
	"github.com/hpg-dev/hpg/internal/actions/httpaction"
	"github.com/hpg-dev/hpg/internal/actions/pkgmanager"
	"github.com/hpg-dev/hpg/internal/actions/repo"
	"github.com/hpg-dev/hpg/internal/actions/systemdaction"
	"github.com/hpg-dev/hpg/internal/actions/useraction"
	"github.com/hpg-dev/hpg/internal/events"
	"github.com/hpg-dev/hpg/internal/graph"
	"github.com/hpg-dev/hpg/internal/scripthost"
)

// Options carries the CLI-resolved flags a local (or remote-agent) run
// needs to drive the Definition and Execution phases.
type Options struct {
	ConfigPath     string
	DefaultTargets bool
	Vars           map[string]interface{}
	Show           bool
	List           bool
	Targets        []string
	Sink           events.Sink
	Out            io.Writer
}

// NewActionRegistry builds the concrete action catalog every HPG invocation
// (local or remote-agent) wires into the script host (§2.3's "concrete
// catalog pluggable", instantiated once here with the full default set).
func NewActionRegistry() *actions.Registry {
	reg := actions.NewRegistry()
	reg.Register(exec.Action{})
	reg.Register(exec.ShellAction{})
	reg.Register(file.Action{})
	reg.Register(dir.Action{})
	reg.Register(archive.Action{})
	reg.Register(httpaction.Action{})
	reg.Register(useraction.Action{})
	reg.Register(systemdaction.Action{})
	reg.Register(repo.Action{})
	reg.Register(pkgmanager.Action{})
	return reg
}

// Run drives one local invocation to completion, returning the classified
// error the caller maps to an exit code via pkg/errors.ExitCodeFor. A nil
// error covers both a clean run and an all-cancelled one (§4.1 "Cancel of
// every reachable task still exits zero").
func Run(ctx context.Context, opts Options) error {
	bus, _ := opts.Sink.(*events.Bus)
	if bus == nil {
		bus = events.NewBus()
		if opts.Sink != nil {
			bus.Subscribe(opts.Sink)
		}
	}

	actionReg := NewActionRegistry()
	dispatcher := actions.NewDispatcher(actionReg, bus)

	taskReg := graph.NewRegistry()
	host := scripthost.New(scripthost.Options{
		Registry:   taskReg,
		Dispatcher: dispatcher,
		Vars:       opts.Vars,
	})
	defer host.Close()

	if err := host.LoadDefinition(opts.ConfigPath); err != nil {
		return err
	}
	taskReg.Close()

	if opts.List {
		return printTaskList(opts.Out, taskReg)
	}

	plan, err := graph.BuildPlan(taskReg, opts.Targets, opts.DefaultTargets)
	if err != nil {
		return err
	}

	if opts.Show {
		return printPlan(opts.Out, plan)
	}

	_, err = graph.Execute(ctx, plan, bus)
	return err
}

func printTaskList(out io.Writer, reg *graph.Registry) error {
	tasks := append([]*graph.Task{}, reg.Tasks()...)
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })
	for _, t := range tasks {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", t.Name, t.Description); err != nil {
			return err
		}
	}
	return nil
}

func printPlan(out io.Writer, plan *graph.Plan) error {
	for _, t := range plan.Order {
		if _, err := fmt.Fprintln(out, t.Name); err != nil {
			return err
		}
	}
	return nil
}
