// Package scripthost embeds gopher-lua as HPG's configuration language: it
// exposes the task/target/sigil/vars/machine/pkg/systemd intrinsics
// (§4.1, §9) and bridges action-registry calls (§4.2) into typed Go option
// structs.
package scripthost

import (
	"context"
	"os"
	"runtime"

	lua "github.com/yuin/gopher-lua"

	"github.com/hpg-dev/hpg/internal/actions"
	"github.com/hpg-dev/hpg/internal/graph"
	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

// Host owns the single non-reentrant *lua.LState for one HPG invocation
// (Design Notes §9 "Async surface": "everywhere else, execute
// synchronously" — there is exactly one interpreter, owned by the
// executor thread).
type Host struct {
	L          *lua.LState
	reg        *graph.Registry
	dispatcher *actions.Dispatcher

	definitionClosed bool
	running          bool
	currentTask      string
	currentCtx       context.Context

	vars map[string]interface{}
}

// Options configures a new Host.
type Options struct {
	Registry   *graph.Registry
	Dispatcher *actions.Dispatcher
	// Vars is the already-merged -v/--vars mapping (config.MergeVars),
	// installed into the `vars` global before the script loads. A script
	// that wants a lower-precedence default writes `vars.x = vars.x or
	// "default"`: the CLI-supplied value above wins whenever present,
	// satisfying §6's "assigned inside the config before it is read
	// becomes a default" rule without the host tracking provenance itself.
	Vars map[string]interface{}
}

// New constructs a Host with every intrinsic installed.
func New(opts Options) *Host {
	h := &Host{
		L:          lua.NewState(),
		reg:        opts.Registry,
		dispatcher: opts.Dispatcher,
		vars:       map[string]interface{}{},
	}
	for k, v := range opts.Vars {
		h.vars[k] = v
	}

	registerSigilType(h.L)
	registerTaskHandleType(h.L)
	h.installGlobals()
	return h
}

// Close releases the underlying interpreter.
func (h *Host) Close() {
	h.L.Close()
}

// MergeVars overlays values onto the existing vars mapping; later calls win
// ties, so for §6's precedence order call it with --vars file values first,
// then CLI -v values.
func (h *Host) MergeVars(values map[string]interface{}) {
	for k, v := range values {
		h.vars[k] = v
	}
	h.syncVarsTable()
}

func (h *Host) syncVarsTable() {
	tbl := h.L.NewTable()
	for k, v := range h.vars {
		h.L.SetField(tbl, k, goToLua(h.L, v))
	}
	h.L.SetGlobal("vars", tbl)
}

// LoadDefinition runs path as the Definition-phase root config. Once it
// returns, the Definition phase is closed: task()/target() become errors.
func (h *Host) LoadDefinition(path string) error {
	if err := h.L.DoFile(path); err != nil {
		return hpgerrors.NewConfigParseError(path, 0, err)
	}
	h.definitionClosed = true
	return nil
}

// RunBody invokes a task's stored Lua body function and interprets its
// return value per §4.1 step 3. A body-less task (no callable passed to
// task()) always succeeds. taskName attributes any action() calls made
// from within the body (ActionBegin/ActionEnd events, §5) to the task
// actually executing, via the currentTask field rather than a context
// key — RunBody is already guarded non-reentrant by h.running. ctx is
// likewise stashed in currentCtx so action() calls dispatch with the
// scheduler's per-task cancellation/timeout instead of a detached one.
func (h *Host) RunBody(ctx context.Context, taskName string, fn *lua.LFunction) (graph.Outcome, error) {
	if h.running {
		return graph.Outcome{}, hpgerrors.NewGraphError("task bodies cannot nest", nil)
	}
	h.running = true
	h.currentTask = taskName
	h.currentCtx = ctx
	defer func() {
		h.running = false
		h.currentTask = ""
		h.currentCtx = nil
	}()

	err := h.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	})
	if err != nil {
		return graph.FailOutcome(err.Error()), nil
	}

	ret := h.L.Get(-1)
	h.L.Pop(1)

	if ret == lua.LNil {
		return graph.SuccessOutcome, nil
	}
	if s, ok := asSigil(ret); ok {
		switch s.tag {
		case sigilCancel:
			return graph.CancelOutcome(s.reason), nil
		case sigilFail:
			return graph.FailOutcome(s.reason), nil
		default:
			return graph.SuccessOutcome, nil
		}
	}
	return graph.SuccessOutcome, nil
}

func (h *Host) installGlobals() {
	h.L.SetGlobal("task", h.L.NewFunction(h.luaTask))
	h.L.SetGlobal("target", h.L.NewFunction(h.luaTarget))
	h.L.SetGlobal("success", h.L.NewFunction(h.luaSuccess))
	h.L.SetGlobal("cancel", h.L.NewFunction(h.luaCancel))
	h.L.SetGlobal("fail", h.L.NewFunction(h.luaFail))
	h.syncVarsTable()
	h.L.SetGlobal("machine", h.buildMachineTable())

	if h.dispatcher != nil {
		for _, name := range []string{"exec", "shell", "file", "dir", "archive", "http", "user", "systemd", "repo", "pkg"} {
			h.L.SetGlobal(name, h.buildActionTable(name))
		}
	}
}

// luaTask implements task(description, deps?, body?).
func (h *Host) luaTask(L *lua.LState) int {
	if h.definitionClosed {
		L.RaiseError("task() called after the definition phase has closed")
		return 0
	}

	description := L.CheckString(1)
	var deps []*graph.Task
	var body *lua.LFunction

	for i := 2; i <= L.GetTop(); i++ {
		arg := L.Get(i)
		switch v := arg.(type) {
		case *lua.LFunction:
			body = v
		case *lua.LTable:
			v.ForEach(func(_, dv lua.LValue) {
				if t, ok := asTaskHandle(dv); ok {
					deps = append(deps, t)
				}
			})
		case *lua.LUserData:
			if t, ok := asTaskHandle(v); ok {
				deps = append(deps, t)
			}
		}
	}

	var bodyFn graph.BodyFunc
	if body != nil {
		fn := body
		name := description
		bodyFn = func(ctx context.Context) (graph.Outcome, error) {
			return h.RunBody(ctx, name, fn)
		}
	}

	// task()'s single string argument doubles as both the task's unique
	// identity (Data Model §3 "Identity is a unique human name") and its
	// free-text description: the script has no separate name parameter, so
	// the description string itself is registered as the name. Scripts that
	// want a separate long-form description can still embed both in that
	// string; this is an Open-Question-style gap the spec leaves unresolved
	// for the `task()` surface and is documented in DESIGN.md.
	t, err := h.reg.Register(description, description, deps, bodyFn)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}

	L.Push(pushTaskHandle(L, t))
	return 1
}

func (h *Host) luaTarget(L *lua.LState) int {
	if h.definitionClosed {
		L.RaiseError("target() called after the definition phase has closed")
		return 0
	}
	var tasks []*graph.Task
	for i := 1; i <= L.GetTop(); i++ {
		if t, ok := asTaskHandle(L.Get(i)); ok {
			tasks = append(tasks, t)
		}
	}
	if err := h.reg.AddTarget(tasks...); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (h *Host) luaSuccess(L *lua.LState) int {
	L.Push(pushSigil(L, &sigil{tag: sigilSuccess}))
	return 1
}

func (h *Host) luaCancel(L *lua.LState) int {
	reason := L.OptString(1, "")
	L.Push(pushSigil(L, &sigil{tag: sigilCancel, reason: reason}))
	return 1
}

func (h *Host) luaFail(L *lua.LState) int {
	reason := L.CheckString(1)
	L.Push(pushSigil(L, &sigil{tag: sigilFail, reason: reason}))
	return 1
}

func (h *Host) buildMachineTable() *lua.LTable {
	tbl := h.L.NewTable()
	h.L.SetField(tbl, "os", h.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(runtime.GOOS))
		return 1
	}))
	h.L.SetField(tbl, "arch", h.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(runtime.GOARCH))
		return 1
	}))
	h.L.SetField(tbl, "hostname", h.L.NewFunction(func(L *lua.LState) int {
		name, err := os.Hostname()
		if err != nil {
			L.RaiseError("machine.hostname: %s", err.Error())
			return 0
		}
		L.Push(lua.LString(name))
		return 1
	}))
	return tbl
}

// buildActionTable exposes one action as a callable table: calling the
// table itself (via __call) dispatches the action with its Lua table
// argument decoded into Options.
func (h *Host) buildActionTable(name string) *lua.LTable {
	tbl := h.L.NewTable()
	mt := h.L.NewTable()
	h.L.SetField(mt, "__call", h.L.NewFunction(func(L *lua.LState) int {
		// arg 1 is the table itself (Lua call convention for __call);
		// arg 2 is the options table the script passed.
		opts := map[string]interface{}{}
		if L.GetTop() >= 2 {
			if argTbl, ok := L.Get(2).(*lua.LTable); ok {
				opts = toOptions(argTbl)
			}
		}
		taskName := h.currentTask
		if taskName == "" {
			taskName = "script"
		}
		actionCtx := h.currentCtx
		if actionCtx == nil {
			actionCtx = context.Background()
		}
		res, err := h.dispatcher.Dispatch(actionCtx, taskName, name, actions.Options(opts))
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		result := h.L.NewTable()
		h.L.SetField(result, "changed", lua.LBool(res.Changed))
		h.L.SetField(result, "detail", lua.LString(res.Detail))
		if res.Data != nil {
			h.L.SetField(result, "data", goToLua(h.L, res.Data))
		}
		L.Push(result)
		return 1
	}))
	h.L.SetMetatable(tbl, mt)
	return tbl
}
