package scripthost

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/hpg-dev/hpg/internal/graph"
)

// taskHandleMetatableName is the Lua userdata type for a task reference —
// the "opaque integer (arena index) wrapped in a host-owned handle type"
// of Design Notes §9, with *graph.Task as the arena entry itself.
const taskHandleMetatableName = "hpg.task"

func registerTaskHandleType(L *lua.LState) {
	L.NewTypeMetatable(taskHandleMetatableName)
}

func pushTaskHandle(L *lua.LState, t *graph.Task) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = t
	L.SetMetatable(ud, L.GetTypeMetatable(taskHandleMetatableName))
	return ud
}

// asTaskHandle extracts the *graph.Task a Lua value refers to.
func asTaskHandle(lv lua.LValue) (*graph.Task, bool) {
	ud, ok := lv.(*lua.LUserData)
	if !ok {
		return nil, false
	}
	t, ok := ud.Value.(*graph.Task)
	return t, ok
}
