package scripthost

import (
	lua "github.com/yuin/gopher-lua"
)

// toGoValue converts a Lua value into the Go representation actions.Options
// expects: LTable -> map[string]interface{} (or []interface{} when every
// key is a contiguous 1-based integer index), LString -> string, LNumber ->
// float64, LBool -> bool. Userdata sigils/task handles pass through
// unconverted so an action option can itself carry a task handle.
func toGoValue(lv lua.LValue) interface{} {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		return tableToGo(v)
	default:
		return v
	}
}

func tableToGo(t *lua.LTable) interface{} {
	maxN := t.MaxN()
	if maxN > 0 && isArrayLike(t, maxN) {
		out := make([]interface{}, maxN)
		for i := 1; i <= maxN; i++ {
			out[i-1] = toGoValue(t.RawGetInt(i))
		}
		return out
	}

	out := map[string]interface{}{}
	t.ForEach(func(k, v lua.LValue) {
		out[lua.LVAsString(k)] = toGoValue(v)
	})
	return out
}

// isArrayLike reports whether every key in t is a contiguous integer index
// from 1..maxN, i.e. t has no string keys mixed in.
func isArrayLike(t *lua.LTable, maxN int) bool {
	count := 0
	arrayOK := true
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if _, ok := k.(lua.LNumber); !ok {
			arrayOK = false
		}
	})
	return arrayOK && count == maxN
}

// toOptions converts a Lua table argument into actions.Options. Non-table
// arguments are rejected by the caller before this is invoked.
func toOptions(t *lua.LTable) map[string]interface{} {
	out := map[string]interface{}{}
	t.ForEach(func(k, v lua.LValue) {
		out[lua.LVAsString(k)] = toGoValue(v)
	})
	return out
}

// goToLua converts a Go value (as might appear in an actions.Result.Data)
// back into a Lua value for scripts to inspect.
func goToLua(L *lua.LState, v interface{}) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case float64:
		return lua.LNumber(val)
	case int:
		return lua.LNumber(val)
	case map[string]interface{}:
		tbl := L.NewTable()
		for k, mv := range val {
			L.SetField(tbl, k, goToLua(L, mv))
		}
		return tbl
	case []interface{}:
		tbl := L.NewTable()
		for i, iv := range val {
			tbl.RawSetInt(i+1, goToLua(L, iv))
		}
		return tbl
	default:
		return lua.LNil
	}
}
