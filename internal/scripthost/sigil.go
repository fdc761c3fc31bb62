package scripthost

import (
	lua "github.com/yuin/gopher-lua"
)

// sigilTag distinguishes success/cancel/fail markers by identity (Design
// Notes §9 "Sigils vs. return values"): the engine recognizes a sigil by
// this tag, never by inspecting message text.
type sigilTag int

const (
	sigilSuccess sigilTag = iota
	sigilCancel
	sigilFail
)

// sigil is the host-owned marker value returned by success()/cancel()/
// fail(); wrapped in a *lua.LUserData so scripts can pass it around and
// return it, but cannot construct or forge one themselves.
type sigil struct {
	tag    sigilTag
	reason string
}

const sigilMetatableName = "hpg.sigil"

func registerSigilType(L *lua.LState) {
	mt := L.NewTypeMetatable(sigilMetatableName)
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int { return 0 }))
}

func pushSigil(L *lua.LState, s *sigil) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = s
	L.SetMetatable(ud, L.GetTypeMetatable(sigilMetatableName))
	return ud
}

// asSigil extracts a *sigil from a Lua value if it is one.
func asSigil(lv lua.LValue) (*sigil, bool) {
	ud, ok := lv.(*lua.LUserData)
	if !ok {
		return nil, false
	}
	s, ok := ud.Value.(*sigil)
	return s, ok
}
