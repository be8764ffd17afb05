package debugshell

import (
	lua "github.com/yuin/gopher-lua"
)

// Engine is the Lua scripting surface bound to a running machine: scripts
// call break_at(addr) to register an address watch and on_tick(fn) to run
// a callback after every scheduler tick, giving debugshell the scripting
// hooks the teacher's dependency graph always implied but never wired to
// a running emulator.
type Engine struct {
	state *lua.LState
	pc    func() uint64

	breakpoints map[uint64]bool
	onTick      []*lua.LFunction
}

// NewEngine creates a scripting engine that reads the program counter from
// pc whenever a breakpoint check is due. pc is supplied by the caller
// rather than a concrete CPU type, since CPU instruction decoding is out
// of scope here; any controller.Cpu-shaped adapter can supply one.
func NewEngine(pc func() uint64) *Engine {
	e := &Engine{
		state:       lua.NewState(),
		pc:          pc,
		breakpoints: make(map[uint64]bool),
	}
	e.state.SetGlobal("break_at", e.state.NewFunction(e.luaBreakAt))
	e.state.SetGlobal("on_tick", e.state.NewFunction(e.luaOnTick))
	e.state.SetGlobal("clear_breakpoints", e.state.NewFunction(e.luaClearBreakpoints))
	return e
}

// Close releases the underlying Lua state.
func (e *Engine) Close() { e.state.Close() }

// LoadString runs a chunk of Lua source, registering any break_at/on_tick
// calls it makes.
func (e *Engine) LoadString(src string) error {
	return e.state.DoString(src)
}

// LoadFile runs a Lua script from disk.
func (e *Engine) LoadFile(path string) error {
	return e.state.DoFile(path)
}

func (e *Engine) luaBreakAt(l *lua.LState) int {
	addr := uint64(l.CheckNumber(1))
	e.breakpoints[addr] = true
	return 0
}

func (e *Engine) luaClearBreakpoints(l *lua.LState) int {
	e.breakpoints = make(map[uint64]bool)
	return 0
}

func (e *Engine) luaOnTick(l *lua.LState) int {
	fn := l.CheckFunction(1)
	e.onTick = append(e.onTick, fn)
	return 0
}

// Breakpoints returns the set of addresses currently armed by break_at.
func (e *Engine) Breakpoints() map[uint64]bool { return e.breakpoints }

// AfterTick runs every registered on_tick callback (passing the cycles
// consumed by the tick that just completed) and reports whether the
// current program counter matches an armed breakpoint.
func (e *Engine) AfterTick(cycles uint64) (hit bool, addr uint64) {
	for _, fn := range e.onTick {
		e.state.Push(fn)
		e.state.Push(lua.LNumber(cycles))
		if err := e.state.PCall(1, 0, nil); err != nil {
			// A scripting error must not stop the machine; it is
			// dropped and the remaining callbacks still run.
			continue
		}
	}
	if e.pc == nil {
		return false, 0
	}
	current := e.pc()
	if e.breakpoints[current] {
		return true, current
	}
	return false, 0
}
