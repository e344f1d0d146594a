// Package scripting provides a sandboxed GopherLua environment for story
// condition predicates. It depends on the story package only for the read-only
// progression snapshot handed to each predicate.
package scripting

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of one run when none is configured.
const DefaultInstructionLimit = 100_000

// ErrBudgetExhausted is wrapped by Run when a chunk uses up its opcode budget.
var ErrBudgetExhausted = errors.New("script exceeded its instruction budget")

// removed are the base globals a predicate may not use. string.rep is
// removed separately in NewSandbox.
var removed = []string{
	"dofile", "loadfile", "load", "loadstring", "require", "module",
	"collectgarbage", "print", "setfenv", "getfenv", "newproxy",
}

// Sandbox is a Lua state restricted to the base, table, string and math
// libraries. Every Run gets a fresh opcode budget. A Sandbox is not safe for
// concurrent use.
type Sandbox struct {
	L *lua.LState

	limit     int64
	remaining atomic.Int64
	used      int64
}

// meter is the context handed to the VM. GopherLua checks Done once per
// opcode, so counting those calls meters instructions exactly.
type meter struct {
	context.Context
	cancel context.CancelFunc
	s      *Sandbox
}

func (m *meter) Done() <-chan struct{} {
	if m.s.remaining.Add(-1) < 0 {
		m.cancel()
	}
	return m.Context.Done()
}

// NewSandbox creates a Sandbox allowing limit opcodes per Run.
//
// Precondition: limit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: the caller must Close the Sandbox.
func NewSandbox(limit int) *Sandbox {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range removed {
		L.SetGlobal(name, lua.LNil)
	}
	if str, ok := L.GetGlobal("string").(*lua.LTable); ok {
		str.RawSetString("rep", lua.LNil)
	}
	return &Sandbox{L: L, limit: int64(limit)}
}

// Run calls fn with no arguments, leaving nret results on the stack.
//
// Postcondition: an error wrapping ErrBudgetExhausted when the budget ran out,
// otherwise the Lua error if fn failed.
func (s *Sandbox) Run(fn *lua.FunctionProto, nret int) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.remaining.Store(s.limit)
	s.L.SetContext(&meter{Context: ctx, cancel: cancel, s: s})
	defer s.L.RemoveContext()

	s.L.Push(s.L.NewFunctionFromProto(fn))
	err := s.L.PCall(0, nret, nil)
	left := s.remaining.Load()
	if left < 0 {
		left = 0
	}
	s.used += s.limit - left
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w (%d opcodes): %v", ErrBudgetExhausted, s.limit, err)
	}
	return err
}

// RunString compiles and runs src.
func (s *Sandbox) RunString(src string) error {
	proto, err := compileChunk(src, "<sandbox>")
	if err != nil {
		return err
	}
	return s.Run(proto, 0)
}

// Used returns the opcodes consumed across every Run so far.
func (s *Sandbox) Used() int64 { return s.used }

// Close releases the Lua state.
func (s *Sandbox) Close() { s.L.Close() }
