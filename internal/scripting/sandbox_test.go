package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/makavia/internal/scripting"
)

func TestSandbox_OnlySafeLibraries(t *testing.T) {
	sb := scripting.NewSandbox(0)
	defer sb.Close()
	for _, name := range []string{"os", "io", "debug", "dofile", "loadfile", "load", "loadstring", "require", "collectgarbage", "print"} {
		assert.Equal(t, lua.LNil, sb.L.GetGlobal(name), name)
	}
	require.NoError(t, sb.RunString(`
		assert(math.sqrt(4) == 2.0)
		assert(string.upper("oath") == "OATH")
		assert(string.rep == nil)
		local t = {3, 1, 2}
		table.sort(t)
		assert(t[1] == 1)
	`))
}

func TestSandbox_BudgetExhausted(t *testing.T) {
	sb := scripting.NewSandbox(10)
	defer sb.Close()
	err := sb.RunString(`while true do end`)
	assert.ErrorIs(t, err, scripting.ErrBudgetExhausted)
	assert.GreaterOrEqual(t, sb.Used(), int64(10))
}

func TestSandbox_EachRunGetsFreshBudget(t *testing.T) {
	sb := scripting.NewSandbox(1000)
	defer sb.Close()
	require.ErrorIs(t, sb.RunString(`while true do end`), scripting.ErrBudgetExhausted)
	assert.NoError(t, sb.RunString(`local x = 1 + 1`))
}

func TestSandbox_RuntimeErrorIsNotBudget(t *testing.T) {
	sb := scripting.NewSandbox(1000)
	defer sb.Close()
	err := sb.RunString(`error("broken oath")`)
	require.Error(t, err)
	assert.NotErrorIs(t, err, scripting.ErrBudgetExhausted)
	assert.Contains(t, err.Error(), "broken oath")
}

func TestProperty_InfiniteLoopAlwaysStops(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(t, "limit")
		sb := scripting.NewSandbox(limit)
		defer sb.Close()
		if err := sb.RunString(`while true do end`); err == nil {
			t.Fatalf("expected error with limit=%d", limit)
		}
	})
}
