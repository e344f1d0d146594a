package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/makavia/internal/game/dice"
)

func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{Expression: "2d6+3", Dice: []int{4, 5}, Modifier: 3}
	assert.Equal(t, 12, r.Total())
	assert.Equal(t, "2d6+3 -> [4 5] +3 = 12", r.String())
}

func TestParse(t *testing.T) {
	cases := []struct {
		expr  string
		count int
		sides int
		mod   int
	}{
		{"d20", 1, 20, 0},
		{"2d6", 2, 6, 0},
		{"1d3+3", 1, 3, 3},
		{"1D11+19", 1, 11, 19},
		{"4d8-2", 4, 8, -2},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			e, err := dice.Parse(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.count, e.Count)
			assert.Equal(t, tc.sides, e.Sides)
			assert.Equal(t, tc.mod, e.Modifier)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, expr := range []string{"", "6", "0d6", "2d1", "2dx", "2d6+x"} {
		_, err := dice.Parse(expr)
		assert.Error(t, err, "expression %q", expr)
	}
}

func TestMustParse_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { dice.MustParse("nope") })
}

func TestRoll_WithinBounds_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 5).Draw(rt, "count")
		sides := rapid.IntRange(2, 20).Draw(rt, "sides")
		mod := rapid.IntRange(-10, 30).Draw(rt, "mod")
		seed := rapid.Uint64().Draw(rt, "seed")
		e := dice.Expression{Raw: "x", Count: count, Sides: sides, Modifier: mod}
		total := dice.Roll(e, dice.NewSeededSource(seed)).Total()
		assert.GreaterOrEqual(rt, total, e.Min())
		assert.LessOrEqual(rt, total, e.Max())
	})
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestFixedSource_CyclesModuloN(t *testing.T) {
	src := dice.NewFixedSource(3, 7)
	assert.Equal(t, 3, src.Intn(10))
	assert.Equal(t, 1, src.Intn(3))
	assert.Equal(t, 3, src.Intn(10))
}

func TestFraction_InUnitInterval_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 1_000_000).Draw(rt, "v")
		f := dice.Fraction(dice.NewFixedSource(v))
		assert.GreaterOrEqual(rt, f, 0.0)
		assert.Less(rt, f, 1.0)
	})
}

func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestSources_PanicOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewCryptoSource().Intn(0) })
	assert.Panics(t, func() { dice.NewSeededSource(1).Intn(0) })
	assert.Panics(t, func() { dice.NewFixedSource(1).Intn(0) })
}

func TestRoller_RollExpr(t *testing.T) {
	r := dice.NewLoggedRoller(dice.NewFixedSource(0), zap.NewNop())
	res, err := r.RollExpr("1d3+3")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total())

	_, err = r.RollExpr("bad")
	assert.Error(t, err)
	assert.Equal(t, 0, r.Pick("test", 4))
}
