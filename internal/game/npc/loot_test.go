package npc_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/makavia/internal/game/dice"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
	"github.com/cory-johannsen/makavia/internal/game/npc"
	"github.com/cory-johannsen/makavia/internal/game/world"
)

func newFactory(seed uint64, templates []*npc.Template) *npc.Generator {
	roller := dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())
	return npc.NewGenerator(templates, inventory.NewGenerator(roller), roller, zap.NewNop())
}

func TestGenerateDropTable_RespectsTypes(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewSeededSource(3), nil)
	items := inventory.NewGenerator(roller)
	table, err := npc.GenerateDropTable(&npc.LootTable{Size: 4, Types: []inventory.Type{inventory.TypeArmor}},
		world.Base, items, dice.NewSeededSource(3).Intn)
	require.NoError(t, err)
	require.Len(t, table, 4)
	for _, it := range table {
		assert.Equal(t, inventory.TypeArmor, it.Type)
	}

	table, err = npc.GenerateDropTable(nil, world.Base, items, dice.NewSeededSource(3).Intn)
	require.NoError(t, err)
	assert.Len(t, table, npc.DefaultDropTableSize)
}

func TestGenerator_ScalesToTier_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tier := world.Tier(rapid.IntRange(0, 6).Draw(rt, "tier"))
		count := rapid.IntRange(1, 4).Draw(rt, "count")
		g := newFactory(rapid.Uint64().Draw(rt, "seed"), npc.DefaultTemplates())

		opps, err := g.Generate(tier, count)
		require.NoError(rt, err)
		require.Len(rt, opps, count)
		scale := tier.OpponentScaling()
		for _, o := range opps {
			tmpl, ok := g.Template(o.Kind())
			require.True(rt, ok)
			assert.Equal(rt, math.Round(tmpl.Health*scale.Health), o.MaxHealth())
			assert.Equal(rt, o.MaxHealth(), o.Health())
			assert.Equal(rt, math.Round(tmpl.Damage*scale.Damage), o.BaseDamage())
			assert.Equal(rt, int(math.Round(float64(tmpl.XP)*scale.Experience)), o.XPDrop)
			assert.Equal(rt, npc.DefaultDropTableSize, o.DropTableSize())
			assert.NotEmpty(rt, o.ID())
		}
	})
}

func TestGenerator_GenerateKind(t *testing.T) {
	g := newFactory(5, npc.DefaultTemplates())

	opp, err := g.GenerateKind(world.Base, "troll", true)
	require.NoError(t, err)
	assert.Equal(t, "troll", opp.Kind())
	assert.Equal(t, "Troll", opp.Name())
	assert.True(t, opp.Boss())
	assert.Equal(t, 7.0, opp.Armor())
	tmpl, _ := g.Template("troll")
	assert.False(t, tmpl.Boss, "boss override must not leak into the template")

	opp, err = g.GenerateKind(world.Base, "unicorn", false)
	require.NoError(t, err)
	_, known := g.Template(opp.Kind())
	assert.True(t, known)
}

// countingSource counts the random draws made through it.
type countingSource struct {
	dice.Source
	draws int
}

func (c *countingSource) Intn(n int) int {
	c.draws++
	return c.Source.Intn(n)
}

func TestGenerator_UnknownKindSpawnsOnce(t *testing.T) {
	viaKind := &countingSource{Source: dice.NewSeededSource(11)}
	roller := dice.NewLoggedRoller(viaKind, nil)
	g := npc.NewGenerator(npc.DefaultTemplates(), inventory.NewGenerator(roller), roller, nil)

	direct := &countingSource{Source: dice.NewSeededSource(11)}
	roller2 := dice.NewLoggedRoller(direct, nil)
	g2 := npc.NewGenerator(npc.DefaultTemplates(), inventory.NewGenerator(roller2), roller2, nil)

	for _, kind := range []string{"unicorn", ""} {
		opp, err := g.GenerateKind(world.Advanced, kind, false)
		require.NoError(t, err)
		want, err := g2.Generate(world.Advanced, 1)
		require.NoError(t, err)

		assert.Equal(t, want[0].Kind(), opp.Kind(), "kind %q", kind)
		assert.Equal(t, want[0].MaxHealth(), opp.MaxHealth())
		assert.Equal(t, npc.DefaultDropTableSize, opp.DropTableSize())
		assert.Equal(t, direct.draws, viaKind.draws, "one template pick and one drop table per opponent")
	}
}

func TestGenerator_NoTemplates(t *testing.T) {
	g := newFactory(1, nil)
	_, err := g.Generate(world.Base, 1)
	assert.ErrorIs(t, err, npc.ErrNoTemplates)
	_, err = g.GenerateKind(world.Base, "goblin", false)
	assert.ErrorIs(t, err, npc.ErrNoTemplates)
}
