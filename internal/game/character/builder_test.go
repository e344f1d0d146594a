package character_test

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/makavia/internal/game/ability"
	"github.com/cory-johannsen/makavia/internal/game/attribute"
	"github.com/cory-johannsen/makavia/internal/game/character"
	"github.com/cory-johannsen/makavia/internal/game/dice"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
	"github.com/cory-johannsen/makavia/internal/game/world"
)

func baseParams() character.Params {
	return character.Params{
		Name:       "Aria",
		Age:        24,
		Background: character.Soldier,
		Class:      character.Warrior,
		WorldTier:  world.Base,
		Attributes: attribute.Uniform(5),
		MaxHealth:  100,
		MaxMana:    20,
		MaxStamina: 30,
		MaxPiety:   10,
		Armor:      10,
		Damage:     2,
		Abilities:  []ability.ID{ability.Slash, ability.Heal},
	}
}

func mustBuild(t require.TestingT, p character.Params) *character.Player {
	pl, err := character.Build(p)
	require.NoError(t, err)
	return pl
}

func sword(id string, dmg int) *inventory.Item {
	return &inventory.Item{ID: id, Name: "Sword", Type: inventory.TypeWeapon, Rarity: inventory.Common, Slot: inventory.SlotMainHand, Damage: dmg}
}

func helm(id string, ac int) *inventory.Item {
	return &inventory.Item{ID: id, Name: "Helm", Type: inventory.TypeArmor, Rarity: inventory.Common, Slot: inventory.SlotHead, Armor: ac}
}

func TestBuild_AppliesBackgroundBonuses(t *testing.T) {
	p := mustBuild(t, baseParams())
	assert.Equal(t, 7, p.Attribute(attribute.Strength))
	assert.Equal(t, 7, p.Attribute(attribute.Constitution))
	assert.Equal(t, 5, p.Attribute(attribute.Faith))
	assert.Equal(t, 1, p.Level())
	assert.Equal(t, 100.0, p.Health())
}

func TestBuild_RejectsInvalidParams(t *testing.T) {
	p := baseParams()
	p.Name = ""
	p.Background = "pirate"
	p.Abilities = []ability.ID{"dance"}
	_, err := character.Build(p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ability.ErrUnknownAbility)
	assert.Contains(t, err.Error(), "pirate")
}

func TestMitigatedDamage_CapsAtNinetyPercent_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.Float64Range(0, 1000).Draw(rt, "raw")
		armor := rapid.Float64Range(0, 10000).Draw(rt, "armor")
		pen := rapid.Float64Range(0, 1).Draw(rt, "pen")
		taken := character.MitigatedDamage(raw, armor, pen)
		assert.GreaterOrEqual(rt, taken, raw*0.1-1e-9)
		assert.LessOrEqual(rt, taken, raw+1e-9)
	})
}

func TestTakeDamage_ArmorTenRawTwenty(t *testing.T) {
	p := mustBuild(t, baseParams())
	require.Equal(t, 10.0, p.Armor())
	taken := p.TakeDamage(20, 0)
	assert.InDelta(t, 18.0, taken, 1e-9)
	assert.InDelta(t, 82.0, p.Health(), 1e-9)
}

func TestTakeDamage_FloorsHealthAtZero(t *testing.T) {
	p := mustBuild(t, baseParams())
	p.TakeDamage(10000, 1)
	assert.Equal(t, 0.0, p.Health())
	assert.True(t, p.IsDead())
}

func TestHeal_NeverOverflows_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := mustBuild(rt, baseParams())
		p.TakeDamage(rapid.Float64Range(0, 150).Draw(rt, "hit"), 1)
		before := p.Health()
		amount := rapid.Float64Range(-10, 300).Draw(rt, "amount")
		healed := p.Heal(amount)
		want := 0.0
		if amount > 0 {
			want = min(amount, p.MaxHealth()-before)
		}
		assert.InDelta(rt, want, healed, 1e-9)
		assert.LessOrEqual(rt, p.Health(), p.MaxHealth())
	})
}

func TestAdjustArmor_RevertsExactly(t *testing.T) {
	p := mustBuild(t, baseParams())
	p.AdjustArmor(10)
	assert.Equal(t, 20.0, p.Armor())
	p.AdjustArmor(-10)
	assert.Equal(t, 10.0, p.Armor())
	p.AdjustArmor(-50)
	assert.Equal(t, 0.0, p.Armor())
}

func TestEquip_RecomputesDerivedStats(t *testing.T) {
	p := mustBuild(t, baseParams())
	p.AddItem(sword("s1", 4))
	p.AddItem(sword("s2", 6))
	p.AddItem(helm("h1", 3))

	require.NoError(t, p.Equip(inventory.SlotMainHand, "s1"))
	require.NoError(t, p.Equip(inventory.SlotHead, "h1"))
	assert.Equal(t, 6.0, p.Damage())
	assert.Equal(t, 13.0, p.Armor())

	require.NoError(t, p.Equip(inventory.SlotMainHand, "s2"))
	assert.Equal(t, 8.0, p.Damage())
	equipped := map[string]bool{}
	for _, it := range p.Inventory() {
		equipped[it.ID] = it.Equipped
	}
	assert.Equal(t, map[string]bool{"s1": false, "s2": true, "h1": true}, equipped)

	p.Unequip(inventory.SlotHead)
	assert.Equal(t, 10.0, p.Armor())
}

func TestEquip_Errors(t *testing.T) {
	p := mustBuild(t, baseParams())
	p.AddItem(helm("h1", 3))

	err := p.Equip(inventory.SlotHead, "missing")
	assert.ErrorIs(t, err, character.ErrItemNotFound)

	err = p.Equip(inventory.SlotMainHand, "h1")
	var slotErr *character.IncompatibleSlotError
	require.True(t, errors.As(err, &slotErr))
	assert.Equal(t, inventory.SlotMainHand, slotErr.Slot)
	assert.Empty(t, p.Loadout())
}

func TestRecompute_Idempotent_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := mustBuild(rt, baseParams())
		p.AddItem(sword("s", rapid.IntRange(0, 40).Draw(rt, "dmg")))
		p.AddItem(helm("h", rapid.IntRange(0, 40).Draw(rt, "ac")))
		if rapid.Bool().Draw(rt, "equipSword") {
			require.NoError(rt, p.Equip(inventory.SlotMainHand, "s"))
		}
		if rapid.Bool().Draw(rt, "equipHelm") {
			require.NoError(rt, p.Equip(inventory.SlotHead, "h"))
		}
		first := p.State()
		p.Recompute()
		p.Recompute()
		assert.Equal(rt, first, p.State())
	})
}

func TestGainExperience_CarriesRemainder(t *testing.T) {
	p := mustBuild(t, baseParams())
	assert.False(t, p.GainExperience(95))
	assert.True(t, p.GainExperience(6))
	assert.Equal(t, 2, p.Level())
	assert.Equal(t, 1, p.Experience())
	assert.Equal(t, 1, p.SkillPoints())

	assert.True(t, p.GainExperience(250))
	assert.Equal(t, 4, p.Level())
	assert.Equal(t, 51, p.Experience())
	assert.Equal(t, 3, p.SkillPoints())
}

func TestLearnAbility(t *testing.T) {
	p := mustBuild(t, baseParams())
	assert.ErrorIs(t, p.LearnAbility(ability.Fireball), character.ErrNoSkillPoints)

	p.GainExperience(100)
	assert.ErrorIs(t, p.LearnAbility(ability.Smite), character.ErrLevelTooLow)
	assert.ErrorIs(t, p.LearnAbility(ability.Slash), character.ErrAbilityKnown)
	require.NoError(t, p.LearnAbility(ability.ArmorOfLight))
	assert.Equal(t, []ability.ID{ability.Slash, ability.Heal, ability.ArmorOfLight}, p.Abilities())
	assert.Equal(t, 0, p.SkillPoints())
}

func TestUseAbility_KillingBlowAwardsExperienceAndLoot(t *testing.T) {
	p := mustBuild(t, baseParams())
	p.GainExperience(95)
	loot := []*inventory.Item{sword("loot-a", 1), helm("loot-b", 1)}
	opp := character.NewOpponent(character.OpponentSpec{
		Name: "Goblin", Health: 5, Damage: 1, Abilities: []ability.ID{ability.Slash},
		DropTable: loot, XPDrop: 6,
	})

	out, err := p.UseAbility(ability.Slash, opp, dice.NewFixedSource(1))
	require.NoError(t, err)
	assert.True(t, opp.IsDead())
	assert.Equal(t, 6, out.ExperienceGained)
	assert.True(t, out.LeveledUp)
	assert.Equal(t, 2, p.Level())
	assert.Equal(t, 1, p.Experience())
	assert.Equal(t, 1, p.SkillPoints())
	require.NotNil(t, out.Loot)
	assert.Equal(t, "loot-b", out.Loot.ID)
	assert.Len(t, p.Inventory(), 1)
}

func TestUseAbility_UnknownToPlayer(t *testing.T) {
	p := mustBuild(t, baseParams())
	opp := character.NewOpponent(character.OpponentSpec{Name: "Goblin", Health: 5})
	_, err := p.UseAbility(ability.Fireball, opp, dice.NewFixedSource(0))
	assert.ErrorIs(t, err, ability.ErrUnknownAbility)
}

func TestOpponent_ChooseAbilityAndDrop(t *testing.T) {
	opp := character.NewOpponent(character.OpponentSpec{Name: "Troll", Health: 18,
		Abilities: []ability.ID{ability.Slash, ability.Stab, ability.Fireball}})
	id, err := opp.ChooseAbility(dice.NewFixedSource(2))
	require.NoError(t, err)
	assert.Equal(t, ability.Fireball, id)
	assert.Nil(t, opp.DropItem(dice.NewFixedSource(0)))

	empty := character.NewOpponent(character.OpponentSpec{Name: "Rock"})
	_, err = empty.ChooseAbility(dice.NewFixedSource(0))
	assert.ErrorIs(t, err, character.ErrNoAbilities)
}

func TestState_RoundTrip(t *testing.T) {
	p := mustBuild(t, baseParams())
	p.AddItem(sword("s1", 4))
	require.NoError(t, p.Equip(inventory.SlotMainHand, "s1"))
	p.GainExperience(130)
	p.TakeDamage(25, 0)
	p.AdjustGold(42)

	state := p.State()
	b, err := json.Marshal(state)
	require.NoError(t, err)
	var decoded character.PlayerState
	require.NoError(t, json.Unmarshal(b, &decoded))

	restored, err := character.FromState(decoded)
	require.NoError(t, err)
	assert.Equal(t, state, restored.State())
}

func TestState_IsDefensiveCopy(t *testing.T) {
	p := mustBuild(t, baseParams())
	p.AddItem(helm("h", 2))
	s := p.State()
	s.BaseAttributes[attribute.Strength] = 99
	s.Abilities[0] = ability.Fireball
	s.Inventory[0].Armor = 99
	assert.Equal(t, 7, p.Attribute(attribute.Strength))
	assert.Equal(t, ability.Slash, p.Abilities()[0])
	assert.Equal(t, 2, p.Inventory()[0].Armor)
}

func TestAdjustGold_FlooredAtZero(t *testing.T) {
	p := mustBuild(t, baseParams())
	p.AdjustGold(10)
	p.AdjustGold(-25)
	assert.Equal(t, 0, p.Gold())
}

func TestAdjustGold_SaturatesAtMaxInt(t *testing.T) {
	p := mustBuild(t, baseParams())
	p.AdjustGold(10)
	p.AdjustGold(math.MaxInt)
	assert.Equal(t, math.MaxInt, p.Gold())
	p.AdjustGold(math.MaxInt)
	assert.Equal(t, math.MaxInt, p.Gold())
	p.AdjustGold(math.MinInt)
	assert.Equal(t, 0, p.Gold())
}

func TestLoadPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Kael
age: 30
background: devout
class: mage
world_tier: advanced
attributes:
  faith: 4
  intelligence: 6
max_health: 60
armor: 5
abilities: [fireball, heal]
inventory:
  - id: staff
    name: Oak Staff
    type: weapon
    rarity: common
    slot: main_hand
    damage: 2
loadout:
  main_hand: staff
`), 0644))
	p, err := character.LoadPreset(path)
	require.NoError(t, err)
	assert.Equal(t, "Kael", p.Name())
	assert.Equal(t, world.Advanced, p.WorldTier())
	assert.Equal(t, 7, p.Attribute(attribute.Faith))
	assert.Equal(t, 2.0, p.Damage())
	assert.Equal(t, []ability.ID{ability.Fireball, ability.Heal}, p.Abilities())
}
