package ability

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/makavia/internal/game/attribute"
)

type resolveFunc func(actor, target Combatant) Resolution

type entry struct {
	def     Ability
	resolve resolveFunc
}

func strike(k attribute.Kind, penetration float64) resolveFunc {
	return func(actor, _ Combatant) Resolution {
		return Resolution{
			Effect:      EffectDamage,
			Amount:      actor.Power(k) * 2,
			Target:      Opponent,
			Penetration: penetration,
		}
	}
}

func armorBuff(amount func(actor Combatant) float64, turns int) resolveFunc {
	return func(actor, _ Combatant) Resolution {
		return Resolution{
			Effect:   EffectBuff,
			Amount:   amount(actor),
			Target:   Self,
			Duration: turns,
			Stat:     StatArmor,
		}
	}
}

var catalog = map[ID]entry{
	Slash: {
		def:     Ability{ID: Slash, Name: "Slash", Category: Attack, Description: "Slash your enemy with your sword.", LevelRequired: 1},
		resolve: strike(attribute.Strength, 0),
	},
	Stab: {
		def:     Ability{ID: Stab, Name: "Stab", Category: Attack, Description: "Stab your enemy with your dagger.", LevelRequired: 1},
		resolve: strike(attribute.Strength, 0),
	},
	Fireball: {
		def:     Ability{ID: Fireball, Name: "Fireball", Category: Attack, Description: "Throw a fireball that burns through half of the target's armor.", LevelRequired: 1},
		resolve: strike(attribute.Intelligence, 0.5),
	},
	Poison: {
		def:     Ability{ID: Poison, Name: "Poison", Category: Curse, Description: "Curse your enemy with a venom that ignores half of their armor.", LevelRequired: 2},
		resolve: strike(attribute.Faith, 0.5),
	},
	Smite: {
		def: Ability{ID: Smite, Name: "Smite", Category: Special, Description: "Call down holy wrath, striking with both arm and faith.", LevelRequired: 3},
		resolve: func(actor, _ Combatant) Resolution {
			return Resolution{
				Effect:      EffectDamage,
				Amount:      actor.Power(attribute.Strength) + actor.Power(attribute.Faith),
				Target:      Opponent,
				Penetration: 0.25,
			}
		},
	},
	Heal: {
		def: Ability{ID: Heal, Name: "Heal", Category: Blessing, Description: "Heal yourself.", LevelRequired: 2},
		resolve: func(actor, _ Combatant) Resolution {
			return Resolution{Effect: EffectHeal, Amount: actor.Power(attribute.Faith) * 2, Target: Self}
		},
	},
	ArmorOfLight: {
		def:     Ability{ID: ArmorOfLight, Name: "Armor of Light", Category: Blessing, Description: "Boost your armor by 10 for 2 turns.", LevelRequired: 2},
		resolve: armorBuff(func(Combatant) float64 { return 10 }, 2),
	},
	Guard: {
		def:     Ability{ID: Guard, Name: "Guard", Category: Defend, Description: "Brace yourself, adding your constitution to your armor for 2 turns.", LevelRequired: 1},
		resolve: armorBuff(func(actor Combatant) float64 { return actor.Power(attribute.Constitution) }, 2),
	},
}

// Lookup returns the static description of ability id.
func Lookup(id ID) (Ability, error) {
	e, ok := catalog[id]
	if !ok {
		return Ability{}, fmt.Errorf("%w: %q", ErrUnknownAbility, id)
	}
	return e.def, nil
}

// Known reports whether id is in the catalog.
func Known(id ID) bool {
	_, ok := catalog[id]
	return ok
}

// Catalog returns every ability description sorted by level then ID.
func Catalog() []Ability {
	out := make([]Ability, 0, len(catalog))
	for _, e := range catalog {
		out = append(out, e.def)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LevelRequired != out[j].LevelRequired {
			return out[i].LevelRequired < out[j].LevelRequired
		}
		return out[i].ID < out[j].ID
	})
	return out
}
