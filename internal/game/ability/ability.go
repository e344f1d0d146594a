// Package ability defines the closed set of combat abilities and the resolutions
// they produce.
//
// Abilities are stateless: each one maps to a pure resolve function over
// (actor, target). Applying damage and healing is done by Use; timed stat buffs
// are left to the combat engine, which owns their lifetime.
package ability

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/makavia/internal/game/attribute"
)

// ErrUnknownAbility is returned when an ability ID has no registered behaviour.
var ErrUnknownAbility = errors.New("unknown ability")

// Category tags the broad role of an ability.
type Category string

const (
	Attack   Category = "attack"
	Defend   Category = "defend"
	Blessing Category = "blessing"
	Curse    Category = "curse"
	Special  Category = "special"
	Passive  Category = "passive"
)

// ID names an ability in the catalog.
type ID string

const (
	Slash        ID = "slash"
	Stab         ID = "stab"
	Fireball     ID = "fireball"
	Heal         ID = "heal"
	Poison       ID = "poison"
	ArmorOfLight ID = "armor_of_light"
	Guard        ID = "guard"
	Smite        ID = "smite"
)

// Effect is the kind of change a resolution describes.
type Effect string

const (
	EffectDamage Effect = "damage"
	EffectHeal   Effect = "heal"
	EffectBuff   Effect = "buff"
)

// Side is the recipient of a resolution relative to the actor.
type Side string

const (
	Self     Side = "self"
	Opponent Side = "opponent"
)

// StatArmor is the only stat that buffs currently modify.
const StatArmor = "armor"

// Resolution is the structured outcome of one ability invocation.
//
// For damage, Amount is the raw damage before mitigation until Use replaces it
// with the damage actually taken. For heal, Use replaces it with the health
// actually restored.
type Resolution struct {
	AbilityID   ID      `json:"ability_id"`
	Name        string  `json:"name"`
	Effect      Effect  `json:"effect"`
	Amount      float64 `json:"amount"`
	Target      Side    `json:"target"`
	Duration    int     `json:"duration,omitempty"`
	Stat        string  `json:"stat,omitempty"`
	Penetration float64 `json:"penetration,omitempty"`
}

// Combatant is the view of a character that abilities act upon.
type Combatant interface {
	Name() string
	// Power returns the offensive strength the combatant brings for abilities
	// scaling with attribute k.
	Power(k attribute.Kind) float64
	// TakeDamage applies mitigated damage and returns the amount actually taken.
	TakeDamage(raw, penetration float64) float64
	// Heal restores health up to the maximum and returns the amount actually restored.
	Heal(amount float64) float64
}

// Ability is the static description of one catalog entry.
type Ability struct {
	ID            ID       `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Category      Category `json:"category" yaml:"category"`
	Description   string   `json:"description" yaml:"description"`
	LevelRequired int      `json:"level_required" yaml:"level_required"`
}

// Unlocked reports whether a character at level may learn the ability.
func (a Ability) Unlocked(level int) bool { return level >= a.LevelRequired }

// Resolve computes the resolution of ability id for actor against target
// without mutating either.
//
// Postcondition: returns ErrUnknownAbility when id is not in the catalog.
func Resolve(id ID, actor, target Combatant) (Resolution, error) {
	e, ok := catalog[id]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownAbility, id)
	}
	r := e.resolve(actor, target)
	r.AbilityID = id
	r.Name = e.def.Name
	return r, nil
}

// Use resolves ability id and applies its damage or heal to the recipient.
//
// Buff resolutions are returned unapplied.
//
// Postcondition: for damage and heal, the returned Amount is the value actually
// applied to the recipient.
func Use(id ID, actor, target Combatant) (Resolution, error) {
	r, err := Resolve(id, actor, target)
	if err != nil {
		return Resolution{}, err
	}
	recipient := target
	if r.Target == Self {
		recipient = actor
	}
	switch r.Effect {
	case EffectDamage:
		r.Amount = recipient.TakeDamage(r.Amount, r.Penetration)
	case EffectHeal:
		r.Amount = recipient.Heal(r.Amount)
	}
	return r, nil
}
