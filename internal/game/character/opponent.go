package character

import (
	"errors"
	"math"

	"github.com/cory-johannsen/makavia/internal/game/ability"
	"github.com/cory-johannsen/makavia/internal/game/attribute"
	"github.com/cory-johannsen/makavia/internal/game/dice"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
)

// ErrNoAbilities is returned when an opponent with no abilities must act.
var ErrNoAbilities = errors.New("opponent has no abilities")

// OpponentSpec carries the fields an opponent factory fills in.
type OpponentSpec struct {
	ID        string
	Kind      string
	Name      string
	Health    float64
	Damage    float64
	Armor     float64
	Abilities []ability.ID
	Boss      bool
	DropTable []*inventory.Item
	XPDrop    int
}

// Opponent is the character the player fights in a battle.
type Opponent struct {
	id        string
	kind      string
	name      string
	health    float64
	maxHealth float64
	damage    float64
	armor     float64
	armorBuff float64
	abilities []ability.ID
	boss      bool
	dropTable []*inventory.Item

	// XPDrop is the experience awarded for defeating the opponent.
	XPDrop int
}

// NewOpponent builds an opponent at full health.
func NewOpponent(s OpponentSpec) *Opponent {
	return &Opponent{
		id:        s.ID,
		kind:      s.Kind,
		name:      s.Name,
		health:    s.Health,
		maxHealth: s.Health,
		damage:    s.Damage,
		armor:     math.Max(0, s.Armor),
		abilities: append([]ability.ID(nil), s.Abilities...),
		boss:      s.Boss,
		dropTable: append([]*inventory.Item(nil), s.DropTable...),
		XPDrop:    s.XPDrop,
	}
}

func (o *Opponent) ID() string          { return o.id }
func (o *Opponent) Kind() string        { return o.kind }
func (o *Opponent) Name() string        { return o.name }
func (o *Opponent) Health() float64     { return o.health }
func (o *Opponent) MaxHealth() float64  { return o.maxHealth }
func (o *Opponent) BaseDamage() float64 { return o.damage }
func (o *Opponent) Boss() bool          { return o.boss }
func (o *Opponent) IsDead() bool        { return o.health <= 0 }
func (o *Opponent) DropTableSize() int  { return len(o.dropTable) }

// SetName overrides the display name, as combat encounters may do before the fight.
func (o *Opponent) SetName(name string) { o.name = name }

// Abilities returns a copy of the opponent's ability list.
func (o *Opponent) Abilities() []ability.ID { return append([]ability.ID(nil), o.abilities...) }

// Armor returns armor including active buffs.
//
// Postcondition: result >= 0.
func (o *Opponent) Armor() float64 { return math.Max(0, o.armor+o.armorBuff) }

// Power is the opponent's flat damage for every ability.
func (o *Opponent) Power(attribute.Kind) float64 { return o.damage }

// TakeDamage applies mitigated damage and returns the amount taken.
func (o *Opponent) TakeDamage(raw, penetration float64) float64 {
	taken := MitigatedDamage(raw, o.Armor(), penetration)
	o.health = math.Max(0, o.health-taken)
	return taken
}

// Heal restores up to amount health and returns the amount actually restored.
func (o *Opponent) Heal(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	before := o.health
	o.health = math.Min(o.maxHealth, o.health+amount)
	return o.health - before
}

// AdjustArmor applies a reversible armor delta.
func (o *Opponent) AdjustArmor(delta float64) { o.armorBuff += delta }

// ChooseAbility picks one known ability uniformly at random.
func (o *Opponent) ChooseAbility(src dice.Source) (ability.ID, error) {
	if len(o.abilities) == 0 {
		return "", ErrNoAbilities
	}
	return o.abilities[dice.Pick(src, len(o.abilities))], nil
}

// DropItem picks one item uniformly from the drop table, or nil when it is empty.
func (o *Opponent) DropItem(src dice.Source) *inventory.Item {
	if len(o.dropTable) == 0 {
		return nil
	}
	return o.dropTable[dice.Pick(src, len(o.dropTable))]
}
