package character

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cory-johannsen/makavia/internal/game/ability"
	"github.com/cory-johannsen/makavia/internal/game/attribute"
	"github.com/cory-johannsen/makavia/internal/game/dice"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
	"github.com/cory-johannsen/makavia/internal/game/world"
)

// Player is the single controllable character of a play session.
//
// Derived armor, damage, and attributes are recomputed from base values and the
// equipped items whenever the loadout changes. Armor buffs are tracked apart
// from the derived value so reverting a buff never drifts.
type Player struct {
	name        string
	age         int
	background  Background
	class       Class
	worldTier   world.Tier
	gold        int
	level       int
	experience  int
	skillPoints int

	health     float64
	maxHealth  float64
	mana       float64
	maxMana    float64
	stamina    float64
	maxStamina float64
	piety      float64
	maxPiety   float64

	baseArmor      float64
	baseDamage     float64
	baseAttributes attribute.Set

	armor      float64
	damage     float64
	attributes attribute.Set
	armorBuff  float64

	inventory []*inventory.Item
	loadout   inventory.Loadout
	abilities []ability.ID
}

// Outcome is the result of a player's ability use, including kill rewards.
type Outcome struct {
	Resolution       ability.Resolution
	ExperienceGained int
	LeveledUp        bool
	Loot             *inventory.Item
}

func (p *Player) Name() string           { return p.name }
func (p *Player) Age() int               { return p.age }
func (p *Player) Background() Background { return p.background }
func (p *Player) Class() Class           { return p.class }
func (p *Player) WorldTier() world.Tier  { return p.worldTier }
func (p *Player) Gold() int              { return p.gold }
func (p *Player) Level() int             { return p.level }
func (p *Player) Experience() int        { return p.experience }
func (p *Player) SkillPoints() int       { return p.skillPoints }
func (p *Player) Health() float64        { return p.health }
func (p *Player) MaxHealth() float64     { return p.maxHealth }
func (p *Player) Mana() float64          { return p.mana }
func (p *Player) Stamina() float64       { return p.stamina }
func (p *Player) Piety() float64         { return p.piety }
func (p *Player) Damage() float64        { return p.damage }

// Armor returns the current armor including active buffs.
//
// Postcondition: result >= 0.
func (p *Player) Armor() float64 { return math.Max(0, p.armor+p.armorBuff) }

// Attribute returns the derived value of attribute k.
func (p *Player) Attribute(k attribute.Kind) int { return p.attributes.Get(k) }

// Attributes returns a copy of every derived attribute value.
func (p *Player) Attributes() attribute.Set { return p.attributes.Clone() }

// Abilities returns a copy of the known ability list in learning order.
func (p *Player) Abilities() []ability.ID { return slices.Clone(p.abilities) }

// Loadout returns a copy of the slot to item ID mapping.
func (p *Player) Loadout() inventory.Loadout { return p.loadout.Clone() }

// Inventory returns copies of every owned item.
func (p *Player) Inventory() []inventory.Item {
	out := make([]inventory.Item, len(p.inventory))
	for i, it := range p.inventory {
		out[i] = *it
	}
	return out
}

// Power returns the strength the player brings to abilities scaling with k.
// Physical abilities also draw on weapon damage.
func (p *Player) Power(k attribute.Kind) float64 {
	power := float64(p.attributes.Get(k))
	if k == attribute.Strength {
		power += p.damage
	}
	return power
}

// TakeDamage applies mitigated damage and returns the amount taken.
//
// Postcondition: health is in [0, maxHealth].
func (p *Player) TakeDamage(raw, penetration float64) float64 {
	taken := MitigatedDamage(raw, p.Armor(), penetration)
	p.health = math.Max(0, p.health-taken)
	return taken
}

// Heal restores up to amount health and returns the amount actually restored.
//
// Postcondition: result == min(max(amount,0), maxHealth-healthBefore).
func (p *Player) Heal(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	before := p.health
	p.health = math.Min(p.maxHealth, p.health+amount)
	return p.health - before
}

// AdjustArmor applies a reversible armor delta. Passing the negated amount
// reverts it exactly.
func (p *Player) AdjustArmor(delta float64) { p.armorBuff += delta }

// IsDead reports whether health has reached zero.
func (p *Player) IsDead() bool { return p.health <= 0 }

// RestoreHealth sets health to maxHealth.
func (p *Player) RestoreHealth() { p.health = p.maxHealth }

// AdjustGold changes gold by delta, never dropping below zero and saturating
// at math.MaxInt.
func (p *Player) AdjustGold(delta int) {
	if delta > math.MaxInt-p.gold {
		p.gold = math.MaxInt
		return
	}
	p.gold = max(0, p.gold+delta)
}

// GainExperience adds xp and levels up as many times as the total allows,
// carrying the remainder. Each level grants one skill point.
//
// Postcondition: 0 <= Experience() < ExperiencePerLevel when xp >= 0.
// Returns true if at least one level was gained.
func (p *Player) GainExperience(xp int) bool {
	p.experience += xp
	leveled := false
	for p.experience >= ExperiencePerLevel {
		p.experience -= ExperiencePerLevel
		p.level++
		p.skillPoints++
		leveled = true
	}
	return leveled
}

// LearnAbility spends one skill point to add id to the known abilities.
//
// Postcondition: on success, id is the last known ability and SkillPoints decreased by one.
func (p *Player) LearnAbility(id ability.ID) error {
	def, err := ability.Lookup(id)
	if err != nil {
		return err
	}
	if p.skillPoints <= 0 {
		return ErrNoSkillPoints
	}
	if !def.Unlocked(p.level) {
		return fmt.Errorf("%w: %s requires level %d", ErrLevelTooLow, def.Name, def.LevelRequired)
	}
	if slices.Contains(p.abilities, id) {
		return fmt.Errorf("%w: %s", ErrAbilityKnown, def.Name)
	}
	p.abilities = append(p.abilities, id)
	p.skillPoints--
	return nil
}

// AbilityAt returns the known ability at index.
func (p *Player) AbilityAt(index int) (ability.ID, bool) {
	if index < 0 || index >= len(p.abilities) {
		return "", false
	}
	return p.abilities[index], true
}

// AddItem places a copy of it into the inventory, unequipped, and returns the copy.
func (p *Player) AddItem(it *inventory.Item) *inventory.Item {
	c := it.Clone()
	c.Equipped = false
	p.inventory = append(p.inventory, c)
	return c
}

// FindItem returns the inventory item with the given ID.
func (p *Player) FindItem(id string) (*inventory.Item, bool) {
	for _, it := range p.inventory {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// Equip places the inventory item itemID into slot, unequipping any previous occupant.
//
// Postcondition: on success Loadout()[slot] == itemID and derived stats are recomputed.
// Returns ErrItemNotFound or *IncompatibleSlotError on failure, leaving state unchanged.
func (p *Player) Equip(slot inventory.Slot, itemID string) error {
	it, ok := p.FindItem(itemID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if it.Slot != slot || !inventory.SlotAccepts(slot, it.Type) {
		return &IncompatibleSlotError{ItemID: it.ID, ItemType: it.Type, ItemSlot: it.Slot, Slot: slot}
	}
	p.loadout[slot] = itemID
	p.Recompute()
	return nil
}

// Unequip empties slot. Unequipping an empty slot is a no-op.
func (p *Player) Unequip(slot inventory.Slot) {
	delete(p.loadout, slot)
	p.Recompute()
}

// Recompute rebuilds derived armor, damage, and attributes from base values and
// equipped items, and refreshes each item's equipped flag.
//
// Postcondition: calling Recompute twice in a row leaves every derived value unchanged.
func (p *Player) Recompute() {
	b := inventory.ComputeBonuses(p.inventory, p.loadout)
	p.armor = math.Max(0, p.baseArmor+b.Armor)
	p.damage = math.Max(0, p.baseDamage+b.Damage)
	p.attributes = p.baseAttributes.Clone()
	for k, v := range b.Attributes {
		p.attributes.Add(k, v)
	}
	for _, it := range p.inventory {
		id, ok := p.loadout[it.Slot]
		it.Equipped = ok && id == it.ID && inventory.SlotAccepts(it.Slot, it.Type)
	}
}

// UseAbility invokes the known ability id against opp. A lethal damage
// resolution awards the opponent's experience and one item from its drop table.
func (p *Player) UseAbility(id ability.ID, opp *Opponent, src dice.Source) (Outcome, error) {
	if !slices.Contains(p.abilities, id) {
		return Outcome{}, fmt.Errorf("%w: %q is not known by %s", ability.ErrUnknownAbility, id, p.name)
	}
	res, err := ability.Use(id, p, opp)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Resolution: res}
	if res.Effect == ability.EffectDamage && res.Target == ability.Opponent && opp.IsDead() {
		out.ExperienceGained = opp.XPDrop
		out.LeveledUp = p.GainExperience(opp.XPDrop)
		if drop := opp.DropItem(src); drop != nil {
			out.Loot = p.AddItem(drop)
		}
	}
	return out, nil
}

var errEmptyName = errors.New("character name must not be empty")
