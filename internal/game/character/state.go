package character

import (
	"fmt"
	"math"
	"slices"

	"github.com/cory-johannsen/makavia/internal/game/ability"
	"github.com/cory-johannsen/makavia/internal/game/attribute"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
	"github.com/cory-johannsen/makavia/internal/game/world"
)

// PlayerState is the serializable snapshot of a Player. It shares no memory
// with the Player it was taken from.
type PlayerState struct {
	Name           string            `json:"name"`
	Age            int               `json:"age"`
	Background     Background        `json:"background"`
	Class          Class             `json:"class"`
	WorldTier      world.Tier        `json:"world_tier"`
	Gold           int               `json:"gold"`
	Level          int               `json:"level"`
	Experience     int               `json:"experience"`
	SkillPoints    int               `json:"skill_points"`
	Health         float64           `json:"health"`
	MaxHealth      float64           `json:"max_health"`
	Mana           float64           `json:"mana"`
	MaxMana        float64           `json:"max_mana"`
	Stamina        float64           `json:"stamina"`
	MaxStamina     float64           `json:"max_stamina"`
	Piety          float64           `json:"piety"`
	MaxPiety       float64           `json:"max_piety"`
	BaseArmor      float64           `json:"base_armor"`
	BaseDamage     float64           `json:"base_damage"`
	BaseAttributes attribute.Set     `json:"base_attributes"`
	Armor          float64           `json:"armor"`
	Damage         float64           `json:"damage"`
	Attributes     attribute.Set     `json:"attributes"`
	Inventory      []inventory.Item  `json:"inventory"`
	Loadout        inventory.Loadout `json:"loadout"`
	Abilities      []ability.ID      `json:"abilities"`
}

// State returns a defensive copy of the player's full state. Active armor buffs
// are battle-scoped and not included.
func (p *Player) State() PlayerState {
	return PlayerState{
		Name:           p.name,
		Age:            p.age,
		Background:     p.background,
		Class:          p.class,
		WorldTier:      p.worldTier,
		Gold:           p.gold,
		Level:          p.level,
		Experience:     p.experience,
		SkillPoints:    p.skillPoints,
		Health:         p.health,
		MaxHealth:      p.maxHealth,
		Mana:           p.mana,
		MaxMana:        p.maxMana,
		Stamina:        p.stamina,
		MaxStamina:     p.maxStamina,
		Piety:          p.piety,
		MaxPiety:       p.maxPiety,
		BaseArmor:      p.baseArmor,
		BaseDamage:     p.baseDamage,
		BaseAttributes: p.baseAttributes.Clone(),
		Armor:          p.armor,
		Damage:         p.damage,
		Attributes:     p.attributes.Clone(),
		Inventory:      p.Inventory(),
		Loadout:        p.loadout.Clone(),
		Abilities:      slices.Clone(p.abilities),
	}
}

// FromState rebuilds a Player from a snapshot. Derived stats are recomputed
// from the base values rather than trusted.
//
// Postcondition: FromState(p.State()).State() equals p.State() for any player
// without active buffs.
func FromState(s PlayerState) (*Player, error) {
	if s.Name == "" {
		return nil, errEmptyName
	}
	for _, id := range s.Abilities {
		if !ability.Known(id) {
			return nil, fmt.Errorf("restoring player: %w: %q", ability.ErrUnknownAbility, id)
		}
	}
	p := &Player{
		name:           s.Name,
		age:            s.Age,
		background:     s.Background,
		class:          s.Class,
		worldTier:      s.WorldTier,
		gold:           max(0, s.Gold),
		level:          max(1, s.Level),
		experience:     s.Experience,
		skillPoints:    s.SkillPoints,
		maxHealth:      s.MaxHealth,
		health:         math.Min(math.Max(0, s.Health), s.MaxHealth),
		mana:           s.Mana,
		maxMana:        s.MaxMana,
		stamina:        s.Stamina,
		maxStamina:     s.MaxStamina,
		piety:          s.Piety,
		maxPiety:       s.MaxPiety,
		baseArmor:      s.BaseArmor,
		baseDamage:     s.BaseDamage,
		baseAttributes: s.BaseAttributes.Clone(),
		loadout:        inventory.Loadout{},
		abilities:      slices.Clone(s.Abilities),
	}
	for i := range s.Inventory {
		it := s.Inventory[i]
		p.inventory = append(p.inventory, &it)
	}
	for slot, id := range s.Loadout {
		if err := p.Equip(slot, id); err != nil {
			return nil, fmt.Errorf("restoring player: %w", err)
		}
	}
	p.Recompute()
	return p, nil
}
