package character

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/makavia/internal/game/ability"
	"github.com/cory-johannsen/makavia/internal/game/attribute"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
	"github.com/cory-johannsen/makavia/internal/game/world"
)

// Params describes a new player before background bonuses are applied.
type Params struct {
	Name        string            `yaml:"name"`
	Age         int               `yaml:"age"`
	Background  Background        `yaml:"background"`
	Class       Class             `yaml:"class"`
	WorldTier   world.Tier        `yaml:"world_tier"`
	Attributes  attribute.Set     `yaml:"attributes"`
	MaxHealth   float64           `yaml:"max_health"`
	MaxMana     float64           `yaml:"max_mana"`
	MaxStamina  float64           `yaml:"max_stamina"`
	MaxPiety    float64           `yaml:"max_piety"`
	Armor       float64           `yaml:"armor"`
	Damage      float64           `yaml:"damage"`
	Gold        int               `yaml:"gold"`
	SkillPoints int               `yaml:"skill_points"`
	Abilities   []ability.ID      `yaml:"abilities"`
	Inventory   []*inventory.Item `yaml:"inventory"`
	Loadout     inventory.Loadout `yaml:"loadout"`
}

// Build constructs a level 1 player at full vitals. Background bonuses are
// folded into the base attributes once; equipment bonuses are derived.
//
// Precondition: Name non-empty; Background, Class, and WorldTier valid; MaxHealth > 0.
// Postcondition: Returns a Player whose derived stats are computed, or a non-nil error.
func Build(p Params) (*Player, error) {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errEmptyName)
	}
	if !p.Background.Valid() {
		errs = append(errs, fmt.Errorf("unknown background %q", p.Background))
	}
	if !p.Class.Valid() {
		errs = append(errs, fmt.Errorf("unknown class %q", p.Class))
	}
	if !p.WorldTier.Valid() {
		errs = append(errs, fmt.Errorf("invalid world tier %d", int(p.WorldTier)))
	}
	if p.MaxHealth <= 0 {
		errs = append(errs, errors.New("max health must be > 0"))
	}
	for _, id := range p.Abilities {
		if !ability.Known(id) {
			errs = append(errs, fmt.Errorf("%w: %q", ability.ErrUnknownAbility, id))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("building player: %w", errors.Join(errs...))
	}

	base := attribute.Set{}
	for _, k := range attribute.All() {
		base[k] = p.Attributes.Get(k)
	}
	for k, v := range p.Background.Bonuses() {
		base.Add(k, v)
	}

	pl := &Player{
		name:           p.Name,
		age:            p.Age,
		background:     p.Background,
		class:          p.Class,
		worldTier:      p.WorldTier,
		gold:           max(0, p.Gold),
		level:          1,
		skillPoints:    p.SkillPoints,
		health:         p.MaxHealth,
		maxHealth:      p.MaxHealth,
		mana:           p.MaxMana,
		maxMana:        p.MaxMana,
		stamina:        p.MaxStamina,
		maxStamina:     p.MaxStamina,
		piety:          p.MaxPiety,
		maxPiety:       p.MaxPiety,
		baseArmor:      p.Armor,
		baseDamage:     p.Damage,
		baseAttributes: base,
		loadout:        inventory.Loadout{},
		abilities:      append([]ability.ID(nil), p.Abilities...),
	}
	for _, it := range p.Inventory {
		pl.AddItem(it)
	}
	for slot, id := range p.Loadout {
		if err := pl.Equip(slot, id); err != nil {
			return nil, fmt.Errorf("building player: %w", err)
		}
	}
	pl.Recompute()
	return pl, nil
}
