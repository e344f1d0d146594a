// Package world defines the world tier, the global difficulty setting that scales
// generated items and opponents.
package world

import (
	"fmt"
	"strings"
)

// Tier is the world difficulty tier chosen for a character.
type Tier int

const (
	Base Tier = iota
	Advanced
	Legendary
	Mythical
	Demonic
	Hellish
	Godlike
)

// OpponentScaling holds the multipliers applied to an opponent template.
type OpponentScaling struct {
	Health     float64
	Damage     float64
	Armor      float64
	Experience float64
}

type tierInfo struct {
	name        string
	description string
	itemMult    float64
	opponent    float64
	itemTier    string
}

var tiers = [...]tierInfo{
	Base: {"base", "Here you start your journey. You will find gear with a quality of 1-3. With some luck you might find uncommon items.",
		1, 1.1, "1d3"},
	Advanced: {"advanced", "Gear with a quality of 4-6 can be found. You might also discover epic items now.",
		1.5, 1.3, "1d3+3"},
	Legendary: {"legendary", "Gear with a quality of 7-9 can be found. You might also discover some legendary items.",
		2, 2, "1d3+6"},
	Mythical: {"mythical", "Gear with a quality of 10-12 can be found. You might also discover some mythical items. And legendary items are more common.",
		2.5, 2.4, "1d3+9"},
	Demonic: {"demonic", "Gear with a quality of 13-15 can be found. Legendary and mythical items are more common.",
		3, 3, "1d3+12"},
	Hellish: {"hellish", "Gear with quality 15+ can be found. It is now possible to craft legendary items.",
		3.5, 4, "1d15+15"},
	Godlike: {"godlike", "Gear with quality 20+ can be found. Artifact items are now available.",
		4, 5, "1d11+19"},
}

// All returns every tier from easiest to hardest.
func All() []Tier {
	return []Tier{Base, Advanced, Legendary, Mythical, Demonic, Hellish, Godlike}
}

// Valid reports whether t is a declared tier.
func (t Tier) Valid() bool { return t >= Base && t <= Godlike }

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tiers[t].name
}

// Description returns the player-facing summary of what the tier offers.
func (t Tier) Description() string {
	if !t.Valid() {
		return ""
	}
	return tiers[t].description
}

// ItemMultiplier scales the base magnitude of generated item stats.
//
// Postcondition: result >= 1 for every valid tier.
func (t Tier) ItemMultiplier() float64 {
	if !t.Valid() {
		return 1
	}
	return tiers[t].itemMult
}

// OpponentScaling returns the multipliers the opponent factory applies to templates.
// Experience scaling is flat across tiers.
func (t Tier) OpponentScaling() OpponentScaling {
	m := 1.0
	if t.Valid() {
		m = tiers[t].opponent
	}
	return OpponentScaling{Health: m, Damage: m, Armor: m, Experience: 1.1}
}

// ItemTierRange returns the dice expression that rolls an item quality tier.
func (t Tier) ItemTierRange() string {
	if !t.Valid() {
		return tiers[Base].itemTier
	}
	return tiers[t].itemTier
}

// Parse converts a case-insensitive tier name into a Tier.
func Parse(s string) (Tier, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for i, info := range tiers {
		if info.name == needle {
			return Tier(i), nil
		}
	}
	return Base, fmt.Errorf("unknown world tier %q", s)
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid world tier %d", int(t))
	}
	return []byte(tiers[t].name), nil
}

// UnmarshalText decodes a tier from its name.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
