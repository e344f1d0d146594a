// Package attribute defines the seven character attributes and the sets that hold them.
package attribute

import (
	"fmt"
	"strings"
)

// Kind names one of the seven character attributes.
type Kind int

const (
	Strength Kind = iota
	Intelligence
	Constitution
	Charisma
	Faith
	Craftsmanship
	Knowledge
)

var names = [...]string{
	Strength:      "strength",
	Intelligence:  "intelligence",
	Constitution:  "constitution",
	Charisma:      "charisma",
	Faith:         "faith",
	Craftsmanship: "craftsmanship",
	Knowledge:     "knowledge",
}

var descriptions = [...]string{
	Strength:      "Raw physical power. Increases melee damage and carrying capacity.",
	Intelligence:  "Mental acuity. Increases spell damage and the potency of arcane abilities.",
	Constitution:  "Toughness and stamina. Increases maximum health and resistance to effects.",
	Charisma:      "Force of personality. Improves persuasion, prices, and companion loyalty.",
	Faith:         "Devotion to a higher power. Empowers blessings, curses, and healing.",
	Craftsmanship: "Skill with tools. Improves crafting, repair, and item upkeep.",
	Knowledge:     "Learning and lore. Unlocks dialogue options and reveals secrets.",
}

// All returns every attribute kind in declaration order.
func All() []Kind {
	return []Kind{Strength, Intelligence, Constitution, Charisma, Faith, Craftsmanship, Knowledge}
}

// Valid reports whether k is one of the seven declared kinds.
func (k Kind) Valid() bool { return k >= Strength && k <= Knowledge }

// String returns the lower-case attribute name.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("attribute(%d)", int(k))
	}
	return names[k]
}

// Description returns the player-facing explanation of the attribute.
func (k Kind) Description() string {
	if !k.Valid() {
		return ""
	}
	return descriptions[k]
}

// Parse converts a case-insensitive attribute name into a Kind.
//
// Postcondition: Returns a valid Kind or a non-nil error.
func Parse(s string) (Kind, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for k, n := range names {
		if n == needle {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown attribute %q", s)
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid attribute %d", int(k))
	}
	return []byte(names[k]), nil
}

// UnmarshalText decodes a kind from its name.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Set maps attribute kinds to integer scores. Missing kinds read as zero.
type Set map[Kind]int

// Get returns the score for k, or zero when absent.
func (s Set) Get(k Kind) int { return s[k] }

// Add increases the score for k by delta.
//
// Precondition: s must be non-nil.
func (s Set) Add(k Kind, delta int) { s[k] += delta }

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Uniform returns a Set holding value for every attribute.
func Uniform(value int) Set {
	out := make(Set, len(names))
	for _, k := range All() {
		out[k] = value
	}
	return out
}
