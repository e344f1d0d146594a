// Package character defines the player and opponent characters, their derived
// combat stats, and the progression rules for experience and abilities.
package character

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/makavia/internal/game/attribute"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
)

// ExperiencePerLevel is the experience needed to gain one level.
const ExperiencePerLevel = 100

var (
	// ErrItemNotFound is returned when an item ID is not in the inventory.
	ErrItemNotFound = errors.New("item not found in inventory")
	// ErrNoSkillPoints is returned when learning an ability without a skill point.
	ErrNoSkillPoints = errors.New("not enough skill points")
	// ErrLevelTooLow is returned when an ability's level gate is not met.
	ErrLevelTooLow = errors.New("player level is too low")
	// ErrAbilityKnown is returned when learning an ability twice.
	ErrAbilityKnown = errors.New("ability already learned")
)

// IncompatibleSlotError reports an attempt to equip an item into a slot that
// cannot hold it.
type IncompatibleSlotError struct {
	ItemID   string
	ItemType inventory.Type
	ItemSlot inventory.Slot
	Slot     inventory.Slot
}

func (e *IncompatibleSlotError) Error() string {
	return fmt.Sprintf("item %s (%s for %s) cannot be equipped in slot %s", e.ItemID, e.ItemType, e.ItemSlot, e.Slot)
}

// Background is the player's origin story; each grants fixed attribute bonuses.
type Background string

const (
	Traveler    Background = "traveler"
	Criminal    Background = "criminal"
	Soldier     Background = "soldier"
	Noble       Background = "noble"
	Sage        Background = "sage"
	Entertainer Background = "entertainer"
	Hermit      Background = "hermit"
	Devout      Background = "devout"
)

type backgroundInfo struct {
	bonuses     attribute.Set
	description string
}

var backgrounds = map[Background]backgroundInfo{
	Traveler: {attribute.Set{attribute.Intelligence: 2, attribute.Charisma: 2},
		"You are a seasoned traveler. Having left your home at a young age, you've wandered through diverse lands, gaining a deep understanding of the world and its myriad cultures."},
	Criminal: {attribute.Set{attribute.Charisma: 2, attribute.Craftsmanship: 2},
		"A fugitive from justice, you've found refuge in the shadows of Makavia. Stealth, cunning, and a certain moral flexibility could prove invaluable here."},
	Soldier: {attribute.Set{attribute.Strength: 2, attribute.Constitution: 2},
		"Discipline and valor define your past as a soldier. Your tactical acumen and combat prowess make you a formidable force on any battlefield."},
	Noble: {attribute.Set{attribute.Charisma: 2, attribute.Knowledge: 2},
		"Born into privilege and power, you understand courtly intrigue and politics, yet you yearn for a life beyond aristocratic expectations."},
	Sage: {attribute.Set{attribute.Intelligence: 2, attribute.Knowledge: 2},
		"Wisdom and knowledge are your constant companions. Your vast intellect and insight guide you through the world's complexities."},
	Entertainer: {attribute.Set{attribute.Charisma: 3, attribute.Intelligence: 1},
		"Your life has been a tapestry of performances. Your art has the power to captivate and inspire."},
	Hermit: {attribute.Set{attribute.Knowledge: 1, attribute.Intelligence: 3},
		"Solitude has been your sole companion for years, granting you unique insights at the cost of some social grace."},
	Devout: {attribute.Set{attribute.Faith: 3, attribute.Charisma: 1},
		"You've devoted your life to the service of a deity. Your faith is unwavering and drives you with purpose."},
}

// Valid reports whether b is a known background.
func (b Background) Valid() bool {
	_, ok := backgrounds[b]
	return ok
}

// Bonuses returns the attribute bonuses granted by the background.
func (b Background) Bonuses() attribute.Set { return backgrounds[b].bonuses.Clone() }

// Description returns the player-facing background text.
func (b Background) Description() string { return backgrounds[b].description }

// Class is the player's combat discipline.
type Class string

const (
	Warrior Class = "warrior"
	Rogue   Class = "rogue"
	Mage    Class = "mage"
)

// Valid reports whether c is a known class.
func (c Class) Valid() bool {
	return c == Warrior || c == Rogue || c == Mage
}
