package inventory

import "github.com/cory-johannsen/makavia/internal/game/attribute"

// Slot identifies an equipment slot on a character.
type Slot string

const (
	SlotHead     Slot = "head"
	SlotChest    Slot = "chest"
	SlotLegs     Slot = "legs"
	SlotFeet     Slot = "feet"
	SlotHands    Slot = "hands"
	SlotMainHand Slot = "main_hand"
	SlotOffHand  Slot = "off_hand"
	SlotRing     Slot = "ring"
	SlotNeck     Slot = "neck"
)

// slotTypes maps every slot to the single item type it accepts.
var slotTypes = map[Slot]Type{
	SlotHead:     TypeArmor,
	SlotChest:    TypeArmor,
	SlotLegs:     TypeArmor,
	SlotFeet:     TypeArmor,
	SlotHands:    TypeArmor,
	SlotMainHand: TypeWeapon,
	SlotOffHand:  TypeWeapon,
	SlotRing:     TypeAccessory,
	SlotNeck:     TypeAccessory,
}

var slotDisplayNames = map[Slot]string{
	SlotHead:     "Head",
	SlotChest:    "Chest",
	SlotLegs:     "Legs",
	SlotFeet:     "Feet",
	SlotHands:    "Hands",
	SlotMainHand: "Main Hand",
	SlotOffHand:  "Off Hand",
	SlotRing:     "Ring",
	SlotNeck:     "Neck",
}

// Slots returns every equipment slot in display order.
func Slots() []Slot {
	return []Slot{SlotHead, SlotChest, SlotLegs, SlotFeet, SlotHands, SlotMainHand, SlotOffHand, SlotRing, SlotNeck}
}

// SlotsFor returns the slots that accept items of type t.
func SlotsFor(t Type) []Slot {
	var out []Slot
	for _, s := range Slots() {
		if slotTypes[s] == t {
			out = append(out, s)
		}
	}
	return out
}

// SlotAccepts reports whether slot s can hold an item of type t.
func SlotAccepts(s Slot, t Type) bool {
	want, ok := slotTypes[s]
	return ok && want == t
}

// DisplayName returns the human-readable label for the slot.
func (s Slot) DisplayName() string {
	if label, ok := slotDisplayNames[s]; ok {
		return label
	}
	return string(s)
}

// Loadout maps each occupied slot to the ID of the item equipped there.
type Loadout map[Slot]string

// Clone returns an independent copy of the loadout.
func (l Loadout) Clone() Loadout {
	out := make(Loadout, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Bonuses holds the stat contributions of everything currently equipped.
type Bonuses struct {
	Armor      float64
	Damage     float64
	Attributes attribute.Set
}

// ComputeBonuses aggregates the stat bonuses of equipped items.
//
// Items referenced by the loadout but missing from items, or whose type and slot
// do not fit the slot they occupy, contribute nothing. An off-hand weapon adds
// half its damage.
//
// Postcondition: the result depends only on items and loadout; calling it twice
// yields equal Bonuses.
func ComputeBonuses(items []*Item, loadout Loadout) Bonuses {
	byID := make(map[string]*Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	b := Bonuses{Attributes: attribute.Set{}}
	for _, slot := range Slots() {
		id, ok := loadout[slot]
		if !ok || id == "" {
			continue
		}
		it, ok := byID[id]
		if !ok || it.Slot != slot || !SlotAccepts(slot, it.Type) {
			continue
		}
		switch it.Type {
		case TypeArmor:
			b.Armor += float64(it.Armor)
		case TypeWeapon:
			if slot == SlotOffHand {
				b.Damage += float64(it.Damage) / 2
			} else {
				b.Damage += float64(it.Damage)
			}
		case TypeAccessory:
			b.Attributes.Add(it.Attribute, it.AttributeBonus)
		}
	}
	return b
}
