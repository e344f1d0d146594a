// Package inventory defines items, equipment slots, and the item factory.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/makavia/internal/game/attribute"
)

// Type is the broad category of an item.
type Type string

const (
	TypeWeapon    Type = "weapon"
	TypeArmor     Type = "armor"
	TypeAccessory Type = "accessory"
)

var validTypes = map[Type]bool{TypeWeapon: true, TypeArmor: true, TypeAccessory: true}

// Rarity is the quality band of an item; higher rarities carry larger stats.
type Rarity string

const (
	Common    Rarity = "common"
	Uncommon  Rarity = "uncommon"
	Rare      Rarity = "rare"
	Epic      Rarity = "epic"
	Legendary Rarity = "legendary"
	Mythical  Rarity = "mythical"
	Artifact  Rarity = "artifact"
)

// Rarities lists every rarity from least to most valuable.
var Rarities = []Rarity{Common, Uncommon, Rare, Epic, Legendary, Mythical, Artifact}

// Rank returns the 1-based position of r in Rarities, or 0 when r is unknown.
func (r Rarity) Rank() int {
	for i, candidate := range Rarities {
		if candidate == r {
			return i + 1
		}
	}
	return 0
}

// Item is a single owned piece of equipment.
//
// Only the stat field matching Type is meaningful: Damage for weapons, Armor for
// armor, Attribute and AttributeBonus for accessories.
type Item struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Description    string         `json:"description" yaml:"description"`
	Type           Type           `json:"type" yaml:"type"`
	Rarity         Rarity         `json:"rarity" yaml:"rarity"`
	Slot           Slot           `json:"slot" yaml:"slot"`
	Tier           int            `json:"tier" yaml:"tier"`
	Damage         int            `json:"damage,omitempty" yaml:"damage"`
	Armor          int            `json:"armor,omitempty" yaml:"armor"`
	Attribute      attribute.Kind `json:"attribute,omitempty" yaml:"attribute"`
	AttributeBonus int            `json:"attribute_bonus,omitempty" yaml:"attribute_bonus"`
	Equipped       bool           `json:"equipped" yaml:"-"`
	CreatedAt      time.Time      `json:"created_at" yaml:"-"`
}

// Validate checks that the Item satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (it *Item) Validate() error {
	var errs []error
	if it.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if it.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validTypes[it.Type] {
		errs = append(errs, fmt.Errorf("Type must be one of weapon, armor, accessory; got %q", it.Type))
	}
	if it.Rarity.Rank() == 0 {
		errs = append(errs, fmt.Errorf("unknown rarity %q", it.Rarity))
	}
	if !SlotAccepts(it.Slot, it.Type) {
		errs = append(errs, fmt.Errorf("slot %q cannot hold a %s", it.Slot, it.Type))
	}
	if it.Damage < 0 || it.Armor < 0 || it.AttributeBonus < 0 {
		errs = append(errs, errors.New("stats must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q validation failed: %v", it.ID, errs)
	}
	return nil
}

// Clone returns a copy of the item.
func (it *Item) Clone() *Item {
	c := *it
	return &c
}

// LoadItems reads all *.yaml and *.yml files from dir. Each file holds a YAML list
// of items; every item is validated.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid items or the first encountered error.
func LoadItems(dir string) ([]*Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*Item
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		var batch []*Item
		if err := yaml.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("LoadItems: cannot parse file %q: %w", path, err)
		}
		for _, it := range batch {
			if err := it.Validate(); err != nil {
				return nil, fmt.Errorf("LoadItems: invalid item in %q: %w", path, err)
			}
		}
		items = append(items, batch...)
	}
	return items, nil
}
