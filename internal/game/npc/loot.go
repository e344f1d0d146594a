package npc

import (
	"fmt"

	"github.com/cory-johannsen/makavia/internal/game/inventory"
	"github.com/cory-johannsen/makavia/internal/game/world"
)

// DefaultDropTableSize is the number of items generated for a template without
// an explicit loot table.
const DefaultDropTableSize = 5

// LootTable controls the drop table generated for each opponent of a template.
type LootTable struct {
	// Size is the number of items in the drop table.
	Size int `yaml:"size"`
	// Types restricts generated items to these types. Empty means any type.
	Types []inventory.Type `yaml:"types"`
}

// Validate checks that the loot table satisfies its invariants.
func (lt *LootTable) Validate() error {
	if lt.Size < 0 {
		return fmt.Errorf("loot table: size must be >= 0, got %d", lt.Size)
	}
	for i, t := range lt.Types {
		if len(inventory.SlotsFor(t)) == 0 {
			return fmt.Errorf("loot table: types[%d] %q is not an item type", i, t)
		}
	}
	return nil
}

// ItemFactory creates a single item for a world tier.
type ItemFactory interface {
	Generate(tier world.Tier, opts ...inventory.GenerateOption) (*inventory.Item, error)
}

// GenerateDropTable builds the fixed drop table for one opponent.
//
// Postcondition: len(result) == lt.Size (or DefaultDropTableSize when lt is nil).
func GenerateDropTable(lt *LootTable, tier world.Tier, items ItemFactory, pick func(n int) int) ([]*inventory.Item, error) {
	size := DefaultDropTableSize
	var types []inventory.Type
	if lt != nil {
		size, types = lt.Size, lt.Types
	}
	table := make([]*inventory.Item, 0, size)
	for i := 0; i < size; i++ {
		var opts []inventory.GenerateOption
		if len(types) > 0 {
			opts = append(opts, inventory.WithType(types[pick(len(types))]))
		}
		it, err := items.Generate(tier, opts...)
		if err != nil {
			return nil, fmt.Errorf("generating drop table: %w", err)
		}
		table = append(table, it)
	}
	return table, nil
}
