package inventory

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/makavia/internal/game/attribute"
	"github.com/cory-johannsen/makavia/internal/game/dice"
	"github.com/cory-johannsen/makavia/internal/game/world"
)

// dropWeights holds the relative weight of each rarity per world tier, indexed
// in Rarities order.
var dropWeights = map[world.Tier][7]float64{
	world.Base:      {0.8, 0.8, 0.3, 0.1, 0.001, 0.00001, 0.000001},
	world.Advanced:  {0.4, 0.6, 0.6, 0.5, 0.1, 0.00001, 0.000001},
	world.Legendary: {0.2, 0.2, 0.3, 0.5, 0.2, 0.00001, 0.000001},
	world.Mythical:  {0.1, 0.1, 0.2, 0.5, 0.4, 0.1, 0.000001},
	world.Demonic:   {0.1, 0.1, 0.2, 0.5, 0.4, 0.3, 0.000001},
	world.Hellish:   {0.1, 0.1, 0.2, 0.5, 0.4, 0.3, 0.1},
	world.Godlike:   {0.1, 0.1, 0.2, 0.5, 0.4, 0.3, 0.2},
}

var weaponNames = []string{"Sword", "Axe", "Mace", "Dagger", "Spear", "Bow", "Crossbow", "Staff", "Wand", "Shield"}

var slotNouns = map[Slot]string{
	SlotHead:  "Helm",
	SlotChest: "Cuirass",
	SlotLegs:  "Greaves",
	SlotFeet:  "Boots",
	SlotHands: "Gauntlets",
	SlotRing:  "Ring",
	SlotNeck:  "Amulet",
}

// GenerateOption constrains a generated item.
type GenerateOption func(*generateRequest)

type generateRequest struct {
	slot Slot
	typ  Type
}

// WithSlot fixes the slot of the generated item.
func WithSlot(s Slot) GenerateOption { return func(r *generateRequest) { r.slot = s } }

// WithType fixes the type of the generated item.
func WithType(t Type) GenerateOption { return func(r *generateRequest) { r.typ = t } }

// Generator creates random items scaled to a world tier.
type Generator struct {
	roller *dice.Roller
	now    func() time.Time
}

// NewGenerator returns a Generator drawing randomness from roller.
//
// Precondition: roller must be non-nil.
func NewGenerator(roller *dice.Roller) *Generator {
	return &Generator{roller: roller, now: time.Now}
}

// Generate creates one item for the given world tier.
//
// When neither slot nor type is requested both are chosen at random. When only
// one is requested the other is chosen to fit it.
//
// Precondition: tier must be valid.
// Postcondition: the returned item passes Validate, its Tier lies within
// tier.ItemTierRange() and its stat equals round(rarity rank * tier.ItemMultiplier()).
func (g *Generator) Generate(tier world.Tier, opts ...GenerateOption) (*Item, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("generating item: invalid world tier %d", int(tier))
	}
	req := generateRequest{}
	for _, opt := range opts {
		opt(&req)
	}

	switch {
	case req.slot == "" && req.typ == "":
		types := []Type{TypeWeapon, TypeArmor, TypeAccessory}
		req.typ = types[g.roller.Pick("item type", len(types))]
		fallthrough
	case req.slot == "":
		candidates := SlotsFor(req.typ)
		if len(candidates) == 0 {
			return nil, fmt.Errorf("generating item: unknown item type %q", req.typ)
		}
		req.slot = candidates[g.roller.Pick("item slot", len(candidates))]
	case req.typ == "":
		t, ok := slotTypes[req.slot]
		if !ok {
			return nil, fmt.Errorf("generating item: unknown slot %q", req.slot)
		}
		req.typ = t
	}
	if !SlotAccepts(req.slot, req.typ) {
		return nil, fmt.Errorf("generating item: slot %q cannot hold a %s", req.slot, req.typ)
	}

	rarity := g.rollRarity(tier)
	level, err := g.roller.RollExpr(tier.ItemTierRange())
	if err != nil {
		return nil, fmt.Errorf("generating item: %w", err)
	}
	magnitude := int(math.Round(float64(rarity.Rank()) * tier.ItemMultiplier()))

	it := &Item{
		ID:          uuid.NewString(),
		Type:        req.typ,
		Rarity:      rarity,
		Slot:        req.slot,
		Tier:        level.Total(),
		Description: fmt.Sprintf("A %s %s item", rarity, req.typ),
		CreatedAt:   g.now(),
	}
	noun := slotNouns[req.slot]
	switch req.typ {
	case TypeWeapon:
		it.Damage = magnitude
		noun = weaponNames[g.roller.Pick("weapon kind", len(weaponNames))]
	case TypeArmor:
		it.Armor = magnitude
	case TypeAccessory:
		all := attribute.All()
		it.Attribute = all[g.roller.Pick("accessory attribute", len(all))]
		it.AttributeBonus = magnitude
		noun = fmt.Sprintf("%s of %s", noun, titleCase(it.Attribute.String()))
	}
	it.Name = fmt.Sprintf("%s %s", titleCase(string(rarity)), noun)
	return it, nil
}

// GenerateMany creates n items for the given tier.
func (g *Generator) GenerateMany(tier world.Tier, n int) ([]*Item, error) {
	items := make([]*Item, 0, n)
	for i := 0; i < n; i++ {
		it, err := g.Generate(tier)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// rollRarity draws a rarity with probability proportional to its tier weight.
func (g *Generator) rollRarity(tier world.Tier) Rarity {
	weights := dropWeights[tier]
	total := 0.0
	for _, w := range weights {
		total += w
	}
	roll := dice.Fraction(g.roller.Source()) * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if roll < acc {
			return Rarities[i]
		}
	}
	return Rarities[0]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
