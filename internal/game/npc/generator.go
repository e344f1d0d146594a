package npc

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/makavia/internal/game/character"
	"github.com/cory-johannsen/makavia/internal/game/dice"
	"github.com/cory-johannsen/makavia/internal/game/world"
)

// ErrNoTemplates is returned when the factory has no templates to draw from.
var ErrNoTemplates = errors.New("no opponent templates registered")

// Generator is the opponent factory. It picks templates, scales them to the
// world tier, and gives each opponent a freshly generated drop table.
type Generator struct {
	templates []*Template
	byID      map[string]*Template
	items     ItemFactory
	roller    *dice.Roller
	logger    *zap.Logger
}

// NewGenerator creates a factory over templates.
//
// Precondition: items and roller must be non-nil; every template must have passed Validate.
func NewGenerator(templates []*Template, items ItemFactory, roller *dice.Roller, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	byID := make(map[string]*Template, len(templates))
	for _, t := range templates {
		byID[t.ID] = t
	}
	return &Generator{templates: templates, byID: byID, items: items, roller: roller, logger: logger}
}

// Template returns the template registered under id.
func (g *Generator) Template(id string) (*Template, bool) {
	t, ok := g.byID[id]
	return t, ok
}

// Generate creates count opponents from randomly chosen templates.
//
// Postcondition: len(result) == count on success; every opponent is at full health.
func (g *Generator) Generate(tier world.Tier, count int) ([]*character.Opponent, error) {
	if len(g.templates) == 0 {
		return nil, ErrNoTemplates
	}
	out := make([]*character.Opponent, 0, count)
	for i := 0; i < count; i++ {
		t := g.templates[g.roller.Pick("opponent template", len(g.templates))]
		opp, err := g.spawn(t, tier)
		if err != nil {
			return nil, err
		}
		out = append(out, opp)
	}
	return out, nil
}

// GenerateKind creates one opponent of the template named kind, falling back to
// a random template when kind is empty or unknown. A boss flag on the encounter
// overrides the template.
func (g *Generator) GenerateKind(tier world.Tier, kind string, boss bool) (*character.Opponent, error) {
	t, ok := g.byID[kind]
	if !ok {
		if len(g.templates) == 0 {
			return nil, ErrNoTemplates
		}
		if kind != "" {
			g.logger.Warn("unknown opponent kind; picking at random", zap.String("kind", kind))
		}
		t = g.templates[g.roller.Pick("opponent template", len(g.templates))]
	}
	if boss && !t.Boss {
		bt := *t
		bt.Boss = true
		t = &bt
	}
	return g.spawn(t, tier)
}

func (g *Generator) spawn(t *Template, tier world.Tier) (*character.Opponent, error) {
	scale := tier.OpponentScaling()
	drops, err := GenerateDropTable(t.Loot, tier, g.items, func(n int) int {
		return g.roller.Pick("loot type", n)
	})
	if err != nil {
		return nil, fmt.Errorf("spawning %q: %w", t.ID, err)
	}
	opp := character.NewOpponent(character.OpponentSpec{
		ID:        uuid.NewString(),
		Kind:      t.ID,
		Name:      t.Name,
		Health:    math.Round(t.Health * scale.Health),
		Damage:    math.Round(t.Damage * scale.Damage),
		Armor:     math.Round(t.Armor * scale.Armor),
		Abilities: t.Abilities,
		Boss:      t.Boss,
		DropTable: drops,
		XPDrop:    int(math.Round(float64(t.XP) * scale.Experience)),
	})
	g.logger.Debug("opponent spawned",
		zap.String("kind", t.ID),
		zap.Stringer("tier", tier),
		zap.Float64("health", opp.MaxHealth()),
		zap.Int("xp", opp.XPDrop),
	)
	return opp, nil
}
