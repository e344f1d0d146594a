// Package npc provides opponent templates and the opponent factory that scales
// them to a world tier.
package npc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/makavia/internal/game/ability"
)

// Template defines a reusable opponent archetype loaded from YAML.
type Template struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Health      float64      `yaml:"health"`
	Damage      float64      `yaml:"damage"`
	Armor       float64      `yaml:"armor"`
	XP          int          `yaml:"xp"`
	Abilities   []ability.ID `yaml:"abilities"`
	Boss        bool         `yaml:"boss"`
	Loot        *LootTable   `yaml:"loot"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Health > 0, Damage
// and Armor >= 0, at least one known ability is listed, and the loot table is valid.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	if t.Health <= 0 {
		return fmt.Errorf("npc template %q: health must be > 0", t.ID)
	}
	if t.Damage < 0 || t.Armor < 0 {
		return fmt.Errorf("npc template %q: damage and armor must be >= 0", t.ID)
	}
	if t.XP < 0 {
		return fmt.Errorf("npc template %q: xp must be >= 0", t.ID)
	}
	if len(t.Abilities) == 0 {
		return fmt.Errorf("npc template %q: at least one ability is required", t.ID)
	}
	for _, id := range t.Abilities {
		if !ability.Known(id) {
			return fmt.Errorf("npc template %q: %w: %q", t.ID, ability.ErrUnknownAbility, id)
		}
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			return fmt.Errorf("npc template %q: %w", t.ID, err)
		}
	}
	return nil
}

// LoadTemplateFromBytes parses a single template from raw YAML bytes.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// DefaultTemplates returns the built-in roster used when no content directory
// supplies templates.
func DefaultTemplates() []*Template {
	mk := func(id, name string, health, damage, armor float64, xp int, abilities ...ability.ID) *Template {
		return &Template{ID: id, Name: name, Health: health, Damage: damage, Armor: armor, XP: xp, Abilities: abilities}
	}
	return []*Template{
		mk("goblin", "Goblin", 4, 2, 1, 2, ability.Slash),
		mk("bandit", "Bandit", 6, 3, 1, 3, ability.Slash),
		mk("wolf", "Wolf", 8, 4, 0, 3, ability.Slash),
		mk("spider", "Spider", 10, 5, 2, 4, ability.Slash),
		mk("skeleton", "Skeleton", 12, 6, 3, 5, ability.Slash, ability.Stab),
		mk("zombie", "Zombie", 14, 7, 4, 5, ability.Slash, ability.Heal),
		mk("orc", "Orc", 16, 8, 5, 6, ability.Slash, ability.Stab),
		mk("troll", "Troll", 18, 9, 6, 6, ability.Slash, ability.Stab, ability.Fireball),
		mk("giant", "Giant", 20, 10, 7, 7, ability.Slash, ability.Stab, ability.Fireball),
		mk("dragon", "Dragon", 22, 11, 8, 10, ability.Slash, ability.Stab, ability.Fireball, ability.Heal),
	}
}
