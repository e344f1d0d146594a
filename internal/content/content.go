// Package content loads a game content directory: chapters, cast, opponent
// templates, the starting player preset, starting items and Lua helper scripts.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/makavia/internal/game/character"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
	"github.com/cory-johannsen/makavia/internal/game/npc"
	"github.com/cory-johannsen/makavia/internal/game/relationship"
	"github.com/cory-johannsen/makavia/internal/game/session"
	"github.com/cory-johannsen/makavia/internal/game/story"
	"github.com/cory-johannsen/makavia/internal/game/world"
	"github.com/cory-johannsen/makavia/internal/scripting"
)

// Layout of a content directory. Only ChaptersDir and PresetFile are required.
const (
	ChaptersDir  = "chapters"
	CastDir      = "cast"
	OpponentsDir = "opponents"
	ItemsDir     = "items"
	ScriptsDir   = "scripts"
	PresetFile   = "presets/player.yaml"
)

// Bundle is a loaded content directory.
type Bundle struct {
	Chapters  []*story.Chapter
	Cast      relationship.Cast
	Templates []*npc.Template
	// Items are the starting items given to every new player on top of the preset's own.
	Items   []*inventory.Item
	Scripts *scripting.Evaluator

	preset *character.Player
}

// Load reads the content directory at root. Missing optional directories fall
// back to an empty cast, the built-in opponent roster, no extra items and no
// script library.
//
// Precondition: root is a readable directory; scriptLimit >= 0.
// Postcondition: Returns a Bundle whose chapters, cast, templates and preset all validated, or an error.
func Load(root string, scriptLimit int, logger *zap.Logger) (*Bundle, error) {
	start := time.Now()
	if logger == nil {
		logger = zap.NewNop()
	}

	chapters, err := story.LoadChapters(filepath.Join(root, ChaptersDir))
	if err != nil {
		return nil, fmt.Errorf("loading chapters: %w", err)
	}

	cast := relationship.Cast{}
	if dir := filepath.Join(root, CastDir); exists(dir) {
		if cast, err = relationship.LoadCast(dir); err != nil {
			return nil, fmt.Errorf("loading cast: %w", err)
		}
	}

	templates := npc.DefaultTemplates()
	if dir := filepath.Join(root, OpponentsDir); exists(dir) {
		loaded, err := npc.LoadTemplates(dir)
		if err != nil {
			return nil, fmt.Errorf("loading opponents: %w", err)
		}
		if len(loaded) > 0 {
			templates = loaded
		}
	}

	var items []*inventory.Item
	if dir := filepath.Join(root, ItemsDir); exists(dir) {
		if items, err = inventory.LoadItems(dir); err != nil {
			return nil, fmt.Errorf("loading items: %w", err)
		}
	}

	preset, err := character.LoadPreset(filepath.Join(root, PresetFile))
	if err != nil {
		return nil, fmt.Errorf("loading player preset: %w", err)
	}
	for _, it := range items {
		clone := *it
		preset.AddItem(&clone)
	}

	scripts := scripting.NewEvaluator(scriptLimit, logger)
	if dir := filepath.Join(root, ScriptsDir); exists(dir) {
		if err := scripts.LoadLibrary(dir); err != nil {
			return nil, fmt.Errorf("loading scripts: %w", err)
		}
	}

	logger.Info("content loaded",
		zap.String("root", root),
		zap.Int("chapters", len(chapters)),
		zap.Int("cast", len(cast)),
		zap.Int("opponents", len(templates)),
		zap.Int("items", len(items)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Bundle{
		Chapters:  chapters,
		Cast:      cast,
		Templates: templates,
		Items:     items,
		Scripts:   scripts,
		preset:    preset,
	}, nil
}

func exists(dir string) bool {
	_, err := os.Stat(dir)
	return !errors.Is(err, fs.ErrNotExist)
}

// NewPlayer returns a fresh copy of the preset player playing at tier.
//
// Postcondition: the returned player shares no state with the preset or earlier players.
func (b *Bundle) NewPlayer(tier world.Tier) (*character.Player, error) {
	s := b.preset.State()
	s.WorldTier = tier
	return character.FromState(s)
}

// Session returns the session content backed by this bundle.
func (b *Bundle) Session(opponents session.OpponentFactory) session.Content {
	return session.Content{
		Chapters:  b.Chapters,
		Cast:      b.Cast,
		Scripts:   b.Scripts,
		Opponents: opponents,
	}
}

// Validate runs the story validator over the bundle and additionally reports
// combat nodes whose enemy type names no opponent template.
func (b *Bundle) Validate() *story.Report {
	report := story.Validate(b.Chapters, b.Cast, b.Scripts.Check)
	known := make(map[string]bool, len(b.Templates))
	for _, t := range b.Templates {
		known[t.ID] = true
	}
	for _, c := range b.Chapters {
		for _, n := range c.Nodes() {
			if cn, ok := n.(story.Combat); ok && !known[cn.EnemyType] {
				report.Findings = append(report.Findings, story.Finding{
					Chapter: c.ID(),
					Node:    cn.ID,
					Message: fmt.Sprintf("enemy type %q has no opponent template; a random opponent will be used", cn.EnemyType),
				})
			}
		}
	}
	return report
}
