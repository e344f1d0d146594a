package handlers

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cory-johannsen/makavia/internal/frontend/telnet"
	"github.com/cory-johannsen/makavia/internal/game/ability"
	"github.com/cory-johannsen/makavia/internal/game/combat"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
	"github.com/cory-johannsen/makavia/internal/game/relationship"
	"github.com/cory-johannsen/makavia/internal/game/session"
	"github.com/cory-johannsen/makavia/internal/game/story"
)

// Renderer formats story and battle state as colored Telnet text.
// The cast supplies display names for dialogue speakers and relationships.
type Renderer struct {
	cast relationship.Cast
}

// NewRenderer creates a Renderer that names characters from cast.
// A nil cast falls back to raw character ids.
func NewRenderer(cast relationship.Cast) *Renderer {
	return &Renderer{cast: cast}
}

// Node formats a story node. For a choice node, options lists the options
// currently open to the player.
func (r *Renderer) Node(n story.Node, options []story.Option) string {
	var b strings.Builder
	b.WriteString("\r\n")
	switch v := n.(type) {
	case story.Narration:
		b.WriteString(telnet.Colorize(telnet.White, v.Text))
		b.WriteString("\r\n")
		b.WriteString(continueHint())
	case story.Dialogue:
		speaker := r.cast.Name(v.Speaker)
		if v.Emotion != "" {
			speaker += " (" + v.Emotion + ")"
		}
		b.WriteString(telnet.Colorize(telnet.BrightYellow, speaker+":"))
		b.WriteString(" ")
		b.WriteString(telnet.Colorf(telnet.White, "%q", v.Text))
		b.WriteString("\r\n")
		b.WriteString(continueHint())
	case story.Choice:
		b.WriteString(telnet.Colorize(telnet.BrightWhite, v.Prompt))
		b.WriteString("\r\n")
		b.WriteString(r.Options(options))
	case story.Combat:
		if v.Intro != "" {
			b.WriteString(telnet.Colorize(telnet.White, v.Intro))
			b.WriteString("\r\n")
		}
		enemy := v.NameOverride
		if enemy == "" {
			enemy = v.EnemyType
		}
		color := telnet.Red
		if v.Boss {
			color = telnet.BrightRed + telnet.Bold
		}
		b.WriteString(telnet.Colorf(color, "A %s bars your way.", enemy))
		b.WriteString("\r\n")
		b.WriteString(telnet.Colorf(telnet.Dim, "Type %s to face it.", telnet.Colorize(telnet.Green, "fight")))
		b.WriteString("\r\n")
	case story.Checkpoint:
		b.WriteString(telnet.Colorize(telnet.BrightCyan+telnet.Bold, "~ Checkpoint ~"))
		b.WriteString("\r\n")
		if v.Summary != "" {
			b.WriteString(telnet.Colorize(telnet.Cyan, v.Summary))
			b.WriteString("\r\n")
		}
		b.WriteString(continueHint())
	}
	return b.String()
}

func continueHint() string {
	return telnet.Colorf(telnet.Dim, "(%s)", "continue") + "\r\n"
}

// Options formats a numbered option list. Numbers are 1-based to match the
// choose command.
func (r *Renderer) Options(options []story.Option) string {
	if len(options) == 0 {
		return telnet.Colorize(telnet.Dim, "No options are open to you.") + "\r\n"
	}
	var b strings.Builder
	for i, o := range options {
		b.WriteString(telnet.Colorf(telnet.BrightGreen, "  %d) %s", i+1, o.Label))
		if o.Tooltip != "" {
			b.WriteString(" " + telnet.Colorf(telnet.Dim, "[%s]", o.Tooltip))
		}
		b.WriteString("\r\n")
	}
	return b.String()
}

// Step formats one action's combat log and its rewards.
func (r *Renderer) Step(step combat.StepResult) string {
	color := telnet.BrightWhite
	if step.Actor == combat.SideEnemy {
		color = telnet.Red
	}
	var b strings.Builder
	for _, entry := range step.Logs {
		b.WriteString(telnet.Colorf(color, "[%d] %s", entry.Turn, entry.Message))
		b.WriteString("\r\n")
	}
	if step.ExperienceGained > 0 {
		b.WriteString(telnet.Colorf(telnet.Green, "You gain %d experience.", step.ExperienceGained))
		b.WriteString("\r\n")
	}
	if step.LeveledUp {
		b.WriteString(telnet.Colorize(telnet.BrightYellow+telnet.Bold, "You feel stronger. Level up!"))
		b.WriteString("\r\n")
	}
	if step.Loot != nil {
		b.WriteString(telnet.Colorf(telnet.Yellow, "You find %s.", r.itemName(*step.Loot)))
		b.WriteString("\r\n")
	}
	return b.String()
}

// Resolution formats the end of a battle and the scene it hands back to.
func (r *Renderer) Resolution(res session.Resolution, options []story.Option) string {
	var b strings.Builder
	switch res.Outcome {
	case combat.Victory:
		b.WriteString(telnet.Colorize(telnet.BrightGreen+telnet.Bold, "Victory!"))
	case combat.Defeat:
		b.WriteString(telnet.Colorize(telnet.BrightRed+telnet.Bold, "You have been defeated."))
	}
	b.WriteString("\r\n")
	if res.Over {
		b.WriteString(r.StoryOver())
		return b.String()
	}
	if res.Node != nil {
		b.WriteString(r.Node(res.Node, options))
	}
	return b.String()
}

// StoryOver formats the closing line shown when the story has ended.
func (r *Renderer) StoryOver() string {
	return telnet.Colorize(telnet.BrightMagenta, "Your tale is told. Type quit to leave, or load a saved game.") + "\r\n"
}

// Status formats the player's vitals, standing and any battle in progress.
func (r *Renderer) Status(st session.Status) string {
	var b strings.Builder
	b.WriteString(telnet.Colorf(telnet.BrightWhite, "%s  Level %d  (%d xp, %d skill points)", st.Player, st.Level, st.Experience, st.SkillPoints))
	b.WriteString("\r\n")
	b.WriteString(fmt.Sprintf("  Health %s  Armor %.0f  Gold %d\r\n", telnet.Gauge(st.Health, st.MaxHealth), st.Armor, st.Gold))
	b.WriteString(fmt.Sprintf("  Alignment %s (%d)\r\n",
		telnet.HexColorize(st.AlignmentTier.Color(), st.AlignmentTier.Label()), st.Alignment))
	if st.Chapter != "" {
		b.WriteString(telnet.Colorf(telnet.Dim, "  Chapter %s, scene %s", st.Chapter, st.Node))
		b.WriteString("\r\n")
	}
	if st.InCombat {
		b.WriteString(telnet.Colorf(telnet.Red, "  Fighting %s: %s  Armor %.0f", st.Opponent, telnet.Gauge(st.OpponentHealth, st.OpponentMax), st.OpponentArmor))
		b.WriteString("\r\n")
		b.WriteString(telnet.Colorf(telnet.Dim, "  Turn %d, %s to act", st.Turn.Count, st.Turn.Phase))
		b.WriteString("\r\n")
	}
	return b.String()
}

// Relationships formats each relationship with its tier color, sorted by character id.
func (r *Renderer) Relationships(rels map[string]relationship.Relationship) string {
	if len(rels) == 0 {
		return telnet.Colorize(telnet.Dim, "You have no acquaintances yet.") + "\r\n"
	}
	var b strings.Builder
	for _, id := range slices.Sorted(maps.Keys(rels)) {
		rel := rels[id]
		tier := rel.Tier()
		name := r.cast.Name(id)
		if !rel.HasMet {
			name += " (not met)"
		}
		b.WriteString(fmt.Sprintf("  %s %s %+d\r\n", telnet.Pad(name, 24), telnet.HexColorize(tier.Color(), string(tier)), rel.Affinity))
	}
	return b.String()
}

// Abilities formats a numbered ability list. Numbers are 1-based to match the
// use command.
func (r *Renderer) Abilities(abilities []ability.Ability) string {
	if len(abilities) == 0 {
		return telnet.Colorize(telnet.Dim, "You know no abilities.") + "\r\n"
	}
	var b strings.Builder
	for i, a := range abilities {
		b.WriteString(telnet.Colorf(telnet.BrightGreen, "  %d) %-16s", i+1, a.Name))
		b.WriteString(telnet.Colorf(telnet.Dim, "%s: %s", a.Category, a.Description))
		b.WriteString("\r\n")
	}
	return b.String()
}

// Inventory formats a numbered item list. Numbers are 1-based to match the
// equip command.
func (r *Renderer) Inventory(items []inventory.Item) string {
	if len(items) == 0 {
		return telnet.Colorize(telnet.Dim, "You carry nothing.") + "\r\n"
	}
	var b strings.Builder
	for i, it := range items {
		line := telnet.Colorf(telnet.BrightGreen, "  %d)", i+1) + " " + r.itemName(it) + " " +
			telnet.Colorf(telnet.Dim, "[%s]", it.Slot.DisplayName())
		if it.Equipped {
			line += " " + telnet.Colorize(telnet.Cyan, "(equipped)")
		}
		b.WriteString(line + "\r\n")
	}
	return b.String()
}

func (r *Renderer) itemName(it inventory.Item) string {
	var stats []string
	if it.Damage > 0 {
		stats = append(stats, fmt.Sprintf("dmg %d", it.Damage))
	}
	if it.Armor > 0 {
		stats = append(stats, fmt.Sprintf("armor %d", it.Armor))
	}
	if it.AttributeBonus > 0 {
		stats = append(stats, fmt.Sprintf("%s +%d", it.Attribute, it.AttributeBonus))
	}
	name := telnet.Colorize(rarityColor(it.Rarity), it.Name)
	if len(stats) == 0 {
		return name
	}
	return name + " " + telnet.Colorf(telnet.Dim, "(%s)", strings.Join(stats, ", "))
}

func rarityColor(r inventory.Rarity) string {
	switch r {
	case inventory.Uncommon:
		return telnet.Green
	case inventory.Rare:
		return telnet.BrightBlue
	case inventory.Epic:
		return telnet.BrightMagenta
	case inventory.Legendary, inventory.Mythical, inventory.Artifact:
		return telnet.BrightYellow
	default:
		return telnet.White
	}
}

// Error formats an error message.
func (r *Renderer) Error(err error) string {
	return telnet.Colorize(telnet.Red, err.Error()) + "\r\n"
}

// Prompt returns the input prompt for the current state.
func (r *Renderer) Prompt(st session.Status) string {
	if st.InCombat {
		return telnet.Colorf(telnet.BrightRed, "[%s %.0f/%.0f vs %s %.0f]> ", st.Player, st.Health, st.MaxHealth, st.Opponent, st.OpponentHealth)
	}
	return telnet.Colorf(telnet.BrightCyan, "[%s]> ", st.Player)
}
