// Package command provides the command registry, parser, and built-in command definitions.
package command

// Categories for organizing commands.
const (
	CategoryStory     = "story"
	CategoryCombat    = "combat"
	CategoryCharacter = "character"
	CategorySystem    = "system"
)

// Handler identifiers mapping commands to session operations.
const (
	HandlerContinue      = "continue"
	HandlerChoose        = "choose"
	HandlerOptions       = "options"
	HandlerLook          = "look"
	HandlerFight         = "fight"
	HandlerUse           = "use"
	HandlerAbilities     = "abilities"
	HandlerStatus        = "status"
	HandlerInventory     = "inventory"
	HandlerEquip         = "equip"
	HandlerUnequip       = "unequip"
	HandlerLearn         = "learn"
	HandlerRelationships = "relationships"
	HandlerSave          = "save"
	HandlerLoad          = "load"
	HandlerHelp          = "help"
	HandlerQuit          = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument form, e.g. "choose <n>".
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command.
	Category string
	// Handler maps to the session operation.
	Handler string
}

// BuiltinCommands returns all built-in commands for the game.
func BuiltinCommands() []Command {
	return []Command{
		// Story
		{Name: "continue", Aliases: []string{"c", "next"}, Usage: "continue", Help: "Move on to the next scene", Category: CategoryStory, Handler: HandlerContinue},
		{Name: "choose", Aliases: []string{"ch", "pick"}, Usage: "choose <n>", Help: "Pick one of the listed options", Category: CategoryStory, Handler: HandlerChoose},
		{Name: "options", Aliases: []string{"opts"}, Usage: "options", Help: "List the options open to you", Category: CategoryStory, Handler: HandlerOptions},
		{Name: "look", Aliases: []string{"l"}, Usage: "look", Help: "Show the current scene again", Category: CategoryStory, Handler: HandlerLook},
		{Name: "relationships", Aliases: []string{"rel"}, Usage: "relationships", Help: "Show how the people you have met regard you", Category: CategoryStory, Handler: HandlerRelationships},

		// Combat
		{Name: "fight", Aliases: []string{"f"}, Usage: "fight", Help: "Face the opponent barring your way", Category: CategoryCombat, Handler: HandlerFight},
		{Name: "use", Aliases: []string{"u"}, Usage: "use <n>", Help: "Use one of your abilities in battle", Category: CategoryCombat, Handler: HandlerUse},
		{Name: "abilities", Aliases: []string{"ab"}, Usage: "abilities", Help: "List your abilities", Category: CategoryCombat, Handler: HandlerAbilities},

		// Character
		{Name: "status", Aliases: []string{"st", "stat"}, Usage: "status", Help: "Show your vitals and standing", Category: CategoryCharacter, Handler: HandlerStatus},
		{Name: "inventory", Aliases: []string{"inv", "i"}, Usage: "inventory", Help: "List the items you carry", Category: CategoryCharacter, Handler: HandlerInventory},
		{Name: "equip", Aliases: []string{"eq"}, Usage: "equip <n> [slot]", Help: "Equip an item from your inventory", Category: CategoryCharacter, Handler: HandlerEquip},
		{Name: "unequip", Aliases: []string{"ueq"}, Usage: "unequip <slot>", Help: "Empty an equipment slot", Category: CategoryCharacter, Handler: HandlerUnequip},
		{Name: "learn", Aliases: nil, Usage: "learn <ability>", Help: "Spend a skill point on a new ability", Category: CategoryCharacter, Handler: HandlerLearn},

		// System
		{Name: "save", Aliases: nil, Usage: "save [slot]", Help: "Save your progress", Category: CategorySystem, Handler: HandlerSave},
		{Name: "load", Aliases: nil, Usage: "load [slot]", Help: "Resume a saved game", Category: CategorySystem, Handler: HandlerLoad},
		{Name: "help", Aliases: []string{"?", "h"}, Usage: "help", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Usage: "quit", Help: "Disconnect from the game", Category: CategorySystem, Handler: HandlerQuit},
	}
}
