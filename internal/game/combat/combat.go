// Package combat implements the turn-based battle between the player and one opponent.
package combat

import "fmt"

// Side identifies one of the two participants of a battle.
type Side string

const (
	SidePlayer Side = "player"
	SideEnemy  Side = "enemy"
)

// Phase is whose move it is, or End once the battle is over.
type Phase string

const (
	PhasePlayer Phase = "player"
	PhaseEnemy  Phase = "enemy"
	PhaseEnd    Phase = "end"
)

// Turn is the battle clock. Count increases on every phase change.
type Turn struct {
	Count int   `json:"count"`
	Phase Phase `json:"phase"`
}

// Outcome summarises how a battle stands.
type Outcome int

const (
	Ongoing Outcome = iota
	Victory
	Defeat
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case Ongoing:
		return "ongoing"
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	default:
		return "unknown"
	}
}

// LogEntry is one human-readable line of the battle log.
type LogEntry struct {
	ID      string `json:"id"`
	Turn    int    `json:"turn"`
	Message string `json:"message"`
}

// IllegalTurnError reports an action attempted out of turn or after the battle ended.
type IllegalTurnError struct {
	Actor Side
	Phase Phase
}

func (e *IllegalTurnError) Error() string {
	if e.Phase == PhaseEnd {
		return fmt.Sprintf("%s cannot act: battle already ended", e.Actor)
	}
	return fmt.Sprintf("%s cannot act during the %s phase", e.Actor, e.Phase)
}

// AbilityNotFoundError reports an ability index outside the player's known abilities.
type AbilityNotFoundError struct {
	Index int
	Known int
}

func (e *AbilityNotFoundError) Error() string {
	return fmt.Sprintf("ability %d not found: player knows %d abilities", e.Index, e.Known)
}
