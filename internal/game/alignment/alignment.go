// Package alignment derives the player's moral standing from a bounded score.
package alignment

// Score bounds. Every stored alignment score lies in [Min, Max].
const (
	Min = -100
	Max = 100
)

// Tier is a named band of alignment scores.
type Tier string

const (
	Villainous Tier = "Villainous"
	Evil       Tier = "Evil"
	Neutral    Tier = "Neutral"
	Good       Tier = "Good"
	Heroic     Tier = "Heroic"
)

// Tiers lists every tier from most evil to most good.
func Tiers() []Tier {
	return []Tier{Villainous, Evil, Neutral, Good, Heroic}
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case Villainous, Evil, Neutral, Good, Heroic:
		return true
	}
	return false
}

// Clamp bounds score to [Min, Max].
func Clamp(score int) int {
	return max(Min, min(Max, score))
}

// Shift returns score moved by delta and clamped. Any delta, however large,
// saturates at Min or Max in its own direction.
//
// Precondition: score is within [Min, Max].
func Shift(score, delta int) int {
	return Clamp(score + max(Min-Max, min(Max-Min, delta)))
}

// TierOf returns the tier for score.
//
// Precondition: score has been clamped.
func TierOf(score int) Tier {
	switch {
	case score <= -61:
		return Villainous
	case score <= -21:
		return Evil
	case score <= 20:
		return Neutral
	case score <= 60:
		return Good
	default:
		return Heroic
	}
}

// Label returns the player-facing name of the tier.
func (t Tier) Label() string {
	switch t {
	case Evil:
		return "Wicked"
	case Good:
		return "Virtuous"
	default:
		return string(t)
	}
}

// Color returns the tier's display color as a hex triplet.
func (t Tier) Color() string {
	switch t {
	case Villainous:
		return "#8b0000"
	case Evil:
		return "#dc143c"
	case Good:
		return "#4169e1"
	case Heroic:
		return "#ffd700"
	default:
		return "#888888"
	}
}
