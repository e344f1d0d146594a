// Package relationship models the player's standing with individual story characters.
package relationship

// Affinity bounds. Every stored affinity lies in [MinAffinity, MaxAffinity].
const (
	MinAffinity = -100
	MaxAffinity = 100
)

// Tier is a named band of affinity, refined by the romance and rivalry flags.
type Tier string

const (
	Hostile  Tier = "Hostile"
	Cold     Tier = "Cold"
	Neutral  Tier = "Neutral"
	Friendly Tier = "Friendly"
	Close    Tier = "Close"
	Romance  Tier = "Romance"
	Rival    Tier = "Rival"
)

// Tiers lists every tier.
func Tiers() []Tier {
	return []Tier{Hostile, Cold, Neutral, Friendly, Close, Romance, Rival}
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case Hostile, Cold, Neutral, Friendly, Close, Romance, Rival:
		return true
	}
	return false
}

// Color returns the tier's display color as a hex triplet.
func (t Tier) Color() string {
	switch t {
	case Hostile:
		return "#8b0000"
	case Cold:
		return "#5f9ea0"
	case Friendly:
		return "#4caf50"
	case Close:
		return "#4169e1"
	case Romance:
		return "#ff69b4"
	case Rival:
		return "#ff8c00"
	default:
		return "#888888"
	}
}

// Relationship is the player's standing with one character.
//
// Invariant: RomanceActive and Rival are never both true.
type Relationship struct {
	CharacterID     string `json:"character_id"`
	Affinity        int    `json:"affinity"`
	HasMet          bool   `json:"has_met"`
	RomanceEligible bool   `json:"romance_eligible"`
	RomanceActive   bool   `json:"romance_active"`
	Rival           bool   `json:"rival"`
}

// New returns a fresh relationship at zero affinity.
func New(characterID string, romanceEligible bool) Relationship {
	return Relationship{CharacterID: characterID, RomanceEligible: romanceEligible}
}

// ClampAffinity bounds v to [MinAffinity, MaxAffinity].
func ClampAffinity(v int) int {
	return max(MinAffinity, min(MaxAffinity, v))
}

// ShiftAffinity returns v moved by delta and clamped. Any delta, however large,
// saturates at MinAffinity or MaxAffinity in its own direction.
//
// Precondition: v is within [MinAffinity, MaxAffinity].
func ShiftAffinity(v, delta int) int {
	span := MaxAffinity - MinAffinity
	return ClampAffinity(v + max(-span, min(span, delta)))
}

// TierOf derives the tier of r from its affinity and flags.
func TierOf(r Relationship) Tier {
	switch {
	case r.Affinity <= -51:
		return Hostile
	case r.Affinity <= -21:
		return Cold
	case r.Affinity <= 20:
		return Neutral
	case r.Affinity <= 50:
		return Friendly
	case r.RomanceActive:
		return Romance
	case r.Rival:
		return Rival
	default:
		return Close
	}
}

// Tier is shorthand for TierOf(r).
func (r Relationship) Tier() Tier { return TierOf(r) }

// Adjust shifts affinity by delta, clamped, and marks the character as met.
func (r *Relationship) Adjust(delta int) {
	r.Affinity = ShiftAffinity(r.Affinity, delta)
	r.HasMet = true
}

// StartRomance activates romance and clears rivalry. It reports false and
// changes nothing when the character is not romance-eligible.
func (r *Relationship) StartRomance() bool {
	if !r.RomanceEligible {
		return false
	}
	r.RomanceActive = true
	r.Rival = false
	return true
}

// StartRivalry marks the character as a rival and clears any romance.
func (r *Relationship) StartRivalry() {
	r.Rival = true
	r.RomanceActive = false
}
