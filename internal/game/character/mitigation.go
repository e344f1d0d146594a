package character

import "math"

// MaxMitigation is the largest fraction of damage armor can absorb.
const MaxMitigation = 0.9

// MitigatedDamage returns the damage a target with the given armor takes from a
// raw hit with the given armor penetration.
//
// Precondition: penetration is in [0, 1].
// Postcondition: result >= 0 and result >= raw*(1-MaxMitigation) for raw >= 0.
func MitigatedDamage(raw, armor, penetration float64) float64 {
	effective := math.Max(0, armor*(1-penetration))
	ratio := math.Min(effective/100, MaxMitigation)
	return math.Max(0, raw*(1-ratio))
}
