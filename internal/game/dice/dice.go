// Package dice provides the randomness abstraction shared by the combat engine,
// the item factory, and the opponent factory.
package dice

import "fmt"

// Source is the randomness provider for every random decision in the game rules.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollResult holds the audit trail for a single dice expression evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string such as "1d3+3 -> [2] +3 = 5".
func (r RollResult) String() string {
	return fmt.Sprintf("%s -> %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Pick returns a uniformly chosen index into a collection of length n.
//
// Precondition: n > 0.
// Postcondition: 0 <= result < n.
func Pick(src Source, n int) int {
	return src.Intn(n)
}

// Fraction returns a value in [0, 1) with four decimal digits of resolution.
//
// Postcondition: 0 <= result < 1.
func Fraction(src Source) float64 {
	return float64(src.Intn(10000)) / 10000
}
