package combat

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/makavia/internal/game/ability"
)

// ActiveBuff is a timed, reversible stat change registered by a buff resolution.
type ActiveBuff struct {
	ID             string
	Target         Side
	Stat           string
	Amount         float64
	RemainingTurns int
}

// BuffSet tracks the buffs active in one battle, in the order they were applied.
// It is not safe for concurrent use; the caller must serialise access.
type BuffSet struct {
	buffs []*ActiveBuff
}

// Add registers a new buff and returns it.
//
// Precondition: turns >= 1.
func (s *BuffSet) Add(target Side, stat string, amount float64, turns int) *ActiveBuff {
	b := &ActiveBuff{
		ID:             uuid.NewString(),
		Target:         target,
		Stat:           stat,
		Amount:         amount,
		RemainingTurns: turns,
	}
	s.buffs = append(s.buffs, b)
	return b
}

// Tick decrements every buff's remaining turns by one and removes those that
// reach zero. The expired buffs are returned so the caller can revert them.
//
// Postcondition: every remaining buff has RemainingTurns >= 1.
func (s *BuffSet) Tick() []ActiveBuff {
	var expired []ActiveBuff
	kept := s.buffs[:0]
	for _, b := range s.buffs {
		b.RemainingTurns--
		if b.RemainingTurns <= 0 {
			expired = append(expired, *b)
			continue
		}
		kept = append(kept, b)
	}
	s.buffs = kept
	return expired
}

// Drain removes and returns every buff regardless of remaining turns.
func (s *BuffSet) Drain() []ActiveBuff {
	out := s.All()
	s.buffs = nil
	return out
}

// All returns copies of the active buffs.
func (s *BuffSet) All() []ActiveBuff {
	out := make([]ActiveBuff, len(s.buffs))
	for i, b := range s.buffs {
		out[i] = *b
	}
	return out
}

// Len returns the number of active buffs.
func (s *BuffSet) Len() int { return len(s.buffs) }

// armorAdjuster is the part of a character a buff can modify.
type armorAdjuster interface {
	AdjustArmor(delta float64)
}

func applyStat(target armorAdjuster, stat string, delta float64) {
	if stat == ability.StatArmor {
		target.AdjustArmor(delta)
	}
}
