package combat

import (
	"sync"
	"time"
)

// RoundTimer runs a callback after a delay unless it is stopped first. It is
// used to pace the opponent's riposte after a player action.
// It is safe for concurrent use.
type RoundTimer struct {
	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
	pending    bool
}

// NewRoundTimer returns an idle timer.
func NewRoundTimer() *RoundTimer {
	return &RoundTimer{}
}

// Schedule arranges for onFire to run after delay on its own goroutine,
// replacing any callback that has not fired yet.
//
// Precondition: delay >= 0; onFire must not be nil.
// Postcondition: Pending() is true until onFire starts or Stop is called.
func (rt *RoundTimer) Schedule(delay time.Duration, onFire func()) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.timer != nil {
		rt.timer.Stop()
	}
	rt.generation++
	gen := rt.generation
	rt.pending = true
	rt.timer = time.AfterFunc(delay, func() {
		rt.mu.Lock()
		if gen != rt.generation || !rt.pending {
			rt.mu.Unlock()
			return
		}
		rt.pending = false
		rt.mu.Unlock()
		onFire()
	})
}

// Pending reports whether a scheduled callback has neither fired nor been stopped.
func (rt *RoundTimer) Pending() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.pending
}

// Stop prevents a scheduled callback from firing. Safe to call multiple times.
//
// Postcondition: no callback scheduled before Stop will start after Stop returns.
func (rt *RoundTimer) Stop() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.pending = false
	rt.generation++
	if rt.timer != nil {
		rt.timer.Stop()
	}
}
