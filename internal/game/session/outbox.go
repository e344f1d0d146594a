// Package session drives one player's run through the story, handing off to
// the combat engine at combat nodes and back to the story when a battle ends.
package session

import (
	"fmt"
	"sync"

	"github.com/cory-johannsen/makavia/internal/game/combat"
)

// Event reports work a session did on its own, outside of a caller's request:
// the opponent's delayed riposte and, when it ended the battle, the resolution.
type Event struct {
	Enemy      combat.StepResult
	Resolution *Resolution
	Err        error
}

// Outbox routes asynchronous session events to a buffered channel read by the
// presentation layer.
type Outbox struct {
	id     string
	events chan Event
	mu     sync.Mutex
	closed bool
}

// NewOutbox creates an Outbox for the given session id.
//
// Postcondition: Returns an Outbox with an open events channel.
func NewOutbox(id string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Outbox{
		id:     id,
		events: make(chan Event, bufferSize),
	}
}

// Push enqueues ev without blocking.
//
// Postcondition: ev is enqueued, or an error is returned if the outbox is closed or full.
func (o *Outbox) Push(ev Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.id)
	}
	select {
	case o.events <- ev:
		return nil
	default:
		return fmt.Errorf("outbox %s event buffer full", o.id)
	}
}

// Events returns the read-only events channel. It is closed by Close.
func (o *Outbox) Events() <-chan Event {
	return o.events
}

// Close marks the outbox closed and closes the events channel. Safe to call more than once.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.events)
	}
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
