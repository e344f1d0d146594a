// Package save serialises a player's full progression and stores it in named slots.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/makavia/internal/game/character"
	"github.com/cory-johannsen/makavia/internal/game/relationship"
	"github.com/cory-johannsen/makavia/internal/game/story"
)

// Version is the snapshot format written by Encode.
const Version = 1

var (
	// ErrNotFound is returned by a Store when a slot holds no snapshot.
	ErrNotFound = errors.New("save not found")
	// ErrUnsupportedVersion is returned by Decode for snapshots written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported save version")
)

// Snapshot is one saved game: the player and their narrative progression.
type Snapshot struct {
	ID      string                `json:"id"`
	Version int                   `json:"version"`
	SavedAt time.Time             `json:"saved_at"`
	Player  character.PlayerState `json:"player"`
	Story   story.State           `json:"story"`
}

// New stamps a fresh snapshot with an id, the current format version and now.
func New(player character.PlayerState, progression story.State, now time.Time) Snapshot {
	return Snapshot{
		ID:      uuid.NewString(),
		Version: Version,
		SavedAt: now.UTC(),
		Player:  player,
		Story:   progression,
	}
}

// Encode renders s as JSON.
func Encode(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding save %s: %w", s.ID, err)
	}
	return data, nil
}

// Decode parses a snapshot written by Encode.
//
// Postcondition: on success Story.Flags, Story.CompletedChapters and
// Story.Relationships are non-nil.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding save: %w", err)
	}
	if s.Version < 1 || s.Version > Version {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	normalize(&s)
	return s, nil
}

func normalize(s *Snapshot) {
	if s.Story.Flags == nil {
		s.Story.Flags = []string{}
	}
	if s.Story.CompletedChapters == nil {
		s.Story.CompletedChapters = []string{}
	}
	if s.Story.Relationships == nil {
		s.Story.Relationships = map[string]relationship.Relationship{}
	}
}
