package story

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/cory-johannsen/makavia/internal/game/alignment"
	"github.com/cory-johannsen/makavia/internal/game/relationship"
)

// State is a serialisable copy of the player's narrative progression.
type State struct {
	Alignment         int                                  `json:"alignment"`
	Flags             []string                             `json:"flags"`
	Relationships     map[string]relationship.Relationship `json:"relationships"`
	CurrentChapter    string                               `json:"current_chapter,omitempty"`
	CurrentNode       string                               `json:"current_node,omitempty"`
	CompletedChapters []string                             `json:"completed_chapters"`
}

// progress is the engine-owned mutable form of State.
type progress struct {
	alignment     int
	flags         map[string]struct{}
	relationships map[string]*relationship.Relationship
	chapter       string
	node          string
	completed     []string
}

func newProgress() progress {
	return progress{
		flags:         map[string]struct{}{},
		relationships: map[string]*relationship.Relationship{},
	}
}

// snapshot returns a deep copy as a State. Flags are sorted.
func (p *progress) snapshot() State {
	s := State{
		Alignment:         p.alignment,
		Flags:             slices.Sorted(maps.Keys(p.flags)),
		Relationships:     make(map[string]relationship.Relationship, len(p.relationships)),
		CurrentChapter:    p.chapter,
		CurrentNode:       p.node,
		CompletedChapters: slices.Clone(p.completed),
	}
	if s.Flags == nil {
		s.Flags = []string{}
	}
	if s.CompletedChapters == nil {
		s.CompletedChapters = []string{}
	}
	for id, r := range p.relationships {
		s.Relationships[id] = *r
	}
	return s
}

// progressFromState validates s and returns an engine-owned copy.
func progressFromState(s State) (progress, error) {
	if s.Alignment < alignment.Min || s.Alignment > alignment.Max {
		return progress{}, fmt.Errorf("alignment %d outside [%d, %d]", s.Alignment, alignment.Min, alignment.Max)
	}
	if (s.CurrentChapter == "") != (s.CurrentNode == "") {
		return progress{}, fmt.Errorf("current chapter %q and node %q must be set together", s.CurrentChapter, s.CurrentNode)
	}
	p := newProgress()
	p.alignment = s.Alignment
	p.chapter = s.CurrentChapter
	p.node = s.CurrentNode
	for _, f := range s.Flags {
		p.flags[f] = struct{}{}
	}
	ids := make([]string, 0, len(s.Relationships))
	for id := range s.Relationships {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := s.Relationships[id]
		if r.CharacterID == "" {
			r.CharacterID = id
		}
		if r.CharacterID != id {
			return progress{}, fmt.Errorf("relationship key %q holds character %q", id, r.CharacterID)
		}
		if r.RomanceActive && r.Rival {
			return progress{}, fmt.Errorf("relationship %q is both romance and rival", id)
		}
		r.Affinity = relationship.ClampAffinity(r.Affinity)
		p.relationships[id] = &r
	}
	for _, id := range s.CompletedChapters {
		if !slices.Contains(p.completed, id) {
			p.completed = append(p.completed, id)
		}
	}
	return p, nil
}
