package story

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/makavia/internal/game/alignment"
	"github.com/cory-johannsen/makavia/internal/game/attribute"
	"github.com/cory-johannsen/makavia/internal/game/relationship"
)

// Finding is one problem in authored content.
type Finding struct {
	Chapter string
	Node    string
	Message string
}

func (f Finding) String() string {
	if f.Node == "" {
		return fmt.Sprintf("%s: %s", f.Chapter, f.Message)
	}
	return fmt.Sprintf("%s/%s: %s", f.Chapter, f.Node, f.Message)
}

// Report collects every finding of a validation run.
type Report struct {
	Findings []Finding
}

// OK reports whether no problems were found.
func (r *Report) OK() bool { return len(r.Findings) == 0 }

// Err joins every finding into one error, or returns nil when there are none.
func (r *Report) Err() error {
	errs := make([]error, len(r.Findings))
	for i, f := range r.Findings {
		errs[i] = errors.New(f.String())
	}
	return errors.Join(errs...)
}

func (r *Report) add(chapter, node, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{Chapter: chapter, Node: node, Message: fmt.Sprintf(format, args...)})
}

// ScriptChecker compiles a script condition without running it.
type ScriptChecker func(src string) error

// Validate inspects chapters against the cast and reports authoring problems
// that the engine would otherwise tolerate silently: dangling links, choices
// with no options, unknown condition and effect kinds, references to characters
// outside the cast, romance on characters that cannot be romanced, checkpoints
// naming unknown chapters, unreachable nodes, and required flags no effect sets.
// check may be nil.
func Validate(chapters []*Chapter, cast relationship.Cast, check ScriptChecker) *Report {
	r := &Report{}
	byID := map[string]*Chapter{}
	setFlags := map[string]bool{}
	for _, c := range chapters {
		if _, dup := byID[c.ID()]; dup {
			r.add(c.ID(), "", "duplicate chapter id")
		}
		byID[c.ID()] = c
		for _, n := range c.Nodes() {
			if ch, ok := n.(Choice); ok {
				for _, o := range ch.Options {
					for _, eff := range o.Effects {
						if eff.Kind == EffFlag && eff.Value {
							setFlags[eff.Flag] = true
						}
					}
				}
			}
		}
	}

	for _, c := range chapters {
		for _, f := range c.RequiredFlags() {
			if !setFlags[f] {
				r.add(c.ID(), "", "required flag %q is never set by any effect", f)
			}
		}
		reachable := reachableFrom(c)
		for _, n := range c.Nodes() {
			id := n.NodeID()
			if !reachable[id] {
				r.add(c.ID(), id, "unreachable from start node %q", c.StartNodeID())
			}
			for _, target := range Targets(n) {
				if _, ok := c.Node(target); !ok {
					r.add(c.ID(), id, "links to unknown node %q", target)
				}
			}
			switch v := n.(type) {
			case Dialogue:
				if _, ok := cast[v.Speaker]; !ok && cast != nil {
					r.add(c.ID(), id, "speaker %q is not in the cast", v.Speaker)
				}
			case Choice:
				validateChoice(r, c.ID(), v, cast, check)
			case Combat:
				if v.Win == "" {
					r.add(c.ID(), id, "combat node has no win target")
				}
				if v.EnemyType == "" {
					r.add(c.ID(), id, "combat node has no enemy type")
				}
			case Checkpoint:
				if v.NextChapter != "" {
					if _, ok := byID[v.NextChapter]; !ok {
						r.add(c.ID(), id, "checkpoint names unknown chapter %q", v.NextChapter)
					}
				}
			}
		}
	}
	sort.SliceStable(r.Findings, func(i, j int) bool {
		if r.Findings[i].Chapter != r.Findings[j].Chapter {
			return r.Findings[i].Chapter < r.Findings[j].Chapter
		}
		return r.Findings[i].Node < r.Findings[j].Node
	})
	return r
}

func validateChoice(r *Report, chapter string, ch Choice, cast relationship.Cast, check ScriptChecker) {
	if len(ch.Options) == 0 {
		r.add(chapter, ch.ID, "choice node has no options")
	}
	seen := map[string]bool{}
	for _, o := range ch.Options {
		if o.ID == "" {
			r.add(chapter, ch.ID, "option %q has no id", o.Label)
		} else if seen[o.ID] {
			r.add(chapter, ch.ID, "duplicate option id %q", o.ID)
		}
		seen[o.ID] = true
		if o.Next == "" {
			r.add(chapter, ch.ID, "option %q has no next node", o.ID)
		}
		for _, cond := range o.Conditions {
			validateCondition(r, chapter, ch.ID, o.ID, cond, cast, check)
		}
		for _, eff := range o.Effects {
			validateEffect(r, chapter, ch.ID, o.ID, eff, cast)
		}
	}
}

func validateCondition(r *Report, chapter, node, option string, c Condition, cast relationship.Cast, check ScriptChecker) {
	if !c.Kind.Known() {
		r.add(chapter, node, "option %q: unknown condition type %q (always satisfied)", option, c.Kind)
		return
	}
	switch c.Kind {
	case CondAlignmentTier:
		if !alignment.Tier(c.Tier).Valid() {
			r.add(chapter, node, "option %q: unknown alignment tier %q", option, c.Tier)
		}
	case CondRelationship, CondRelationshipTier:
		if _, ok := cast[c.Character]; !ok {
			r.add(chapter, node, "option %q: condition references unknown character %q", option, c.Character)
		}
		if c.Kind == CondRelationshipTier && !relationship.Tier(c.Tier).Valid() {
			r.add(chapter, node, "option %q: unknown relationship tier %q", option, c.Tier)
		}
	case CondFlag:
		if c.Flag == "" {
			r.add(chapter, node, "option %q: flag condition has no flag", option)
		}
	case CondAttribute:
		if _, err := attribute.Parse(c.Attribute); err != nil {
			r.add(chapter, node, "option %q: %v", option, err)
		}
	case CondScript:
		if check != nil {
			if err := check(c.Script); err != nil {
				r.add(chapter, node, "option %q: script does not compile: %v", option, err)
			}
		}
	}
}

func validateEffect(r *Report, chapter, node, option string, e Effect, cast relationship.Cast) {
	if !e.Kind.Known() {
		r.add(chapter, node, "option %q: unknown effect type %q (ignored)", option, e.Kind)
		return
	}
	switch e.Kind {
	case EffRelationship, EffRomance, EffRivalry:
		ch, ok := cast[e.Character]
		if !ok {
			r.add(chapter, node, "option %q: %s effect on unregistered character %q has no effect", option, e.Kind, e.Character)
			return
		}
		if e.Kind == EffRomance && !ch.Romanceable {
			r.add(chapter, node, "option %q: romance effect on %q, who is not romanceable, has no effect", option, e.Character)
		}
	case EffFlag:
		if e.Flag == "" {
			r.add(chapter, node, "option %q: flag effect has no flag", option)
		}
	}
}

func reachableFrom(c *Chapter) map[string]bool {
	seen := map[string]bool{}
	stack := []string{c.StartNodeID()}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		n, ok := c.Node(id)
		if !ok {
			continue
		}
		seen[id] = true
		stack = append(stack, Targets(n)...)
	}
	return seen
}
