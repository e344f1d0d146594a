package story

import (
	"github.com/cory-johannsen/makavia/internal/game/attribute"
)

// ConditionKind tags a Condition.
type ConditionKind string

const (
	CondAlignment        ConditionKind = "alignment"
	CondAlignmentTier    ConditionKind = "alignment_tier"
	CondFlag             ConditionKind = "flag"
	CondRelationship     ConditionKind = "relationship"
	CondRelationshipTier ConditionKind = "relationship_tier"
	CondAttribute        ConditionKind = "attribute"
	CondScript           ConditionKind = "script"
)

// Known reports whether k is a recognised condition kind.
func (k ConditionKind) Known() bool {
	switch k {
	case CondAlignment, CondAlignmentTier, CondFlag, CondRelationship,
		CondRelationshipTier, CondAttribute, CondScript:
		return true
	}
	return false
}

// Condition gates a choice option. Which fields are read depends on Kind:
//
//	alignment          Min, Max
//	alignment_tier     Tier, Not
//	flag               Flag, IsSet
//	relationship       Character, Min, Max
//	relationship_tier  Character, Tier, Not
//	attribute          Attribute, Min
//	script             Script
type Condition struct {
	Kind      ConditionKind `yaml:"type" json:"type"`
	Min       *int          `yaml:"min,omitempty" json:"min,omitempty"`
	Max       *int          `yaml:"max,omitempty" json:"max,omitempty"`
	Tier      string        `yaml:"tier,omitempty" json:"tier,omitempty"`
	Not       bool          `yaml:"not,omitempty" json:"not,omitempty"`
	Flag      string        `yaml:"flag,omitempty" json:"flag,omitempty"`
	IsSet     bool          `yaml:"is_set,omitempty" json:"is_set,omitempty"`
	Character string        `yaml:"character,omitempty" json:"character,omitempty"`
	Attribute string        `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	Script    string        `yaml:"script,omitempty" json:"script,omitempty"`
}

// EffectKind tags an Effect.
type EffectKind string

const (
	EffAlignment    EffectKind = "alignment"
	EffFlag         EffectKind = "flag"
	EffRelationship EffectKind = "relationship"
	EffRomance      EffectKind = "romance"
	EffRivalry      EffectKind = "rivalry"
	EffGold         EffectKind = "gold"
)

// Known reports whether k is a recognised effect kind.
func (k EffectKind) Known() bool {
	switch k {
	case EffAlignment, EffFlag, EffRelationship, EffRomance, EffRivalry, EffGold:
		return true
	}
	return false
}

// Effect mutates progression when its option is selected:
//
//	alignment     Amount
//	flag          Flag, Value
//	relationship  Character, Amount
//	romance       Character
//	rivalry       Character
//	gold          Amount
type Effect struct {
	Kind      EffectKind `yaml:"type" json:"type"`
	Amount    int        `yaml:"amount,omitempty" json:"amount,omitempty"`
	Flag      string     `yaml:"flag,omitempty" json:"flag,omitempty"`
	Value     bool       `yaml:"value,omitempty" json:"value,omitempty"`
	Character string     `yaml:"character,omitempty" json:"character,omitempty"`
}

// Protagonist is the player as seen by the story: attribute conditions read
// it and gold effects modify it.
type Protagonist interface {
	Attribute(k attribute.Kind) int
	AdjustGold(delta int)
}

// ScriptContext is the read-only progression snapshot handed to script conditions.
type ScriptContext struct {
	Alignment         int
	AlignmentTier     string
	Flags             map[string]bool
	Affinity          map[string]int
	RelationshipTiers map[string]string
	Attributes        map[string]int
}

// ScriptEvaluator evaluates a script condition's predicate.
type ScriptEvaluator interface {
	EvalPredicate(src string, ctx ScriptContext) (bool, error)
}
