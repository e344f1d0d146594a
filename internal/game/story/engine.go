package story

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/makavia/internal/game/alignment"
	"github.com/cory-johannsen/makavia/internal/game/attribute"
	"github.com/cory-johannsen/makavia/internal/game/relationship"
)

var (
	// ErrChapterNotFound is returned when a chapter id is not registered.
	ErrChapterNotFound = errors.New("chapter not found")
	// ErrMissingRequiredFlag is returned when a chapter's entry flags are not all set.
	ErrMissingRequiredFlag = errors.New("missing required flag")
	// ErrNoActiveChapter is returned by navigation when no chapter has been started.
	ErrNoActiveChapter = errors.New("no active chapter")
	// ErrNodeNotFound is returned when a node id is not part of the active chapter.
	ErrNodeNotFound = errors.New("node not found")
	// ErrNotAChoice is returned when an option is chosen while the current node is not a Choice.
	ErrNotAChoice = errors.New("current node is not a choice")
	// ErrOptionUnavailable is returned when the chosen option does not exist or its conditions fail.
	ErrOptionUnavailable = errors.New("option unavailable")
)

// Engine owns the player's narrative progression and the registry of chapters.
// All progression changes go through condition evaluation, effect application,
// and node navigation.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	chapters    map[string]*Chapter
	state       progress
	protagonist Protagonist
	scripts     ScriptEvaluator
	logger      *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithScriptEvaluator sets the evaluator for script conditions. Without one,
// script conditions are satisfied.
func WithScriptEvaluator(s ScriptEvaluator) EngineOption {
	return func(e *Engine) { e.scripts = s }
}

// NewEngine returns an engine with fresh progression: alignment 0, no flags,
// no relationships, and no active chapter.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		chapters: map[string]*Chapter{},
		state:    newProgress(),
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// NewEngineFromState returns an engine resuming the saved progression s.
// Chapters must be registered before the current node can be resolved.
func NewEngineFromState(s State, opts ...EngineOption) (*Engine, error) {
	p, err := progressFromState(s)
	if err != nil {
		return nil, fmt.Errorf("restoring story state: %w", err)
	}
	e := NewEngine(opts...)
	e.state = p
	return e, nil
}

// SetProtagonist attaches the player used by attribute conditions and gold effects.
func (e *Engine) SetProtagonist(p Protagonist) { e.protagonist = p }

// State returns a deep copy of the progression.
func (e *Engine) State() State { return e.state.snapshot() }

// RegisterChapter adds c to the registry, replacing any chapter with the same id.
func (e *Engine) RegisterChapter(c *Chapter) {
	e.chapters[c.ID()] = c
}

// Chapter returns the registered chapter with the given id.
func (e *Engine) Chapter(id string) (*Chapter, bool) {
	c, ok := e.chapters[id]
	return c, ok
}

// StartChapter makes the chapter's start node current.
//
// Precondition: the chapter is registered and every required flag is set.
// Postcondition: on success the current chapter is id and the current node is its start.
func (e *Engine) StartChapter(id string) (Node, error) {
	c, ok := e.chapters[id]
	if !ok {
		e.logger.Error("starting unknown chapter", zap.String("chapter", id))
		return nil, fmt.Errorf("%w: %q", ErrChapterNotFound, id)
	}
	var missing []string
	for _, f := range c.requiredFlags {
		if !e.HasFlag(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		e.logger.Warn("chapter locked", zap.String("chapter", id), zap.Strings("missing", missing))
		return nil, fmt.Errorf("chapter %q: %w: %s", id, ErrMissingRequiredFlag, strings.Join(missing, ", "))
	}
	e.state.chapter = id
	e.state.node = c.start
	e.logger.Info("chapter started", zap.String("chapter", id), zap.String("node", c.start))
	n, _ := c.Node(c.start)
	return n, nil
}

// CurrentChapter returns the active chapter.
func (e *Engine) CurrentChapter() (*Chapter, bool) {
	if e.state.chapter == "" {
		return nil, false
	}
	c, ok := e.chapters[e.state.chapter]
	return c, ok
}

// CurrentNode returns the active node.
func (e *Engine) CurrentNode() (Node, bool) {
	c, ok := e.CurrentChapter()
	if !ok || e.state.node == "" {
		return nil, false
	}
	return c.Node(e.state.node)
}

// AdvanceToNode makes the node id of the current chapter current.
//
// Postcondition: on error the current node is unchanged.
func (e *Engine) AdvanceToNode(id string) (Node, error) {
	c, ok := e.CurrentChapter()
	if !ok {
		return nil, ErrNoActiveChapter
	}
	n, ok := c.Node(id)
	if !ok {
		e.logger.Error("advancing to unknown node", zap.String("chapter", c.ID()), zap.String("node", id))
		return nil, fmt.Errorf("chapter %q: %w: %q", c.ID(), ErrNodeNotFound, id)
	}
	e.logger.Debug("node transition",
		zap.String("chapter", c.ID()),
		zap.String("from", e.state.node),
		zap.String("to", id),
	)
	e.state.node = id
	return n, nil
}

// AdvanceToNextNode follows the current node's implicit successor. ok is false
// when the current node is a Choice or Combat node or has no next link.
func (e *Engine) AdvanceToNextNode() (n Node, ok bool, err error) {
	cur, found := e.CurrentNode()
	if !found {
		return nil, false, ErrNoActiveChapter
	}
	next, ok := Successor(cur)
	if !ok {
		return nil, false, nil
	}
	n, err = e.AdvanceToNode(next)
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

// AvailableChoices returns, in their original order, the options whose
// conditions all hold.
func (e *Engine) AvailableChoices(options []Option) []Option {
	out := make([]Option, 0, len(options))
	for _, o := range options {
		if e.conditionsHold(o.Conditions) {
			out = append(out, o)
		}
	}
	return out
}

func (e *Engine) conditionsHold(conds []Condition) bool {
	for _, c := range conds {
		if !e.EvaluateCondition(c) {
			return false
		}
	}
	return true
}

// SelectChoice applies every effect of o in order and moves to o.Next.
//
// Postcondition: when o.Next is not a node of the current chapter, an error is
// returned and no effect is applied.
func (e *Engine) SelectChoice(o Option) (Node, error) {
	c, ok := e.CurrentChapter()
	if !ok {
		return nil, ErrNoActiveChapter
	}
	if _, ok := c.Node(o.Next); !ok {
		return nil, fmt.Errorf("option %q: chapter %q: %w: %q", o.ID, c.ID(), ErrNodeNotFound, o.Next)
	}
	for _, eff := range o.Effects {
		e.ApplyEffect(eff)
	}
	return e.AdvanceToNode(o.Next)
}

// Choose selects the option optionID of the current Choice node, provided its
// conditions currently hold.
func (e *Engine) Choose(optionID string) (Node, error) {
	cur, ok := e.CurrentNode()
	if !ok {
		return nil, ErrNoActiveChapter
	}
	ch, ok := cur.(Choice)
	if !ok {
		return nil, fmt.Errorf("%w: %q is a %s node", ErrNotAChoice, cur.NodeID(), cur.Kind())
	}
	o, ok := ch.Option(optionID)
	if !ok || !e.conditionsHold(o.Conditions) {
		return nil, fmt.Errorf("%w: %q", ErrOptionUnavailable, optionID)
	}
	return e.SelectChoice(o)
}

// CompleteChapter records the current chapter as completed. Completing the same
// chapter twice has no further effect.
func (e *Engine) CompleteChapter() {
	id := e.state.chapter
	if id == "" || slices.Contains(e.state.completed, id) {
		return
	}
	e.state.completed = append(e.state.completed, id)
	e.logger.Info("chapter completed", zap.String("chapter", id))
}

// IsChapterCompleted reports whether id has been completed.
func (e *Engine) IsChapterCompleted(id string) bool {
	return slices.Contains(e.state.completed, id)
}

// CompletedChapters returns the completed chapter ids in completion order.
func (e *Engine) CompletedChapters() []string { return slices.Clone(e.state.completed) }

// RegisterRelationship creates a relationship record for characterID if none exists.
func (e *Engine) RegisterRelationship(characterID string, romanceEligible bool) {
	if _, ok := e.state.relationships[characterID]; ok {
		return
	}
	r := relationship.New(characterID, romanceEligible)
	e.state.relationships[characterID] = &r
}

// Relationship returns a copy of the relationship with characterID.
func (e *Engine) Relationship(characterID string) (relationship.Relationship, bool) {
	r, ok := e.state.relationships[characterID]
	if !ok {
		return relationship.Relationship{}, false
	}
	return *r, true
}

// HasFlag reports whether flag is set.
func (e *Engine) HasFlag(flag string) bool {
	_, ok := e.state.flags[flag]
	return ok
}

// Alignment returns the alignment score.
func (e *Engine) Alignment() int { return e.state.alignment }

// AlignmentTier returns the tier of the alignment score.
func (e *Engine) AlignmentTier() alignment.Tier { return alignment.TierOf(e.state.alignment) }

// EvaluateCondition reports whether c holds against the current progression.
// Unrecognised kinds hold.
func (e *Engine) EvaluateCondition(c Condition) bool {
	switch c.Kind {
	case CondAlignment:
		return inRange(e.state.alignment, c.Min, c.Max)
	case CondAlignmentTier:
		match := string(e.AlignmentTier()) == c.Tier
		return match != c.Not
	case CondFlag:
		return e.HasFlag(c.Flag) == c.IsSet
	case CondRelationship:
		r, ok := e.state.relationships[c.Character]
		if !ok {
			return false
		}
		return inRange(r.Affinity, c.Min, c.Max)
	case CondRelationshipTier:
		r, ok := e.state.relationships[c.Character]
		if !ok {
			return false
		}
		match := string(relationship.TierOf(*r)) == c.Tier
		return match != c.Not
	case CondAttribute:
		if e.protagonist == nil {
			return false
		}
		k, err := attribute.Parse(c.Attribute)
		if err != nil {
			return false
		}
		floor := 0
		if c.Min != nil {
			floor = *c.Min
		}
		return e.protagonist.Attribute(k) >= floor
	case CondScript:
		return e.evalScript(c.Script)
	default:
		e.logger.Debug("unrecognised condition kind treated as satisfied", zap.String("kind", string(c.Kind)))
		return true
	}
}

func (e *Engine) evalScript(src string) bool {
	if e.scripts == nil {
		return true
	}
	ok, err := e.scripts.EvalPredicate(src, e.scriptContext())
	if err != nil {
		e.logger.Warn("script condition failed", zap.Error(err))
		return false
	}
	return ok
}

func (e *Engine) scriptContext() ScriptContext {
	ctx := ScriptContext{
		Alignment:         e.state.alignment,
		AlignmentTier:     string(e.AlignmentTier()),
		Flags:             make(map[string]bool, len(e.state.flags)),
		Affinity:          make(map[string]int, len(e.state.relationships)),
		RelationshipTiers: make(map[string]string, len(e.state.relationships)),
		Attributes:        map[string]int{},
	}
	for f := range e.state.flags {
		ctx.Flags[f] = true
	}
	for id, r := range e.state.relationships {
		ctx.Affinity[id] = r.Affinity
		ctx.RelationshipTiers[id] = string(relationship.TierOf(*r))
	}
	if e.protagonist != nil {
		for _, k := range attribute.All() {
			ctx.Attributes[k.String()] = e.protagonist.Attribute(k)
		}
	}
	return ctx
}

// ApplyEffect mutates progression by eff. Effects naming an unregistered
// relationship, romance on a character that is not romance-eligible, and gold
// without a protagonist are no-ops.
//
// Postcondition: alignment stays in [alignment.Min, alignment.Max].
func (e *Engine) ApplyEffect(eff Effect) {
	switch eff.Kind {
	case EffAlignment:
		e.state.alignment = alignment.Shift(e.state.alignment, eff.Amount)
	case EffFlag:
		if eff.Value {
			e.state.flags[eff.Flag] = struct{}{}
		} else {
			delete(e.state.flags, eff.Flag)
		}
	case EffRelationship:
		if r, ok := e.relationship(eff); ok {
			r.Adjust(eff.Amount)
		}
	case EffRomance:
		if r, ok := e.relationship(eff); ok && !r.StartRomance() {
			e.logger.Debug("romance effect on ineligible character", zap.String("character", eff.Character))
		}
	case EffRivalry:
		if r, ok := e.relationship(eff); ok {
			r.StartRivalry()
		}
	case EffGold:
		if e.protagonist != nil {
			e.protagonist.AdjustGold(eff.Amount)
		}
	default:
		e.logger.Debug("unrecognised effect kind ignored", zap.String("kind", string(eff.Kind)))
	}
}

func (e *Engine) relationship(eff Effect) (*relationship.Relationship, bool) {
	r, ok := e.state.relationships[eff.Character]
	if !ok {
		e.logger.Debug("effect on unregistered relationship ignored",
			zap.String("kind", string(eff.Kind)),
			zap.String("character", eff.Character),
		)
	}
	return r, ok
}

func inRange(v int, lo, hi *int) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}
