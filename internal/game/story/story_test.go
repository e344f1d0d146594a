package story_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/makavia/internal/game/alignment"
	"github.com/cory-johannsen/makavia/internal/game/attribute"
	"github.com/cory-johannsen/makavia/internal/game/relationship"
	"github.com/cory-johannsen/makavia/internal/game/story"
)

const elena = "npc_elena"

func ptr(v int) *int { return &v }

// forestChapter is a small graph: intro -> elena -> choice, where the choice
// branches to surrender, attack (combat), or flee.
func forestChapter(t require.TestingT) *story.Chapter {
	c, err := story.NewChapter(story.ChapterSpec{
		ID:    "forest",
		Title: "The Knight's Pursuit",
		Start: "intro",
		Nodes: []story.Node{
			story.Narration{ID: "intro", Text: "The forest is too quiet.", Mood: "tense", Next: "halt"},
			story.Dialogue{ID: "halt", Speaker: elena, Text: "Halt, thief!", Emotion: "angry", Next: "first_choice"},
			story.Choice{ID: "first_choice", Prompt: "What do you do?", Options: []story.Option{
				{ID: "surrender", Label: "Surrender", Next: "surrendered", Effects: []story.Effect{
					{Kind: story.EffAlignment, Amount: 10},
					{Kind: story.EffRelationship, Character: elena, Amount: 15},
				}},
				{ID: "attack", Label: "Attack her", Next: "fight",
					Conditions: []story.Condition{{Kind: story.CondFlag, Flag: "ATTACKED_ELENA", IsSet: false}},
					Effects: []story.Effect{
						{Kind: story.EffAlignment, Amount: -20},
						{Kind: story.EffFlag, Flag: "ATTACKED_ELENA", Value: true},
						{Kind: story.EffRelationship, Character: elena, Amount: -40},
					}},
				{ID: "charm", Label: "Flirt", Next: "surrendered",
					Conditions: []story.Condition{{Kind: story.CondAttribute, Attribute: "charisma", Min: ptr(7)}},
					Effects:    []story.Effect{{Kind: story.EffRomance, Character: elena}}},
				{ID: "flee", Label: "Run", Next: "fled", Effects: []story.Effect{
					{Kind: story.EffAlignment, Amount: -5},
					{Kind: story.EffGold, Amount: -50},
				}},
			}},
			story.Combat{ID: "fight", EnemyType: "knight", NameOverride: "Elena, Silver Knight", Win: "won", Lose: "first_choice"},
			story.Narration{ID: "won", Text: "Elena falls.", Next: "end"},
			story.Narration{ID: "surrendered", Text: "She lowers her sword.", Next: "end"},
			story.Narration{ID: "fled", Text: "You escape.", Next: "end"},
			story.Checkpoint{ID: "end", ChapterComplete: true, NextChapter: "city", Summary: "An uneasy alliance."},
		},
	})
	require.NoError(t, err)
	return c
}

func cityChapter(t require.TestingT) *story.Chapter {
	c, err := story.NewChapter(story.ChapterSpec{
		ID:            "city",
		Start:         "gate",
		RequiredFlags: []string{"ATTACKED_ELENA"},
		Nodes: []story.Node{
			story.Narration{ID: "gate", Text: "The city gate.", Next: "done"},
			story.Checkpoint{ID: "done", ChapterComplete: true, Summary: "The end."},
		},
	})
	require.NoError(t, err)
	return c
}

func newEngine(t require.TestingT, opts ...story.EngineOption) *story.Engine {
	e := story.NewEngine(opts...)
	e.RegisterChapter(forestChapter(t))
	e.RegisterChapter(cityChapter(t))
	e.RegisterRelationship(elena, true)
	return e
}

type hero struct {
	attrs attribute.Set
	gold  int
}

func (h *hero) Attribute(k attribute.Kind) int { return h.attrs.Get(k) }
func (h *hero) AdjustGold(delta int)           { h.gold = max(0, h.gold+delta) }

type fakeScripts struct {
	result bool
	err    error
	seen   story.ScriptContext
}

func (f *fakeScripts) EvalPredicate(_ string, ctx story.ScriptContext) (bool, error) {
	f.seen = ctx
	return f.result, f.err
}

func optionIDs(opts []story.Option) []string {
	ids := make([]string, len(opts))
	for i, o := range opts {
		ids[i] = o.ID
	}
	return ids
}

func firstChoice(t *testing.T, e *story.Engine) story.Choice {
	t.Helper()
	c, ok := e.Chapter("forest")
	require.True(t, ok)
	n, ok := c.Node("first_choice")
	require.True(t, ok)
	return n.(story.Choice)
}

func TestNewChapter_RejectsBadGraphs(t *testing.T) {
	_, err := story.NewChapter(story.ChapterSpec{
		ID:    "bad",
		Start: "missing",
		Nodes: []story.Node{
			story.Narration{ID: "a"},
			story.Narration{ID: "a"},
			story.Narration{},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate node id "a"`)
	assert.Contains(t, err.Error(), `start node "missing" not found`)
	assert.Contains(t, err.Error(), "has no id")
}

func TestEngine_FreshState(t *testing.T) {
	e := story.NewEngine()
	s := e.State()
	assert.Equal(t, 0, s.Alignment)
	assert.Empty(t, s.Flags)
	assert.Empty(t, s.Relationships)
	assert.Empty(t, s.CompletedChapters)
	_, ok := e.CurrentNode()
	assert.False(t, ok)
	_, ok = e.CurrentChapter()
	assert.False(t, ok)
}

func TestStartChapter(t *testing.T) {
	e := newEngine(t)

	_, err := e.StartChapter("nowhere")
	assert.ErrorIs(t, err, story.ErrChapterNotFound)

	_, err = e.StartChapter("city")
	assert.ErrorIs(t, err, story.ErrMissingRequiredFlag)
	assert.Contains(t, err.Error(), "ATTACKED_ELENA")
	_, ok := e.CurrentChapter()
	assert.False(t, ok)

	n, err := e.StartChapter("forest")
	require.NoError(t, err)
	assert.Equal(t, "intro", n.NodeID())
	cur, ok := e.CurrentNode()
	require.True(t, ok)
	assert.Equal(t, n, cur)
}

func TestAdvance(t *testing.T) {
	e := newEngine(t)
	_, err := e.AdvanceToNode("intro")
	assert.ErrorIs(t, err, story.ErrNoActiveChapter)

	_, err = e.StartChapter("forest")
	require.NoError(t, err)

	n, ok, err := e.AdvanceToNextNode()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, story.KindDialogue, n.Kind())

	_, ok, err = e.AdvanceToNextNode()
	require.NoError(t, err)
	require.True(t, ok)

	// Choice nodes have no implicit successor.
	n, ok, err = e.AdvanceToNextNode()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, n)

	_, err = e.AdvanceToNode("city_gate")
	assert.ErrorIs(t, err, story.ErrNodeNotFound)
	cur, _ := e.CurrentNode()
	assert.Equal(t, "first_choice", cur.NodeID())

	_, err = e.AdvanceToNode("end")
	require.NoError(t, err)
	_, ok, err = e.AdvanceToNextNode()
	require.NoError(t, err)
	assert.False(t, ok, "checkpoint without next link ends the chapter")
}

func TestSuccessorAndTargets(t *testing.T) {
	id, ok := story.Successor(story.Narration{ID: "a", Next: "b"})
	assert.True(t, ok)
	assert.Equal(t, "b", id)
	_, ok = story.Successor(story.Combat{ID: "c", Win: "w"})
	assert.False(t, ok)
	_, ok = story.Successor(story.Choice{ID: "c", Options: []story.Option{{Next: "x"}}})
	assert.False(t, ok)
	_, ok = story.Successor(story.Checkpoint{ID: "cp"})
	assert.False(t, ok)
	assert.Equal(t, []string{"w", "l"}, story.Targets(story.Combat{Win: "w", Lose: "l"}))
	assert.Equal(t, []string{"w"}, story.Targets(story.Combat{Win: "w"}))
}

func TestAttackedElenaFlagHidesOptionPermanently(t *testing.T) {
	e := newEngine(t)
	_, err := e.StartChapter("forest")
	require.NoError(t, err)
	ch := firstChoice(t, e)

	assert.Equal(t, []string{"surrender", "attack", "flee"}, optionIDs(e.AvailableChoices(ch.Options)))

	_, err = e.AdvanceToNode("first_choice")
	require.NoError(t, err)
	n, err := e.Choose("attack")
	require.NoError(t, err)
	assert.Equal(t, "fight", n.NodeID())
	assert.True(t, e.HasFlag("ATTACKED_ELENA"))
	assert.Equal(t, -20, e.Alignment())
	r, _ := e.Relationship(elena)
	assert.Equal(t, -40, r.Affinity)
	assert.True(t, r.HasMet)
	assert.Equal(t, relationship.Cold, r.Tier())

	assert.Equal(t, []string{"surrender", "flee"}, optionIDs(e.AvailableChoices(ch.Options)))
	e.ApplyEffect(story.Effect{Kind: story.EffAlignment, Amount: 50})
	assert.Equal(t, []string{"surrender", "flee"}, optionIDs(e.AvailableChoices(ch.Options)))

	_, err = e.AdvanceToNode("first_choice")
	require.NoError(t, err)
	_, err = e.Choose("attack")
	assert.ErrorIs(t, err, story.ErrOptionUnavailable)
}

func TestChoose_Errors(t *testing.T) {
	e := newEngine(t)
	_, err := e.Choose("surrender")
	assert.ErrorIs(t, err, story.ErrNoActiveChapter)

	_, err = e.StartChapter("forest")
	require.NoError(t, err)
	_, err = e.Choose("surrender")
	assert.ErrorIs(t, err, story.ErrNotAChoice)

	_, err = e.AdvanceToNode("first_choice")
	require.NoError(t, err)
	_, err = e.Choose("dance")
	assert.ErrorIs(t, err, story.ErrOptionUnavailable)
}

func TestSelectChoice_DanglingTargetAppliesNothing(t *testing.T) {
	e := newEngine(t)
	_, err := e.StartChapter("forest")
	require.NoError(t, err)
	before := e.State()
	_, err = e.SelectChoice(story.Option{ID: "x", Next: "void", Effects: []story.Effect{{Kind: story.EffAlignment, Amount: 30}}})
	assert.ErrorIs(t, err, story.ErrNodeNotFound)
	assert.Equal(t, before, e.State())
}

func TestProtagonistConditionsAndGold(t *testing.T) {
	e := newEngine(t)
	_, err := e.StartChapter("forest")
	require.NoError(t, err)
	ch := firstChoice(t, e)

	cond := story.Condition{Kind: story.CondAttribute, Attribute: "Charisma", Min: ptr(7)}
	assert.False(t, e.EvaluateCondition(cond), "no protagonist")

	h := &hero{attrs: attribute.Set{attribute.Charisma: 8}, gold: 30}
	e.SetProtagonist(h)
	assert.True(t, e.EvaluateCondition(cond))
	assert.False(t, e.EvaluateCondition(story.Condition{Kind: story.CondAttribute, Attribute: "luck", Min: ptr(1)}))
	assert.Equal(t, []string{"surrender", "attack", "charm", "flee"}, optionIDs(e.AvailableChoices(ch.Options)))

	_, err = e.AdvanceToNode("first_choice")
	require.NoError(t, err)
	_, err = e.Choose("flee")
	require.NoError(t, err)
	assert.Equal(t, 0, h.gold)
}

func TestConditionKinds(t *testing.T) {
	e := newEngine(t)
	e.ApplyEffect(story.Effect{Kind: story.EffAlignment, Amount: 45})
	e.ApplyEffect(story.Effect{Kind: story.EffRelationship, Character: elena, Amount: 60})
	e.ApplyEffect(story.Effect{Kind: story.EffRomance, Character: elena})

	cases := []struct {
		name string
		cond story.Condition
		want bool
	}{
		{"alignment in range", story.Condition{Kind: story.CondAlignment, Min: ptr(40), Max: ptr(50)}, true},
		{"alignment below min", story.Condition{Kind: story.CondAlignment, Min: ptr(46)}, false},
		{"alignment above max", story.Condition{Kind: story.CondAlignment, Max: ptr(44)}, false},
		{"alignment tier", story.Condition{Kind: story.CondAlignmentTier, Tier: "Good"}, true},
		{"alignment tier negated", story.Condition{Kind: story.CondAlignmentTier, Tier: "Good", Not: true}, false},
		{"flag absent", story.Condition{Kind: story.CondFlag, Flag: "X", IsSet: false}, true},
		{"flag required", story.Condition{Kind: story.CondFlag, Flag: "X", IsSet: true}, false},
		{"affinity", story.Condition{Kind: story.CondRelationship, Character: elena, Min: ptr(60)}, true},
		{"affinity of stranger", story.Condition{Kind: story.CondRelationship, Character: "npc_nobody"}, false},
		{"relationship tier", story.Condition{Kind: story.CondRelationshipTier, Character: elena, Tier: "Romance"}, true},
		{"relationship tier negated", story.Condition{Kind: story.CondRelationshipTier, Character: elena, Tier: "Rival", Not: true}, true},
		{"relationship tier of stranger", story.Condition{Kind: story.CondRelationshipTier, Character: "npc_nobody", Tier: "Neutral", Not: true}, false},
		{"unknown kind", story.Condition{Kind: "moon_phase"}, true},
		{"script without evaluator", story.Condition{Kind: story.CondScript, Script: "return false"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, e.EvaluateCondition(tc.cond))
		})
	}
}

func TestScriptConditions(t *testing.T) {
	scripts := &fakeScripts{result: true}
	e := newEngine(t, story.WithScriptEvaluator(scripts))
	e.ApplyEffect(story.Effect{Kind: story.EffFlag, Flag: "ALDRIC_EXPOSED", Value: true})
	e.ApplyEffect(story.Effect{Kind: story.EffRelationship, Character: elena, Amount: 25})

	cond := story.Condition{Kind: story.CondScript, Script: "return flags.ALDRIC_EXPOSED"}
	assert.True(t, e.EvaluateCondition(cond))
	assert.True(t, scripts.seen.Flags["ALDRIC_EXPOSED"])
	assert.Equal(t, 25, scripts.seen.Affinity[elena])
	assert.Equal(t, "Friendly", scripts.seen.RelationshipTiers[elena])
	assert.Equal(t, "Neutral", scripts.seen.AlignmentTier)

	scripts.result = true
	scripts.err = errors.New("boom")
	assert.False(t, e.EvaluateCondition(cond))
}

func TestRomanceEffects(t *testing.T) {
	e := newEngine(t)
	e.RegisterRelationship("npc_marcus", false)

	e.ApplyEffect(story.Effect{Kind: story.EffRomance, Character: "npc_marcus"})
	r, _ := e.Relationship("npc_marcus")
	assert.False(t, r.RomanceActive)

	e.ApplyEffect(story.Effect{Kind: story.EffRomance, Character: "npc_unregistered"})
	_, ok := e.Relationship("npc_unregistered")
	assert.False(t, ok)

	e.ApplyEffect(story.Effect{Kind: story.EffRivalry, Character: elena})
	e.ApplyEffect(story.Effect{Kind: story.EffRomance, Character: elena})
	r, _ = e.Relationship(elena)
	assert.True(t, r.RomanceActive)
	assert.False(t, r.Rival)

	// Registering again keeps the existing record.
	e.RegisterRelationship(elena, false)
	r, _ = e.Relationship(elena)
	assert.True(t, r.RomanceEligible)
}

func TestCompleteChapter_NoDuplicates(t *testing.T) {
	e := newEngine(t)
	e.CompleteChapter()
	assert.Empty(t, e.CompletedChapters())

	_, err := e.StartChapter("forest")
	require.NoError(t, err)
	e.CompleteChapter()
	e.CompleteChapter()
	assert.Equal(t, []string{"forest"}, e.CompletedChapters())
	assert.True(t, e.IsChapterCompleted("forest"))
	assert.False(t, e.IsChapterCompleted("city"))
}

func TestState_IsDefensiveCopy(t *testing.T) {
	e := newEngine(t)
	e.ApplyEffect(story.Effect{Kind: story.EffFlag, Flag: "A", Value: true})
	s := e.State()
	s.Flags[0] = "B"
	r := s.Relationships[elena]
	r.Affinity = 99
	s.Relationships[elena] = r
	s.Alignment = 100

	assert.True(t, e.HasFlag("A"))
	assert.False(t, e.HasFlag("B"))
	got, _ := e.Relationship(elena)
	assert.Equal(t, 0, got.Affinity)
	assert.Equal(t, 0, e.Alignment())
}

func TestNewEngineFromState_Rejects(t *testing.T) {
	_, err := story.NewEngineFromState(story.State{Alignment: 101})
	assert.Error(t, err)
	_, err = story.NewEngineFromState(story.State{CurrentChapter: "forest"})
	assert.Error(t, err)
	_, err = story.NewEngineFromState(story.State{Relationships: map[string]relationship.Relationship{
		elena: {CharacterID: elena, RomanceActive: true, Rival: true},
	}})
	assert.Error(t, err)
}

var allEffects = []story.Effect{
	{Kind: story.EffAlignment, Amount: 35},
	{Kind: story.EffAlignment, Amount: -70},
	{Kind: story.EffFlag, Flag: "ATTACKED_ELENA", Value: true},
	{Kind: story.EffFlag, Flag: "ATTACKED_ELENA", Value: false},
	{Kind: story.EffFlag, Flag: "ALDRIC_EXPOSED", Value: true},
	{Kind: story.EffRelationship, Character: elena, Amount: 30},
	{Kind: story.EffRelationship, Character: elena, Amount: -45},
	{Kind: story.EffRomance, Character: elena},
	{Kind: story.EffRivalry, Character: elena},
	{Kind: story.EffRelationship, Character: "npc_marcus", Amount: 20},
}

var probeConditions = []story.Condition{
	{Kind: story.CondAlignment, Min: ptr(-20), Max: ptr(20)},
	{Kind: story.CondAlignmentTier, Tier: "Villainous"},
	{Kind: story.CondAlignmentTier, Tier: "Heroic", Not: true},
	{Kind: story.CondFlag, Flag: "ATTACKED_ELENA", IsSet: true},
	{Kind: story.CondFlag, Flag: "ALDRIC_EXPOSED", IsSet: false},
	{Kind: story.CondRelationship, Character: elena, Min: ptr(51)},
	{Kind: story.CondRelationshipTier, Character: elena, Tier: "Romance"},
	{Kind: story.CondRelationshipTier, Character: elena, Tier: "Rival"},
	{Kind: story.CondRelationshipTier, Character: "npc_marcus", Tier: "Friendly"},
}

func applyRandomEffects(rt *rapid.T, e *story.Engine) {
	picks := rapid.SliceOf(rapid.IntRange(0, len(allEffects)-1)).Draw(rt, "effects")
	for _, i := range picks {
		e.ApplyEffect(allEffects[i])
	}
}

func TestProperty_AlignmentBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := story.NewEngine()
		amounts := rapid.SliceOf(anyAmount()).Draw(rt, "amounts")
		for _, a := range amounts {
			before := e.Alignment()
			e.ApplyEffect(story.Effect{Kind: story.EffAlignment, Amount: a})
			got := e.Alignment()
			if got < alignment.Min || got > alignment.Max {
				rt.Fatalf("alignment %d out of bounds", got)
			}
			if (a > 0 && got < before) || (a < 0 && got > before) {
				rt.Fatalf("amount %d moved alignment the wrong way: %d -> %d", a, before, got)
			}
		}
	})
}

func TestProperty_AffinityBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := story.NewEngine()
		e.RegisterRelationship(elena, true)
		for _, a := range rapid.SliceOf(anyAmount()).Draw(rt, "amounts") {
			before := e.State().Relationships[elena].Affinity
			e.ApplyEffect(story.Effect{Kind: story.EffRelationship, Character: elena, Amount: a})
			got := e.State().Relationships[elena].Affinity
			if got < relationship.MinAffinity || got > relationship.MaxAffinity {
				rt.Fatalf("affinity %d out of bounds", got)
			}
			if (a > 0 && got < before) || (a < 0 && got > before) {
				rt.Fatalf("amount %d moved affinity the wrong way: %d -> %d", a, before, got)
			}
		}
	})
}

func TestApplyEffect_ExtremeAmountsSaturate(t *testing.T) {
	e := story.NewEngine()
	e.RegisterRelationship(elena, true)
	e.ApplyEffect(story.Effect{Kind: story.EffAlignment, Amount: 50})
	e.ApplyEffect(story.Effect{Kind: story.EffRelationship, Character: elena, Amount: 10})

	e.ApplyEffect(story.Effect{Kind: story.EffAlignment, Amount: math.MaxInt})
	e.ApplyEffect(story.Effect{Kind: story.EffRelationship, Character: elena, Amount: math.MaxInt})
	assert.Equal(t, alignment.Max, e.Alignment())
	assert.Equal(t, alignment.Heroic, alignment.TierOf(e.Alignment()))
	assert.Equal(t, relationship.MaxAffinity, e.State().Relationships[elena].Affinity)

	e.ApplyEffect(story.Effect{Kind: story.EffAlignment, Amount: math.MinInt})
	e.ApplyEffect(story.Effect{Kind: story.EffRelationship, Character: elena, Amount: math.MinInt})
	assert.Equal(t, alignment.Min, e.Alignment())
	assert.Equal(t, relationship.MinAffinity, e.State().Relationships[elena].Affinity)
}

// anyAmount draws effect amounts across the whole int range, biased towards its ends.
func anyAmount() *rapid.Generator[int] {
	return rapid.OneOf(
		rapid.IntRange(-1_000, 1_000),
		rapid.Int(),
		rapid.SampledFrom([]int{math.MinInt, math.MinInt + 1, math.MaxInt - 1, math.MaxInt}),
	)
}

func TestProperty_RomanceAndRivalryNeverBoth(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := newEngine(rt)
		e.RegisterRelationship("npc_marcus", rapid.Bool().Draw(rt, "marcus_romanceable"))
		applyRandomEffects(rt, e)
		for id, r := range e.State().Relationships {
			if r.RomanceActive && r.Rival {
				rt.Fatalf("%s is both romance and rival", id)
			}
		}
	})
}

func TestProperty_AvailableChoicesDeterministicAndOrdered(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := newEngine(rt)
		applyRandomEffects(rt, e)
		c, _ := e.Chapter("forest")
		n, _ := c.Node("first_choice")
		opts := n.(story.Choice).Options

		first := optionIDs(e.AvailableChoices(opts))
		second := optionIDs(e.AvailableChoices(opts))
		if len(first) != len(second) {
			rt.Fatalf("repeated calls differ: %v vs %v", first, second)
		}
		for i := range first {
			if first[i] != second[i] {
				rt.Fatalf("repeated calls differ: %v vs %v", first, second)
			}
		}
		pos := -1
		for _, id := range first {
			for j, o := range opts {
				if o.ID == id {
					if j <= pos {
						rt.Fatalf("order not preserved: %v", first)
					}
					pos = j
				}
			}
		}
	})
}

func TestProperty_StateRoundTripEvaluatesIdentically(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := newEngine(rt)
		e.RegisterRelationship("npc_marcus", false)
		if _, err := e.StartChapter("forest"); err != nil {
			rt.Fatal(err)
		}
		applyRandomEffects(rt, e)
		if rapid.Bool().Draw(rt, "complete") {
			e.CompleteChapter()
		}

		data, err := json.Marshal(e.State())
		if err != nil {
			rt.Fatal(err)
		}
		var s story.State
		if err := json.Unmarshal(data, &s); err != nil {
			rt.Fatal(err)
		}
		restored, err := story.NewEngineFromState(s)
		if err != nil {
			rt.Fatal(err)
		}
		restored.RegisterChapter(forestChapter(rt))
		restored.RegisterChapter(cityChapter(rt))

		assert.Equal(rt, e.State(), restored.State())
		for i, c := range probeConditions {
			if e.EvaluateCondition(c) != restored.EvaluateCondition(c) {
				rt.Fatalf("condition %d evaluates differently after restore", i)
			}
		}
		cur, _ := e.CurrentNode()
		got, ok := restored.CurrentNode()
		if !ok || got.NodeID() != cur.NodeID() {
			rt.Fatalf("current node not restored")
		}
	})
}
