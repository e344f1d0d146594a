package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/makavia/internal/game/ability"
	"github.com/cory-johannsen/makavia/internal/game/alignment"
	"github.com/cory-johannsen/makavia/internal/game/character"
	"github.com/cory-johannsen/makavia/internal/game/combat"
	"github.com/cory-johannsen/makavia/internal/game/dice"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
	"github.com/cory-johannsen/makavia/internal/game/relationship"
	"github.com/cory-johannsen/makavia/internal/game/story"
	"github.com/cory-johannsen/makavia/internal/game/world"
	"github.com/cory-johannsen/makavia/internal/save"
)

// DefaultRiposteDelay is the pause between a player action and the opponent's answer.
const DefaultRiposteDelay = 800 * time.Millisecond

var (
	// ErrSessionClosed is returned by every operation after Close.
	ErrSessionClosed = errors.New("session closed")
	// ErrStoryOver is returned when the story has ended and nothing can advance it.
	ErrStoryOver = errors.New("story is over")
	// ErrInCombat is returned by story operations while a battle is running.
	ErrInCombat = errors.New("combat in progress")
	// ErrNotInCombat is returned by UseAbility when no battle is running.
	ErrNotInCombat = errors.New("no combat in progress")
	// ErrNotCombatNode is returned by EnterCombat when the current node is not a combat node.
	ErrNotCombatNode = errors.New("current node is not a combat node")
	// ErrAwaitingInput is returned by Continue at a node that needs a choice or a fight.
	ErrAwaitingInput = errors.New("current node needs a choice or a fight")
)

// OpponentFactory builds the opponent for a combat node.
type OpponentFactory interface {
	GenerateKind(tier world.Tier, kind string, boss bool) (*character.Opponent, error)
}

// Content is the authored material shared by every session of a server.
type Content struct {
	Chapters  []*story.Chapter
	Cast      relationship.Cast
	Scripts   story.ScriptEvaluator
	Opponents OpponentFactory
}

// Resolution is what happened to the story when a battle ended.
type Resolution struct {
	Outcome combat.Outcome
	// Node is the node the story resumed at; nil when the session ended instead.
	Node story.Node
	Over bool
}

// Round is the result of one player action in combat.
type Round struct {
	Player combat.StepResult
	// Enemy holds the opponent's answer when it was resolved synchronously.
	Enemy *combat.StepResult
	// Resolution is set when the battle ended during this round.
	Resolution *Resolution
	// RipostePending is true when the opponent will answer through Events.
	RipostePending bool
}

// Status is a point-in-time summary for display.
type Status struct {
	Player        string
	Level         int
	Experience    int
	SkillPoints   int
	Gold          int
	Health        float64
	MaxHealth     float64
	Armor         float64
	Alignment     int
	AlignmentTier alignment.Tier
	Chapter       string
	Node          string
	Over          bool

	InCombat       bool
	Opponent       string
	OpponentHealth float64
	OpponentMax    float64
	OpponentArmor  float64
	Turn           combat.Turn
	CanAct         bool
	RipostePending bool
}

// Option configures a Session.
type Option func(*Session)

// WithRiposteDelay sets the pause before the opponent answers. Zero resolves
// the answer synchronously inside UseAbility.
func WithRiposteDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithLogger sets the session's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOutboxSize sets the event buffer size.
func WithOutboxSize(n int) Option {
	return func(s *Session) { s.outboxSize = n }
}

// Session owns one player's story progression, the active battle if any, and
// the timer pacing the opponent's riposte. All methods are safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	id         string
	player     *character.Player
	story      *story.Engine
	opponents  OpponentFactory
	src        dice.Source
	battle     *combat.Battle
	pending    *story.Combat
	timer      *combat.RoundTimer
	delay      time.Duration
	outbox     *Outbox
	outboxSize int
	over       bool
	closed     bool
	logger     *zap.Logger
}

// New starts a session for player with fresh story progression. Every chapter
// of content is registered and every cast member gets a relationship record.
//
// Precondition: id non-empty; player, content.Opponents and src non-nil.
func New(id string, player *character.Player, content Content, src dice.Source, opts ...Option) *Session {
	s := newSession(id, player, content.Opponents, src, opts)
	s.story = story.NewEngine(s.engineOptions(content)...)
	s.attach(content)
	return s
}

// Restore rebuilds a session from a saved snapshot.
//
// Postcondition: the restored session sits at the saved node, or an error is
// returned when the snapshot names a chapter that content does not provide.
func Restore(id string, snap save.Snapshot, content Content, src dice.Source, opts ...Option) (*Session, error) {
	player, err := character.FromState(snap.Player)
	if err != nil {
		return nil, fmt.Errorf("restoring session %s: %w", id, err)
	}
	s := newSession(id, player, content.Opponents, src, opts)
	engine, err := story.NewEngineFromState(snap.Story, s.engineOptions(content)...)
	if err != nil {
		return nil, fmt.Errorf("restoring session %s: %w", id, err)
	}
	s.story = engine
	s.attach(content)
	if ch := snap.Story.CurrentChapter; ch != "" {
		if _, ok := engine.CurrentNode(); !ok {
			return nil, fmt.Errorf("restoring session %s: %w: %q node %q", id, story.ErrNodeNotFound, ch, snap.Story.CurrentNode)
		}
	}
	s.logger.Info("session restored", zap.String("save", snap.ID), zap.String("chapter", snap.Story.CurrentChapter))
	return s, nil
}

func newSession(id string, player *character.Player, opponents OpponentFactory, src dice.Source, opts []Option) *Session {
	s := &Session{
		id:        id,
		player:    player,
		opponents: opponents,
		src:       src,
		timer:     combat.NewRoundTimer(),
		delay:     DefaultRiposteDelay,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With(zap.String("session", id))
	s.outbox = NewOutbox(id, s.outboxSize)
	return s
}

func (s *Session) engineOptions(content Content) []story.EngineOption {
	opts := []story.EngineOption{story.WithLogger(s.logger)}
	if content.Scripts != nil {
		opts = append(opts, story.WithScriptEvaluator(content.Scripts))
	}
	return opts
}

func (s *Session) attach(content Content) {
	s.story.SetProtagonist(s.player)
	for _, c := range content.Chapters {
		s.story.RegisterChapter(c)
	}
	for _, id := range content.Cast.IDs() {
		s.story.RegisterRelationship(id, content.Cast[id].Romanceable)
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Events delivers riposte results scheduled by UseAbility. The channel is closed by Close.
func (s *Session) Events() <-chan Event { return s.outbox.Events() }

// Start begins chapterID at its start node.
func (s *Session) Start(chapterID string) (story.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storyReady(false); err != nil {
		return nil, err
	}
	n, err := s.story.StartChapter(chapterID)
	if err != nil {
		return nil, err
	}
	s.over = false
	return n, nil
}

// Current returns the current story node.
func (s *Session) Current() (story.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.story.CurrentNode()
}

// Over reports whether the story has ended.
func (s *Session) Over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.over
}

// AvailableOptions lists the options of the current choice node whose conditions hold.
func (s *Session) AvailableOptions() ([]story.Option, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storyReady(true); err != nil {
		return nil, err
	}
	cur, ok := s.story.CurrentNode()
	if !ok {
		return nil, story.ErrNoActiveChapter
	}
	ch, ok := cur.(story.Choice)
	if !ok {
		return nil, fmt.Errorf("%w: %q is a %s node", story.ErrNotAChoice, cur.NodeID(), cur.Kind())
	}
	return s.story.AvailableChoices(ch.Options), nil
}

// Continue moves past the current narration, dialogue or checkpoint node.
// At a checkpoint the chapter is completed when the checkpoint says so and the
// next chapter is started when one is named.
//
// Postcondition: a nil node with a nil error means the story has ended and Over() is true.
func (s *Session) Continue() (story.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storyReady(true); err != nil {
		return nil, err
	}
	cur, ok := s.story.CurrentNode()
	if !ok {
		return nil, story.ErrNoActiveChapter
	}
	switch v := cur.(type) {
	case story.Choice, story.Combat:
		return nil, fmt.Errorf("%w: %q is a %s node", ErrAwaitingInput, cur.NodeID(), cur.Kind())
	case story.Checkpoint:
		if v.ChapterComplete {
			s.story.CompleteChapter()
		}
		if v.NextChapter != "" {
			return s.story.StartChapter(v.NextChapter)
		}
	}
	n, ok, err := s.story.AdvanceToNextNode()
	if err != nil {
		return nil, err
	}
	if !ok {
		s.over = true
		s.logger.Info("story ended", zap.String("node", cur.NodeID()))
		return nil, nil
	}
	return n, nil
}

// Choose selects an option of the current choice node.
func (s *Session) Choose(optionID string) (story.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storyReady(true); err != nil {
		return nil, err
	}
	return s.story.Choose(optionID)
}

// EnterCombat starts the battle described by the current combat node. A player
// defeated in an earlier battle rises at full health first.
//
// Postcondition: on success InCombat is true and the player acts first.
func (s *Session) EnterCombat() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storyReady(true); err != nil {
		return Status{}, err
	}
	cur, ok := s.story.CurrentNode()
	if !ok {
		return Status{}, story.ErrNoActiveChapter
	}
	node, ok := cur.(story.Combat)
	if !ok {
		return Status{}, fmt.Errorf("%w: %q is a %s node", ErrNotCombatNode, cur.NodeID(), cur.Kind())
	}
	opp, err := s.opponents.GenerateKind(s.player.WorldTier(), node.EnemyType, node.Boss)
	if err != nil {
		return Status{}, fmt.Errorf("combat node %q: %w", node.ID, err)
	}
	if node.NameOverride != "" {
		opp.SetName(node.NameOverride)
	}
	if s.player.IsDead() {
		s.player.RestoreHealth()
	}
	s.battle = combat.NewBattle(s.player, opp, s.src, s.logger)
	s.pending = &node
	s.logger.Info("combat started",
		zap.String("node", node.ID),
		zap.String("opponent", opp.Name()),
		zap.Bool("boss", node.Boss),
	)
	return s.status(), nil
}

// InCombat reports whether a battle is running.
func (s *Session) InCombat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.battle != nil
}

// BattleLogs returns a copy of the running battle's log, or nil outside combat.
func (s *Session) BattleLogs() []combat.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.battle == nil {
		return nil
	}
	return s.battle.Logs()
}

// UseAbility performs the player's ability at index. When the battle goes on
// the opponent answers: synchronously with a zero riposte delay, otherwise
// after the delay through Events.
//
// Precondition: a battle is running and the player may act; while a riposte is
// pending the battle rejects the action with *combat.IllegalTurnError.
func (s *Session) UseAbility(index int) (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Round{}, ErrSessionClosed
	}
	if s.battle == nil {
		return Round{}, ErrNotInCombat
	}
	step, err := s.battle.PlayerUseAbility(index)
	if err != nil {
		return Round{}, err
	}
	round := Round{Player: step}
	if step.Ended {
		res, err := s.resolve()
		round.Resolution = res
		return round, err
	}
	if s.delay > 0 {
		s.timer.Schedule(s.delay, s.riposte)
		round.RipostePending = true
		return round, nil
	}
	enemy, err := s.battle.EnemyTurn()
	if err != nil {
		return round, err
	}
	round.Enemy = &enemy
	if enemy.Ended {
		res, err := s.resolve()
		round.Resolution = res
		return round, err
	}
	return round, nil
}

// riposte runs on the timer goroutine.
func (s *Session) riposte() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.battle == nil {
		return
	}
	var ev Event
	step, err := s.battle.EnemyTurn()
	if err != nil {
		s.logger.Error("riposte failed", zap.Error(err))
		ev.Err = err
	} else {
		ev.Enemy = step
		if step.Ended {
			ev.Resolution, ev.Err = s.resolve()
		}
	}
	if err := s.outbox.Push(ev); err != nil {
		s.logger.Warn("dropping riposte event", zap.Error(err))
	}
}

// resolve hands an ended battle back to the story. Victory resumes at the win
// node. Defeat resumes at the lose node, or ends the session when there is none.
func (s *Session) resolve() (*Resolution, error) {
	outcome := s.battle.Outcome()
	node := s.pending
	s.battle = nil
	s.pending = nil
	s.timer.Stop()

	target := node.Win
	if outcome == combat.Defeat {
		target = node.Lose
	}
	res := &Resolution{Outcome: outcome}
	if target == "" {
		s.over = true
		res.Over = true
		s.logger.Info("battle ended the story", zap.String("node", node.ID), zap.String("outcome", outcome.String()))
		return res, nil
	}
	n, err := s.story.AdvanceToNode(target)
	if err != nil {
		return res, fmt.Errorf("resuming after combat node %q: %w", node.ID, err)
	}
	res.Node = n
	s.logger.Info("story resumed after combat",
		zap.String("node", node.ID),
		zap.String("outcome", outcome.String()),
		zap.String("resume", target),
	)
	return res, nil
}

// Status returns a summary of the player, the story position and the battle.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Session) status() Status {
	st := s.story.State()
	out := Status{
		Player:        s.player.Name(),
		Level:         s.player.Level(),
		Experience:    s.player.Experience(),
		SkillPoints:   s.player.SkillPoints(),
		Gold:          s.player.Gold(),
		Health:        s.player.Health(),
		MaxHealth:     s.player.MaxHealth(),
		Armor:         s.player.Armor(),
		Alignment:     st.Alignment,
		AlignmentTier: alignment.TierOf(st.Alignment),
		Chapter:       st.CurrentChapter,
		Node:          st.CurrentNode,
		Over:          s.over,
	}
	if s.battle != nil {
		opp := s.battle.Opponent()
		out.InCombat = true
		out.Opponent = opp.Name()
		out.OpponentHealth = opp.Health()
		out.OpponentMax = opp.MaxHealth()
		out.OpponentArmor = opp.Armor()
		out.Turn = s.battle.Turn()
		out.CanAct = s.battle.CanPlayerAct()
		out.RipostePending = s.timer.Pending()
	}
	return out
}

// Relationships returns a copy of every relationship record.
func (s *Session) Relationships() map[string]relationship.Relationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.story.State().Relationships
}

// Snapshot captures the player and story progression for saving. Battles are
// not saved, so snapshotting during combat fails.
func (s *Session) Snapshot() (save.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return save.Snapshot{}, ErrSessionClosed
	}
	if s.battle != nil {
		return save.Snapshot{}, ErrInCombat
	}
	return save.New(s.player.State(), s.story.State(), time.Now()), nil
}

// Close cancels a pending riposte and closes Events.
//
// Postcondition: every later operation returns ErrSessionClosed. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.timer.Stop()
	s.outbox.Close()
	s.logger.Debug("session closed")
}

// storyReady checks the preconditions shared by story operations.
func (s *Session) storyReady(needStory bool) error {
	switch {
	case s.closed:
		return ErrSessionClosed
	case s.battle != nil:
		return ErrInCombat
	case needStory && s.over:
		return ErrStoryOver
	}
	return nil
}

// Abilities returns the player's known abilities in use order.
func (s *Session) Abilities() []ability.Ability {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.player.Abilities()
	out := make([]ability.Ability, 0, len(ids))
	for _, id := range ids {
		if a, err := ability.Lookup(id); err == nil {
			out = append(out, a)
		}
	}
	return out
}

// Inventory returns copies of the items the player carries.
func (s *Session) Inventory() []inventory.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Inventory()
}

// Equip puts the carried item itemID into slot. Equipment cannot change mid-battle.
func (s *Session) Equip(slot inventory.Slot, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.characterReady(); err != nil {
		return err
	}
	return s.player.Equip(slot, itemID)
}

// Unequip empties slot. Equipment cannot change mid-battle.
func (s *Session) Unequip(slot inventory.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.characterReady(); err != nil {
		return err
	}
	s.player.Unequip(slot)
	return nil
}

// Learn spends a skill point on the ability id.
func (s *Session) Learn(id ability.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.characterReady(); err != nil {
		return err
	}
	return s.player.LearnAbility(id)
}

func (s *Session) characterReady() error {
	switch {
	case s.closed:
		return ErrSessionClosed
	case s.battle != nil:
		return ErrInCombat
	}
	return nil
}
