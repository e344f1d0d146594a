package combat

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/makavia/internal/game/ability"
	"github.com/cory-johannsen/makavia/internal/game/character"
	"github.com/cory-johannsen/makavia/internal/game/dice"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
)

// StepResult is what one action produced.
type StepResult struct {
	Actor            Side
	Logs             []LogEntry
	Resolution       ability.Resolution
	Ended            bool
	ExperienceGained int
	LeveledUp        bool
	Loot             *inventory.Item
}

// Battle adjudicates one fight between the player and an opponent, from the
// first player action to a terminal state.
//
// A Battle is not safe for concurrent use; the owning session serialises calls.
type Battle struct {
	player   *character.Player
	opponent *character.Opponent
	turn     Turn
	ended    bool
	logs     []LogEntry
	buffs    BuffSet
	src      dice.Source
	logger   *zap.Logger
}

// NewBattle starts a battle at turn 0 with the player to act.
//
// Precondition: player, opponent, and src must be non-nil.
func NewBattle(player *character.Player, opponent *character.Opponent, src dice.Source, logger *zap.Logger) *Battle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Battle{
		player:   player,
		opponent: opponent,
		turn:     Turn{Count: 0, Phase: PhasePlayer},
		src:      src,
		logger:   logger.With(zap.String("opponent", opponent.Name())),
	}
}

func (b *Battle) Player() *character.Player     { return b.player }
func (b *Battle) Opponent() *character.Opponent { return b.opponent }
func (b *Battle) Turn() Turn                    { return b.turn }
func (b *Battle) Ended() bool                   { return b.ended }

// Logs returns a copy of every log line so far.
func (b *Battle) Logs() []LogEntry {
	return append([]LogEntry(nil), b.logs...)
}

// Buffs returns copies of the active buffs.
func (b *Battle) Buffs() []ActiveBuff { return b.buffs.All() }

// Outcome reports victory, defeat, or that the battle is still running.
func (b *Battle) Outcome() Outcome {
	switch {
	case !b.ended:
		return Ongoing
	case b.opponent.IsDead():
		return Victory
	default:
		return Defeat
	}
}

// CanPlayerAct reports whether the battle is running and it is the player's turn.
func (b *Battle) CanPlayerAct() bool {
	return !b.ended && b.turn.Phase == PhasePlayer
}

// PlayerUseAbility performs the player's known ability at index.
//
// Precondition: CanPlayerAct() is true, otherwise *IllegalTurnError is returned.
// Postcondition: exactly one resolution is produced. If the opponent died the
// phase is PhaseEnd; otherwise buffs have ticked and the phase is PhaseEnemy.
func (b *Battle) PlayerUseAbility(index int) (StepResult, error) {
	if !b.CanPlayerAct() {
		b.logger.Error("player acted out of turn", zap.String("phase", string(b.turn.Phase)))
		return StepResult{}, &IllegalTurnError{Actor: SidePlayer, Phase: b.turn.Phase}
	}
	id, ok := b.player.AbilityAt(index)
	if !ok {
		return StepResult{}, &AbilityNotFoundError{Index: index, Known: len(b.player.Abilities())}
	}
	outcome, err := b.player.UseAbility(id, b.opponent, b.src)
	if err != nil {
		return StepResult{}, fmt.Errorf("player ability %q: %w", id, err)
	}

	res := outcome.Resolution
	step := []LogEntry{b.abilityLog(SidePlayer, res)}
	name := b.player.Name()
	if outcome.ExperienceGained > 0 {
		step = append(step, b.newLog(fmt.Sprintf("%s gained %d experience.", name, outcome.ExperienceGained)))
	}
	if outcome.LeveledUp {
		step = append(step, b.newLog(fmt.Sprintf("%s leveled up to %d!", name, b.player.Level())))
	}
	if outcome.Loot != nil {
		step = append(step, b.newLog(fmt.Sprintf("%s looted %s.", name, outcome.Loot.Name)))
	}
	step = append(step, b.applyBuff(SidePlayer, res)...)

	if b.opponent.IsDead() {
		step = append(step, b.finish(b.opponent.Name())...)
	} else {
		step = append(step, b.tickBuffs()...)
		b.advance(PhaseEnemy)
	}
	b.logs = append(b.logs, step...)

	b.logger.Debug("player step",
		zap.String("ability", string(id)),
		zap.Float64("amount", res.Amount),
		zap.Int("turn", b.turn.Count),
		zap.Bool("ended", b.ended),
	)
	return StepResult{
		Actor:            SidePlayer,
		Logs:             step,
		Resolution:       res,
		Ended:            b.ended,
		ExperienceGained: outcome.ExperienceGained,
		LeveledUp:        outcome.LeveledUp,
		Loot:             outcome.Loot,
	}, nil
}

// EnemyTurn lets the opponent act with a uniformly chosen ability.
//
// Precondition: the battle is running and the phase is PhaseEnemy, otherwise
// *IllegalTurnError is returned.
func (b *Battle) EnemyTurn() (StepResult, error) {
	if b.ended || b.turn.Phase != PhaseEnemy {
		b.logger.Error("enemy acted out of turn", zap.String("phase", string(b.turn.Phase)))
		return StepResult{}, &IllegalTurnError{Actor: SideEnemy, Phase: b.turn.Phase}
	}
	id, err := b.opponent.ChooseAbility(b.src)
	if err != nil {
		return StepResult{}, fmt.Errorf("enemy turn: %w", err)
	}
	res, err := ability.Use(id, b.opponent, b.player)
	if err != nil {
		return StepResult{}, fmt.Errorf("enemy ability %q: %w", id, err)
	}

	step := []LogEntry{b.abilityLog(SideEnemy, res)}
	step = append(step, b.applyBuff(SideEnemy, res)...)

	if b.player.IsDead() {
		step = append(step, b.finish(b.player.Name())...)
	} else {
		step = append(step, b.tickBuffs()...)
		b.advance(PhasePlayer)
	}
	b.logs = append(b.logs, step...)

	b.logger.Debug("enemy step",
		zap.String("ability", string(id)),
		zap.Float64("amount", res.Amount),
		zap.Int("turn", b.turn.Count),
		zap.Bool("ended", b.ended),
	)
	return StepResult{Actor: SideEnemy, Logs: step, Resolution: res, Ended: b.ended}, nil
}

func (b *Battle) advance(next Phase) {
	b.turn.Count++
	b.turn.Phase = next
}

// finish ends the battle and reverts every buff still active so that no stat
// change outlives the fight.
func (b *Battle) finish(defeated string) []LogEntry {
	b.ended = true
	b.advance(PhaseEnd)
	for _, buff := range b.buffs.Drain() {
		applyStat(b.participant(buff.Target), buff.Stat, -buff.Amount)
	}
	b.logger.Info("battle ended", zap.String("defeated", defeated), zap.Int("turn", b.turn.Count))
	return []LogEntry{b.newLog(fmt.Sprintf("%s has been defeated!", defeated))}
}

func (b *Battle) applyBuff(actor Side, res ability.Resolution) []LogEntry {
	if res.Effect != ability.EffectBuff || res.Duration <= 0 || res.Stat == "" {
		return nil
	}
	target := b.recipient(actor, res.Target)
	applyStat(b.participant(target), res.Stat, res.Amount)
	b.buffs.Add(target, res.Stat, res.Amount, res.Duration)
	return []LogEntry{b.newLog(fmt.Sprintf("%s gains %s %s for %d turns.",
		b.nameOf(target), formatAmount(res.Amount), res.Stat, res.Duration))}
}

func (b *Battle) tickBuffs() []LogEntry {
	var out []LogEntry
	for _, buff := range b.buffs.Tick() {
		applyStat(b.participant(buff.Target), buff.Stat, -buff.Amount)
		out = append(out, b.newLog(fmt.Sprintf("%s's %s buff fades.", b.nameOf(buff.Target), buff.Stat)))
	}
	return out
}

func (b *Battle) abilityLog(actor Side, res ability.Resolution) LogEntry {
	actorName := b.nameOf(actor)
	targetName := b.nameOf(b.recipient(actor, res.Target))
	var msg string
	switch res.Effect {
	case ability.EffectDamage:
		msg = fmt.Sprintf("%s used %s on %s for %s damage.", actorName, res.Name, targetName, formatAmount(res.Amount))
	case ability.EffectHeal:
		msg = fmt.Sprintf("%s used %s and healed %s for %s health.", actorName, res.Name, targetName, formatAmount(res.Amount))
	case ability.EffectBuff:
		msg = fmt.Sprintf("%s used %s on %s.", actorName, res.Name, targetName)
	default:
		msg = fmt.Sprintf("%s used %s.", actorName, res.Name)
	}
	return b.newLog(msg)
}

// recipient converts a resolution target relative to actor into a battle side.
func (b *Battle) recipient(actor Side, target ability.Side) Side {
	if target == ability.Self {
		return actor
	}
	if actor == SidePlayer {
		return SideEnemy
	}
	return SidePlayer
}

func (b *Battle) participant(s Side) armorAdjuster {
	if s == SidePlayer {
		return b.player
	}
	return b.opponent
}

func (b *Battle) nameOf(s Side) string {
	if s == SidePlayer {
		return b.player.Name()
	}
	return b.opponent.Name()
}

func (b *Battle) newLog(msg string) LogEntry {
	return LogEntry{ID: uuid.NewString(), Turn: b.turn.Count, Message: msg}
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%d", int(math.Round(v)))
}
