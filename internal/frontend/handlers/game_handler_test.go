package handlers_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/makavia/internal/config"
	"github.com/cory-johannsen/makavia/internal/frontend/handlers"
	"github.com/cory-johannsen/makavia/internal/frontend/telnet"
	"github.com/cory-johannsen/makavia/internal/game/ability"
	"github.com/cory-johannsen/makavia/internal/game/attribute"
	"github.com/cory-johannsen/makavia/internal/game/character"
	"github.com/cory-johannsen/makavia/internal/game/dice"
	"github.com/cory-johannsen/makavia/internal/game/session"
	"github.com/cory-johannsen/makavia/internal/game/story"
	"github.com/cory-johannsen/makavia/internal/game/world"
	"github.com/cory-johannsen/makavia/internal/save"
	"github.com/cory-johannsen/makavia/internal/testutil"
)

const wait = 3 * time.Second

const roadYAML = `
id: road
title: The Road
start: intro
nodes:
  - id: intro
    type: narration
    text: Dust rises on the road.
    next: crossroads
  - id: crossroads
    type: choice
    prompt: Bandits block the way.
    options:
      - id: duel
        label: Duel their leader
        next: duel
        effects:
          - {type: relationship, character: elena, amount: 10}
      - id: flee
        label: Slip away through the trees
        next: rest
  - id: duel
    type: combat
    enemy: bandit
    name_override: Grik the Bold
    win: victory
  - id: victory
    type: narration
    text: The road is clear.
    next: rest
  - id: rest
    type: checkpoint
    summary: The bandits are scattered.
`

type opponents struct {
	spec character.OpponentSpec
}

func (o opponents) GenerateKind(world.Tier, string, bool) (*character.Opponent, error) {
	return character.NewOpponent(o.spec), nil
}

var (
	weakling = character.OpponentSpec{ID: "b1", Kind: "bandit", Name: "Bandit", Health: 10, Damage: 1, Abilities: []ability.ID{ability.Slash}, XPDrop: 30}
	sparring = character.OpponentSpec{ID: "b2", Kind: "bandit", Name: "Bandit", Health: 1000, Damage: 1, Abilities: []ability.ID{ability.Slash}, XPDrop: 30}
)

func gameConfig(t *testing.T, spec character.OpponentSpec, store save.Store, opts ...session.Option) handlers.GameConfig {
	t.Helper()
	road, err := story.LoadChapterFromBytes([]byte(roadYAML))
	require.NoError(t, err)
	return handlers.GameConfig{
		Content: session.Content{
			Chapters:  []*story.Chapter{road},
			Cast:      cast,
			Opponents: opponents{spec: spec},
		},
		Players: func() (*character.Player, error) {
			return character.Build(character.Params{
				Name:       "Aria",
				Background: character.Soldier,
				Class:      character.Warrior,
				WorldTier:  world.Advanced,
				Attributes: attribute.Uniform(5),
				MaxHealth:  100,
				Armor:      10,
				Damage:     2,
				Abilities:  []ability.ID{ability.Slash},
			})
		},
		StartChapter:   "road",
		Sessions:       session.NewManager(),
		Store:          store,
		Source:         func() dice.Source { return dice.NewFixedSource(0) },
		SessionOptions: opts,
		Logger:         zaptest.NewLogger(t),
	}
}

// serve runs a GameHandler behind a real acceptor and returns a connected client.
func serve(t *testing.T, cfg handlers.GameConfig) *testutil.GameClient {
	t.Helper()
	acc := telnet.NewAcceptor(config.TelnetConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, handlers.NewGameHandler(cfg), zaptest.NewLogger(t))

	go func() { _ = acc.ListenAndServe(t.Context()) }()
	require.Eventually(t, func() bool { return acc.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	t.Cleanup(acc.Stop)

	client := testutil.NewGameClient(t, acc.Addr())
	client.Expect("Dust rises on the road.", wait)
	return client
}

func TestGameHandler_PlaysThroughBattle(t *testing.T) {
	cfg := gameConfig(t, weakling, nil, session.WithRiposteDelay(0))
	c := serve(t, cfg)

	c.Send("continue")
	out := c.Expect("2) Slip away through the trees", wait)
	assert.Contains(t, out, "Bandits block the way.")
	assert.Contains(t, out, "1) Duel their leader")

	c.Do("choose 1", "A Grik the Bold bars your way.", wait)

	c.Send("fight")
	out = c.Expect("You face Grik the Bold!", wait)
	assert.NotContains(t, out, "Victory!")

	c.Send("use 1")
	out = c.Expect("The road is clear.", wait)
	assert.Contains(t, out, "Victory!")
	assert.Contains(t, out, "Grik the Bold has been defeated!")

	c.Do("rel", "Elena", wait)

	c.Do("continue", "The bandits are scattered.", wait)

	c.Do("continue", "Your tale is told.", wait)

	c.Do("quit", "Farewell.", wait)
	assert.Eventually(t, func() bool { return cfg.Sessions.Count() == 0 }, wait, 10*time.Millisecond)
}

func TestGameHandler_DelayedRiposteIsPushed(t *testing.T) {
	c := serve(t, gameConfig(t, sparring, nil, session.WithRiposteDelay(20*time.Millisecond)))

	c.Do("continue", "2) Slip away", wait)
	c.Do("1", "bars your way", wait)
	c.Do("fight", "You face", wait)

	c.Send("1")
	out := c.Expect("Grik the Bold used Slash on Aria", wait)
	assert.Contains(t, out, "Aria used Slash on Grik the Bold")
	assert.Contains(t, out, "readies a reply...")

	c.Do("status", "player to act", wait)
}

func TestGameHandler_SaveAndLoad(t *testing.T) {
	store, err := save.NewFileStore(t.TempDir())
	require.NoError(t, err)
	c := serve(t, gameConfig(t, weakling, store, session.WithRiposteDelay(0)))

	c.Do("continue", "2) Slip away", wait)
	c.Do("choose 1", "bars your way", wait)

	c.Do("save road", `Saved to slot "road".`, wait)

	slots, err := store.Slots(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"road"}, slots)

	c.Send("load road")
	out := c.Expect("A Grik the Bold bars your way.", wait)
	assert.Contains(t, out, `Loaded slot "road"`)

	c.Do("load missing", `no saved game in slot "missing"`, wait)

	c.Do("save", `Saved to slot "quicksave".`, wait)
}

func TestGameHandler_SaveDisabledWithoutStore(t *testing.T) {
	c := serve(t, gameConfig(t, weakling, nil))
	c.Do("save", "saving is disabled on this server", wait)
	c.Do("load", "loading is disabled on this server", wait)
}

func TestGameHandler_RejectsBadInput(t *testing.T) {
	c := serve(t, gameConfig(t, weakling, nil))

	c.Do("dance", "You don't know how to 'dance'.", wait)

	c.Do("choose 1", story.ErrNotAChoice.Error(), wait)

	c.Do("use 1", session.ErrNotInCombat.Error(), wait)

	c.Do("fight", session.ErrNotCombatNode.Error(), wait)

	c.Do("continue", "Bandits block the way.", wait)
	c.Do("choose 7", "there is no option 7", wait)
	c.Do("choose two", `"two" is not a list number`, wait)
	c.Do("continue", session.ErrAwaitingInput.Error(), wait)

	c.Do("unequip pocket", "unequip which slot?", wait)
	c.Do("learn", "learn which ability?", wait)

	c.Do(strings.Repeat("x", telnet.MaxCommandLength+1), "That command is too long.", wait)
	c.Do("status", "Aria", wait)
}

func TestGameHandler_Help(t *testing.T) {
	c := serve(t, gameConfig(t, weakling, nil))
	c.Send("?")
	out := c.Expect("Disconnect from the game", wait)
	assert.Contains(t, out, "Available commands:")
	assert.Contains(t, out, "choose <n>")
	assert.Contains(t, out, "Combat:")
}

func TestGameHandler_AbilitiesAndInventory(t *testing.T) {
	c := serve(t, gameConfig(t, weakling, nil))
	slash, err := ability.Lookup(ability.Slash)
	require.NoError(t, err)

	c.Do("abilities", "1) "+slash.Name, wait)
	c.Do("inv", "You carry nothing.", wait)
	c.Do("equip 1", "you carry no item 1", wait)
}
