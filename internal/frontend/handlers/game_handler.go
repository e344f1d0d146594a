// Package handlers plays story sessions over Telnet connections.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/makavia/internal/frontend/telnet"
	"github.com/cory-johannsen/makavia/internal/game/ability"
	"github.com/cory-johannsen/makavia/internal/game/character"
	"github.com/cory-johannsen/makavia/internal/game/command"
	"github.com/cory-johannsen/makavia/internal/game/dice"
	"github.com/cory-johannsen/makavia/internal/game/inventory"
	"github.com/cory-johannsen/makavia/internal/game/session"
	"github.com/cory-johannsen/makavia/internal/game/story"
	"github.com/cory-johannsen/makavia/internal/save"
)

// DefaultSlot is the save slot used when save or load is given no slot name.
const DefaultSlot = "quicksave"

const welcomeBanner = "\r\n" + telnet.Bold + telnet.BrightCyan + `  M A K A V I A` + telnet.Reset + "\r\n" +
	telnet.BrightYellow + `  A tale of steel, oaths and the company you keep` + telnet.Reset + "\r\n\r\n" +
	`  Type ` + telnet.Green + `help` + telnet.Reset + ` for commands, ` + telnet.Green + `quit` + telnet.Reset + ` to leave.` + "\r\n"

// PlayerFactory builds the starting character for a new connection.
type PlayerFactory func() (*character.Player, error)

// GameConfig wires a GameHandler to its content and collaborators.
type GameConfig struct {
	Content      session.Content
	Players      PlayerFactory
	StartChapter string
	Sessions     *session.Manager
	// Store persists snapshots. A nil Store disables save and load.
	Store save.Store
	// Source creates the random source for each session. Nil uses dice.NewCryptoSource.
	Source         func() dice.Source
	SessionOptions []session.Option
	Logger         *zap.Logger
}

// GameHandler implements telnet.SessionHandler. Each connection plays its own
// Session, registered in the shared Manager under the connection id.
type GameHandler struct {
	cfg      GameConfig
	registry *command.Registry
	render   *Renderer
	logger   *zap.Logger
}

// NewGameHandler creates a GameHandler.
//
// Precondition: cfg.Players and cfg.Sessions must be non-nil; cfg.StartChapter names a chapter in cfg.Content.
// Postcondition: Returns a handler ready to serve connections.
func NewGameHandler(cfg GameConfig) *GameHandler {
	if cfg.Source == nil {
		cfg.Source = dice.NewCryptoSource
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameHandler{
		cfg:      cfg,
		registry: command.DefaultRegistry(),
		render:   NewRenderer(cfg.Content.Cast),
		logger:   logger,
	}
}

// HandleSession implements telnet.SessionHandler. It starts the opening chapter
// and runs the command loop until the player quits or the connection fails.
// Opponent ripostes arriving between commands are written as they happen.
//
// Postcondition: Returns nil on quit, ctx.Err() on shutdown, or the error that ended the session.
// The connection's Session is closed and removed from the Manager.
func (h *GameHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	start := time.Now()
	logger := h.logger.With(zap.String("session", conn.ID()))

	player, err := h.cfg.Players()
	if err != nil {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Failed to create your character."))
		return fmt.Errorf("building player: %w", err)
	}
	p := &play{h: h, conn: conn, logger: logger}
	if err := p.attach(session.New(conn.ID(), player, h.cfg.Content, h.cfg.Source(), h.sessionOptions(logger)...)); err != nil {
		return err
	}
	defer func() { _ = h.cfg.Sessions.Remove(conn.ID()) }()

	if err := conn.WriteText(welcomeBanner); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}
	node, err := p.s.Start(h.cfg.StartChapter)
	if err != nil {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "The story could not begin."))
		return fmt.Errorf("starting chapter %q: %w", h.cfg.StartChapter, err)
	}
	p.showNode(node)
	logger.Info("story started", zap.String("player", player.Name()), zap.String("chapter", h.cfg.StartChapter))

	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(conn, done)

	for {
		_ = conn.WritePrompt(h.render.Prompt(p.s.Status()))
		select {
		case <-ctx.Done():
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down. Goodbye!"))
			return ctx.Err()
		case err := <-readErr:
			return fmt.Errorf("reading input: %w", err)
		case ev, ok := <-p.s.Events():
			if !ok {
				_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Your session has ended."))
				return session.ErrSessionClosed
			}
			p.showEvent(ev)
		case line := <-lines:
			if p.dispatch(ctx, line) {
				logger.Info("player quit", zap.Duration("duration", time.Since(start)))
				return nil
			}
		}
	}
}

func (h *GameHandler) sessionOptions(logger *zap.Logger) []session.Option {
	return append(slices.Clone(h.cfg.SessionOptions), session.WithLogger(logger))
}

// readLines forwards input lines until a read fails or done is closed.
func readLines(conn *telnet.Conn, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		for {
			line, err := conn.ReadLine()
			if errors.Is(err, telnet.ErrLineTooLong) {
				_ = conn.WriteLine(telnet.Colorize(telnet.Red, "That command is too long."))
				continue
			}
			if err != nil {
				errs <- err
				return
			}
			select {
			case lines <- line:
			case <-done:
				return
			}
		}
	}()
	return lines, errs
}

// play is the per-connection state of the command loop.
type play struct {
	h      *GameHandler
	conn   *telnet.Conn
	s      *session.Session
	logger *zap.Logger
}

func (p *play) attach(s *session.Session) error {
	if err := p.h.cfg.Sessions.Add(s); err != nil {
		s.Close()
		return err
	}
	p.s = s
	return nil
}

// replace swaps in a restored session under the same connection id.
func (p *play) replace(s *session.Session) error {
	_ = p.h.cfg.Sessions.Remove(p.conn.ID())
	return p.attach(s)
}

func (p *play) write(text string) {
	_ = p.conn.WriteText(text)
}

func (p *play) fail(err error) {
	p.write(p.h.render.Error(err))
}

// dispatch runs one input line. It reports whether the player quit.
func (p *play) dispatch(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	parsed, cmd, ok := p.h.registry.Interpret(line, p.s.Status().InCombat)
	if !ok {
		msg := telnet.Colorf(telnet.Dim, "You don't know how to '%s'. Type help.", parsed.Command)
		if near := p.h.registry.Suggest(parsed.Command); len(near) > 1 {
			msg += telnet.Colorf(telnet.Dim, " Did you mean: %s?", strings.Join(near, ", "))
		}
		p.write(msg + "\r\n")
		return false
	}

	r := p.h.render
	switch cmd.Handler {
	case command.HandlerContinue:
		node, err := p.s.Continue()
		switch {
		case err != nil:
			p.fail(err)
		case node == nil:
			p.write(r.StoryOver())
		default:
			p.showNode(node)
		}

	case command.HandlerChoose:
		p.choose(parsed)

	case command.HandlerOptions:
		opts, err := p.s.AvailableOptions()
		if err != nil {
			p.fail(err)
			break
		}
		p.write(r.Options(opts))

	case command.HandlerLook:
		p.look()

	case command.HandlerRelationships:
		p.write(r.Relationships(p.s.Relationships()))

	case command.HandlerFight:
		st, err := p.s.EnterCombat()
		if err != nil {
			p.fail(err)
			break
		}
		p.write(telnet.Colorf(telnet.BrightRed+telnet.Bold, "You face %s!", st.Opponent) + "\r\n")
		p.write(r.Status(st))
		p.write(r.Abilities(p.s.Abilities()))

	case command.HandlerUse:
		i, err := parsed.Ordinal(0)
		if err != nil {
			p.fail(err)
			break
		}
		round, err := p.s.UseAbility(i)
		if err != nil {
			p.fail(err)
			break
		}
		p.showRound(round)

	case command.HandlerAbilities:
		p.write(r.Abilities(p.s.Abilities()))

	case command.HandlerStatus:
		p.write(r.Status(p.s.Status()))

	case command.HandlerInventory:
		p.write(r.Inventory(p.s.Inventory()))

	case command.HandlerEquip:
		p.equip(parsed)

	case command.HandlerUnequip:
		slot := inventory.Slot(strings.ToLower(parsed.Arg(0)))
		if !slices.Contains(inventory.Slots(), slot) {
			p.fail(fmt.Errorf("unequip which slot? One of %s", slotList()))
			break
		}
		if err := p.s.Unequip(slot); err != nil {
			p.fail(err)
			break
		}
		p.write(telnet.Colorf(telnet.Cyan, "Your %s slot is empty.", slot.DisplayName()) + "\r\n")

	case command.HandlerLearn:
		id := ability.ID(strings.ToLower(parsed.Arg(0)))
		if id == "" {
			p.fail(errors.New("learn which ability?"))
			break
		}
		if err := p.s.Learn(id); err != nil {
			p.fail(err)
			break
		}
		p.write(telnet.Colorf(telnet.BrightGreen, "You learn %s.", id) + "\r\n")

	case command.HandlerSave:
		p.save(ctx, slotArg(parsed))

	case command.HandlerLoad:
		p.load(ctx, slotArg(parsed))

	case command.HandlerHelp:
		p.help()

	case command.HandlerQuit:
		p.write(telnet.Colorize(telnet.Cyan, "The road will wait for you. Farewell.") + "\r\n")
		return true
	}
	return false
}

func slotArg(parsed command.ParseResult) string {
	if slot := parsed.Arg(0); slot != "" {
		return slot
	}
	return DefaultSlot
}

func slotList() string {
	names := make([]string, 0, len(inventory.Slots()))
	for _, s := range inventory.Slots() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func (p *play) choose(parsed command.ParseResult) {
	i, err := parsed.Ordinal(0)
	if err != nil {
		p.fail(err)
		return
	}
	opts, err := p.s.AvailableOptions()
	if err != nil {
		p.fail(err)
		return
	}
	if i >= len(opts) {
		p.fail(fmt.Errorf("there is no option %d", i+1))
		return
	}
	node, err := p.s.Choose(opts[i].ID)
	if err != nil {
		p.fail(err)
		return
	}
	p.showNode(node)
}

func (p *play) equip(parsed command.ParseResult) {
	i, err := parsed.Ordinal(0)
	if err != nil {
		p.fail(err)
		return
	}
	items := p.s.Inventory()
	if i >= len(items) {
		p.fail(fmt.Errorf("you carry no item %d", i+1))
		return
	}
	it := items[i]
	slot := it.Slot
	if arg := parsed.Arg(1); arg != "" {
		slot = inventory.Slot(strings.ToLower(arg))
	}
	if err := p.s.Equip(slot, it.ID); err != nil {
		p.fail(err)
		return
	}
	p.write(telnet.Colorf(telnet.Cyan, "You equip %s (%s).", it.Name, slot.DisplayName()) + "\r\n")
}

func (p *play) look() {
	if p.s.InCombat() {
		p.write(p.h.render.Status(p.s.Status()))
		return
	}
	if node, ok := p.s.Current(); ok && !p.s.Over() {
		p.showNode(node)
		return
	}
	p.write(p.h.render.StoryOver())
}

func (p *play) save(ctx context.Context, slot string) {
	if p.h.cfg.Store == nil {
		p.fail(errors.New("saving is disabled on this server"))
		return
	}
	snap, err := p.s.Snapshot()
	if err != nil {
		p.fail(err)
		return
	}
	if err := p.h.cfg.Store.Save(ctx, slot, snap); err != nil {
		p.logger.Error("saving snapshot", zap.String("slot", slot), zap.Error(err))
		p.fail(fmt.Errorf("could not save to %q", slot))
		return
	}
	p.logger.Info("game saved", zap.String("slot", slot), zap.String("save_id", snap.ID))
	p.write(telnet.Colorf(telnet.Green, "Saved to slot %q.", slot) + "\r\n")
}

func (p *play) load(ctx context.Context, slot string) {
	if p.h.cfg.Store == nil {
		p.fail(errors.New("loading is disabled on this server"))
		return
	}
	if p.s.InCombat() {
		p.fail(session.ErrInCombat)
		return
	}
	snap, err := p.h.cfg.Store.Load(ctx, slot)
	if err != nil {
		if errors.Is(err, save.ErrNotFound) {
			p.fail(fmt.Errorf("no saved game in slot %q", slot))
			return
		}
		p.logger.Error("loading snapshot", zap.String("slot", slot), zap.Error(err))
		p.fail(fmt.Errorf("could not load %q", slot))
		return
	}
	restored, err := session.Restore(p.conn.ID(), snap, p.h.cfg.Content, p.h.cfg.Source(), p.h.sessionOptions(p.logger)...)
	if err != nil {
		p.fail(err)
		return
	}
	if err := p.replace(restored); err != nil {
		p.fail(err)
		return
	}
	p.logger.Info("game loaded", zap.String("slot", slot), zap.String("save_id", snap.ID))
	p.write(telnet.Colorf(telnet.Green, "Loaded slot %q, saved %s.", slot, snap.SavedAt.Format(time.DateTime)) + "\r\n")
	p.look()
}

func (p *play) options(n story.Node) []story.Option {
	if n == nil || n.Kind() != story.KindChoice {
		return nil
	}
	opts, err := p.s.AvailableOptions()
	if err != nil {
		p.logger.Warn("listing options", zap.String("node", n.NodeID()), zap.Error(err))
	}
	return opts
}

func (p *play) showNode(n story.Node) {
	p.write(p.h.render.Node(n, p.options(n)))
}

func (p *play) showResolution(res session.Resolution) {
	p.write(p.h.render.Resolution(res, p.options(res.Node)))
}

func (p *play) showRound(round session.Round) {
	r := p.h.render
	p.write(r.Step(round.Player))
	if round.Enemy != nil {
		p.write(r.Step(*round.Enemy))
	}
	if round.Resolution != nil {
		p.showResolution(*round.Resolution)
		return
	}
	if round.RipostePending {
		p.write(telnet.Colorf(telnet.Dim, "%s readies a reply...", p.s.Status().Opponent) + "\r\n")
	}
}

func (p *play) showEvent(ev session.Event) {
	if ev.Err != nil {
		p.logger.Warn("opponent turn failed", zap.Error(ev.Err))
		p.fail(ev.Err)
		return
	}
	p.write("\r\n" + p.h.render.Step(ev.Enemy))
	if ev.Resolution != nil {
		p.showResolution(*ev.Resolution)
	}
}

func (p *play) help() {
	_ = p.conn.WriteLine(telnet.Colorize(telnet.BrightWhite, "Available commands:"))
	categories := []struct {
		name  string
		label string
	}{
		{command.CategoryStory, "Story"},
		{command.CategoryCombat, "Combat"},
		{command.CategoryCharacter, "Character"},
		{command.CategorySystem, "System"},
	}
	for _, cat := range categories {
		cmds := p.h.registry.InCategory(cat.name)
		if len(cmds) == 0 {
			continue
		}
		_ = p.conn.WriteLine(telnet.Colorf(telnet.BrightYellow, "  %s:", cat.label))
		for _, cmd := range cmds {
			aliases := ""
			if len(cmd.Aliases) > 0 {
				aliases = " (" + strings.Join(cmd.Aliases, ", ") + ")"
			}
			_ = p.conn.WriteLine(telnet.Colorf(telnet.Green, "    %-18s", cmd.Usage) + cmd.Help + telnet.Colorize(telnet.Dim, aliases))
		}
	}
}
