package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/makavia/internal/config"
)

// SessionHandler plays one game over a connected Telnet client.
// Implementations own the command loop for that client.
type SessionHandler interface {
	HandleSession(ctx context.Context, conn *Conn) error
}

// Acceptor listens for players on a TCP port and runs each connection's game
// on its own goroutine.
type Acceptor struct {
	cfg     config.TelnetConfig
	handler SessionHandler
	logger  *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	stopped  chan struct{}
	games    sync.WaitGroup
	active   atomic.Int64
	served   atomic.Int64
}

// NewAcceptor creates an Acceptor. A nil logger discards output.
//
// Precondition: handler is non-nil.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger) *Acceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Acceptor{cfg: cfg, handler: handler, logger: logger}
}

// ListenAndServe accepts players until ctx is cancelled or Stop is called.
// Every game's context is derived from ctx, so cancelling it ends them all.
//
// Precondition: the acceptor is not already serving.
// Postcondition: the listener is closed and every game has returned.
func (a *Acceptor) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	if a.listener != nil {
		a.mu.Unlock()
		_ = listener.Close()
		return errors.New("telnet acceptor already serving")
	}
	a.listener = listener
	a.cancel = cancel
	a.stopped = make(chan struct{})
	stopped := a.stopped
	a.mu.Unlock()

	a.logger.Info("accepting players", zap.String("addr", listener.Addr().String()))

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	defer func() {
		a.games.Wait()
		a.mu.Lock()
		a.listener = nil
		a.cancel = nil
		a.mu.Unlock()
		close(stopped)
		a.logger.Info("telnet acceptor stopped", zap.Int64("games_served", a.served.Load()))
	}()

	for {
		raw, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.logger.Error("accepting connection", zap.Error(err))
			continue
		}
		a.games.Add(1)
		go a.play(ctx, raw)
	}
}

// play runs one player's game.
func (a *Acceptor) play(ctx context.Context, raw net.Conn) {
	defer a.games.Done()
	a.served.Add(1)
	a.active.Add(1)
	defer a.active.Add(-1)
	start := time.Now()

	conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
	defer conn.Close()
	logger := a.logger.With(zap.String("session", conn.ID()), zap.String("remote_addr", raw.RemoteAddr().String()))
	logger.Info("player connected", zap.Int64("active", a.active.Load()))

	if err := conn.Negotiate(); err != nil {
		logger.Warn("telnet negotiation failed", zap.Error(err))
		return
	}

	err := a.handler.HandleSession(ctx, conn)
	logger.Info("player disconnected", zap.Duration("played", time.Since(start)), zap.Error(err))
}

// Stop ends ListenAndServe and waits for every running game to return. Safe
// to call when not serving.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	cancel, stopped := a.cancel, a.stopped
	a.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

// Addr returns the listening address, or "" when not serving.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return ""
}

// Active returns the number of games in progress.
func (a *Acceptor) Active() int64 {
	return a.active.Load()
}

// Served returns the number of connections accepted since the acceptor started.
func (a *Acceptor) Served() int64 {
	return a.served.Load()
}
