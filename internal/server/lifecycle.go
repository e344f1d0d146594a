// Package server runs the game server's long-lived services and stops them
// cleanly on SIGINT, SIGTERM, context cancellation or the first service failure.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component. Start blocks until the service ends;
// the context is cancelled when the lifecycle begins shutting down.
type Service interface {
	Start(ctx context.Context) error
	Stop()
}

// FuncService adapts a start/stop function pair into a Service. StopFn may be nil.
type FuncService struct {
	StartFn func(ctx context.Context) error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start(ctx context.Context) error { return f.StartFn(ctx) }

// Stop calls StopFn when set.
func (f *FuncService) Stop() {
	if f.StopFn != nil {
		f.StopFn()
	}
}

// Periodic runs Tick every Interval until stopped. Used for database health
// checks and session bookkeeping.
//
// Precondition: Interval > 0 and Tick non-nil.
type Periodic struct {
	Interval time.Duration
	Tick     func(ctx context.Context)
	// OnStop runs once after the loop has ended, e.g. to close a pool.
	OnStop func()

	once sync.Once
	done chan struct{}
}

func (p *Periodic) stopCh() chan struct{} {
	p.once.Do(func() { p.done = make(chan struct{}) })
	return p.done
}

// Start ticks until Stop is called or ctx is cancelled.
func (p *Periodic) Start(ctx context.Context) error {
	done := p.stopCh()
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Tick(ctx)
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Stop ends the loop and runs OnStop. Calling Stop more than once is safe.
func (p *Periodic) Stop() {
	done := p.stopCh()
	select {
	case <-done:
		return
	default:
		close(done)
	}
	if p.OnStop != nil {
		p.OnStop()
	}
}

// Lifecycle starts services in registration order and stops them in reverse.
type Lifecycle struct {
	logger   *zap.Logger
	services []namedService
	mu       sync.Mutex
}

type namedService struct {
	name    string
	service Service
}

// NewLifecycle creates a Lifecycle. A nil logger discards output.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{logger: logger}
}

// Add registers a named service.
//
// Precondition: name non-empty; svc non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts every service and blocks until a signal, cancellation of ctx, or
// a service returning an error.
//
// Postcondition: every service has been stopped. The error is the first
// service failure, or nil for a signal or cancellation.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(services))
	for _, ns := range services {
		go func() {
			l.logger.Info("starting service", zap.String("service", ns.name))
			svcStart := time.Now()
			if err := ns.service.Start(ctx); err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(svcStart)),
				)
				errCh <- fmt.Errorf("service %s: %w", ns.name, err)
			}
		}()
	}
	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		l.logger.Error("service error, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}
	cancel()
	l.shutdown(services)

	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return runErr
}

func (l *Lifecycle) shutdown(services []namedService) {
	shutdownStart := time.Now()
	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		svcStart := time.Now()
		ns.service.Stop()
		l.logger.Info("service stopped",
			zap.String("service", ns.name),
			zap.Duration("elapsed", time.Since(svcStart)),
		)
	}
	l.logger.Info("all services stopped", zap.Duration("shutdown_elapsed", time.Since(shutdownStart)))
}
