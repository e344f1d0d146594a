// Package postgres stores save snapshots in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/makavia/internal/config"
)

// ErrSchemaMissing is returned by CheckSchema when the saves table has not
// been created. Run cmd/migrate first.
var ErrSchemaMissing = errors.New("saves table missing; run the migrate command")

// Pool is the save store's connection pool.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the database described by cfg and confirms the saves
// schema is in place.
//
// Precondition: cfg passed config validation.
// Postcondition: Returns a pool ready for SaveRepository, or an error. No pool
// is left open on error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	raw, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	p := &Pool{pool: raw}
	if err := p.Ping(ctx, 5*time.Second); err != nil {
		raw.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return p, nil
}

// Ping checks the database answers within timeout.
func (p *Pool) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// CheckSchema reports ErrSchemaMissing when the saves table does not exist.
func (p *Pool) CheckSchema(ctx context.Context) error {
	var present bool
	err := p.pool.QueryRow(ctx, `SELECT to_regclass('public.saves') IS NOT NULL`).Scan(&present)
	if err != nil {
		return fmt.Errorf("checking schema: %w", err)
	}
	if !present {
		return ErrSchemaMissing
	}
	return nil
}

// HealthCheck returns a tick function that pings the database and logs a
// warning on failure. Pool statistics are logged at debug level.
func (p *Pool) HealthCheck(logger *zap.Logger, timeout time.Duration) func(ctx context.Context) {
	return func(ctx context.Context) {
		if err := p.Ping(ctx, timeout); err != nil {
			logger.Warn("save database unreachable", zap.Error(err))
			return
		}
		s := p.pool.Stat()
		logger.Debug("save database healthy",
			zap.Int32("total_conns", s.TotalConns()),
			zap.Int32("idle_conns", s.IdleConns()),
			zap.Int64("acquire_count", s.AcquireCount()),
		)
	}
}

// Saves returns a SaveRepository sharing this pool.
func (p *Pool) Saves() *SaveRepository {
	return NewSaveRepository(p.pool)
}

// Close releases every connection.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgx pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
