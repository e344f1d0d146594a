// Package testutil holds helpers for integration tests: a throwaway
// PostgreSQL save database and a Telnet game client.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/makavia/internal/config"
	"github.com/cory-johannsen/makavia/internal/storage/postgres"
)

const (
	pgImage = "postgres:16-alpine"
	pgCred  = "makavia"
)

// PostgresContainer is a disposable save database.
type PostgresContainer struct {
	Pool    *postgres.Pool
	RawPool *pgxpool.Pool
	Config  config.DatabaseConfig
}

// NewPostgresContainer starts PostgreSQL in Docker and connects a pool. The
// schema is empty; call ApplyMigrations for the saves table.
//
// Precondition: Docker is available.
// Postcondition: the container and pool are released when the test ends.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        pgImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     pgCred,
				"POSTGRES_PASSWORD": pgCred,
				"POSTGRES_DB":       pgCred,
			},
			// The server restarts once after initdb, hence two occurrences.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting %s: %v", pgImage, err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	cfg, err := databaseConfig(ctx, ctr)
	if err != nil {
		t.Fatalf("resolving container address: %v", err)
	}
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("connecting to %s:%d: %v", cfg.Host, cfg.Port, err)
	}
	t.Cleanup(pool.Close)

	t.Logf("save database ready at %s:%d [%s]", cfg.Host, cfg.Port, time.Since(start))
	return &PostgresContainer{Pool: pool, RawPool: pool.DB(), Config: cfg}
}

func databaseConfig(ctx context.Context, ctr testcontainers.Container) (config.DatabaseConfig, error) {
	host, err := ctr.Host(ctx)
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	port, err := ctr.MappedPort(ctx, "5432")
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	return config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            pgCred,
		Password:        pgCred,
		Name:            pgCred,
		SSLMode:         "disable",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}, nil
}

// ApplyMigrations brings the schema up to date from the repository's
// migrations directory, the same files cmd/migrate applies.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	dir, err := migrationsDir()
	if err != nil {
		t.Fatalf("locating migrations: %v", err)
	}
	m, err := migrate.New("file://"+dir, pc.Config.DSN())
	if err != nil {
		t.Fatalf("creating migrator: %v", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("applying migrations: %v", err)
	}
	version, _, err := m.Version()
	if err != nil {
		t.Fatalf("reading schema version: %v", err)
	}
	t.Logf("schema at version %d", version)
}

// NewPool returns a pool on a migrated save database. The test is skipped
// under -short.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	pc := NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return pc.RawPool
}

// migrationsDir finds migrations/ beside the module's go.mod.
func migrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "migrations"), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod above %s", dir)
		}
		dir = parent
	}
}
