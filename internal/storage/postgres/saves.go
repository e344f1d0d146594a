package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/makavia/internal/save"
)

// ErrSaveNotFound is returned when a slot holds no snapshot. Errors carrying it
// also match save.ErrNotFound.
var ErrSaveNotFound = errors.New("save slot not found")

// SaveRepository stores save snapshots as jsonb rows keyed by slot.
// It implements save.Store.
type SaveRepository struct {
	db *pgxpool.Pool
}

var _ save.Store = (*SaveRepository)(nil)

// NewSaveRepository creates a SaveRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSaveRepository(db *pgxpool.Pool) *SaveRepository {
	return &SaveRepository{db: db}
}

func notFound(slot string) error {
	return fmt.Errorf("slot %q: %w", slot, errors.Join(ErrSaveNotFound, save.ErrNotFound))
}

// Save upserts the snapshot in slot.
//
// Precondition: slot passes save.ValidateSlot.
// Postcondition: the slot holds s, replacing any earlier snapshot.
func (r *SaveRepository) Save(ctx context.Context, slot string, s save.Snapshot) error {
	if err := save.ValidateSlot(slot); err != nil {
		return err
	}
	data, err := save.Encode(s)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO saves (slot, save_id, version, player_name, saved_at, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slot) DO UPDATE SET
			save_id     = EXCLUDED.save_id,
			version     = EXCLUDED.version,
			player_name = EXCLUDED.player_name,
			saved_at    = EXCLUDED.saved_at,
			data        = EXCLUDED.data,
			updated_at  = NOW()`,
		slot, s.ID, s.Version, s.Player.Name, s.SavedAt, data,
	)
	if err != nil {
		return fmt.Errorf("saving slot %q: %w", slot, err)
	}
	return nil
}

// Load returns the snapshot in slot.
//
// Postcondition: Returns the snapshot or an error matching ErrSaveNotFound.
func (r *SaveRepository) Load(ctx context.Context, slot string) (save.Snapshot, error) {
	if err := save.ValidateSlot(slot); err != nil {
		return save.Snapshot{}, err
	}
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM saves WHERE slot = $1`, slot).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return save.Snapshot{}, notFound(slot)
		}
		return save.Snapshot{}, fmt.Errorf("querying slot %q: %w", slot, err)
	}
	s, err := save.Decode(data)
	if err != nil {
		return save.Snapshot{}, fmt.Errorf("loading slot %q: %w", slot, err)
	}
	return s, nil
}

// Delete removes slot. Deleting an empty slot is not an error.
func (r *SaveRepository) Delete(ctx context.Context, slot string) error {
	if err := save.ValidateSlot(slot); err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM saves WHERE slot = $1`, slot); err != nil {
		return fmt.Errorf("deleting slot %q: %w", slot, err)
	}
	return nil
}

// Slots lists occupied slots in ascending order.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *SaveRepository) Slots(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT slot FROM saves ORDER BY slot ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	slots, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning save rows: %w", err)
	}
	if slots == nil {
		slots = []string{}
	}
	return slots, nil
}
