package save

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrInvalidSlot is returned for slot names that are empty or contain path elements.
var ErrInvalidSlot = errors.New("invalid save slot")

// Store persists snapshots by slot name.
type Store interface {
	// Save writes s to slot, replacing any previous snapshot there.
	Save(ctx context.Context, slot string, s Snapshot) error
	// Load returns the snapshot in slot or an error wrapping ErrNotFound.
	Load(ctx context.Context, slot string) (Snapshot, error)
	// Delete removes slot. Deleting an empty slot is not an error.
	Delete(ctx context.Context, slot string) error
	// Slots lists occupied slot names in ascending order.
	Slots(ctx context.Context) ([]string, error)
}

// ValidateSlot rejects slot names that could escape a store's namespace.
func ValidateSlot(slot string) error {
	if slot == "" || slot == "." || slot == ".." || strings.ContainsAny(slot, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}

const fileExt = ".json"

// FileStore keeps one JSON file per slot in a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating it when missing.
//
// Postcondition: Returns a usable store or a non-nil error.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating save directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(slot string) string {
	return filepath.Join(f.dir, slot+fileExt)
}

// Save writes the snapshot to a temporary file and renames it over the slot,
// so a crash never leaves a torn save behind.
func (f *FileStore) Save(ctx context.Context, slot string, s Snapshot) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(s)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("saving slot %q: %w", slot, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("saving slot %q: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("saving slot %q: %w", slot, err)
	}
	if err := os.Rename(tmp.Name(), f.path(slot)); err != nil {
		return fmt.Errorf("saving slot %q: %w", slot, err)
	}
	return nil
}

// Load reads and decodes a slot.
func (f *FileStore) Load(ctx context.Context, slot string) (Snapshot, error) {
	if err := ValidateSlot(slot); err != nil {
		return Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(f.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, fmt.Errorf("slot %q: %w", slot, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading slot %q: %w", slot, err)
	}
	s, err := Decode(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading slot %q: %w", slot, err)
	}
	return s, nil
}

func (f *FileStore) Delete(ctx context.Context, slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(f.path(slot))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting slot %q: %w", slot, err)
	}
	return nil
}

func (f *FileStore) Slots(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("listing saves in %s: %w", f.dir, err)
	}
	slots := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		slots = append(slots, strings.TrimSuffix(name, fileExt))
	}
	slices.Sort(slots)
	return slots, nil
}
