package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smallnest/tracegraph/store"
)

const snapshotExt = ".json"

// FileGraphStore writes each snapshot as a JSON file in a directory
type FileGraphStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileGraphStore creates a store rooted at path, creating the directory
// if it does not exist
func NewFileGraphStore(path string) (*FileGraphStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileGraphStore{path: path}, nil
}

// Path returns the directory holding the snapshot files
func (f *FileGraphStore) Path() string {
	return f.path
}

func (f *FileGraphStore) filename(snapshotID string) (string, error) {
	if snapshotID == "" || strings.ContainsAny(snapshotID, `/\`) || snapshotID == "." || snapshotID == ".." {
		return "", fmt.Errorf("%w: id %q is not a valid file name", store.ErrInvalidSnapshot, snapshotID)
	}
	return filepath.Join(f.path, snapshotID+snapshotExt), nil
}

// Save stores a snapshot, writing through a temporary file so readers
// never observe a partial snapshot
func (f *FileGraphStore) Save(_ context.Context, snapshot *store.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	name, err := f.filename(snapshot.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.path, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load retrieves a snapshot by id
func (f *FileGraphStore) Load(_ context.Context, snapshotID string) (*store.Snapshot, error) {
	name, err := f.filename(snapshotID)
	if err != nil {
		return nil, store.NotFound(snapshotID)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return readSnapshot(name, snapshotID)
}

func readSnapshot(name, snapshotID string) (*store.Snapshot, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, store.NotFound(snapshotID)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot store.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", snapshotID, err)
	}
	return &snapshot, nil
}

// List returns all snapshots of a run ordered by step
func (f *FileGraphStore) List(_ context.Context, run string) ([]*store.Snapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	all, err := f.readAll()
	if err != nil {
		return nil, err
	}

	result := make([]*store.Snapshot, 0)
	for _, s := range all {
		if s.Run == run {
			result = append(result, s)
		}
	}
	store.SortSnapshots(result)
	return result, nil
}

func (f *FileGraphStore) readAll() ([]*store.Snapshot, error) {
	entries, err := os.ReadDir(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var snapshots []*store.Snapshot
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != snapshotExt {
			continue
		}
		id := strings.TrimSuffix(e.Name(), snapshotExt)
		s, err := readSnapshot(filepath.Join(f.path, e.Name()), id)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}

// Delete removes a snapshot file
func (f *FileGraphStore) Delete(_ context.Context, snapshotID string) error {
	name, err := f.filename(snapshotID)
	if err != nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Clear removes all snapshot files of a run
func (f *FileGraphStore) Clear(_ context.Context, run string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return err
	}
	for _, s := range all {
		if s.Run != run {
			continue
		}
		if err := os.Remove(filepath.Join(f.path, s.ID+snapshotExt)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to clear snapshots: %w", err)
		}
	}
	return nil
}
