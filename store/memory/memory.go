package memory

import (
	"context"
	"sync"

	"github.com/smallnest/tracegraph/store"
)

// MemoryGraphStore keeps snapshots in process memory
type MemoryGraphStore struct {
	mu        sync.RWMutex
	snapshots map[string]*store.Snapshot
}

// NewMemoryGraphStore creates an empty in-memory store
func NewMemoryGraphStore() *MemoryGraphStore {
	return &MemoryGraphStore{
		snapshots: make(map[string]*store.Snapshot),
	}
}

// Save stores a copy of the snapshot
func (m *MemoryGraphStore) Save(_ context.Context, snapshot *store.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.ID] = clone(snapshot)
	return nil
}

// Load retrieves a snapshot by id
func (m *MemoryGraphStore) Load(_ context.Context, snapshotID string) (*store.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snapshots[snapshotID]
	if !ok {
		return nil, store.NotFound(snapshotID)
	}
	return clone(s), nil
}

// List returns all snapshots of a run ordered by step
func (m *MemoryGraphStore) List(_ context.Context, run string) ([]*store.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*store.Snapshot, 0)
	for _, s := range m.snapshots {
		if s.Run == run {
			result = append(result, clone(s))
		}
	}
	store.SortSnapshots(result)
	return result, nil
}

// Delete removes a snapshot
func (m *MemoryGraphStore) Delete(_ context.Context, snapshotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, snapshotID)
	return nil
}

// Clear removes all snapshots of a run
func (m *MemoryGraphStore) Clear(_ context.Context, run string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.snapshots {
		if s.Run == run {
			delete(m.snapshots, id)
		}
	}
	return nil
}

// Len returns the number of stored snapshots
func (m *MemoryGraphStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots)
}

// clone copies the snapshot and its metadata map; the record is shared
// and treated as immutable once saved.
func clone(s *store.Snapshot) *store.Snapshot {
	c := *s
	if s.Metadata != nil {
		c.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
