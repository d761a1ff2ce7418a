package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/tracegraph/graph"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot has the requested id
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidSnapshot is returned when saving a snapshot without an id or record
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Snapshot is a graph record persisted at one step of a run
type Snapshot struct {
	ID        string             `json:"id"`
	Run       string             `json:"run"`
	Step      int                `json:"step"`
	Record    *graph.GraphRecord `json:"record"`
	Metadata  map[string]any     `json:"metadata,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// GraphStore defines the interface for snapshot persistence
type GraphStore interface {
	// Save stores a snapshot, replacing any snapshot with the same id
	Save(ctx context.Context, snapshot *Snapshot) error

	// Load retrieves a snapshot by id
	Load(ctx context.Context, snapshotID string) (*Snapshot, error)

	// List returns all snapshots of a run ordered by step
	List(ctx context.Context, run string) ([]*Snapshot, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, snapshotID string) error

	// Clear removes all snapshots of a run
	Clear(ctx context.Context, run string) error
}

// NewSnapshotID returns a fresh random snapshot id
func NewSnapshotID() string {
	return uuid.NewString()
}

// NewSnapshot wraps a record for run at step with a fresh id and the
// current time
func NewSnapshot(run string, step int, record *graph.GraphRecord) *Snapshot {
	return &Snapshot{
		ID:        NewSnapshotID(),
		Run:       run,
		Step:      step,
		Record:    record,
		Metadata:  make(map[string]any),
		Timestamp: time.Now(),
	}
}

// Validate reports whether the snapshot can be stored
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil", ErrInvalidSnapshot)
	}
	if s.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidSnapshot)
	}
	if s.Record == nil {
		return fmt.Errorf("%w: %s has no record", ErrInvalidSnapshot, s.ID)
	}
	return nil
}

// NotFound wraps ErrSnapshotNotFound with the missing id
func NotFound(snapshotID string) error {
	return fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
}

// SortSnapshots orders snapshots by step, then timestamp, then id
func SortSnapshots(snapshots []*Snapshot) {
	slices.SortFunc(snapshots, func(a, b *Snapshot) int {
		if a.Step != b.Step {
			return a.Step - b.Step
		}
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
