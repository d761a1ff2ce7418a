// Package storetest provides a conformance suite run by every GraphStore
// backend.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smallnest/tracegraph/graph"
	"github.com/smallnest/tracegraph/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Record returns a small two-node record.
func Record() *graph.GraphRecord {
	return &graph.GraphRecord{
		Nodes: []graph.NodeRecord{
			{Name: "MLP/l1/LinearFunction", Op: "LinearFunction", Inputs: []string{"Variable_x"}},
			{
				Name:   "Variable_x",
				Op:     graph.VariableOp,
				Inputs: []string{},
				Attr:   &graph.Attr{Shape: []int64{8, 4}, DType: graph.DTFloat},
			},
		},
		Versions: graph.VersionDef{Producer: graph.DefaultProducerVersion},
	}
}

// Snapshot returns a snapshot of Record with a fixed UTC timestamp.
func Snapshot(id, run string, step int) *store.Snapshot {
	return &store.Snapshot{
		ID:        id,
		Run:       run,
		Step:      step,
		Record:    Record(),
		Metadata:  map[string]any{"source": "test"},
		Timestamp: time.Date(2024, 5, 1, 12, 0, step, 0, time.UTC),
	}
}

// Run exercises s through the GraphStore contract. The store must be empty.
func Run(t *testing.T, s store.GraphStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("save and load", func(t *testing.T) {
		snap := Snapshot("snap-1", "run-a", 1)
		require.NoError(t, s.Save(ctx, snap))

		loaded, err := s.Load(ctx, "snap-1")
		require.NoError(t, err)
		assertSnapshot(t, snap, loaded)
	})

	t.Run("save replaces", func(t *testing.T) {
		snap := Snapshot("snap-2", "run-a", 2)
		require.NoError(t, s.Save(ctx, snap))

		snap.Metadata = map[string]any{"source": "replaced"}
		snap.Record.Nodes = snap.Record.Nodes[1:]
		require.NoError(t, s.Save(ctx, snap))

		loaded, err := s.Load(ctx, "snap-2")
		require.NoError(t, err)
		assert.Equal(t, "replaced", loaded.Metadata["source"])
		assert.Len(t, loaded.Record.Nodes, 1)
	})

	t.Run("load missing", func(t *testing.T) {
		_, err := s.Load(ctx, "does-not-exist")
		assert.ErrorIs(t, err, store.ErrSnapshotNotFound)
	})

	t.Run("save invalid", func(t *testing.T) {
		err := s.Save(ctx, &store.Snapshot{ID: "no-record", Run: "run-a"})
		assert.ErrorIs(t, err, store.ErrInvalidSnapshot)
	})

	t.Run("list orders by step", func(t *testing.T) {
		for _, step := range []int{5, 3, 4} {
			require.NoError(t, s.Save(ctx, Snapshot(fmt.Sprintf("b-%d", step), "run-b", step)))
		}
		require.NoError(t, s.Save(ctx, Snapshot("other", "run-c", 1)))

		list, err := s.List(ctx, "run-b")
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []int{3, 4, 5}, []int{list[0].Step, list[1].Step, list[2].Step})
		for _, snap := range list {
			assert.Equal(t, "run-b", snap.Run)
		}

		empty, err := s.List(ctx, "no-such-run")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, Snapshot("d-1", "run-d", 1)))
		require.NoError(t, s.Delete(ctx, "d-1"))

		_, err := s.Load(ctx, "d-1")
		assert.ErrorIs(t, err, store.ErrSnapshotNotFound)

		list, err := s.List(ctx, "run-d")
		require.NoError(t, err)
		assert.Empty(t, list)

		assert.NoError(t, s.Delete(ctx, "d-1"))
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, Snapshot("e-1", "run-e", 1)))
		require.NoError(t, s.Save(ctx, Snapshot("e-2", "run-e", 2)))
		require.NoError(t, s.Save(ctx, Snapshot("f-1", "run-f", 1)))

		require.NoError(t, s.Clear(ctx, "run-e"))

		list, err := s.List(ctx, "run-e")
		require.NoError(t, err)
		assert.Empty(t, list)

		_, err = s.Load(ctx, "f-1")
		assert.NoError(t, err)

		assert.NoError(t, s.Clear(ctx, "run-e"))
	})
}

// RunConcurrent saves and loads from several goroutines at once.
func RunConcurrent(t *testing.T, s store.GraphStore) {
	t.Helper()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c-%d", i)
			if err := s.Save(ctx, Snapshot(id, "run-concurrent", i)); err != nil {
				errs <- err
				return
			}
			if _, err := s.Load(ctx, id); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	list, err := s.List(ctx, "run-concurrent")
	require.NoError(t, err)
	assert.Len(t, list, 10)
}

func assertSnapshot(t *testing.T, want, got *store.Snapshot) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Run, got.Run)
	assert.Equal(t, want.Step, got.Step)
	assert.Equal(t, want.Record, got.Record)
	assert.Equal(t, want.Metadata, got.Metadata)
	assert.True(t, want.Timestamp.Equal(got.Timestamp), "timestamp %v != %v", want.Timestamp, got.Timestamp)
}
