package memory

import (
	"context"
	"testing"

	"github.com/smallnest/tracegraph/store"
	"github.com/smallnest/tracegraph/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGraphStore(t *testing.T) {
	var _ store.GraphStore = NewMemoryGraphStore()

	storetest.Run(t, NewMemoryGraphStore())
}

func TestMemoryGraphStore_Concurrent(t *testing.T) {
	storetest.RunConcurrent(t, NewMemoryGraphStore())
}

func TestMemoryGraphStore_Isolation(t *testing.T) {
	ms := NewMemoryGraphStore()
	ctx := context.Background()

	snap := storetest.Snapshot("iso", "run", 1)
	require.NoError(t, ms.Save(ctx, snap))
	snap.Metadata["source"] = "mutated"
	snap.Step = 9

	loaded, err := ms.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, "test", loaded.Metadata["source"])
	assert.Equal(t, 1, loaded.Step)

	loaded.Metadata["source"] = "changed"
	again, err := ms.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, "test", again.Metadata["source"])
	assert.Equal(t, 1, ms.Len())
}
