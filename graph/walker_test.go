package graph

import (
	"testing"

	"github.com/smallnest/tracegraph/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain records y = op2(op1(x)) and returns the node ids.
func chain(t *trace.Trace) (x, op1, h, op2, y trace.NodeID) {
	x = t.NewTensor(trace.TensorSpec{Label: "x", Shape: []int{2, 3}, DType: trace.Float32})
	op1, h = t.Apply("op1", []trace.NodeID{x}, trace.TensorSpec{Shape: []int{2, 3}, DType: trace.Float32})
	op2, y = t.Apply("op2", []trace.NodeID{h}, trace.TensorSpec{Shape: []int{2, 3}, DType: trace.Float32})
	return
}

func TestExtract_Chain(t *testing.T) {
	tr := trace.New()
	x, op1, h, op2, y := chain(tr)

	r, err := Extract(tr, []trace.NodeID{y})
	require.NoError(t, err)

	assert.Equal(t, []trace.NodeID{y, op2, h, op1, x}, r.Nodes)
	assert.Equal(t, []Edge{
		{From: op2, To: y},
		{From: h, To: op2},
		{From: op1, To: h},
		{From: x, To: op1},
	}, r.Edges)
}

func TestExtract_OperationRootSkipsOutputs(t *testing.T) {
	tr := trace.New()
	x, op1, h, op2, _ := chain(tr)

	r, err := Extract(tr, []trace.NodeID{op2})
	require.NoError(t, err)

	assert.Equal(t, []trace.NodeID{op2, h, op1, x}, r.Nodes)
	assert.Len(t, r.Edges, 3)
}

func TestExtract_UnionOfRoots(t *testing.T) {
	tr := trace.New()
	x := tr.NewTensor(trace.TensorSpec{Label: "x"})
	f, y := tr.Apply("f", []trace.NodeID{x}, trace.TensorSpec{})
	g, z := tr.Apply("g", []trace.NodeID{x}, trace.TensorSpec{})
	other := tr.NewTensor(trace.TensorSpec{Label: "unrelated"})

	r, err := Extract(tr, []trace.NodeID{y})
	require.NoError(t, err)
	assert.False(t, r.Contains(z))
	assert.False(t, r.Contains(g))

	r, err = Extract(tr, []trace.NodeID{y, z})
	require.NoError(t, err)
	for _, id := range []trace.NodeID{x, f, y, g, z} {
		assert.True(t, r.Contains(id), "node %d", id)
	}
	assert.False(t, r.Contains(other))
	assert.Len(t, r.Nodes, 5)
	assert.Len(t, r.Edges, 4)
}

func TestExtract_SharedInputDiscoveredOnce(t *testing.T) {
	tr := trace.New()
	x := tr.NewTensor(trace.TensorSpec{})
	_, y := tr.Apply("Add", []trace.NodeID{x, x}, trace.TensorSpec{})

	r, err := Extract(tr, []trace.NodeID{y, y})
	require.NoError(t, err)
	assert.Len(t, r.Nodes, 3)
	assert.Len(t, r.Edges, 2)
}

func TestExtract_SelfLoopExcluded(t *testing.T) {
	tr := trace.New()
	x := tr.NewTensor(trace.TensorSpec{})
	op, y := tr.Apply("InplaceAdd", []trace.NodeID{x}, trace.TensorSpec{})
	require.NoError(t, tr.AddInput(op, op))

	r, err := Extract(tr, []trace.NodeID{y})
	require.NoError(t, err)
	for _, e := range r.Edges {
		assert.NotEqual(t, e.From, e.To)
	}
	assert.Equal(t, []trace.NodeID{x}, r.InputsOf(op))
}

func TestExtract_CycleTerminates(t *testing.T) {
	tr := trace.New()
	x := tr.NewTensor(trace.TensorSpec{})
	a, ay := tr.Apply("A", []trace.NodeID{x}, trace.TensorSpec{})
	b, by := tr.Apply("B", []trace.NodeID{ay}, trace.TensorSpec{})
	require.NoError(t, tr.AddInput(a, by))

	r, err := Extract(tr, []trace.NodeID{by})
	require.NoError(t, err)
	assert.Len(t, r.Nodes, 5)
	assert.True(t, r.Contains(b))
}

func TestExtract_HigherRankExpandsFirst(t *testing.T) {
	tr := trace.New()
	x := tr.NewTensor(trace.TensorSpec{Label: "x"})
	_, deep := tr.Apply("A", []trace.NodeID{x}, trace.TensorSpec{})
	_, deeper := tr.Apply("B", []trace.NodeID{deep}, trace.TensorSpec{})
	shallowOp, shallow := tr.Apply("C", []trace.NodeID{x}, trace.TensorSpec{})

	// shallow is pushed first but deeper outranks it
	r, err := Extract(tr, []trace.NodeID{shallow, deeper})
	require.NoError(t, err)
	assert.Equal(t, Edge{From: tr.MustNode(deeper).Producer, To: deeper}, r.Edges[0])

	require.NoError(t, tr.SetRank(shallow, 100))
	r, err = Extract(tr, []trace.NodeID{shallow, deeper})
	require.NoError(t, err)
	assert.Equal(t, Edge{From: shallowOp, To: shallow}, r.Edges[0])
}

func TestExtract_InvalidRoot(t *testing.T) {
	tr := trace.New()
	_, _, _, _, y := chain(tr)

	r, err := Extract(tr, []trace.NodeID{y, 99})
	assert.ErrorIs(t, err, ErrInvalidRoot)
	assert.Nil(t, r)

	_, err = Extract(tr, []trace.NodeID{trace.NoNode})
	assert.ErrorIs(t, err, ErrInvalidRoot)
}

func TestExtract_EmptyRoots(t *testing.T) {
	r, err := Extract(trace.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, r.Nodes)
	assert.Empty(t, r.Edges)
}

func TestExtract_EdgeIntegrity(t *testing.T) {
	tr, roots := mlpTrace()
	r, err := Extract(tr, roots)
	require.NoError(t, err)

	for _, e := range r.Edges {
		assert.True(t, r.Contains(e.From))
		assert.True(t, r.Contains(e.To))
		to := tr.MustNode(e.To)
		if to.IsTensor() {
			assert.Equal(t, to.Producer, e.From)
		} else {
			assert.Contains(t, to.Inputs, e.From)
		}
	}
}
