package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrace_Apply(t *testing.T) {
	tr := New()
	x := tr.NewTensor(TensorSpec{Shape: []int{2, 3}, DType: Float32})
	op, y := tr.Apply("ReLU", []NodeID{x}, TensorSpec{Shape: []int{2, 3}, DType: Float32})

	assert.Equal(t, 3, tr.Len())

	opNode := tr.MustNode(op)
	assert.True(t, opNode.IsOperation())
	assert.Equal(t, []NodeID{x}, opNode.Inputs)
	assert.Equal(t, 0, opNode.Rank)

	yNode := tr.MustNode(y)
	assert.True(t, yNode.HasProducer())
	assert.Equal(t, op, yNode.Producer)
	assert.Equal(t, 1, yNode.Rank)

	assert.False(t, tr.MustNode(x).HasProducer())
}

func TestTrace_RankFollowsDepth(t *testing.T) {
	tr := New()
	x := tr.NewTensor(TensorSpec{})
	_, h := tr.Apply("A", []NodeID{x}, TensorSpec{})
	_, y := tr.Apply("B", []NodeID{h, x}, TensorSpec{})

	assert.Equal(t, 1, tr.MustNode(h).Rank)
	assert.Equal(t, 2, tr.MustNode(y).Rank)

	require.NoError(t, tr.SetRank(y, 10))
	assert.Equal(t, 10, tr.MustNode(y).Rank)
}

func TestTrace_UnknownNode(t *testing.T) {
	tr := New()

	_, err := tr.Node(3)
	assert.ErrorIs(t, err, ErrUnknownNode)

	_, err = tr.Node(NoNode)
	assert.ErrorIs(t, err, ErrUnknownNode)

	assert.Panics(t, func() { tr.NewOperation("Add", 7) })
	assert.Panics(t, func() { tr.NewTensor(TensorSpec{Shape: []int{-1}}) })
}

func TestTrace_AddInput(t *testing.T) {
	tr := New()
	x := tr.NewTensor(TensorSpec{})
	op := tr.NewOperation("Scale", x)

	require.NoError(t, tr.AddInput(op, op))
	assert.Equal(t, []NodeID{x, op}, tr.MustNode(op).Inputs)

	assert.Error(t, tr.AddInput(x, op))
	assert.ErrorIs(t, tr.AddInput(op, 42), ErrUnknownNode)
}

func TestTrace_Parameters(t *testing.T) {
	tr := New()
	w := tr.NewParameter("W")
	b := tr.NewParameter("b")
	assert.NotEqual(t, w, b)

	p, ok := tr.Parameter(w)
	require.True(t, ok)
	assert.Equal(t, "W", p.Name)

	_, ok = tr.Parameter(NoParam)
	assert.False(t, ok)

	wt := tr.NewParameterTensor(w, TensorSpec{Shape: []int{3}})
	assert.Equal(t, "W", tr.MustNode(wt).Name)
	assert.Equal(t, w, tr.MustNode(wt).Param)

	named := tr.NewParameterTensor(w, TensorSpec{Name: "weight"})
	assert.Equal(t, "weight", tr.MustNode(named).Name)

	assert.Panics(t, func() { tr.NewParameterTensor(99, TensorSpec{}) })
}

func TestNode_DisplayLabel(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"explicit", Node{Kind: KindTensor, Label: "x", Shape: []int{2}}, "x"},
		{"matrix", Node{Kind: KindTensor, Shape: []int{2, 3}, DType: Float32}, "(2, 3), float32"},
		{"scalar", Node{Kind: KindTensor, DType: Int32}, "int32"},
		{"untyped", Node{Kind: KindTensor, Shape: []int{4}}, "(4)"},
		{"empty", Node{Kind: KindTensor}, ""},
		{"operation", Node{Kind: KindOperation, Label: "Reshape", Shape: []int{1}}, "Reshape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.DisplayLabel())
		})
	}
}

func TestTrace_DeclareType(t *testing.T) {
	tr := New()
	x := tr.NewTensor(TensorSpec{})
	op := tr.NewOperation("MatMul", x)

	require.NoError(t, tr.DeclareType(op, []int{4, 4}, Float64))
	n := tr.MustNode(op)
	assert.Equal(t, []int{4, 4}, n.Shape)
	assert.Equal(t, Float64, n.DType)
}

func TestElementType_String(t *testing.T) {
	assert.Equal(t, "float32", Float32.String())
	assert.Equal(t, "S1", Bytes1.String())
	assert.Equal(t, "ElementType(200)", ElementType(200).String())
}
