package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnnotator_TagsNodesCreatedInScope(t *testing.T) {
	tr := New()
	a := NewAnnotator(tr)

	x := tr.NewTensor(TensorSpec{})
	var op, y NodeID
	a.Within("MLP", nil, func() {
		a.Within("linear1", nil, func() {
			op, y = tr.Apply("LinearFunction", []NodeID{x}, TensorSpec{})
		})
	})
	after := tr.NewTensor(TensorSpec{})

	_, ok := tr.Scope(x)
	assert.False(t, ok)

	s, ok := tr.Scope(op)
	assert.True(t, ok)
	assert.Equal(t, "MLP/linear1", s)

	s, _ = tr.Scope(y)
	assert.Equal(t, "MLP/linear1", s)

	_, ok = tr.Scope(after)
	assert.False(t, ok)
	assert.Equal(t, 0, a.Depth())
}

func TestAnnotator_RetagsParameters(t *testing.T) {
	tr := New()
	a := NewAnnotator(tr)
	w := tr.NewParameterTensor(tr.NewParameter("W"), TensorSpec{})

	a.Enter("MLP")
	a.Enter("l1", w)
	assert.Equal(t, "MLP/l1", a.Current())
	a.Exit()
	a.Exit()
	a.Exit()

	s, ok := tr.Scope(w)
	assert.True(t, ok)
	assert.Equal(t, "MLP/l1", s)
	assert.Equal(t, "", a.Current())
}

func TestAnnotator_Detach(t *testing.T) {
	tr := New()
	a := NewAnnotator(tr)
	a.Enter("outer")
	a.Detach()

	x := tr.NewTensor(TensorSpec{})
	_, ok := tr.Scope(x)
	assert.False(t, ok)
}

func TestTrace_SetScope(t *testing.T) {
	tr := New()
	x := tr.NewTensor(TensorSpec{})

	assert.NoError(t, tr.SetScope(x, "a/b"))
	s, _ := tr.Scope(x)
	assert.Equal(t, "a/b", s)

	assert.NoError(t, tr.SetScope(x, ""))
	_, ok := tr.Scope(x)
	assert.False(t, ok)

	assert.ErrorIs(t, tr.SetScope(5, "c"), ErrUnknownNode)
}
