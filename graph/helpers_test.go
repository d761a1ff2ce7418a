package graph

import (
	"github.com/smallnest/tracegraph/trace"
)

type mlpModel struct {
	trace  *trace.Trace
	input  trace.NodeID
	output trace.NodeID
	params *ParameterTree
}

// newMLP records a two-layer perceptron under the scope "MLP" with one
// sub-scope per layer, the way an annotated forward pass would.
func newMLP() *mlpModel {
	tr := trace.New()
	a := trace.NewAnnotator(tr)
	tree := &ParameterTree{Name: "MLP"}

	x := tr.NewTensor(trace.TensorSpec{Shape: []int{8, 4}, DType: trace.Float32})

	layer := func(name string, in trace.NodeID, inDim, outDim int) trace.NodeID {
		w := tr.NewParameter("W")
		b := tr.NewParameter("b")
		tree.Link(name).Add("W", w).Add("b", b)

		wt := tr.NewParameterTensor(w, trace.TensorSpec{Shape: []int{outDim, inDim}, DType: trace.Float32})
		bt := tr.NewParameterTensor(b, trace.TensorSpec{Shape: []int{outDim}, DType: trace.Float32})

		var out trace.NodeID
		a.Within("MLP", nil, func() {
			a.Within(name, []trace.NodeID{wt, bt}, func() {
				_, h := tr.Apply("LinearFunction", []trace.NodeID{in, wt, bt},
					trace.TensorSpec{Shape: []int{8, outDim}, DType: trace.Float32})
				_, out = tr.Apply("ReLU", []trace.NodeID{h},
					trace.TensorSpec{Shape: []int{8, outDim}, DType: trace.Float32})
			})
		})
		return out
	}

	h := layer("l1", x, 4, 16)
	y := layer("l2", h, 16, 2)

	return &mlpModel{trace: tr, input: x, output: y, params: tree}
}

func mlpTrace() (*trace.Trace, []trace.NodeID) {
	m := newMLP()
	return m.trace, []trace.NodeID{m.output}
}
