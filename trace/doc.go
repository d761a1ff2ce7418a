// Package trace holds the frozen record of an imperative numerical computation.
//
// A Trace is an arena of nodes. Every node is either an operation (an applied
// function with ordered inputs) or a tensor (a value flowing between
// operations, optionally produced by one). Nodes are addressed by NodeID, a
// stable integer index, so identity comparison is plain index equality and
// never depends on pointer identity.
//
// # Building a trace
//
//	t := trace.New()
//	x := t.NewTensor(trace.TensorSpec{Shape: []int{2, 3}, DType: trace.Float32})
//	w := t.NewParameter("W")
//	wt := t.NewParameterTensor(w, trace.TensorSpec{Shape: []int{3, 4}, DType: trace.Float32})
//	_, y := t.Apply("LinearFunction", []trace.NodeID{x, wt},
//		trace.TensorSpec{Shape: []int{2, 4}, DType: trace.Float32})
//
// # Scopes
//
// Hierarchical scope tags live in a side table keyed by NodeID. They are
// written by an Annotator, an explicit annotation pass that tags every node
// created while a scope is active:
//
//	a := trace.NewAnnotator(t)
//	a.Within("MLP", nil, func() {
//		a.Within("linear1", []trace.NodeID{wt}, func() {
//			t.Apply("LinearFunction", []trace.NodeID{x, wt}, out)
//		})
//	})
//
// Scope paths are joined with "/" and never escaped.
//
// A Trace is not safe for concurrent mutation. Once recording is finished it
// may be read from any number of goroutines.
package trace
