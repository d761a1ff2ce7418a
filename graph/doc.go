// Package graph turns a recorded computation trace into a viewer-ready
// graph record.
//
// A build runs four stages over a trace.Trace:
//
//   - Extract walks backward from one or more root nodes, visiting nodes in
//     descending rank order, and collects the reachable nodes and edges.
//   - Compact (optional) removes intermediate tensors so operations link
//     to each other directly.
//   - Name assigns every reachable node a unique, human-readable name built
//     from its scope, its parameter identity and its label.
//   - Encode assembles a GraphRecord in the GraphDef layout understood by
//     TensorBoard-style viewers.
//
// # Quick Start
//
//	t := trace.New()
//	x := t.NewTensor(trace.TensorSpec{Label: "x", Shape: []int{2, 3}, DType: trace.Float32})
//	_, y := t.Apply("ReLU", []trace.NodeID{x}, trace.TensorSpec{Label: "y"})
//
//	record, err := graph.BuildGraph(t, y)
//	if err != nil {
//		return err
//	}
//
// # Parameter Names
//
// Parameters found on the model are named by their path in the model tree.
// Flatten the tree once and hand the table to the builder:
//
//	root := &graph.ParameterTree{Name: "MLP"}
//	root.Link("l1").Add("W", w1).Add("b", b1)
//
//	known, err := graph.FlattenParameters(root)
//	b := graph.NewBuilder(graph.WithParameterNames(known))
//	record, err := b.Build(ctx, t, y)
//
// # Observability
//
// A Builder logs through the log package and reports each stage to
// registered StageHooks. StageRecorder keeps every span in memory:
//
//	rec := graph.NewStageRecorder()
//	b := graph.NewBuilder(graph.WithHook(rec))
//
// # Rendering
//
// Exporter renders a record as Mermaid, DOT, an ASCII tree, a styled
// terminal listing, a Markdown table or sanitized HTML. For the binary
// GraphDef encoding see the graphdef package.
package graph
