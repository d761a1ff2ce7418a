// TraceGraph - Computational Graph Extraction for Go
//
// TraceGraph turns a recorded computation trace (the operations and tensors
// a model touched while computing its outputs) into a named, typed graph in
// the GraphDef layout understood by TensorBoard-style graph viewers.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/tracegraph
//
// Basic example:
//
//	package main
//
//	import (
//		"fmt"
//
//		"github.com/smallnest/tracegraph/graph"
//		"github.com/smallnest/tracegraph/trace"
//	)
//
//	func main() {
//		t := trace.New()
//		x := t.NewTensor(trace.TensorSpec{Label: "x", Shape: []int{2, 3}, DType: trace.Float32})
//		_, h := t.Apply("MatMul", []trace.NodeID{x}, trace.TensorSpec{Shape: []int{2, 4}, DType: trace.Float32})
//		_, y := t.Apply("ReLU", []trace.NodeID{h}, trace.TensorSpec{Label: "y"})
//
//		record, err := graph.BuildGraph(t, y)
//		if err != nil {
//			panic(err)
//		}
//		fmt.Print(graph.NewExporter(record).DrawASCII())
//	}
//
// # Key Features
//
//   - Deterministic extraction: the same trace always yields the same graph
//   - Unique node names built from scopes, parameter paths and labels
//   - Parameter names resolved from a model's parameter tree
//   - Optional compaction of intermediate tensors
//   - Binary GraphDef encoding without generated protobuf code
//   - Snapshot persistence in memory, files, SQLite, PostgreSQL or Redis
//   - Mermaid, DOT, ASCII, terminal, Markdown and HTML rendering
//
// # Package Structure
//
// trace/
// The trace arena. Operations and tensors are addressed by NodeID; an
// Annotator tags nodes with the scope they were created in.
//
//	t := trace.New()
//	a := trace.NewAnnotator(t)
//	a.Within("encoder", nil, func() {
//		// nodes created here are tagged "encoder"
//	})
//
// graph/
// The extraction pipeline: walker, namer, parameter resolver, encoder,
// the Builder tying them together and the exporters.
//
//	b := graph.NewBuilder(
//		graph.WithParameterNames(known),
//		graph.WithCompaction(true),
//	)
//	record, err := b.Build(ctx, t, y)
//
// graphdef/
// Binary GraphDef encoding of a record.
//
//	data, err := graphdef.Marshal(record)
//
// store/
// Snapshot persistence with memory, file, sqlite, postgres and redis
// backends, plus a retrying wrapper for network stores.
//
// log/
// Leveled logging with a standard-library backend and a kataras/golog
// adapter.
//
// # Examples
//
// See ./examples for runnable programs: mlp builds and exports a scoped
// two-layer network, snapshots stores a growing model per step in SQLite,
// and golog_logger shows builder logging through golog.
package tracegraph // import "github.com/smallnest/tracegraph"
