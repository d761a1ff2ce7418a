// Package graphdef serializes graph records to the binary GraphDef
// protobuf layout consumed by TensorBoard-style graph viewers, and parses
// them back.
//
//	rec, _ := graph.BuildGraph(t, y)
//	data, err := graphdef.Marshal(rec)
//
// The codec writes the wire format directly with protowire; no generated
// message types are needed.
package graphdef
