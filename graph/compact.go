package graph

import "github.com/smallnest/tracegraph/trace"

// Compact removes intermediate tensors from a Reachable slice: every tensor
// that has its producer in the slice is dropped, unless listed in keep, and
// the producer is wired directly to the tensor's consumers. Leaf tensors
// and kept tensors stay. Discovery order of the remaining nodes and edges
// is preserved.
func Compact(t *trace.Trace, r *Reachable, keep ...trace.NodeID) *Reachable {
	kept := make(map[trace.NodeID]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}

	// producers of intermediate tensors, by tensor
	through := make(map[trace.NodeID]trace.NodeID)
	for _, e := range r.Edges {
		n := t.MustNode(e.To)
		if n.IsTensor() && n.Producer == e.From && !kept[e.To] {
			through[e.To] = e.From
		}
	}

	out := &Reachable{Nodes: []trace.NodeID{}, Edges: []Edge{}}
	for _, id := range r.Nodes {
		if _, drop := through[id]; !drop {
			out.Nodes = append(out.Nodes, id)
		}
	}

	seen := make(map[Edge]bool)
	for _, e := range r.Edges {
		if _, drop := through[e.To]; drop {
			continue
		}
		if p, drop := through[e.From]; drop {
			e.From = p
		}
		if e.From == e.To || seen[e] {
			continue
		}
		seen[e] = true
		out.Edges = append(out.Edges, e)
	}
	return out
}
