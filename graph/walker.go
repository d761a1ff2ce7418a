package graph

import (
	"container/heap"
	"fmt"

	"github.com/smallnest/tracegraph/trace"
)

// Edge is a directed dependency: To is produced by or consumes From.
type Edge struct {
	From trace.NodeID `json:"from"`
	To   trace.NodeID `json:"to"`
}

// Reachable is the backward slice of a trace from a set of roots. Nodes and
// Edges are kept in first-discovery order and hold no duplicates.
type Reachable struct {
	Nodes []trace.NodeID
	Edges []Edge
}

// Contains reports whether id is part of the slice.
func (r *Reachable) Contains(id trace.NodeID) bool {
	for _, n := range r.Nodes {
		if n == id {
			return true
		}
	}
	return false
}

// InputsOf returns the sources of every edge targeting id, in edge
// discovery order.
func (r *Reachable) InputsOf(id trace.NodeID) []trace.NodeID {
	var inputs []trace.NodeID
	for _, e := range r.Edges {
		if e.To == id {
			inputs = append(inputs, e.From)
		}
	}
	return inputs
}

// candidate is a frontier entry. seq breaks rank ties by push order.
type candidate struct {
	id   trace.NodeID
	rank int
	seq  int
}

type frontier []candidate

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].rank != f[j].rank {
		return f[i].rank > f[j].rank
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(candidate)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

// walker holds the state of one extraction.
type walker struct {
	trace    *trace.Trace
	frontier frontier
	pushed   int
	seen     map[trace.NodeID]bool
	edges    map[Edge]bool
	result   *Reachable
}

func (w *walker) push(n *trace.Node) {
	heap.Push(&w.frontier, candidate{id: n.ID, rank: n.Rank, seq: w.pushed})
	w.pushed++
}

func (w *walker) addNode(id trace.NodeID) {
	if w.seen[id] {
		return
	}
	w.seen[id] = true
	w.result.Nodes = append(w.result.Nodes, id)
}

// link records from -> to once and schedules from for expansion.
func (w *walker) link(from, to trace.NodeID) {
	e := Edge{From: from, To: to}
	if w.edges[e] {
		return
	}
	w.edges[e] = true
	w.result.Edges = append(w.result.Edges, e)
	w.addNode(from)
	w.push(w.trace.MustNode(from))
}

// Extract collects every node backward-reachable from roots together with
// the edges between them. The frontier is a max-heap on rank with ties
// broken by push order, so repeated runs over the same trace discover nodes
// and edges in the same order.
//
// The result is the union of each root's backward slice. An operation that
// lists itself as an input does not produce a self-loop. The trace is
// assumed to be acyclic; a cycle still terminates because each edge is
// followed at most once.
func Extract(t *trace.Trace, roots []trace.NodeID) (*Reachable, error) {
	for _, id := range roots {
		n, err := t.Node(id)
		if err != nil || (!n.IsOperation() && !n.IsTensor()) {
			return nil, fmt.Errorf("%w: %d", ErrInvalidRoot, id)
		}
	}

	w := &walker{
		trace:  t,
		seen:   make(map[trace.NodeID]bool),
		edges:  make(map[Edge]bool),
		result: &Reachable{Nodes: []trace.NodeID{}, Edges: []Edge{}},
	}

	for _, id := range roots {
		w.push(t.MustNode(id))
		w.addNode(id)
	}

	for w.frontier.Len() > 0 {
		c := heap.Pop(&w.frontier).(candidate)
		n := t.MustNode(c.id)
		switch n.Kind {
		case trace.KindTensor:
			if n.HasProducer() {
				w.link(n.Producer, n.ID)
			}
		case trace.KindOperation:
			for _, in := range n.Inputs {
				if in != n.ID {
					w.link(in, n.ID)
				}
			}
		}
	}

	return w.result, nil
}
