package graph

import (
	"fmt"

	"github.com/smallnest/tracegraph/trace"
)

// Names maps each node of a Reachable slice to its unique name.
type Names map[trace.NodeID]string

// BaseName derives the undisambiguated name of a node:
//
//   - a scope tag is prepended as "<scope>/"
//   - a tensor aliasing a known parameter is "Parameter_<resolved name>"
//   - a tensor aliasing an unknown parameter is "Parameter", or
//     "Parameter_<name>" when the tensor has a local name
//   - any other tensor is "Variable_<label>"
//   - an operation is its kind label
func BaseName(t *trace.Trace, n *trace.Node, known ParameterNames) string {
	prefix := ""
	if scope, ok := t.Scope(n.ID); ok {
		prefix = scope + "/"
	}

	if n.IsTensor() && n.Param != trace.NoParam {
		if resolved, ok := known.Lookup(n.Param); ok {
			return prefix + "Parameter_" + resolved
		}
		if n.Name != "" {
			return prefix + "Parameter_" + n.Name
		}
		return prefix + "Parameter"
	}
	if n.IsTensor() {
		return prefix + "Variable_" + n.DisplayLabel()
	}
	return prefix + n.Label
}

// Namer assigns names to one set of nodes. Nodes sharing a base name are
// suffixed "_0", "_1", ... in discovery order; a base name held by a
// single node is used as is.
type Namer struct {
	trace  *trace.Trace
	known  ParameterNames
	bases  map[trace.NodeID]string
	groups map[string][]trace.NodeID
	names  Names
}

// NewNamer computes names for nodes, which must be in discovery order.
func NewNamer(t *trace.Trace, nodes []trace.NodeID, known ParameterNames) *Namer {
	nm := &Namer{
		trace:  t,
		known:  known,
		bases:  make(map[trace.NodeID]string, len(nodes)),
		groups: make(map[string][]trace.NodeID),
		names:  make(Names, len(nodes)),
	}
	for _, id := range nodes {
		if _, ok := nm.bases[id]; ok {
			continue
		}
		base := BaseName(t, t.MustNode(id), known)
		nm.bases[id] = base
		nm.groups[base] = append(nm.groups[base], id)
	}
	nm.assign(nodes)
	return nm
}

func (nm *Namer) assign(nodes []trace.NodeID) {
	used := make(map[string]bool, len(nodes))
	for base, members := range nm.groups {
		if len(members) == 1 {
			used[base] = true
		}
	}

	// A generated "<base>_<i>" can clash with a literal base name of
	// another node; such suffixes move past the group size until free.
	next := make(map[string]int)
	for _, id := range nodes {
		if _, done := nm.names[id]; done {
			continue
		}
		base := nm.bases[id]
		members := nm.groups[base]
		if len(members) == 1 {
			nm.names[id] = base
			continue
		}
		name := fmt.Sprintf("%s_%d", base, indexOf(members, id))
		for used[name] {
			if _, ok := next[base]; !ok {
				next[base] = len(members)
			}
			name = fmt.Sprintf("%s_%d", base, next[base])
			next[base]++
		}
		used[name] = true
		nm.names[id] = name
	}
}

// Name returns the name assigned to id. Nodes outside the named set get
// their base name.
func (nm *Namer) Name(id trace.NodeID) string {
	if name, ok := nm.names[id]; ok {
		return name
	}
	return BaseName(nm.trace, nm.trace.MustNode(id), nm.known)
}

// Names returns the full assignment.
func (nm *Namer) Names() Names {
	return nm.names
}

// AssignNames names every node of the set, guaranteeing pairwise distinct
// results.
func AssignNames(t *trace.Trace, nodes []trace.NodeID, known ParameterNames) Names {
	return NewNamer(t, nodes, known).Names()
}

func indexOf(ids []trace.NodeID, id trace.NodeID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
