package trace

import "strings"

// Annotator maintains a stack of scope names and tags the nodes of a trace
// with the joined path. It replaces intercepting node construction: the
// trace consults its bound annotator when a node is added and records the
// active path in its scope side table.
//
// An Annotator is bound to exactly one trace and is not safe for
// concurrent use.
type Annotator struct {
	trace *Trace
	stack []string
}

// NewAnnotator binds a new annotator to t, replacing any previous one.
func NewAnnotator(t *Trace) *Annotator {
	a := &Annotator{trace: t}
	t.annotator = a
	return a
}

// Enter pushes a scope. The tensors in params, typically the current values
// of a layer's parameters, are retagged with the new path so they are
// grouped with the layer even though they were created outside of it.
func (a *Annotator) Enter(name string, params ...NodeID) {
	a.stack = append(a.stack, name)
	scope := a.Current()
	for _, id := range params {
		if a.trace.Has(id) {
			a.trace.scopes[id] = scope
		}
	}
}

// Exit pops the innermost scope. Exiting with an empty stack is a no-op.
func (a *Annotator) Exit() {
	if len(a.stack) == 0 {
		return
	}
	a.stack = a.stack[:len(a.stack)-1]
}

// Within runs fn inside the named scope.
func (a *Annotator) Within(name string, params []NodeID, fn func()) {
	a.Enter(name, params...)
	defer a.Exit()
	fn()
}

// Current returns the active scope path, or "" outside of any scope.
func (a *Annotator) Current() string {
	return strings.Join(a.stack, "/")
}

// Depth returns the number of open scopes.
func (a *Annotator) Depth() int {
	return len(a.stack)
}

// Detach unbinds the annotator so later nodes are no longer tagged.
func (a *Annotator) Detach() {
	if a.trace.annotator == a {
		a.trace.annotator = nil
	}
}
