package graph

import (
	"fmt"
	"strings"

	"github.com/smallnest/tracegraph/trace"
)

// ParameterNames maps parameter identities to stable display names such as
// "MLP.l1.W". Lookups go by identity, so two parameters with equal values
// never share a name.
type ParameterNames map[trace.ParamID]string

// NewParameterNames creates an empty table.
func NewParameterNames() ParameterNames {
	return make(ParameterNames)
}

// Register binds a name to a parameter. Re-registering the same name is a
// no-op; a different name for the same parameter is an error.
func (p ParameterNames) Register(id trace.ParamID, name string) error {
	if existing, ok := p[id]; ok && existing != name {
		return fmt.Errorf("%w: parameter %d is %q, not %q", ErrDuplicateParameter, id, existing, name)
	}
	p[id] = name
	return nil
}

// Lookup returns the resolved name of a parameter.
func (p ParameterNames) Lookup(id trace.ParamID) (string, bool) {
	if id == trace.NoParam {
		return "", false
	}
	name, ok := p[id]
	return name, ok
}

// NamedParameter is one parameter owned directly by a link.
type NamedParameter struct {
	Name string
	ID   trace.ParamID
}

// ParameterTree mirrors a model's registry of named parameters: each link
// owns parameters and child links.
type ParameterTree struct {
	Name     string
	Params   []NamedParameter
	Children []*ParameterTree
}

// Link appends a child link and returns it.
func (pt *ParameterTree) Link(name string) *ParameterTree {
	child := &ParameterTree{Name: name}
	pt.Children = append(pt.Children, child)
	return child
}

// Add appends a parameter owned by pt.
func (pt *ParameterTree) Add(name string, id trace.ParamID) *ParameterTree {
	pt.Params = append(pt.Params, NamedParameter{Name: name, ID: id})
	return pt
}

// FlattenParameters walks the registry depth first and names every
// parameter by the "."-joined path of link names leading to it. Links with
// an empty name do not contribute a path segment.
func FlattenParameters(root *ParameterTree) (ParameterNames, error) {
	names := NewParameterNames()
	if root == nil {
		return names, nil
	}
	if err := flatten(root, nil, names); err != nil {
		return nil, err
	}
	return names, nil
}

func flatten(pt *ParameterTree, path []string, names ParameterNames) error {
	if pt.Name != "" {
		path = append(path, pt.Name)
	}
	for _, p := range pt.Params {
		full := strings.Join(append(append([]string(nil), path...), p.Name), ".")
		if err := names.Register(p.ID, full); err != nil {
			return err
		}
	}
	for _, child := range pt.Children {
		if err := flatten(child, path, names); err != nil {
			return err
		}
	}
	return nil
}
