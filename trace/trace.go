package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NodeID addresses a node inside a Trace.
type NodeID int

// NoNode is the NodeID of an absent node, e.g. the producer of a leaf tensor.
const NoNode NodeID = -1

// ParamID identifies a learned parameter independently of the tensors that
// currently hold its value. The zero value means "no parameter".
type ParamID int

// NoParam marks a tensor that does not alias a parameter.
const NoParam ParamID = 0

// ErrUnknownNode is returned when a NodeID does not belong to the trace.
var ErrUnknownNode = errors.New("unknown trace node")

// Kind distinguishes the two node variants.
type Kind uint8

const (
	// KindInvalid is the zero value; the arena never creates such a node.
	KindInvalid Kind = iota
	// KindOperation is an applied operation.
	KindOperation
	// KindTensor is a tensor value.
	KindTensor
)

func (k Kind) String() string {
	switch k {
	case KindOperation:
		return "operation"
	case KindTensor:
		return "tensor"
	default:
		return "invalid"
	}
}

// Node is one entry of the trace arena.
type Node struct {
	ID   NodeID
	Kind Kind

	// Label is the operation kind for operations and the display label for
	// tensors. A tensor without an explicit label derives one from its
	// shape and element type, see DisplayLabel.
	Label string

	// Name is the local display name of a tensor, used for parameters that
	// cannot be resolved through a parameter-name table.
	Name string

	// Inputs is the ordered input list of an operation.
	Inputs []NodeID

	// Producer is the operation that created a tensor, or NoNode for leaves.
	Producer NodeID

	// Param is the parameter a tensor aliases, or NoParam.
	Param ParamID

	Shape []int
	DType ElementType

	// Rank orders the backward traversal and carries no other meaning.
	Rank int
}

// IsOperation reports whether n is an operation node.
func (n *Node) IsOperation() bool { return n.Kind == KindOperation }

// IsTensor reports whether n is a tensor node.
func (n *Node) IsTensor() bool { return n.Kind == KindTensor }

// HasProducer reports whether a tensor was created by an operation.
func (n *Node) HasProducer() bool { return n.Kind == KindTensor && n.Producer != NoNode }

// DisplayLabel returns the label shown for the node. Tensors without an
// explicit label render as "(2, 3), float32", or just the element type for
// scalars.
func (n *Node) DisplayLabel() string {
	if n.Label != "" || n.Kind != KindTensor {
		return n.Label
	}
	if len(n.Shape) == 0 {
		return n.DType.String()
	}
	dims := make([]string, len(n.Shape))
	for i, d := range n.Shape {
		dims[i] = strconv.Itoa(d)
	}
	label := "(" + strings.Join(dims, ", ") + ")"
	if n.DType != NoType {
		label += ", " + n.DType.String()
	}
	return label
}

// Parameter is a learned parameter registered with the trace.
type Parameter struct {
	ID   ParamID
	Name string
}

// TensorSpec describes a tensor to add to the trace.
type TensorSpec struct {
	Label string
	Name  string
	Shape []int
	DType ElementType
}

// Trace is the arena holding every node recorded for one computation.
type Trace struct {
	nodes     []Node
	params    []Parameter
	scopes    map[NodeID]string
	annotator *Annotator
}

// New creates an empty trace.
func New() *Trace {
	return &Trace{
		scopes: make(map[NodeID]string),
	}
}

// Len returns the number of nodes in the arena.
func (t *Trace) Len() int {
	return len(t.nodes)
}

// Has reports whether id addresses a node of the trace.
func (t *Trace) Has(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Node returns the node addressed by id. The returned node must not be
// modified.
func (t *Trace) Node(id NodeID) (*Node, error) {
	if !t.Has(id) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return &t.nodes[id], nil
}

// MustNode is like Node but panics on an unknown id.
func (t *Trace) MustNode(id NodeID) *Node {
	n, err := t.Node(id)
	if err != nil {
		panic(err)
	}
	return n
}

// NewParameter registers a learned parameter and returns its identity.
func (t *Trace) NewParameter(name string) ParamID {
	id := ParamID(len(t.params) + 1)
	t.params = append(t.params, Parameter{ID: id, Name: name})
	return id
}

// Parameter returns the parameter registered under id.
func (t *Trace) Parameter(id ParamID) (Parameter, bool) {
	if id <= NoParam || int(id) > len(t.params) {
		return Parameter{}, false
	}
	return t.params[id-1], true
}

// NewTensor adds a leaf tensor.
func (t *Trace) NewTensor(spec TensorSpec) NodeID {
	return t.addTensor(spec, NoNode, NoParam)
}

// NewParameterTensor adds a leaf tensor holding the current value of param.
// Without an explicit name the tensor takes the parameter's name.
func (t *Trace) NewParameterTensor(param ParamID, spec TensorSpec) NodeID {
	p, ok := t.Parameter(param)
	if !ok {
		panic(fmt.Sprintf("trace: unknown parameter %d", param))
	}
	if spec.Name == "" {
		spec.Name = p.Name
	}
	return t.addTensor(spec, NoNode, param)
}

// NewOperation adds an operation consuming inputs. Its rank is the maximum
// rank of its inputs.
func (t *Trace) NewOperation(label string, inputs ...NodeID) NodeID {
	rank := 0
	for _, in := range inputs {
		rank = max(rank, t.MustNode(in).Rank)
	}
	return t.add(Node{
		Kind:     KindOperation,
		Label:    label,
		Inputs:   append([]NodeID(nil), inputs...),
		Producer: NoNode,
		Rank:     rank,
	})
}

// NewOutput adds a tensor produced by op. Its rank is one above op's.
func (t *Trace) NewOutput(op NodeID, spec TensorSpec) NodeID {
	n := t.MustNode(op)
	if !n.IsOperation() {
		panic(fmt.Sprintf("trace: producer %d is a %s", op, n.Kind))
	}
	id := t.addTensor(spec, op, NoParam)
	t.nodes[id].Rank = n.Rank + 1
	return id
}

// Apply records an operation over inputs together with its outputs and
// returns the operation and the first output. Additional outputs follow
// the operation in the arena in order.
func (t *Trace) Apply(label string, inputs []NodeID, outputs ...TensorSpec) (NodeID, NodeID) {
	op := t.NewOperation(label, inputs...)
	first := NoNode
	for i, spec := range outputs {
		out := t.NewOutput(op, spec)
		if i == 0 {
			first = out
		}
	}
	return op, first
}

// AddInput appends in to the input list of op. It models in-place
// mutation, where an operation may end up listing itself.
func (t *Trace) AddInput(op, in NodeID) error {
	n, err := t.Node(op)
	if err != nil {
		return err
	}
	if !n.IsOperation() {
		return fmt.Errorf("node %d is a %s, not an operation", op, n.Kind)
	}
	if !t.Has(in) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, in)
	}
	n.Inputs = append(n.Inputs, in)
	return nil
}

// DeclareType attaches a shape and element type to a node. Operations only
// carry type metadata when it is declared this way.
func (t *Trace) DeclareType(id NodeID, shape []int, dtype ElementType) error {
	n, err := t.Node(id)
	if err != nil {
		return err
	}
	n.Shape = append([]int(nil), shape...)
	n.DType = dtype
	return nil
}

// SetRank overrides the traversal rank of a node.
func (t *Trace) SetRank(id NodeID, rank int) error {
	n, err := t.Node(id)
	if err != nil {
		return err
	}
	n.Rank = rank
	return nil
}

// SetScope tags a node with a "/"-joined scope path. An empty scope removes
// the tag.
func (t *Trace) SetScope(id NodeID, scope string) error {
	if !t.Has(id) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	if scope == "" {
		delete(t.scopes, id)
		return nil
	}
	t.scopes[id] = scope
	return nil
}

// Scope returns the scope tag of a node, if any.
func (t *Trace) Scope(id NodeID) (string, bool) {
	s, ok := t.scopes[id]
	return s, ok
}

func (t *Trace) addTensor(spec TensorSpec, producer NodeID, param ParamID) NodeID {
	return t.add(Node{
		Kind:     KindTensor,
		Label:    spec.Label,
		Name:     spec.Name,
		Producer: producer,
		Param:    param,
		Shape:    append([]int(nil), spec.Shape...),
		DType:    spec.DType,
	})
}

func (t *Trace) add(n Node) NodeID {
	for _, d := range n.Shape {
		if d < 0 {
			panic(fmt.Sprintf("trace: negative dimension %d", d))
		}
	}
	n.ID = NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	if t.annotator != nil {
		if scope := t.annotator.Current(); scope != "" {
			t.scopes[n.ID] = scope
		}
	}
	return n.ID
}
