package graph

// DefaultProducerVersion is the format version stamped on every record
// unless the caller overrides it.
const DefaultProducerVersion int32 = 22

// VariableOp is the op of every tensor node.
const VariableOp = "VariableNode"

// GraphRecord is the encoded graph handed to the wire serializer. Field
// order within NodeRecord (name, op, inputs, attr) is the order the
// serializer must preserve.
type GraphRecord struct {
	Nodes    []NodeRecord `json:"node"`
	Versions VersionDef   `json:"versions"`
}

// NodeRecord describes one node.
type NodeRecord struct {
	Name   string   `json:"name"`
	Op     string   `json:"op"`
	Inputs []string `json:"input"`
	// Attr is nil when the node asserts no shape.
	Attr *Attr `json:"attr,omitempty"`
}

// Attr carries the typed tensor metadata of a node.
type Attr struct {
	Shape []int64   `json:"shape"`
	DType DTypeCode `json:"dtype"`
}

// VersionDef stamps the producing format version.
type VersionDef struct {
	Producer int32 `json:"producer"`
}

// Node returns the record named name.
func (r *GraphRecord) Node(name string) (*NodeRecord, bool) {
	for i := range r.Nodes {
		if r.Nodes[i].Name == name {
			return &r.Nodes[i], true
		}
	}
	return nil, false
}

// Names returns the node names in record order.
func (r *GraphRecord) Names() []string {
	names := make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		names[i] = n.Name
	}
	return names
}

// Outputs returns the names of records no other record consumes.
func (r *GraphRecord) Outputs() []string {
	consumed := make(map[string]bool)
	for _, n := range r.Nodes {
		for _, in := range n.Inputs {
			consumed[in] = true
		}
	}
	var outputs []string
	for _, n := range r.Nodes {
		if !consumed[n.Name] {
			outputs = append(outputs, n.Name)
		}
	}
	return outputs
}
