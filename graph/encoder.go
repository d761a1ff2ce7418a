package graph

import (
	"github.com/smallnest/tracegraph/trace"
)

// EncodeOption configures Encode.
type EncodeOption func(*encodeConfig)

type encodeConfig struct {
	producer int32
}

// WithProducer overrides the producer version stamp.
func WithProducer(version int32) EncodeOption {
	return func(c *encodeConfig) {
		c.producer = version
	}
}

// Encode projects a named Reachable slice into a GraphRecord. Records follow
// the node discovery order and inputs follow the edge discovery order; no
// reordering or deduplication happens here.
func Encode(t *trace.Trace, r *Reachable, names Names, opts ...EncodeOption) (*GraphRecord, error) {
	cfg := encodeConfig{producer: DefaultProducerVersion}
	for _, opt := range opts {
		opt(&cfg)
	}

	inputs := make(map[trace.NodeID][]string, len(r.Nodes))
	for _, e := range r.Edges {
		inputs[e.To] = append(inputs[e.To], names[e.From])
	}

	rec := &GraphRecord{
		Nodes:    make([]NodeRecord, 0, len(r.Nodes)),
		Versions: VersionDef{Producer: cfg.producer},
	}
	for _, id := range r.Nodes {
		n, err := t.Node(id)
		if err != nil {
			return nil, &StageError{Stage: StageEncode, Node: id, Err: err}
		}
		attr, err := encodeAttr(n)
		if err != nil {
			return nil, &StageError{Stage: StageEncode, Node: id, Err: err}
		}
		in := inputs[id]
		if in == nil {
			in = []string{}
		}
		rec.Nodes = append(rec.Nodes, NodeRecord{
			Name:   names[id],
			Op:     opOf(n),
			Inputs: in,
			Attr:   attr,
		})
	}
	return rec, nil
}

// encodeAttr maps the element type first so an unsupported type fails even
// when the shape is empty and the attribute is dropped.
func encodeAttr(n *trace.Node) (*Attr, error) {
	dtype, err := MapDType(n.DType)
	if err != nil {
		return nil, err
	}
	if len(n.Shape) == 0 {
		return nil, nil
	}
	shape := make([]int64, len(n.Shape))
	for i, d := range n.Shape {
		shape[i] = int64(d)
	}
	return &Attr{Shape: shape, DType: dtype}, nil
}

func opOf(n *trace.Node) string {
	if n.IsTensor() {
		return VariableOp
	}
	return n.Label
}
