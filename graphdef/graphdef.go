package graphdef

import (
	"errors"
	"fmt"
	"sort"

	"github.com/smallnest/tracegraph/graph"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is returned when bytes do not parse as a GraphDef.
var ErrMalformed = errors.New("malformed graphdef")

// GraphDef, NodeDef, AttrValue, TensorShapeProto and VersionDef field numbers.
const (
	graphNodeField     protowire.Number = 1
	graphVersionsField protowire.Number = 4

	nodeNameField  protowire.Number = 1
	nodeOpField    protowire.Number = 2
	nodeInputField protowire.Number = 3
	nodeAttrField  protowire.Number = 5

	mapKeyField   protowire.Number = 1
	mapValueField protowire.Number = 2

	attrTypeField  protowire.Number = 6
	attrShapeField protowire.Number = 7

	shapeDimField protowire.Number = 2
	dimSizeField  protowire.Number = 1

	versionProducerField protowire.Number = 1
)

// Attribute keys carried on a node.
const (
	AttrDType = "dtype"
	AttrShape = "shape"
)

// Marshal encodes rec as GraphDef bytes. Nodes keep record order, node
// fields are written as name, op, input, attr, and attribute map entries
// are sorted by key so equal records encode to equal bytes.
func Marshal(rec *graph.GraphRecord) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("graphdef: nil record")
	}

	var b []byte
	for i := range rec.Nodes {
		b = protowire.AppendTag(b, graphNodeField, protowire.BytesType)
		b = protowire.AppendBytes(b, appendNode(nil, &rec.Nodes[i]))
	}

	var v []byte
	if rec.Versions.Producer != 0 {
		v = protowire.AppendTag(v, versionProducerField, protowire.VarintType)
		v = protowire.AppendVarint(v, uint64(int64(rec.Versions.Producer)))
	}
	b = protowire.AppendTag(b, graphVersionsField, protowire.BytesType)
	b = protowire.AppendBytes(b, v)

	return b, nil
}

func appendNode(b []byte, n *graph.NodeRecord) []byte {
	b = appendString(b, nodeNameField, n.Name)
	b = appendString(b, nodeOpField, n.Op)
	for _, in := range n.Inputs {
		b = protowire.AppendTag(b, nodeInputField, protowire.BytesType)
		b = protowire.AppendString(b, in)
	}
	if n.Attr == nil {
		return b
	}

	attrs := map[string][]byte{
		AttrDType: appendTypeAttr(nil, n.Attr.DType),
		AttrShape: appendShapeAttr(nil, n.Attr.Shape),
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var entry []byte
		entry = protowire.AppendTag(entry, mapKeyField, protowire.BytesType)
		entry = protowire.AppendString(entry, k)
		entry = protowire.AppendTag(entry, mapValueField, protowire.BytesType)
		entry = protowire.AppendBytes(entry, attrs[k])

		b = protowire.AppendTag(b, nodeAttrField, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

// appendTypeAttr writes the oneof type member, which is present even for
// DT_INVALID.
func appendTypeAttr(b []byte, code graph.DTypeCode) []byte {
	b = protowire.AppendTag(b, attrTypeField, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(code)))
}

func appendShapeAttr(b []byte, shape []int64) []byte {
	var s []byte
	for _, size := range shape {
		var dim []byte
		if size != 0 {
			dim = protowire.AppendTag(dim, dimSizeField, protowire.VarintType)
			dim = protowire.AppendVarint(dim, uint64(size))
		}
		s = protowire.AppendTag(s, shapeDimField, protowire.BytesType)
		s = protowire.AppendBytes(s, dim)
	}
	b = protowire.AppendTag(b, attrShapeField, protowire.BytesType)
	return protowire.AppendBytes(b, s)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// Unmarshal parses GraphDef bytes into a record. Unknown fields are
// skipped. Every node gets a non-nil Inputs slice; Attr stays nil unless
// the node carries a dtype or shape attribute.
func Unmarshal(data []byte) (*graph.GraphRecord, error) {
	rec := &graph.GraphRecord{Nodes: []graph.NodeRecord{}}

	err := walkFields(data, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		switch {
		case num == graphNodeField && typ == protowire.BytesType:
			n, err := parseNode(v)
			if err != nil {
				return fmt.Errorf("node %d: %w", len(rec.Nodes), err)
			}
			rec.Nodes = append(rec.Nodes, *n)
		case num == graphVersionsField && typ == protowire.BytesType:
			return walkFields(v, func(num protowire.Number, typ protowire.Type, _ []byte, x uint64) error {
				if num == versionProducerField && typ == protowire.VarintType {
					rec.Versions.Producer = int32(x)
				}
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func parseNode(data []byte) (*graph.NodeRecord, error) {
	n := &graph.NodeRecord{Inputs: []string{}}

	err := walkFields(data, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case nodeNameField:
			n.Name = string(v)
		case nodeOpField:
			n.Op = string(v)
		case nodeInputField:
			n.Inputs = append(n.Inputs, string(v))
		case nodeAttrField:
			return parseAttrEntry(n, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func parseAttrEntry(n *graph.NodeRecord, data []byte) error {
	var key string
	var value []byte
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case mapKeyField:
			key = string(v)
		case mapValueField:
			value = v
		}
		return nil
	})
	if err != nil {
		return err
	}

	switch key {
	case AttrDType:
		if n.Attr == nil {
			n.Attr = &graph.Attr{}
		}
		return walkFields(value, func(num protowire.Number, typ protowire.Type, _ []byte, x uint64) error {
			if num == attrTypeField && typ == protowire.VarintType {
				n.Attr.DType = graph.DTypeCode(int32(x))
			}
			return nil
		})
	case AttrShape:
		if n.Attr == nil {
			n.Attr = &graph.Attr{}
		}
		n.Attr.Shape = []int64{}
		return walkFields(value, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
			if num != attrShapeField || typ != protowire.BytesType {
				return nil
			}
			return walkFields(v, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
				if num != shapeDimField || typ != protowire.BytesType {
					return nil
				}
				var size int64
				err := walkFields(v, func(num protowire.Number, typ protowire.Type, _ []byte, x uint64) error {
					if num == dimSizeField && typ == protowire.VarintType {
						size = int64(x)
					}
					return nil
				})
				n.Attr.Shape = append(n.Attr.Shape, size)
				return err
			})
		})
	}
	return nil
}

// walkFields calls fn for every field in data. Length-delimited values are
// passed as v, varints as x; other wire types are skipped.
func walkFields(data []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			x, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			data = data[m:]
			if err := fn(num, typ, nil, x); err != nil {
				return err
			}
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			data = data[m:]
			if err := fn(num, typ, v, 0); err != nil {
				return err
			}
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return nil
}
