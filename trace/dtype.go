package trace

import "fmt"

// ElementType is the element type of a tensor as reported by the runtime.
type ElementType uint8

const (
	// NoType marks a node that does not declare an element type.
	NoType ElementType = iota
	Float16
	Float32
	Float64
	Int8
	Int16
	Int32
	Int64
	Uint8
	Bool
	// Bytes1 is a single-byte string element.
	Bytes1
)

var elementTypeNames = map[ElementType]string{
	NoType:  "",
	Float16: "float16",
	Float32: "float32",
	Float64: "float64",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Bool:    "bool",
	Bytes1:  "S1",
}

// String returns the runtime spelling of the element type.
func (e ElementType) String() string {
	if name, ok := elementTypeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ElementType(%d)", uint8(e))
}
