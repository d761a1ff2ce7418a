package graph

import (
	"fmt"

	"github.com/smallnest/tracegraph/trace"
)

// DTypeCode is the wire enumeration of tensor element types. The values
// match the DataType enum understood by the graph viewer.
type DTypeCode int32

const (
	DTInvalid DTypeCode = 0
	DTFloat   DTypeCode = 1
	DTDouble  DTypeCode = 2
	DTInt32   DTypeCode = 3
	DTUint8   DTypeCode = 4
	DTInt16   DTypeCode = 5
	DTInt8    DTypeCode = 6
	DTString  DTypeCode = 7
)

var dtypeNames = map[DTypeCode]string{
	DTInvalid: "DT_INVALID",
	DTFloat:   "DT_FLOAT",
	DTDouble:  "DT_DOUBLE",
	DTInt32:   "DT_INT32",
	DTUint8:   "DT_UINT8",
	DTInt16:   "DT_INT16",
	DTInt8:    "DT_INT8",
	DTString:  "DT_STRING",
}

func (c DTypeCode) String() string {
	if name, ok := dtypeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("DTypeCode(%d)", int32(c))
}

// MapDType translates an element type into its wire code. A node that
// declares no element type maps to DTInvalid; any type outside the
// supported set fails with ErrUnsupportedType.
func MapDType(e trace.ElementType) (DTypeCode, error) {
	switch e {
	case trace.NoType:
		return DTInvalid, nil
	case trace.Float32:
		return DTFloat, nil
	case trace.Float64:
		return DTDouble, nil
	case trace.Int32:
		return DTInt32, nil
	case trace.Uint8:
		return DTUint8, nil
	case trace.Int16:
		return DTInt16, nil
	case trace.Int8:
		return DTInt8, nil
	case trace.Bytes1:
		return DTString, nil
	default:
		return DTInvalid, fmt.Errorf("%w: %s", ErrUnsupportedType, e)
	}
}
