package graph

import (
	"errors"
	"fmt"

	"github.com/smallnest/tracegraph/trace"
)

var (
	// ErrInvalidRoot is returned when a root does not address a node of the trace.
	ErrInvalidRoot = errors.New("invalid root")

	// ErrUnsupportedType is returned when an element type has no wire mapping.
	ErrUnsupportedType = errors.New("unsupported element type")

	// ErrDuplicateParameter is returned when one parameter is registered under two names.
	ErrDuplicateParameter = errors.New("parameter registered twice")
)

// StageError reports which pipeline stage failed and for which node.
type StageError struct {
	// Stage is the pipeline stage that failed
	Stage Stage
	// Node is the offending node, or trace.NoNode when the failure is not node specific
	Node trace.NodeID
	// Err is the underlying error
	Err error
}

func (e *StageError) Error() string {
	if e.Node != trace.NoNode {
		return fmt.Sprintf("%s failed at node %d: %v", e.Stage, e.Node, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
