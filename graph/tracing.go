package graph

import (
	"context"
	"sync"
	"time"
)

// Stage names one step of the build pipeline.
type Stage string

const (
	// StageExtract is the backward walk over the trace
	StageExtract Stage = "extract"

	// StageCompact is the optional removal of intermediate tensors
	StageCompact Stage = "compact"

	// StageName is name assignment
	StageName Stage = "name"

	// StageEncode is record assembly
	StageEncode Stage = "encode"
)

// StageSpan describes one completed pipeline stage.
type StageSpan struct {
	// Stage is the stage this span covers
	Stage Stage

	// StartTime is when the stage began
	StartTime time.Time

	// EndTime is when the stage completed
	EndTime time.Time

	// Duration is EndTime - StartTime
	Duration time.Duration

	// Nodes is the number of nodes the stage produced
	Nodes int

	// Edges is the number of edges the stage produced
	Edges int

	// Error is set when the stage failed
	Error error
}

// StageHook receives a span after every stage.
type StageHook interface {
	OnStage(ctx context.Context, span *StageSpan)
}

// StageHookFunc is a function adapter for StageHook
type StageHookFunc func(ctx context.Context, span *StageSpan)

// OnStage implements the StageHook interface
func (f StageHookFunc) OnStage(ctx context.Context, span *StageSpan) {
	f(ctx, span)
}

// StageRecorder is a StageHook that keeps every span it sees.
type StageRecorder struct {
	mu    sync.Mutex
	spans []*StageSpan
}

// NewStageRecorder creates an empty recorder.
func NewStageRecorder() *StageRecorder {
	return &StageRecorder{}
}

// OnStage implements the StageHook interface
func (r *StageRecorder) OnStage(_ context.Context, span *StageSpan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spans = append(r.spans, span)
}

// Spans returns the recorded spans in arrival order.
func (r *StageRecorder) Spans() []*StageSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*StageSpan(nil), r.spans...)
}

// Clear drops all recorded spans.
func (r *StageRecorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spans = nil
}

func startSpan(stage Stage) *StageSpan {
	return &StageSpan{Stage: stage, StartTime: time.Now()}
}

func (s *StageSpan) end(nodes, edges int, err error) {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
	s.Nodes = nodes
	s.Edges = edges
	s.Error = err
}
