package graph

import (
	"context"
	"errors"

	"github.com/smallnest/tracegraph/log"
	"github.com/smallnest/tracegraph/trace"
)

// Option configures a Builder.
type Option func(*Builder)

// WithParameterNames seeds naming with resolved parameter names.
func WithParameterNames(names ParameterNames) Option {
	return func(b *Builder) {
		b.params = names
	}
}

// WithProducerVersion overrides the producer version stamp.
func WithProducerVersion(version int32) Option {
	return func(b *Builder) {
		b.producer = version
	}
}

// WithLogger sets the logger. The package-level logger is used otherwise.
func WithLogger(logger log.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithCompaction enables dropping intermediate tensors before naming.
// Root tensors are always kept.
func WithCompaction(enabled bool) Option {
	return func(b *Builder) {
		b.compact = enabled
	}
}

// WithHook registers a hook notified after every stage.
func WithHook(hook StageHook) Option {
	return func(b *Builder) {
		b.hooks = append(b.hooks, hook)
	}
}

// Builder runs the extract, name and encode pipeline. Its configuration is
// fixed at construction and every Build call keeps its own state, so one
// Builder may serve concurrent builds over independent traces.
type Builder struct {
	params   ParameterNames
	producer int32
	logger   log.Logger
	compact  bool
	hooks    []StageHook
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{producer: DefaultProducerVersion}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build extracts the backward slice of roots from t, names every node and
// encodes the result. The trace must not be mutated while Build runs.
// Cancellation is checked between stages.
func (b *Builder) Build(ctx context.Context, t *trace.Trace, roots ...trace.NodeID) (*GraphRecord, error) {
	logger := b.logger
	if logger == nil {
		logger = log.GetDefaultLogger()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	span := startSpan(StageExtract)
	r, err := Extract(t, roots)
	if err != nil {
		b.notify(ctx, span, 0, 0, err)
		logger.Error("extract over %d roots: %v", len(roots), err)
		return nil, b.stageError(StageExtract, err)
	}
	b.notify(ctx, span, len(r.Nodes), len(r.Edges), nil)
	logger.Debug("extracted %d nodes and %d edges from %d roots", len(r.Nodes), len(r.Edges), len(roots))

	if b.compact {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		span = startSpan(StageCompact)
		before := len(r.Nodes)
		r = Compact(t, r, roots...)
		b.notify(ctx, span, len(r.Nodes), len(r.Edges), nil)
		logger.Debug("compaction dropped %d intermediate tensors", before-len(r.Nodes))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	span = startSpan(StageName)
	names := AssignNames(t, r.Nodes, b.params)
	b.notify(ctx, span, len(names), len(r.Edges), nil)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	span = startSpan(StageEncode)
	rec, err := Encode(t, r, names, WithProducer(b.producer))
	if err != nil {
		b.notify(ctx, span, 0, 0, err)
		logger.Error("encode: %v", err)
		return nil, b.stageError(StageEncode, err)
	}
	b.notify(ctx, span, len(rec.Nodes), len(r.Edges), nil)
	logger.Debug("encoded %d records, producer %d", len(rec.Nodes), rec.Versions.Producer)

	return rec, nil
}

func (b *Builder) notify(ctx context.Context, span *StageSpan, nodes, edges int, err error) {
	span.end(nodes, edges, err)
	for _, hook := range b.hooks {
		hook.OnStage(ctx, span)
	}
}

func (b *Builder) stageError(stage Stage, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	return &StageError{Stage: stage, Node: trace.NoNode, Err: err}
}

// BuildGraph runs the pipeline with default options.
func BuildGraph(t *trace.Trace, roots ...trace.NodeID) (*GraphRecord, error) {
	return NewBuilder().Build(context.Background(), t, roots...)
}
