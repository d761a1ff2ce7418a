package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryConfig configures retry behavior for store operations
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors func(error) bool // Determines if an error should trigger retry
}

// DefaultRetryConfig returns a default retry configuration. Missing
// snapshots, invalid snapshots and context errors are never retried.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		BackoffFactor:   2.0,
		RetryableErrors: IsTransient,
	}
}

// IsTransient reports whether err may succeed on a later attempt
func IsTransient(err error) bool {
	switch {
	case errors.Is(err, ErrSnapshotNotFound),
		errors.Is(err, ErrInvalidSnapshot),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// RetryStore wraps a GraphStore and retries failed operations with
// exponential backoff
type RetryStore struct {
	store  GraphStore
	config *RetryConfig
}

// NewRetryStore wraps s. A nil config uses DefaultRetryConfig.
func NewRetryStore(s GraphStore, config *RetryConfig) *RetryStore {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryStore{store: s, config: config}
}

func (r *RetryStore) do(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	delay := r.config.InitialDelay

	attempts := max(r.config.MaxAttempts, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled: %w", op, ctx.Err())
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if r.config.RetryableErrors != nil && !r.config.RetryableErrors(err) {
			return err
		}

		// Don't sleep after the last attempt
		if attempt < attempts {
			select {
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * r.config.BackoffFactor)
				if r.config.MaxDelay > 0 {
					delay = min(delay, r.config.MaxDelay)
				}
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled during backoff: %w", op, ctx.Err())
			}
		}
	}

	return fmt.Errorf("max retries (%d) exceeded for %s: %w", attempts, op, lastErr)
}

// Save stores a snapshot
func (r *RetryStore) Save(ctx context.Context, snapshot *Snapshot) error {
	return r.do(ctx, "save", func() error {
		return r.store.Save(ctx, snapshot)
	})
}

// Load retrieves a snapshot by id
func (r *RetryStore) Load(ctx context.Context, snapshotID string) (*Snapshot, error) {
	var snapshot *Snapshot
	err := r.do(ctx, "load", func() error {
		var err error
		snapshot, err = r.store.Load(ctx, snapshotID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// List returns all snapshots of a run ordered by step
func (r *RetryStore) List(ctx context.Context, run string) ([]*Snapshot, error) {
	var snapshots []*Snapshot
	err := r.do(ctx, "list", func() error {
		var err error
		snapshots, err = r.store.List(ctx, run)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// Delete removes a snapshot
func (r *RetryStore) Delete(ctx context.Context, snapshotID string) error {
	return r.do(ctx, "delete", func() error {
		return r.store.Delete(ctx, snapshotID)
	})
}

// Clear removes all snapshots of a run
func (r *RetryStore) Clear(ctx context.Context, run string) error {
	return r.do(ctx, "clear", func() error {
		return r.store.Clear(ctx, run)
	})
}
