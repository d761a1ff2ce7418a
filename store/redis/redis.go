package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/tracegraph/store"
)

// RedisGraphStore implements store.GraphStore using Redis
type RedisGraphStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "tracegraph:"
	TTL      time.Duration // Expiration for snapshots, default 0 (no expiration)
}

// NewRedisGraphStore creates a new Redis graph store
func NewRedisGraphStore(opts RedisOptions) *RedisGraphStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisGraphStoreWithClient(client, opts)
}

// NewRedisGraphStoreWithClient creates a store over an existing client;
// connection fields of opts are ignored
func NewRedisGraphStoreWithClient(client *redis.Client, opts RedisOptions) *RedisGraphStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "tracegraph:"
	}

	return &RedisGraphStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

// Close closes the underlying client
func (s *RedisGraphStore) Close() error {
	return s.client.Close()
}

func (s *RedisGraphStore) snapshotKey(id string) string {
	return fmt.Sprintf("%ssnapshot:%s", s.prefix, id)
}

func (s *RedisGraphStore) runKey(run string) string {
	return fmt.Sprintf("%srun:%s:snapshots", s.prefix, run)
}

// Save stores a snapshot and indexes it under its run
func (s *RedisGraphStore) Save(ctx context.Context, snapshot *store.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// a replaced snapshot may have moved to another run
	previous, err := s.Load(ctx, snapshot.ID)
	if err != nil && !errors.Is(err, store.ErrSnapshotNotFound) {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.snapshotKey(snapshot.ID), data, s.ttl)

	if previous != nil && previous.Run != snapshot.Run {
		pipe.SRem(ctx, s.runKey(previous.Run), snapshot.ID)
	}

	runKey := s.runKey(snapshot.Run)
	pipe.SAdd(ctx, runKey, snapshot.ID)
	if s.ttl > 0 {
		pipe.Expire(ctx, runKey, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot to redis: %w", err)
	}

	return nil
}

// Load retrieves a snapshot by id
func (s *RedisGraphStore) Load(ctx context.Context, snapshotID string) (*store.Snapshot, error) {
	data, err := s.client.Get(ctx, s.snapshotKey(snapshotID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.NotFound(snapshotID)
		}
		return nil, fmt.Errorf("failed to load snapshot from redis: %w", err)
	}

	var snapshot store.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

// List returns all snapshots of a run ordered by step. Index entries whose
// snapshot has expired are skipped.
func (s *RedisGraphStore) List(ctx context.Context, run string) ([]*store.Snapshot, error) {
	ids, err := s.client.SMembers(ctx, s.runKey(run)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for run %s: %w", run, err)
	}

	snapshots := make([]*store.Snapshot, 0, len(ids))
	if len(ids) == 0 {
		return snapshots, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.snapshotKey(id)
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshots: %w", err)
	}

	for i, result := range results {
		data, ok := result.(string)
		if !ok {
			continue
		}

		var snapshot store.Snapshot
		if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", ids[i], err)
		}
		snapshots = append(snapshots, &snapshot)
	}

	store.SortSnapshots(snapshots)
	return snapshots, nil
}

// Delete removes a snapshot and its run index entry
func (s *RedisGraphStore) Delete(ctx context.Context, snapshotID string) error {
	snapshot, err := s.Load(ctx, snapshotID)
	if err != nil {
		if errors.Is(err, store.ErrSnapshotNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.snapshotKey(snapshotID))
	pipe.SRem(ctx, s.runKey(snapshot.Run), snapshotID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}

// Clear removes all snapshots of a run
func (s *RedisGraphStore) Clear(ctx context.Context, run string) error {
	runKey := s.runKey(run)
	ids, err := s.client.SMembers(ctx, runKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get snapshots for clearing: %w", err)
	}

	if len(ids) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.snapshotKey(id))
	}
	pipe.Del(ctx, runKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	return nil
}
