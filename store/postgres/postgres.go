package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/tracegraph/graphdef"
	"github.com/smallnest/tracegraph/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresGraphStore implements store.GraphStore using PostgreSQL
type PostgresGraphStore struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "graph_snapshots"
}

// NewPostgresGraphStore creates a new Postgres graph store
func NewPostgresGraphStore(ctx context.Context, opts PostgresOptions) (*PostgresGraphStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	return NewPostgresGraphStoreWithPool(pool, opts.TableName), nil
}

// NewPostgresGraphStoreWithPool creates a new Postgres graph store with an existing pool
// Useful for testing with mocks
func NewPostgresGraphStoreWithPool(pool DBPool, tableName string) *PostgresGraphStore {
	if tableName == "" {
		tableName = "graph_snapshots"
	}
	return &PostgresGraphStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresGraphStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run TEXT NOT NULL,
			step INTEGER NOT NULL,
			graph BYTEA NOT NULL,
			metadata JSONB,
			timestamp TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_run ON %s (run, step);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresGraphStore) Close() {
	s.pool.Close()
}

// Save stores a snapshot
func (s *PostgresGraphStore) Save(ctx context.Context, snapshot *store.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	graphBytes, err := graphdef.Marshal(snapshot.Record)
	if err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}

	metadataJSON, err := json.Marshal(snapshot.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, run, step, graph, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			run = EXCLUDED.run,
			step = EXCLUDED.step,
			graph = EXCLUDED.graph,
			metadata = EXCLUDED.metadata,
			timestamp = EXCLUDED.timestamp
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		snapshot.ID,
		snapshot.Run,
		snapshot.Step,
		graphBytes,
		metadataJSON,
		snapshot.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

func scanSnapshot(row pgx.Row) (*store.Snapshot, error) {
	var snap store.Snapshot
	var graphBytes []byte
	var metadataJSON []byte

	if err := row.Scan(&snap.ID, &snap.Run, &snap.Step, &graphBytes, &metadataJSON, &snap.Timestamp); err != nil {
		return nil, err
	}

	rec, err := graphdef.Unmarshal(graphBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode graph of %s: %w", snap.ID, err)
	}
	snap.Record = rec

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &snap.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &snap, nil
}

// Load retrieves a snapshot by id
func (s *PostgresGraphStore) Load(ctx context.Context, snapshotID string) (*store.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, run, step, graph, metadata, timestamp
		FROM %s
		WHERE id = $1
	`, s.tableName)

	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query, snapshotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.NotFound(snapshotID)
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

// List returns all snapshots of a run ordered by step
func (s *PostgresGraphStore) List(ctx context.Context, run string) ([]*store.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, run, step, graph, metadata, timestamp
		FROM %s
		WHERE run = $1
		ORDER BY step ASC, timestamp ASC, id ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, run)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*store.Snapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return snapshots, nil
}

// Delete removes a snapshot
func (s *PostgresGraphStore) Delete(ctx context.Context, snapshotID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	_, err := s.pool.Exec(ctx, query, snapshotID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Clear removes all snapshots of a run
func (s *PostgresGraphStore) Clear(ctx context.Context, run string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE run = $1", s.tableName)
	_, err := s.pool.Exec(ctx, query, run)
	if err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}
