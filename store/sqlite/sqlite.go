package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/smallnest/tracegraph/graphdef"
	"github.com/smallnest/tracegraph/store"
)

// SqliteGraphStore implements store.GraphStore using SQLite
type SqliteGraphStore struct {
	db        *sql.DB
	tableName string
}

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "graph_snapshots"
}

// NewSqliteGraphStore opens the database and creates the table if needed
func NewSqliteGraphStore(opts SqliteOptions) (*SqliteGraphStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "graph_snapshots"
	}

	s := &SqliteGraphStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteGraphStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run TEXT NOT NULL,
			step INTEGER NOT NULL,
			graph BLOB NOT NULL,
			metadata TEXT,
			timestamp DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_run ON %s (run, step);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteGraphStore) Close() error {
	return s.db.Close()
}

// Save stores a snapshot
func (s *SqliteGraphStore) Save(ctx context.Context, snapshot *store.Snapshot) error {
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
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run = excluded.run,
			step = excluded.step,
			graph = excluded.graph,
			metadata = excluded.metadata,
			timestamp = excluded.timestamp
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.Run,
		snapshot.Step,
		graphBytes,
		string(metadataJSON),
		snapshot.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*store.Snapshot, error) {
	var snap store.Snapshot
	var graphBytes []byte
	var metadataJSON sql.NullString
	var timestamp time.Time

	if err := row.Scan(&snap.ID, &snap.Run, &snap.Step, &graphBytes, &metadataJSON, &timestamp); err != nil {
		return nil, err
	}
	snap.Timestamp = timestamp

	rec, err := graphdef.Unmarshal(graphBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode graph of %s: %w", snap.ID, err)
	}
	snap.Record = rec

	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &snap.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &snap, nil
}

// Load retrieves a snapshot by id
func (s *SqliteGraphStore) Load(ctx context.Context, snapshotID string) (*store.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, run, step, graph, metadata, timestamp
		FROM %s
		WHERE id = ?
	`, s.tableName)

	snap, err := scanSnapshot(s.db.QueryRowContext(ctx, query, snapshotID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound(snapshotID)
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

// List returns all snapshots of a run ordered by step
func (s *SqliteGraphStore) List(ctx context.Context, run string) ([]*store.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, run, step, graph, metadata, timestamp
		FROM %s
		WHERE run = ?
		ORDER BY step ASC, timestamp ASC, id ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, run)
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
func (s *SqliteGraphStore) Delete(ctx context.Context, snapshotID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	_, err := s.db.ExecContext(ctx, query, snapshotID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Clear removes all snapshots of a run
func (s *SqliteGraphStore) Clear(ctx context.Context, run string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE run = ?", s.tableName)
	_, err := s.db.ExecContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}
