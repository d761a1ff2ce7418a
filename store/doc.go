// Package store persists graph records as snapshots.
//
// A Snapshot wraps a graph.GraphRecord with the run it belongs to, the step
// at which it was captured, free-form metadata and a timestamp. Snapshots of
// the same run can be listed in step order, which makes it possible to watch
// a model's graph change across training steps.
//
// # Store Interface
//
//	type GraphStore interface {
//	    Save(ctx context.Context, snapshot *Snapshot) error
//	    Load(ctx context.Context, snapshotID string) (*Snapshot, error)
//	    List(ctx context.Context, run string) ([]*Snapshot, error)
//	    Delete(ctx context.Context, snapshotID string) error
//	    Clear(ctx context.Context, run string) error
//	}
//
// # Available Implementations
//
//   - store/memory: in-process map, for tests and short-lived tools
//   - store/file: one JSON file per snapshot in a directory
//   - store/sqlite: SQLite via mattn/go-sqlite3, records stored as GraphDef bytes
//   - store/postgres: PostgreSQL via pgx, records stored as GraphDef bytes
//   - store/redis: Redis via go-redis, with optional TTL
//
// Example:
//
//	s, err := sqlite.NewSqliteGraphStore(sqlite.SqliteOptions{Path: "./graphs.db"})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	snap := store.NewSnapshot("run-1", step, record)
//	if err := s.Save(ctx, snap); err != nil {
//	    return err
//	}
//
// Load returns an error wrapping ErrSnapshotNotFound when the id is unknown.
package store
