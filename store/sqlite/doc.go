// Package sqlite provides a SQLite-backed GraphStore.
//
// Snapshots live in a single table. The graph column holds the record
// encoded with the graphdef package, so rows can be handed to a graph
// viewer without re-encoding; metadata is stored as JSON text.
//
// # Basic Usage
//
//	s, err := sqlite.NewSqliteGraphStore(sqlite.SqliteOptions{
//		Path:      "./graphs.db",
//		TableName: "graph_snapshots", // optional
//	})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
// The table is created on open if it does not exist.
package sqlite
