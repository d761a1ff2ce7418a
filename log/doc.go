// Package log provides the leveled logging interface used across tracegraph.
//
// Graph builds report stage statistics at debug level and failures at error
// level through a Logger. The package ships three implementations:
//
//   - DefaultLogger writes through the standard library log package
//   - GologLogger forwards to a github.com/kataras/golog logger
//   - NoOpLogger discards everything
//
// A package-level logger is used when no logger is configured explicitly:
//
//	log.SetDefaultLogger(log.NewGologLogger(golog.New()))
//	rec, err := graph.BuildGraph(t, root)
//
// Levels can be read from configuration strings with ParseLevel:
//
//	level, err := log.ParseLevel(os.Getenv("TRACEGRAPH_LOG_LEVEL"))
//
// DefaultLogger and GologLogger are safe for concurrent use.
package log
