// Package memory provides an in-process GraphStore backed by a map.
//
// It is safe for concurrent use and loses its contents when the process
// exits, which makes it the default choice for tests and one-shot tools.
package memory
