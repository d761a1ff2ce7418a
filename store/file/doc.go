// Package file provides a GraphStore that keeps one JSON file per snapshot.
//
//	fs, err := file.NewFileGraphStore("./graphs")
//
// Files are named <snapshot id>.json. Listing a run reads every file in the
// directory, so this backend suits small numbers of snapshots.
package file
