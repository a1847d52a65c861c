// Package store builds the tuture artifact: one record per commit holding
// the parsed diff of that commit, written as a single JSON array.
//
// Commits are fetched and parsed concurrently but records always follow the
// order the caller passed in. The artifact is replaced atomically and only
// when every commit succeeded.
package store
