// Package source defines the query-execution boundary of the lineage store.
//
// The access layer issues every read and write through the Executor
// interface and assumes an ambient transaction that the caller controls:
// Begin, one or more operations, then Commit or Rollback. All isolation and
// atomicity guarantees come from the backend's transaction semantics; the
// access layer holds no locks of its own.
package source

import "context"

// Cell is one column value of a result row. Null reports SQL NULL; Value is
// the cell rendered as a string otherwise.
type Cell struct {
	Value string
	Null  bool
}

// RecordSet holds the rows returned by one statement.
type RecordSet struct {
	Columns []string
	Records [][]Cell
}

// Executor runs statements against a metadata backend.
//
// Execute runs a single parameterized statement and returns its rows, if
// any. Begin, Commit, and Rollback control the ambient transaction;
// statements issued between Begin and Commit/Rollback execute inside it.
type Executor interface {
	Execute(ctx context.Context, query string, args ...any) (*RecordSet, error)
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error
}
