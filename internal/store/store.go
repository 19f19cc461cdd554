// Package store implements the typed metadata access layer: the type
// registry, the node store, and the relationship graph. Every operation
// issues its reads and writes through a source.Executor and expects the
// caller to hold the ambient transaction; no operation retries or rolls
// back on its own.
package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/lineage/internal/source"
	"github.com/roach88/lineage/internal/status"
)

// Clock supplies event timestamps. The store assigns a timestamp only when
// the caller left it unset.
type Clock interface {
	NowMillis() int64
}

type wallClock struct{}

func (wallClock) NowMillis() int64 { return time.Now().UnixMilli() }

// Store is the typed access layer over one metadata backend.
type Store struct {
	exec  source.Executor
	clock Clock
}

// New creates a store using the wall clock for event timestamps.
func New(exec source.Executor) *Store {
	return &Store{exec: exec, clock: wallClock{}}
}

// NewWithClock creates a store with an explicit clock. Tests use this to
// pin event timestamps.
func NewWithClock(exec source.Executor, clock Clock) *Store {
	return &Store{exec: exec, clock: clock}
}

// lastInsertID reads the row id assigned by the most recent insert on the
// ambient connection.
func (s *Store) lastInsertID(ctx context.Context) (int64, error) {
	rs, err := s.exec.Execute(ctx, "SELECT last_insert_rowid()")
	if err != nil {
		return 0, fmt.Errorf("read last insert id: %w", err)
	}
	cell, ok := singleCell(rs)
	if !ok {
		return 0, status.Internalf("last_insert_rowid returned %d rows", len(rs.Records))
	}
	id, err := strconv.ParseInt(cell.Value, 10, 64)
	if err != nil {
		return 0, status.Internalf("parse last insert id %q: %v", cell.Value, err)
	}
	return id, nil
}

// singleCell returns the sole cell of a one-row, one-column result.
func singleCell(rs *source.RecordSet) (source.Cell, bool) {
	if len(rs.Records) != 1 || len(rs.Records[0]) != 1 {
		return source.Cell{}, false
	}
	return rs.Records[0][0], true
}

// parseID parses an id cell.
func parseID(cell source.Cell) (int64, error) {
	id, err := strconv.ParseInt(cell.Value, 10, 64)
	if err != nil {
		return 0, status.Internalf("parse id %q: %v", cell.Value, err)
	}
	return id, nil
}
