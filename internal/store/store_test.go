package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/lineage/internal/metadata"
	"github.com/roach88/lineage/internal/query"
	"github.com/roach88/lineage/internal/source"
	"github.com/roach88/lineage/internal/testutil"
)

// fixedNow is the timestamp every test store's clock reports.
const fixedNow = int64(1700000000000)

// newTestStore opens a store over a fresh head-schema database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lineage.db")
	src, err := source.OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	t.Cleanup(func() { src.Close() })

	cfg, err := query.SQLite()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	if _, err := src.Execute(ctx, cfg.SchemaVersion.Create); err != nil {
		t.Fatalf("create version table: %v", err)
	}
	for _, table := range cfg.Tables {
		if _, err := src.Execute(ctx, table.Create); err != nil {
			t.Fatalf("create table %s: %v", table.Name, err)
		}
	}
	return NewWithClock(src, testutil.NewFixedClock(fixedNow))
}

// mustCreateType registers a type and fails the test on error.
func mustCreateType(t *testing.T, s *Store, tp *metadata.Type) int64 {
	t.Helper()
	id, err := s.CreateType(context.Background(), tp)
	if err != nil {
		t.Fatalf("CreateType: %v", err)
	}
	return id
}

func mustCreateArtifact(t *testing.T, s *Store, a *metadata.Artifact) int64 {
	t.Helper()
	id, err := s.CreateArtifact(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateArtifact: %v", err)
	}
	return id
}

func mustCreateExecution(t *testing.T, s *Store, e *metadata.Execution) int64 {
	t.Helper()
	id, err := s.CreateExecution(context.Background(), e)
	if err != nil {
		t.Fatalf("CreateExecution: %v", err)
	}
	return id
}

func mustCreateContext(t *testing.T, s *Store, c *metadata.Context) int64 {
	t.Helper()
	id, err := s.CreateContext(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	return id
}
