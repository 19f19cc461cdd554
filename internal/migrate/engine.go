// Package migrate owns schema lifecycle for the lineage store: creating
// the head schema on an empty database, stepwise forward migration of
// older stores, and stepwise reversible downgrades.
package migrate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/lineage/internal/query"
	"github.com/roach88/lineage/internal/source"
	"github.com/roach88/lineage/internal/status"
)

// LibraryVersion is the schema version this build reads and writes.
const LibraryVersion int64 = 3

// Engine applies schema lifecycle operations from a declarative
// configuration.
type Engine struct {
	exec   source.Executor
	cfg    *query.Config
	logger *zap.SugaredLogger
}

// New creates an engine. The configuration's migration history must reach
// exactly the library version. A nil logger disables logging.
func New(exec source.Executor, cfg *query.Config, logger *zap.SugaredLogger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if max := cfg.MaxVersion(); max != LibraryVersion {
		return nil, status.Internalf("migration history reaches version %d, library is at %d", max, LibraryVersion)
	}
	return &Engine{exec: exec, cfg: cfg, logger: logger}, nil
}

// tableExists probes one table by name.
func (e *Engine) tableExists(ctx context.Context, name string) (bool, error) {
	rs, err := e.exec.Execute(ctx, e.cfg.TableExists, name)
	if err != nil {
		return false, fmt.Errorf("probe table %s: %w", name, err)
	}
	if len(rs.Records) != 1 || len(rs.Records[0]) != 1 {
		return false, status.Internalf("table probe returned %d rows", len(rs.Records))
	}
	return rs.Records[0][0].Value != "0", nil
}

// probe reads the stored schema version. empty reports a database with no
// lineage tables at all. Stores created before version tracking have data
// tables but no version singleton; they report version 0.
func (e *Engine) probe(ctx context.Context) (version int64, empty bool, err error) {
	envExists, err := e.tableExists(ctx, e.cfg.SchemaVersion.Table)
	if err != nil {
		return 0, false, err
	}
	if envExists {
		rs, err := e.exec.Execute(ctx, e.cfg.SchemaVersion.Read)
		if err != nil {
			return 0, false, fmt.Errorf("read schema version: %w", err)
		}
		if len(rs.Records) == 0 {
			return 0, false, status.Abortedf("schema version table exists but holds no version")
		}
		if len(rs.Records) > 1 {
			return 0, false, status.Abortedf("schema version table holds %d versions", len(rs.Records))
		}
		v, err := strconv.ParseInt(rs.Records[0][0].Value, 10, 64)
		if err != nil {
			return 0, false, status.Internalf("parse schema version %q: %v", rs.Records[0][0].Value, err)
		}
		return v, false, nil
	}

	for _, name := range e.cfg.TableNames() {
		exists, err := e.tableExists(ctx, name)
		if err != nil {
			return 0, false, err
		}
		if exists {
			return 0, false, nil
		}
	}
	return 0, true, nil
}

// GetSchemaVersion returns the stored schema version. An entirely empty
// database has no version.
func (e *Engine) GetSchemaVersion(ctx context.Context) (int64, error) {
	version, empty, err := e.probe(ctx)
	if err != nil {
		return 0, err
	}
	if empty {
		return 0, status.NotFoundf("store is not initialized")
	}
	return version, nil
}

// InitIfNotExists brings the database to the library's schema version.
//
// An empty database gets the head schema directly. An older store is only
// migrated forward when enableUpgrade is set; each step commits its own
// transaction, with the version persisted before the next begins, so an
// interrupted migration leaves the counter at the last fully-applied step
// and resumes where it stopped. A newer store is never touched.
func (e *Engine) InitIfNotExists(ctx context.Context, enableUpgrade bool) error {
	version, empty, err := e.probe(ctx)
	if err != nil {
		return err
	}

	if empty {
		run := uuid.Must(uuid.NewV7()).String()
		err := e.inTransaction(ctx, func(ctx context.Context) error {
			if _, err := e.exec.Execute(ctx, e.cfg.SchemaVersion.Create); err != nil {
				return fmt.Errorf("create schema version table: %w", err)
			}
			for _, table := range e.cfg.Tables {
				if _, err := e.exec.Execute(ctx, table.Create); err != nil {
					return fmt.Errorf("create table %s: %w", table.Name, err)
				}
			}
			return e.persistVersion(ctx, LibraryVersion)
		})
		if err != nil {
			return err
		}
		e.logger.Infow("created head schema", "version", LibraryVersion, "run", run)
		return nil
	}

	switch {
	case version > LibraryVersion:
		return status.FailedPreconditionf("store is at schema version %d, library only understands up to %d", version, LibraryVersion)
	case version == LibraryVersion:
		for _, name := range e.cfg.TableNames() {
			exists, err := e.tableExists(ctx, name)
			if err != nil {
				return err
			}
			if !exists {
				return status.Abortedf("store reports version %d but table %s is missing", version, name)
			}
		}
		return nil
	}

	if !enableUpgrade {
		return status.FailedPreconditionf("store is at schema version %d, library needs %d; rerun with upgrade migration enabled", version, LibraryVersion)
	}
	run := uuid.Must(uuid.NewV7()).String()
	for v := version + 1; v <= LibraryVersion; v++ {
		err := e.inTransaction(ctx, func(ctx context.Context) error {
			return e.applyStep(ctx, e.cfg.Migrations[v].Upgrade, v)
		})
		if err != nil {
			return err
		}
		e.logger.Infow("applied upgrade migration", "from", v-1, "to", v, "run", run)
	}
	return nil
}

// Downgrade rolls the schema back to target, one version at a time. Each
// step commits its own transaction, persisting the counter before the next
// begins. Target version 0 has no version singleton; it is the
// pre-tracking layout.
func (e *Engine) Downgrade(ctx context.Context, target int64) error {
	if target < 0 {
		return status.InvalidArgumentf("downgrade target %d is negative", target)
	}
	version, empty, err := e.probe(ctx)
	if err != nil {
		return err
	}
	if empty {
		return status.InvalidArgumentf("store is not initialized")
	}
	if target >= version {
		return status.InvalidArgumentf("store is at schema version %d, cannot downgrade to %d", version, target)
	}

	run := uuid.Must(uuid.NewV7()).String()
	for v := version; v > target; v-- {
		err := e.inTransaction(ctx, func(ctx context.Context) error {
			for i, q := range e.cfg.Migrations[v].Downgrade {
				if _, err := e.exec.Execute(ctx, q); err != nil {
					return fmt.Errorf("downgrade step %d query %d: %w", v, i, err)
				}
			}
			// Version 0 predates the version singleton; the step that
			// reaches it drops the table, so there is nothing to persist.
			if v-1 >= 1 {
				return e.persistVersion(ctx, v-1)
			}
			return nil
		})
		if err != nil {
			return err
		}
		e.logger.Infow("applied downgrade migration", "from", v, "to", v-1, "run", run)
	}
	return nil
}

// inTransaction runs fn in its own transaction, rolling back on error.
func (e *Engine) inTransaction(ctx context.Context, fn func(context.Context) error) error {
	if err := e.exec.Begin(ctx); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		e.exec.Rollback()
		return err
	}
	return e.exec.Commit()
}

// applyStep runs one forward migration step and persists its version.
func (e *Engine) applyStep(ctx context.Context, queries []string, version int64) error {
	for i, q := range queries {
		if _, err := e.exec.Execute(ctx, q); err != nil {
			return fmt.Errorf("upgrade step %d query %d: %w", version, i, err)
		}
	}
	return e.persistVersion(ctx, version)
}

// persistVersion replaces the version singleton.
func (e *Engine) persistVersion(ctx context.Context, version int64) error {
	if _, err := e.exec.Execute(ctx, e.cfg.SchemaVersion.Clear); err != nil {
		return fmt.Errorf("clear schema version: %w", err)
	}
	if _, err := e.exec.Execute(ctx, e.cfg.SchemaVersion.Insert, version); err != nil {
		return fmt.Errorf("write schema version %d: %w", version, err)
	}
	return nil
}
