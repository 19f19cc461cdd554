package cli

import (
	"context"

	"go.uber.org/zap"

	"github.com/roach88/lineage/internal/migrate"
	"github.com/roach88/lineage/internal/query"
	"github.com/roach88/lineage/internal/source"
	"github.com/roach88/lineage/internal/store"
)

// openEngine opens the database and builds a migration engine over it.
// The caller owns closing the returned source.
func openEngine(path string, logger *zap.SugaredLogger) (*source.SQLite, *migrate.Engine, error) {
	src, err := source.OpenSQLite(path, logger)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open database", err)
	}
	cfg, err := query.SQLite()
	if err != nil {
		src.Close()
		return nil, nil, WrapExitError(ExitCommandError, "load backend config", err)
	}
	engine, err := migrate.New(src, cfg, logger)
	if err != nil {
		src.Close()
		return nil, nil, WrapExitError(ExitCommandError, "build migration engine", err)
	}
	return src, engine, nil
}

// openStore opens the database for reading and refuses to proceed unless
// the store is at the library's schema version.
func openStore(ctx context.Context, path string, logger *zap.SugaredLogger) (*source.SQLite, *store.Store, error) {
	src, engine, err := openEngine(path, logger)
	if err != nil {
		return nil, nil, err
	}
	version, err := engine.GetSchemaVersion(ctx)
	if err != nil {
		src.Close()
		return nil, nil, WrapExitError(ExitCommandError, "read schema version", err)
	}
	if version != migrate.LibraryVersion {
		src.Close()
		return nil, nil, WrapExitError(ExitFailure,
			"store schema is out of date; run 'lineage init --upgrade'", nil)
	}
	return src, store.New(src), nil
}
