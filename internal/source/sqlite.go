package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is an Executor backed by a SQLite database file.
//
// The connection is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// SQLite supports a single writer, so the pool is pinned to one connection;
// this also guarantees that Execute calls issued after Begin run on the
// transaction's connection.
type SQLite struct {
	db     *sql.DB
	tx     *sql.Tx
	txID   string
	logger *zap.SugaredLogger
}

// OpenSQLite creates or opens a SQLite database at the given path.
// A nil logger disables logging.
func OpenSQLite(path string, logger *zap.SugaredLogger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return &SQLite{db: db, logger: logger}, nil
}

// NewSQLiteWithDB wraps an existing connection. Used by tests that inject a
// mock driver; the caller keeps ownership of db configuration.
func NewSQLiteWithDB(db *sql.DB, logger *zap.SugaredLogger) *SQLite {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SQLite{db: db, logger: logger}
}

// Close closes the underlying connection. An open transaction is rolled
// back first.
func (s *SQLite) Close() error {
	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
	}
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Execute runs one statement, inside the open transaction if there is one.
func (s *SQLite) Execute(ctx context.Context, query string, args ...any) (*RecordSet, error) {
	var rows *sql.Rows
	var err error
	if s.tx != nil {
		rows, err = s.tx.QueryContext(ctx, query, args...)
	} else {
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	rs := &RecordSet{Columns: columns}
	for rows.Next() {
		scanned := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range scanned {
			dest[i] = &scanned[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		record := make([]Cell, len(columns))
		for i, cell := range scanned {
			record[i] = Cell{Value: cell.String, Null: !cell.Valid}
		}
		rs.Records = append(rs.Records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rs, nil
}

// Begin opens the ambient transaction. A transaction token is attached to
// debug logs so interleaved units of work can be told apart.
func (s *SQLite) Begin(ctx context.Context) error {
	if s.tx != nil {
		return fmt.Errorf("transaction already open")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.tx = tx
	s.txID = uuid.Must(uuid.NewV7()).String()
	s.logger.Debugw("transaction started", "tx", s.txID)
	return nil
}

// Commit commits the ambient transaction.
func (s *SQLite) Commit() error {
	if s.tx == nil {
		return fmt.Errorf("no open transaction")
	}
	err := s.tx.Commit()
	s.logger.Debugw("transaction committed", "tx", s.txID, "err", err)
	s.tx = nil
	if err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the ambient transaction, making all writes issued since
// Begin invisible.
func (s *SQLite) Rollback() error {
	if s.tx == nil {
		return fmt.Errorf("no open transaction")
	}
	err := s.tx.Rollback()
	s.logger.Debugw("transaction rolled back", "tx", s.txID, "err", err)
	s.tx = nil
	if err != nil {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}
