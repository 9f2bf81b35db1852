// Package sqlite implements the SQLite storage backend for boards.
//
// A Backend owns one store file inside the boards directory. Attach creates
// the schema and runs the one-time legacy migration; every exported operation
// then runs as a single statement or a single transaction.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/easel/pkg/types"
)

// File layout inside the data directory.
const (
	BoardsDirName = "boards"
	DBFileName    = "boards.db"
)

// Backend implements board storage using SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dir      string
	db       *sql.DB
	logger   *zap.Logger
}

var _ types.BoardStore = (*Backend)(nil)

// NewBackend creates a new SQLite backend instance. A nil logger discards
// all log output. The backend is not attached; call Attach to open the store.
func NewBackend(logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{logger: logger}
}

// Open creates a backend and attaches it to the store described by config.
func Open(config types.Config, logger *zap.Logger) (*Backend, error) {
	b := NewBackend(logger)
	if err := b.Attach(config); err != nil {
		return nil, err
	}
	return b, nil
}

// Attach opens the store under config.DataDir, creating the boards directory
// and schema when missing, and migrates the legacy JSON index if it has not
// been migrated yet. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	dir := filepath.Join(dataDir, BoardsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating boards directory: %w: %w", types.ErrStorage, err)
	}

	db, err := sql.Open("sqlite", dsn(filepath.Join(dir, DBFileName)))
	if err != nil {
		return storageErr("opening store", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return storageErr("initializing store", err)
	}

	b.db = db
	b.dir = dir
	b.config = config

	if err := b.migrateLegacy(); err != nil {
		db.Close()
		b.db = nil
		return fmt.Errorf("migrating legacy boards: %w", err)
	}

	b.attached = true
	return nil
}

// Detach closes the store. Detach is idempotent; after Detach every operation
// returns ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		if err != nil {
			return storageErr("closing store", err)
		}
	}
	return nil
}

// Dir returns the boards directory holding the store file and any legacy
// index files.
func (b *Backend) Dir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dir
}

// conn returns the open database handle, or ErrDetached.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.db, nil
}

// Lock handling. A caller that finds the store locked waits up to
// busyTimeoutMS for it. Transactions take the write lock at BEGIN, so a
// read-then-write transaction never has to upgrade its lock.
const (
	busyTimeoutMS = 5000
	txLock        = "immediate"
)

// dsn builds the connection string. Foreign keys and the busy timeout are
// per-connection settings, so they are set through the DSN for every pooled
// connection.
func dsn(path string) string {
	return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_txlock=%s",
		path, busyTimeoutMS, txLock)
}

// generateUUID generates a new UUID v7 for board ids.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// storageErr wraps a driver error as a storage failure.
func storageErr(action string, err error) error {
	return fmt.Errorf("%s: %w: %w", action, types.ErrStorage, err)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
