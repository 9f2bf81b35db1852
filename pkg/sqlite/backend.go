// Package sqlite provides the public API for the SQLite board store.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/easel/internal/sqlite"
	"github.com/mesh-intelligence/easel/pkg/types"
)

// NewBackend creates a new SQLite board store. A nil logger discards log
// output. The store is not attached; call Attach with a Config to open it.
//
// Example:
//
//	store := sqlite.NewBackend(nil)
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: dataDir,
//	})
//	defer store.Detach()
func NewBackend(logger *zap.Logger) types.BoardStore {
	return sqlite.NewBackend(logger)
}
