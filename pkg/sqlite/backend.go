// Package sqlite exposes the SQLite store without its implementation.
package sqlite

import (
	"github.com/mesh-intelligence/khatt/internal/sqlite"
	"github.com/mesh-intelligence/khatt/pkg/types"
)

// Backend is a SQLite Store that can also write and load JSONL snapshots.
type Backend interface {
	types.Store

	// Export writes one JSONL file per table into dir and returns the
	// record count of each.
	Export(dir string) (map[string]int, error)

	// Import loads a directory written by Export into an empty store.
	// Returns ErrStoreNotEmpty if any table has rows.
	Import(dir string) (map[string]int, error)
}

// NewBackend creates a detached SQLite backend.
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
//	defer backend.Detach()
func NewBackend() Backend {
	return sqlite.NewBackend()
}

// Open creates a backend and attaches it with config.
func Open(config types.Config) (Backend, error) {
	b := sqlite.NewBackend()
	if err := b.Attach(config); err != nil {
		return nil, err
	}
	return b, nil
}
