package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// DatabaseFile is the SQLite file created inside Config.DataDir.
const DatabaseFile = "khatt.db"

// busyTimeoutMillis bounds how long a connection waits on a locked database.
const busyTimeoutMillis = 5000

// Compile-time interface check: Backend must implement Store.
var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on a SQLite database file.
//
// mu guards the attach lifecycle: every operation holds it for reading and
// Attach/Detach hold it for writing. writeMu serializes writers within the
// process; write transactions begin IMMEDIATE so that writers in other
// processes wait on the busy timeout rather than fail mid-transaction.
// Reads take neither writeMu nor the write lock and observe committed state.
type Backend struct {
	mu       sync.RWMutex
	writeMu  sync.Mutex
	attached bool
	config   types.Config
	db       *sql.DB
	direct   *session
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	b := &Backend{}
	b.direct = &session{backend: b}
	return b
}

// Attach opens (or creates) DataDir/khatt.db, enables foreign keys, and
// applies the schema.
// Returns ErrAlreadyAttached if already attached.
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
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(filepath.Join(dataDir, DatabaseFile)))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.config.DataDir = dataDir
	b.attached = true
	return nil
}

// Detach closes the SQLite connection. After Detach, all operations return
// ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.attached = false
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
		b.db = nil
	}
	return nil
}

// DataDir returns the directory holding the database file.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.DataDir
}

// GetTable returns an autocommit Table accessor for the named table.
// Returns ErrTableNotFound if the table name is not recognized.
// Returns ErrStoreDetached if the backend is not attached.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	attached := b.attached
	b.mu.RUnlock()
	if !attached {
		return nil, types.ErrStoreDetached
	}
	return b.direct.GetTable(name)
}

// UpsertName resolves a name in an identity table as a single statement.
func (b *Backend) UpsertName(table, name string) (int64, error) {
	return b.direct.UpsertName(table, name)
}

// Transact runs fn inside one SQL transaction. Code inside fn must use the
// Session it is given; calling back into the Backend would wait on the
// writer lock held by this transaction.
func (b *Backend) Transact(fn func(types.Session) error) error {
	return b.withTx(func(tx *sql.Tx) error {
		return fn(&session{backend: b, tx: tx})
	})
}

// View runs fn inside one read-only SQL transaction. It does not take the
// writer lock, so views run alongside writers and see one snapshot.
func (b *Backend) View(fn func(types.Session) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.BeginTx(context.Background(), &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("beginning read transaction: %w", err)
	}
	defer tx.Rollback()

	return fn(&session{backend: b, tx: tx, readOnly: true})
}

// withTx holds the read side of mu and the writer lock for the duration of
// one SQL transaction.
func (b *Backend) withTx(fn func(tx *sql.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", translateBusy(err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", translateBusy(err))
	}
	return nil
}

// dsn builds the modernc.org/sqlite connection string. Pragmas are applied
// to every pooled connection.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// applySchema creates all tables, indexes, and triggers.
func applySchema(db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	for _, stmt := range triggerDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating trigger: %w", err)
		}
	}
	return nil
}
