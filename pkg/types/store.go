package types

import "errors"

// Session gives access to the entity tables. A Session obtained from
// Store.Transact runs every call inside one transaction; the Store itself is
// a Session whose calls are each atomic on their own.
type Session interface {
	// GetTable returns the Table for the given name.
	// Returns ErrTableNotFound if the name is not a standard table.
	GetTable(name string) (Table, error)

	// UpsertName returns the id of the row in a named-identity table
	// (authors, editors, annotators) whose name equals name, inserting it
	// first when absent. It is one statement against the unique name key.
	UpsertName(table, name string) (int64, error)
}

// Store is the backend-agnostic persistence handle. Callers attach it to a
// backend, work through Sessions, and detach when done.
type Store interface {
	Session

	// Transact runs fn inside a single transaction. The transaction commits
	// when fn returns nil and rolls back otherwise; the error from fn is
	// returned unchanged.
	Transact(fn func(Session) error) error

	// View runs fn inside a single read-only transaction so that every read
	// in fn sees the same committed state. Writes through the Session fail.
	View(fn func(Session) error) error

	// Attach connects the Store to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrStoreDetached.
	Detach() error
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrTableNotFound   = errors.New("table not found")
	ErrStoreNotEmpty   = errors.New("store is not empty")
	ErrStoreBusy       = errors.New("store is locked by another writer")
	ErrReadOnly        = errors.New("session is read-only")
)
