package types

import "errors"

// Filter selects entities by column equality. Keys are column names known to
// the table (for example "manuscript_id" or "page"); a nil value matches NULL.
type Filter map[string]any

// Table provides uniform CRUD operations for a single entity type.
// Get and Fetch return any; callers type-assert to the concrete entity struct.
type Table interface {
	// Get retrieves the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Get(id int64) (any, error)

	// Create inserts a new entity and returns its ID. The ID field of data
	// is set on success. Tables keyed by another entity (specializations)
	// take the ID from data instead of generating one.
	Create(data any) (int64, error)

	// Update overwrites the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Update(id int64, data any) error

	// Delete removes the entity with the given ID. Returns ErrNotFound if it
	// does not exist and ErrReferenced if another entity still points at it.
	Delete(id int64) error

	// Fetch returns all entities matching the filter, ordered by ID. An
	// empty filter returns every entity in the table.
	Fetch(filter Filter) ([]any, error)
}

// Table operation errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrReferenced    = errors.New("entity is still referenced")
)
