// Package identity resolves named reference entities (authors, editors,
// annotators) to their ids, creating them on first reference.
package identity

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// Resolver looks up or creates identity rows by name.
type Resolver struct {
	store types.Store
}

// NewResolver returns a Resolver over store.
func NewResolver(store types.Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveOrCreate returns the id of the kind's row named name, creating it
// when absent. Surrounding whitespace is ignored.
func (r *Resolver) ResolveOrCreate(kind types.IdentityKind, name string) (int64, error) {
	return ResolveIn(r.store, kind, name)
}

// Name returns the name stored for id.
func (r *Resolver) Name(kind types.IdentityKind, id int64) (string, error) {
	return NameIn(r.store, kind, id)
}

// ResolveIn is ResolveOrCreate within a session, so that a nested write can
// create its references in the same transaction.
func ResolveIn(s types.Session, kind types.IdentityKind, name string) (int64, error) {
	table, err := kind.Table()
	if err != nil {
		return 0, fmt.Errorf("%w: identity kind %q", err, kind)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: empty %s name", types.ErrInvalidName, kind)
	}
	id, err := s.UpsertName(table, name)
	if err != nil {
		return 0, fmt.Errorf("resolving %s %q: %w", kind, name, err)
	}
	return id, nil
}

// NameIn is Name within a session.
func NameIn(s types.Session, kind types.IdentityKind, id int64) (string, error) {
	tableName, err := kind.Table()
	if err != nil {
		return "", fmt.Errorf("%w: identity kind %q", err, kind)
	}
	table, err := s.GetTable(tableName)
	if err != nil {
		return "", err
	}
	entity, err := table.Get(id)
	if err != nil {
		return "", fmt.Errorf("%s %d: %w", kind, id, err)
	}
	switch e := entity.(type) {
	case *types.Author:
		return e.Name, nil
	case *types.Editor:
		return e.Name, nil
	case *types.Annotator:
		return e.Name, nil
	default:
		return "", fmt.Errorf("%w: unexpected %T in %s", types.ErrInvalidData, entity, tableName)
	}
}
