package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// querier is the subset of *sql.DB and *sql.Tx used by table accessors.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

var _ types.Session = (*session)(nil)

// session routes table calls to the database. With tx set, every call runs
// in that transaction and takes no locks (Transact holds them). Without tx,
// each call is its own autocommit statement. A readOnly session belongs to
// View and refuses writes.
type session struct {
	backend  *Backend
	tx       *sql.Tx
	readOnly bool
}

// conn returns the querier for one call and a release func.
func (s *session) conn(write bool) (querier, func(), error) {
	if write && s.readOnly {
		return nil, nil, types.ErrReadOnly
	}
	if s.tx != nil {
		return s.tx, func() {}, nil
	}

	b := s.backend
	b.mu.RLock()
	if !b.attached {
		b.mu.RUnlock()
		return nil, nil, types.ErrStoreDetached
	}
	if !write {
		return b.db, b.mu.RUnlock, nil
	}
	b.writeMu.Lock()
	return b.db, func() {
		b.writeMu.Unlock()
		b.mu.RUnlock()
	}, nil
}

// GetTable returns a Table bound to this session.
func (s *session) GetTable(name string) (types.Table, error) {
	spec, ok := tableSpecs[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return &table{session: s, spec: spec}, nil
}

// UpsertName inserts name into an identity table or returns the existing
// row's id. ON CONFLICT on the unique name column makes the lookup and the
// insert one statement, so two callers racing on the same name get the same
// row.
func (s *session) UpsertName(tableName, name string) (int64, error) {
	spec, ok := tableSpecs[tableName]
	if !ok || !spec.identity {
		return 0, types.ErrTableNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, types.ErrInvalidName
	}

	q, release, err := s.conn(true)
	if err != nil {
		return 0, err
	}
	defer release()

	query := fmt.Sprintf(
		"INSERT INTO %s (name) VALUES (?) ON CONFLICT(name) DO UPDATE SET name = excluded.name RETURNING %s",
		spec.name, spec.idColumn,
	)
	var id int64
	if err := q.QueryRow(query, name).Scan(&id); err != nil {
		return 0, translate(err, opInsert, spec)
	}
	return id, nil
}
