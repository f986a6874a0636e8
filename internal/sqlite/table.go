package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// tableSpec describes how one entity type maps onto its SQLite table.
// scan reads idColumn followed by columns; bind returns the entity id and the
// values for columns in the same order.
type tableSpec struct {
	name     string
	idColumn string
	columns  []string

	// filters maps Filter keys to SQL expressions with one placeholder.
	// Plain column names compare with "=" or "IS NULL".
	filters map[string]string

	// callerID is set for tables whose id comes from the entity
	// (specializations are keyed by annotation id).
	callerID bool

	// identity marks name-deduplicated tables usable with UpsertName.
	identity bool

	// noDelete rejects Delete for tables whose rows are never removed.
	noDelete bool

	// keyErr, uniqueErr, and triggerErr are returned for primary-key,
	// unique, and trigger violations respectively.
	keyErr     error
	uniqueErr  error
	triggerErr error

	scan  func(sc scanner) (any, error)
	bind  func(data any) (int64, []any, error)
	setID func(data any, id int64)
}

// tableSpecs holds every standard table keyed by name.
var tableSpecs = map[string]*tableSpec{}

func registerTable(spec *tableSpec) {
	tableSpecs[spec.name] = spec
}

// table implements types.Table for one entity type within a session.
type table struct {
	session *session
	spec    *tableSpec
}

var _ types.Table = (*table)(nil)

func (t *table) selectList() string {
	return t.spec.idColumn + ", " + strings.Join(t.spec.columns, ", ")
}

// Get retrieves an entity by ID.
// Returns ErrInvalidID if id is not positive, ErrNotFound if not found.
func (t *table) Get(id int64) (any, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	q, release, err := t.session.conn(false)
	if err != nil {
		return nil, err
	}
	defer release()

	row := q.QueryRow(
		fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", t.selectList(), t.spec.name, t.spec.idColumn),
		id,
	)
	entity, err := t.spec.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting %s %d: %w", t.spec.name, id, err)
	}
	return entity, nil
}

// Create inserts an entity and returns its ID.
func (t *table) Create(data any) (int64, error) {
	id, values, err := t.spec.bind(data)
	if err != nil {
		return 0, err
	}
	columns := t.spec.columns
	if t.spec.callerID {
		if id <= 0 {
			return 0, types.ErrInvalidID
		}
		columns = append([]string{t.spec.idColumn}, columns...)
		values = append([]any{id}, values...)
	}

	q, release, err := t.session.conn(true)
	if err != nil {
		return 0, err
	}
	defer release()

	res, err := q.Exec(
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.spec.name, strings.Join(columns, ", "), placeholders(len(columns))),
		values...,
	)
	if err != nil {
		return 0, translate(err, opInsert, t.spec)
	}
	if !t.spec.callerID {
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading %s id: %w", t.spec.name, err)
		}
	}
	t.spec.setID(data, id)
	return id, nil
}

// Update overwrites the entity with the given ID.
func (t *table) Update(id int64, data any) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	_, values, err := t.spec.bind(data)
	if err != nil {
		return err
	}

	sets := make([]string, len(t.spec.columns))
	for i, c := range t.spec.columns {
		sets[i] = c + " = ?"
	}

	q, release, err := t.session.conn(true)
	if err != nil {
		return err
	}
	defer release()

	res, err := q.Exec(
		fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", t.spec.name, strings.Join(sets, ", "), t.spec.idColumn),
		append(values, id)...,
	)
	if err != nil {
		return translate(err, opUpdate, t.spec)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating %s %d: %w", t.spec.name, id, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	t.spec.setID(data, id)
	return nil
}

// Delete removes the entity with the given ID.
func (t *table) Delete(id int64) error {
	if t.spec.noDelete {
		return fmt.Errorf("%w: %s rows cannot be deleted", types.ErrInvalidData, t.spec.name)
	}
	if id <= 0 {
		return types.ErrInvalidID
	}

	q, release, err := t.session.conn(true)
	if err != nil {
		return err
	}
	defer release()

	res, err := q.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.spec.name, t.spec.idColumn), id)
	if err != nil {
		return translate(err, opDelete, t.spec)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", t.spec.name, id, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch returns entities matching every filter key, ordered by ID.
func (t *table) Fetch(filter types.Filter) ([]any, error) {
	where, args, err := t.where(filter)
	if err != nil {
		return nil, err
	}

	q, release, err := t.session.conn(false)
	if err != nil {
		return nil, err
	}
	defer release()

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", t.selectList(), t.spec.name, where, t.spec.idColumn)
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", t.spec.name, err)
	}
	defer rows.Close()

	var results []any
	for rows.Next() {
		entity, err := t.spec.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", t.spec.name, err)
		}
		results = append(results, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", t.spec.name, err)
	}
	if results == nil {
		results = []any{}
	}
	return results, nil
}

// where builds the WHERE clause for a filter. Keys are sorted so that the
// generated SQL is stable.
func (t *table) where(filter types.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conditions []string
	var args []any
	for _, k := range keys {
		expr, ok := t.spec.filters[k]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s has no filter %q", types.ErrInvalidFilter, t.spec.name, k)
		}
		v, err := filterValue(filter[k])
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidFilter, k, err)
		}
		if v == nil {
			if strings.Contains(expr, "?") {
				return "", nil, fmt.Errorf("%w: %s cannot be null", types.ErrInvalidFilter, k)
			}
			conditions = append(conditions, expr+" IS NULL")
			continue
		}
		if !strings.Contains(expr, "?") {
			expr += " = ?"
		}
		conditions = append(conditions, expr)
		args = append(args, v)
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

// filterValue normalizes a filter value to a driver value.
func filterValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case *int64:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case string:
		return x, nil
	case types.Kind:
		return string(x), nil
	case bool:
		return boolToInt(x), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// nullInt64 converts an optional id to a driver value.
func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

// nullString converts an optional string to a driver value.
func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// int64Ptr converts a scanned sql.NullInt64 into an optional id.
func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// stringPtr converts a scanned sql.NullString into an optional string.
func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}
