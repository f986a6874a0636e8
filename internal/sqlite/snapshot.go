// This file implements JSONL snapshots of the whole store: one
// <table>.jsonl file per standard table, one JSON object per row.
package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// SnapshotFile returns the JSONL file name for a table.
func SnapshotFile(table string) string {
	return table + ".jsonl"
}

// Export writes every standard table to dir as JSONL, reading all tables in
// one transaction so the snapshot is consistent. It returns the number of
// rows written per table.
func (b *Backend) Export(dir string) (map[string]int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}

	counts := make(map[string]int, len(types.StandardTableNames))
	err := b.withTx(func(tx *sql.Tx) error {
		for _, name := range types.StandardTableNames {
			records, err := exportTable(tx, tableSpecs[name])
			if err != nil {
				return err
			}
			if err := writeJSONL(filepath.Join(dir, SnapshotFile(name)), records); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			counts[name] = len(records)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func exportTable(tx *sql.Tx, spec *tableSpec) ([]json.RawMessage, error) {
	columns := append([]string{spec.idColumn}, spec.columns...)
	rows, err := tx.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(columns, ", "), spec.name, spec.idColumn))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", spec.name, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", spec.name, err)
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			if raw, ok := values[i].([]byte); ok {
				values[i] = string(raw)
			}
			row[c] = values[i]
		}
		data, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encoding %s row: %w", spec.name, err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", spec.name, err)
	}
	return records, nil
}

// Import loads a snapshot written by Export into an empty store. All tables
// load in one transaction with foreign keys deferred to commit, so rows may
// reference rows later in the same file. Any bad record aborts the whole
// import, and so does a graph the graph operations could not have built.
// Missing table files load as empty.
func (b *Backend) Import(dir string) (map[string]int, error) {
	counts := make(map[string]int, len(types.StandardTableNames))
	err := b.withTx(func(tx *sql.Tx) error {
		if err := requireEmpty(tx); err != nil {
			return err
		}
		if _, err := tx.Exec("PRAGMA defer_foreign_keys = ON"); err != nil {
			return fmt.Errorf("deferring foreign keys: %w", err)
		}
		for _, name := range types.StandardTableNames {
			records, err := readJSONL(filepath.Join(dir, SnapshotFile(name)))
			if err != nil {
				return err
			}
			if err := importRecords(tx, tableSpecs[name], records); err != nil {
				return err
			}
			counts[name] = len(records)
		}
		if err := checkReferences(tx); err != nil {
			return err
		}
		return checkGraph(tx)
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func requireEmpty(tx *sql.Tx) error {
	for _, name := range types.StandardTableNames {
		var n int
		if err := tx.QueryRow("SELECT COUNT(*) FROM " + name).Scan(&n); err != nil {
			return fmt.Errorf("counting %s: %w", name, err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %s has %d rows", types.ErrStoreNotEmpty, name, n)
		}
	}
	return nil
}

func importRecords(tx *sql.Tx, spec *tableSpec, records []json.RawMessage) error {
	columns := append([]string{spec.idColumn}, spec.columns...)
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}

	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		spec.name, strings.Join(columns, ", "), placeholders(len(columns))))
	if err != nil {
		return fmt.Errorf("preparing %s insert: %w", spec.name, err)
	}
	defer stmt.Close()

	for i, rec := range records {
		row, err := decodeRecord(rec)
		if err != nil {
			return fmt.Errorf("%w: %s record %d: %v", types.ErrInvalidData, spec.name, i+1, err)
		}
		for k := range row {
			if !known[k] {
				return fmt.Errorf("%w: %s record %d: unknown column %q", types.ErrInvalidData, spec.name, i+1, k)
			}
		}
		values := make([]any, len(columns))
		for j, c := range columns {
			values[j] = row[c]
		}
		if _, err := stmt.Exec(values...); err != nil {
			return fmt.Errorf("%s record %d: %w", spec.name, i+1, translate(err, opInsert, spec))
		}
	}
	return nil
}

// decodeRecord turns one JSON object into driver values. Integers stay
// int64; nested objects and arrays are stored as their JSON text.
func decodeRecord(rec json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(rec))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	row := make(map[string]any, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case json.Number:
			if n, err := x.Int64(); err == nil {
				row[k] = n
			} else if f, err := x.Float64(); err == nil {
				row[k] = f
			} else {
				return nil, fmt.Errorf("column %q: bad number %s", k, x)
			}
		case bool:
			row[k] = boolToInt(x)
		case map[string]any, []any:
			data, err := json.Marshal(x)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", k, err)
			}
			row[k] = string(data)
		default:
			row[k] = x
		}
	}
	return row, nil
}

// checkReferences reports the first dangling foreign key before the deferred
// check fails the commit with a bare constraint error.
func checkReferences(tx *sql.Tx) error {
	rows, err := tx.Query("PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("checking references: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		var (
			table  string
			rowid  sql.NullInt64
			parent string
			fkid   int64
		)
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return fmt.Errorf("reading reference check: %w", err)
		}
		return fmt.Errorf("%w: %s row %d references a missing %s", types.ErrNotFound, table, rowid.Int64, parent)
	}
	return rows.Err()
}

// graphNode is one specialization row with the manuscript of its annotation.
type graphNode struct {
	kind       types.Kind
	manuscript int64
	sameAs     sql.NullInt64
	prev, next sql.NullInt64
}

// checkGraph verifies the imported specializations: complete annotations
// have a role, links are two-sided and stay within one manuscript, chains
// have no cycles, and same_as points at a chapter of another manuscript.
func checkGraph(tx *sql.Tx) error {
	var bare int64
	err := tx.QueryRow(`SELECT a.annotation_id FROM annotations a
LEFT JOIN specializations s ON s.annotation_id = a.annotation_id
WHERE a.complete = 1 AND s.annotation_id IS NULL
ORDER BY a.annotation_id LIMIT 1`).Scan(&bare)
	switch {
	case err == nil:
		return fmt.Errorf("%w: annotation %d is complete without a role", types.ErrNotSpecialized, bare)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("checking complete annotations: %w", err)
	}

	rows, err := tx.Query(`SELECT s.annotation_id, s.kind, a.manuscript_id, s.same_as, s.previous_line, s.next_line
FROM specializations s JOIN annotations a ON a.annotation_id = s.annotation_id
ORDER BY s.annotation_id`)
	if err != nil {
		return fmt.Errorf("reading specializations: %w", err)
	}
	nodes := make(map[int64]*graphNode)
	var ids []int64
	for rows.Next() {
		var id int64
		n := &graphNode{}
		if err := rows.Scan(&id, &n.kind, &n.manuscript, &n.sameAs, &n.prev, &n.next); err != nil {
			rows.Close()
			return fmt.Errorf("scanning specializations: %w", err)
		}
		nodes[id] = n
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating specializations: %w", err)
	}

	for _, id := range ids {
		n := nodes[id]
		if n.sameAs.Valid {
			target := nodes[n.sameAs.Int64]
			if target.kind != types.KindChapter {
				return fmt.Errorf("%w: chapter %d is aligned with %s %d",
					types.ErrInvalidSpecialization, id, target.kind, n.sameAs.Int64)
			}
			if target.manuscript == n.manuscript {
				return fmt.Errorf("%w: chapter %d is aligned with chapter %d of the same manuscript",
					types.ErrInvalidSpecialization, id, n.sameAs.Int64)
			}
		}
		if n.next.Valid {
			if err := checkLink(nodes, id, n.next.Int64); err != nil {
				return err
			}
		}
		if n.prev.Valid {
			if err := checkLink(nodes, n.prev.Int64, id); err != nil {
				return err
			}
		}
	}

	// Links are two-sided here, so a cycle is a closed ring of next pointers.
	done := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if done[id] {
			continue
		}
		walk := map[int64]bool{}
		for cur := id; ; {
			if walk[cur] {
				return fmt.Errorf("%w: line %d reaches itself", types.ErrCycleDetected, cur)
			}
			walk[cur] = true
			done[cur] = true
			next := nodes[cur].next
			if !next.Valid || done[next.Int64] && !walk[next.Int64] {
				break
			}
			cur = next.Int64
		}
	}
	return nil
}

// checkLink verifies that b follows a on both sides and that both are lines
// of one manuscript.
func checkLink(nodes map[int64]*graphNode, a, b int64) error {
	na, nb := nodes[a], nodes[b]
	if na.kind != types.KindAnnotatedLine || nb.kind != types.KindAnnotatedLine {
		return fmt.Errorf("%w: link %d -> %d joins a %s and a %s",
			types.ErrInvalidSpecialization, a, b, na.kind, nb.kind)
	}
	if na.manuscript != nb.manuscript {
		return fmt.Errorf("%w: lines %d and %d", types.ErrChainScope, a, b)
	}
	if !na.next.Valid || na.next.Int64 != b || !nb.prev.Valid || nb.prev.Int64 != a {
		return fmt.Errorf("%w: link %d -> %d is one-sided", types.ErrIntegrityFault, a, b)
	}
	return nil
}
