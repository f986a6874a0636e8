package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// Statement kinds passed to translate.
const (
	opInsert = "insert"
	opUpdate = "update"
	opDelete = "delete"
)

// translate maps SQLite constraint violations onto the sentinel errors of
// pkg/types. Other errors are wrapped with the table name.
func translate(err error, op string, spec *tableSpec) error {
	if busy := translateBusy(err); busy != err {
		return fmt.Errorf("%s %s: %w", op, spec.name, busy)
	}
	sentinel := constraintError(err, op, spec)
	if sentinel == nil {
		return fmt.Errorf("%s %s: %w", op, spec.name, err)
	}
	return fmt.Errorf("%w: %s: %v", sentinel, spec.name, err)
}

func constraintError(err error, op string, spec *tableSpec) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return nil
	}
	code := se.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return nil
	}

	switch code {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_ROWID:
		return orInvalid(spec.keyErr)
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return orInvalid(spec.uniqueErr)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return foreignKeyError(op)
	case sqlite3.SQLITE_CONSTRAINT_TRIGGER:
		return orInvalid(spec.triggerErr)
	case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return types.ErrInvalidData
	}

	// Primary result code only: fall back to the message text.
	msg := se.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY"):
		return foreignKeyError(op)
	case strings.Contains(msg, "UNIQUE") && strings.Contains(msg, "."+spec.idColumn):
		return orInvalid(spec.keyErr)
	case strings.Contains(msg, "UNIQUE"):
		return orInvalid(spec.uniqueErr)
	default:
		return types.ErrInvalidData
	}
}

// foreignKeyError reports a missing parent on writes and a remaining child on
// deletes.
func foreignKeyError(op string) error {
	if op == opDelete {
		return types.ErrReferenced
	}
	return types.ErrNotFound
}

func orInvalid(err error) error {
	if err == nil {
		return types.ErrInvalidData
	}
	return err
}

// translateBusy wraps a lock timeout against another connection in
// ErrStoreBusy and returns any other error unchanged.
func translateBusy(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return fmt.Errorf("%w: %v", types.ErrStoreBusy, err)
	}
	return err
}
