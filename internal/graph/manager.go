// Package graph enforces the annotation graph invariants: one specialization
// per annotation, two-sided acyclic line chains scoped to one manuscript, and
// chapter alignment across different manuscripts. Every mutation runs in a
// single store transaction.
package graph

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// Manager applies mutations to the annotation graph.
type Manager struct {
	store  types.Store
	logger *slog.Logger
}

// NewManager returns a Manager over store. A nil logger uses slog.Default.
func NewManager(store types.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, logger: logger}
}

// NewAnnotation carries the fields of an annotation to create. With
// AnnotatorID zero the Annotator name is resolved in the creating
// transaction. Complete may only be set when the annotation is specialized
// in the same call.
type NewAnnotation struct {
	ManuscriptID int64
	Page         int
	AnnotatorID  int64
	Annotator    string
	BoundingBox  types.BoundingBox
	Text         string
	Label        string
	ResearchNote string
	Complete     bool
}

// LineSpec carries the optional payload of an annotated line.
type LineSpec struct {
	TextFieldID  *int64
	PreviousLine *int64
	NextLine     *int64
	HypoText     *string
}

// transact runs fn in one transaction and logs the outcome. Integrity faults
// are logged at error level since they mean stored data is inconsistent.
func (m *Manager) transact(op string, attrs []any, fn func(v view) error) error {
	err := m.store.Transact(func(s types.Session) error {
		return fn(view{s: s})
	})
	switch {
	case err == nil:
		m.logger.Debug(op, attrs...)
	case errors.Is(err, types.ErrIntegrityFault):
		m.logger.Error(op+" failed", append(attrs, "error", err)...)
	}
	return err
}

// view reads graph entities through one session.
type view struct {
	s types.Session
}

func (v view) table(name string) (types.Table, error) {
	return v.s.GetTable(name)
}

func (v view) annotation(id int64) (*types.Annotation, error) {
	t, err := v.table(types.AnnotationsTable)
	if err != nil {
		return nil, err
	}
	e, err := t.Get(id)
	if err != nil {
		return nil, fmt.Errorf("annotation %d: %w", id, err)
	}
	return e.(*types.Annotation), nil
}

func (v view) manuscript(id int64) (*types.Manuscript, error) {
	t, err := v.table(types.ManuscriptsTable)
	if err != nil {
		return nil, err
	}
	e, err := t.Get(id)
	if err != nil {
		return nil, fmt.Errorf("manuscript %d: %w", id, err)
	}
	return e.(*types.Manuscript), nil
}

func (v view) textField(id int64) (*types.TextField, error) {
	t, err := v.table(types.TextFieldsTable)
	if err != nil {
		return nil, err
	}
	e, err := t.Get(id)
	if err != nil {
		return nil, fmt.Errorf("text field %d: %w", id, err)
	}
	return e.(*types.TextField), nil
}

// specialization returns the validated specialization of an annotation, or
// ErrNotSpecialized when it has none.
func (v view) specialization(id int64) (*types.Specialization, error) {
	t, err := v.table(types.SpecializationsTable)
	if err != nil {
		return nil, err
	}
	e, err := t.Get(id)
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("%w: annotation %d", types.ErrNotSpecialized, id)
	}
	if err != nil {
		return nil, fmt.Errorf("specialization %d: %w", id, err)
	}
	spec := e.(*types.Specialization)
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func (v view) saveSpecialization(spec *types.Specialization) error {
	t, err := v.table(types.SpecializationsTable)
	if err != nil {
		return err
	}
	return t.Update(spec.AnnotationID, spec)
}

// kindOf fetches the annotation's specialization after checking that the
// annotation exists.
func (v view) kindOf(id int64) (*types.Annotation, *types.Specialization, error) {
	ann, err := v.annotation(id)
	if err != nil {
		return nil, nil, err
	}
	spec, err := v.specialization(id)
	if err != nil {
		return ann, nil, err
	}
	return ann, spec, nil
}
