// Package aggregate composes read-only views of manuscripts and their
// annotation graph. Views read committed state and are not cached.
package aggregate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/khatt/internal/identity"
	"github.com/mesh-intelligence/khatt/pkg/types"
)

// Aggregator builds views over a store.
type Aggregator struct {
	store  types.Store
	logger *slog.Logger
}

// New returns an Aggregator over store. A nil logger uses slog.Default.
func New(store types.Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{store: store, logger: logger}
}

// Entry is the short form of a specialized annotation.
type Entry struct {
	ID       int64
	Complete bool
}

// Summary lists a manuscript's specialized annotations by role, each
// ordered by id.
type Summary struct {
	Manuscript *types.Manuscript
	Book       *types.Book
	Author     string
	Editor     string
	Chapters   []Entry
	Asides     []Entry
	Lines      []Entry
}

// Resolved is an annotation with its role and annotator name.
type Resolved struct {
	Annotation     *types.Annotation
	Specialization *types.Specialization
	Annotator      string
}

// Page holds the fully resolved annotations of one manuscript page.
type Page struct {
	ManuscriptID int64
	Page         int
	Chapters     []Resolved
	Asides       []Resolved
	Lines        []Resolved
}

// ManuscriptSummary lists the chapters, asides, and lines of a manuscript.
// Returns ErrNotFound if the manuscript is absent and ErrIntegrityFault if a
// stored role is inconsistent.
func (a *Aggregator) ManuscriptSummary(manuscriptID int64) (*Summary, error) {
	return inView(a.store, func(s types.Session) (*Summary, error) {
		return a.summary(s, manuscriptID)
	})
}

func (a *Aggregator) summary(s types.Session, manuscriptID int64) (*Summary, error) {
	ms, err := getAs[*types.Manuscript](s, types.ManuscriptsTable, manuscriptID)
	if err != nil {
		return nil, err
	}
	book, err := getAs[*types.Book](s, types.BooksTable, ms.BookID)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Manuscript: ms, Book: book}
	if sum.Author, err = identity.NameIn(s, types.KindAuthor, book.AuthorID); err != nil {
		return nil, err
	}
	if ms.EditorID != nil {
		if sum.Editor, err = identity.NameIn(s, types.KindEditor, *ms.EditorID); err != nil {
			return nil, err
		}
	}

	annotations, err := fetchAs[*types.Annotation](s, types.AnnotationsTable, types.Filter{"manuscript_id": manuscriptID})
	if err != nil {
		return nil, err
	}
	complete := make(map[int64]bool, len(annotations))
	for _, ann := range annotations {
		complete[ann.AnnotationID] = ann.Complete
	}

	specs, err := a.specializations(s, types.Filter{"manuscript_id": manuscriptID})
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		e := Entry{ID: spec.AnnotationID, Complete: complete[spec.AnnotationID]}
		switch spec.Kind {
		case types.KindChapter:
			sum.Chapters = append(sum.Chapters, e)
		case types.KindAside:
			sum.Asides = append(sum.Asides, e)
		case types.KindAnnotatedLine:
			sum.Lines = append(sum.Lines, e)
		}
	}
	return sum, nil
}

// PageAnnotations resolves every specialized annotation on one page.
// Unspecialized annotations are left out.
func (a *Aggregator) PageAnnotations(manuscriptID int64, page int) (*Page, error) {
	return inView(a.store, func(s types.Session) (*Page, error) {
		return a.page(s, manuscriptID, page)
	})
}

func (a *Aggregator) page(s types.Session, manuscriptID int64, page int) (*Page, error) {
	ms, err := getAs[*types.Manuscript](s, types.ManuscriptsTable, manuscriptID)
	if err != nil {
		return nil, err
	}
	if !ms.ValidPage(page) {
		return nil, fmt.Errorf("%w: page %d of manuscript %d", types.ErrInvalidPage, page, manuscriptID)
	}

	annotations, err := fetchAs[*types.Annotation](s, types.AnnotationsTable,
		types.Filter{"manuscript_id": manuscriptID, "page": page})
	if err != nil {
		return nil, err
	}
	specs, err := a.specializations(s, types.Filter{"manuscript_id": manuscriptID, "page": page})
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*types.Specialization, len(specs))
	for _, spec := range specs {
		byID[spec.AnnotationID] = spec
	}

	r := newResolver(s)
	out := &Page{ManuscriptID: manuscriptID, Page: page}
	for _, ann := range annotations {
		spec, ok := byID[ann.AnnotationID]
		if !ok {
			continue
		}
		res, err := r.resolve(ann, spec)
		if err != nil {
			return nil, err
		}
		switch spec.Kind {
		case types.KindChapter:
			out.Chapters = append(out.Chapters, res)
		case types.KindAside:
			out.Asides = append(out.Asides, res)
		case types.KindAnnotatedLine:
			out.Lines = append(out.Lines, res)
		}
	}
	return out, nil
}

// specializations fetches and validates roles, logging any integrity fault.
func (a *Aggregator) specializations(s types.Session, filter types.Filter) ([]*types.Specialization, error) {
	specs, err := fetchAs[*types.Specialization](s, types.SpecializationsTable, filter)
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			a.logger.Error("inconsistent specialization", "annotation_id", spec.AnnotationID, "error", err)
			return nil, err
		}
	}
	return specs, nil
}

// resolver caches annotator names for one view.
type resolver struct {
	s     types.Session
	names map[int64]string
}

func newResolver(s types.Session) *resolver {
	return &resolver{s: s, names: make(map[int64]string)}
}

func (r *resolver) resolve(ann *types.Annotation, spec *types.Specialization) (Resolved, error) {
	name, ok := r.names[ann.AnnotatorID]
	if !ok {
		var err error
		if name, err = identity.NameIn(r.s, types.KindAnnotator, ann.AnnotatorID); err != nil {
			return Resolved{}, err
		}
		r.names[ann.AnnotatorID] = name
	}
	return Resolved{Annotation: ann, Specialization: spec, Annotator: name}, nil
}

func getAs[T any](s types.Session, table string, id int64) (T, error) {
	var zero T
	t, err := s.GetTable(table)
	if err != nil {
		return zero, err
	}
	e, err := t.Get(id)
	if err != nil {
		return zero, fmt.Errorf("%s %d: %w", table, id, err)
	}
	return e.(T), nil
}

func fetchAs[T any](s types.Session, table string, filter types.Filter) ([]T, error) {
	t, err := s.GetTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := t.Fetch(filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.(T))
	}
	return out, nil
}

// specialization returns the validated role of id, mapping a missing row to
// ErrNotFound.
func (a *Aggregator) specialization(s types.Session, id int64) (*types.Specialization, error) {
	spec, err := getAs[*types.Specialization](s, types.SpecializationsTable, id)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		a.logger.Error("inconsistent specialization", "annotation_id", id, "error", err)
		return nil, err
	}
	return spec, nil
}

// Annotation resolves one annotation. Specialization is nil when the
// annotation has no role yet.
func (a *Aggregator) Annotation(id int64) (Resolved, error) {
	return inView(a.store, func(s types.Session) (Resolved, error) {
		ann, err := getAs[*types.Annotation](s, types.AnnotationsTable, id)
		if err != nil {
			return Resolved{}, err
		}
		spec, err := a.specialization(s, id)
		if errors.Is(err, types.ErrNotFound) {
			spec = nil
		} else if err != nil {
			return Resolved{}, err
		}
		return newResolver(s).resolve(ann, spec)
	})
}

// inView runs build in one read-only transaction so that the view it
// returns reflects a single committed state.
func inView[T any](store types.Store, build func(s types.Session) (T, error)) (T, error) {
	var out T
	err := store.View(func(s types.Session) error {
		var err error
		out, err = build(s)
		return err
	})
	return out, err
}
