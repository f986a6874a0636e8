package wire

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/khatt/internal/aggregate"
	"github.com/mesh-intelligence/khatt/internal/catalog"
	"github.com/mesh-intelligence/khatt/internal/graph"
	"github.com/mesh-intelligence/khatt/pkg/types"
)

// Boundary validates write shapes, forwards them to the core, and maps the
// results to wire form.
type Boundary struct {
	catalog   *catalog.Catalog
	graph     *graph.Manager
	aggregate *aggregate.Aggregator
}

// NewBoundary returns a Boundary over the core components.
func NewBoundary(c *catalog.Catalog, g *graph.Manager, a *aggregate.Aggregator) *Boundary {
	return &Boundary{catalog: c, graph: g, aggregate: a}
}

// CreateBook validates and stores a book, returning its wire form.
func (b *Boundary) CreateBook(w BookWrite) (*Book, error) {
	if err := Validate(&w); err != nil {
		return nil, err
	}
	id, err := b.catalog.CreateBook(w.Title, w.Author)
	if err != nil {
		return nil, err
	}
	return b.Book(id)
}

// Book returns a book with the summaries of its manuscripts.
func (b *Boundary) Book(id int64) (*Book, error) {
	book, err := b.catalog.Book(id)
	if err != nil {
		return nil, err
	}
	return b.book(book)
}

// Books returns every book.
func (b *Boundary) Books() ([]Book, error) {
	books, err := b.catalog.Books()
	if err != nil {
		return nil, err
	}
	out := make([]Book, 0, len(books))
	for _, book := range books {
		w, err := b.book(book)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, nil
}

func (b *Boundary) book(book *types.Book) (*Book, error) {
	manuscripts, err := b.Manuscripts(book.BookID)
	if err != nil {
		return nil, err
	}
	author, err := b.catalog.AuthorName(book)
	if err != nil {
		return nil, err
	}
	return &Book{ID: book.BookID, Title: book.Title, Author: author, Manuscripts: manuscripts}, nil
}

// CreateManuscript validates and stores a manuscript.
func (b *Boundary) CreateManuscript(w ManuscriptWrite) (*Manuscript, error) {
	if err := Validate(&w); err != nil {
		return nil, err
	}
	id, err := b.catalog.CreateManuscript(catalog.NewManuscript{
		BookID:              w.Book,
		Editor:              w.Editor,
		Title:               w.Title,
		Date:                w.Date,
		TextDirection:       w.TextDirection,
		PageDirection:       w.PageDirection,
		Filepath:            w.Filepath,
		PageCount:           w.PageCount,
		CurrentlyMarking:    w.CurrentlyMarking,
		CurrentlyAnnotating: w.CurrentlyAnnotating,
	})
	if err != nil {
		return nil, err
	}
	return b.Manuscript(id)
}

// UpdateManuscript validates and applies a manuscript patch.
func (b *Boundary) UpdateManuscript(id int64, w ManuscriptPatch) (*Manuscript, error) {
	if err := Validate(&w); err != nil {
		return nil, err
	}
	_, err := b.catalog.UpdateManuscript(id, catalog.ManuscriptPatch{
		Editor:              w.Editor,
		Title:               w.Title,
		Date:                w.Date,
		TextDirection:       w.TextDirection,
		PageDirection:       w.PageDirection,
		Filepath:            w.Filepath,
		PageCount:           w.PageCount,
		CurrentlyMarking:    w.CurrentlyMarking,
		CurrentlyAnnotating: w.CurrentlyAnnotating,
	})
	if err != nil {
		return nil, err
	}
	return b.Manuscript(id)
}

// Manuscript returns a manuscript with its annotation summary.
func (b *Boundary) Manuscript(id int64) (*Manuscript, error) {
	sum, err := b.aggregate.ManuscriptSummary(id)
	if err != nil {
		return nil, err
	}
	return manuscript(sum), nil
}

// Manuscripts returns the manuscripts of a book, or all manuscripts when
// bookID is zero.
func (b *Boundary) Manuscripts(bookID int64) ([]Manuscript, error) {
	list, err := b.catalog.Manuscripts(bookID)
	if err != nil {
		return nil, err
	}
	out := make([]Manuscript, 0, len(list))
	for _, m := range list {
		w, err := b.Manuscript(m.ManuscriptID)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, nil
}

// ScanPath returns the stored scan location of a manuscript.
func (b *Boundary) ScanPath(id int64) (string, error) {
	m, err := b.catalog.Manuscript(id)
	if err != nil {
		return "", err
	}
	return m.Filepath, nil
}

// Page returns the resolved annotations of one page.
func (b *Boundary) Page(manuscriptID int64, page int) (*Page, error) {
	p, err := b.aggregate.PageAnnotations(manuscriptID, page)
	if err != nil {
		return nil, err
	}
	return &Page{
		Manuscript:     p.ManuscriptID,
		Page:           p.Page,
		Chapters:       annotations(p.Chapters),
		Asides:         annotations(p.Asides),
		AnnotatedLines: annotations(p.Lines),
	}, nil
}

// CreateAnnotation stores an annotation by the named annotator, specialized
// in the same transaction when w.Kind is set.
func (b *Boundary) CreateAnnotation(annotator string, w AnnotationWrite) (*Annotation, error) {
	if err := Validate(&w); err != nil {
		return nil, err
	}
	na := graph.NewAnnotation{
		ManuscriptID: w.Manuscript,
		Page:         w.Page,
		Annotator:    annotator,
		BoundingBox:  types.BoundingBox(w.BoundingBox),
		Text:         w.Text,
		Label:        w.Label,
		ResearchNote: w.ResearchNote,
		Complete:     w.Complete,
	}
	var id int64
	var err error
	switch types.Kind(w.Kind) {
	case types.KindChapter:
		id, err = b.graph.CreateChapter(na, w.SameAs)
	case types.KindAside:
		id, err = b.graph.CreateAside(na)
	case types.KindAnnotatedLine:
		id, err = b.graph.CreateLine(na, lineSpec(w.Line))
	default:
		id, err = b.graph.CreateAnnotation(na)
	}
	if err != nil {
		return nil, err
	}
	return b.Annotation(id)
}

// Annotation returns an annotation with its role.
func (b *Boundary) Annotation(id int64) (*Annotation, error) {
	r, err := b.aggregate.Annotation(id)
	if err != nil {
		return nil, err
	}
	out := annotation(r)
	return &out, nil
}

// UpdateAnnotation validates and applies an annotation patch.
func (b *Boundary) UpdateAnnotation(id int64, w AnnotationPatch) (*Annotation, error) {
	if err := Validate(&w); err != nil {
		return nil, err
	}
	patch := types.AnnotationPatch{
		Text:         w.Text,
		Label:        w.Label,
		ResearchNote: w.ResearchNote,
		BoundingBox:  types.BoundingBox(w.BoundingBox),
	}
	if _, err := b.graph.UpdateAnnotation(id, patch); err != nil {
		return nil, err
	}
	return b.Annotation(id)
}

// SpecializeChapter makes an annotation a chapter.
func (b *Boundary) SpecializeChapter(id int64, w ChapterWrite) (*Annotation, error) {
	if err := Validate(&w); err != nil {
		return nil, err
	}
	if err := b.graph.SpecializeAsChapter(id, w.SameAs); err != nil {
		return nil, err
	}
	return b.Annotation(id)
}

// SpecializeAside makes an annotation an aside.
func (b *Boundary) SpecializeAside(id int64) (*Annotation, error) {
	if err := b.graph.SpecializeAsAside(id); err != nil {
		return nil, err
	}
	return b.Annotation(id)
}

// CreateLine stores an annotation by the named annotator as an annotated
// line in one transaction.
func (b *Boundary) CreateLine(annotator string, w AnnotatedLineWrite) (*Annotation, error) {
	if err := Validate(&w); err != nil {
		return nil, err
	}
	if w.Annotation.Kind != "" || w.Annotation.SameAs != nil || w.Annotation.Line != nil {
		return nil, fmt.Errorf("%w: line annotation carries its own role", types.ErrInvalidData)
	}
	a := w.Annotation
	a.Kind = string(types.KindAnnotatedLine)
	a.Line = &w.LineFields
	return b.CreateAnnotation(annotator, a)
}

// SpecializeLine makes an existing annotation an annotated line.
func (b *Boundary) SpecializeLine(id int64, w LineFields) (*Annotation, error) {
	if err := Validate(&w); err != nil {
		return nil, err
	}
	if err := b.graph.SpecializeAsLine(id, lineSpec(&w)); err != nil {
		return nil, err
	}
	return b.Annotation(id)
}

// MarkComplete marks an annotation complete.
func (b *Boundary) MarkComplete(id int64) (*Annotation, error) {
	if err := b.graph.MarkComplete(id); err != nil {
		return nil, err
	}
	return b.Annotation(id)
}

// Line returns an annotated line.
func (b *Boundary) Line(id int64) (*Annotation, error) {
	if _, err := b.graph.Line(id); err != nil {
		return nil, err
	}
	return b.Annotation(id)
}

// LineChain returns the chain containing a line, head first.
func (b *Boundary) LineChain(id int64) ([]Annotation, error) {
	chain, err := b.aggregate.LineChain(id)
	if err != nil {
		return nil, err
	}
	return annotations(chain), nil
}

// InsertAfter moves w.NewLine to follow line and returns the new chain.
func (b *Boundary) InsertAfter(line int64, w InsertAfterWrite) ([]Annotation, error) {
	if err := Validate(&w); err != nil {
		return nil, err
	}
	if err := b.graph.InsertLineAfter(line, w.NewLine); err != nil {
		return nil, err
	}
	return b.LineChain(line)
}

// CreateTextField validates and stores a text field.
func (b *Boundary) CreateTextField(w TextFieldWrite) (*TextField, error) {
	if err := Validate(&w); err != nil {
		return nil, err
	}
	id, err := b.catalog.CreateTextField(w.Manuscript, w.Page, types.BoundingBox(w.BoundingBox))
	if err != nil {
		return nil, err
	}
	return b.TextField(id)
}

// TextField returns a text field.
func (b *Boundary) TextField(id int64) (*TextField, error) {
	tf, err := b.catalog.TextField(id)
	if err != nil {
		return nil, err
	}
	out := textField(tf)
	return &out, nil
}

// TextFields returns the text fields of a manuscript, limited to one page
// when page is positive.
func (b *Boundary) TextFields(manuscriptID int64, page int) ([]TextField, error) {
	list, err := b.catalog.TextFields(manuscriptID, page)
	if err != nil {
		return nil, err
	}
	out := make([]TextField, 0, len(list))
	for _, tf := range list {
		out = append(out, textField(tf))
	}
	return out, nil
}

// TextFieldLines returns the lines of a text field in chain order.
func (b *Boundary) TextFieldLines(id int64) ([]Annotation, error) {
	lines, err := b.aggregate.TextFieldLines(id)
	if err != nil {
		return nil, err
	}
	return annotations(lines), nil
}

func lineSpec(f *LineFields) graph.LineSpec {
	if f == nil {
		return graph.LineSpec{}
	}
	return graph.LineSpec{
		TextFieldID:  f.TextField,
		PreviousLine: f.PreviousLine,
		NextLine:     f.NextLine,
		HypoText:     f.HypoText,
	}
}

func manuscript(sum *aggregate.Summary) *Manuscript {
	m := sum.Manuscript
	return &Manuscript{
		ID:                  m.ManuscriptID,
		Book:                m.BookID,
		Title:               m.Title,
		Editor:              sum.Editor,
		CurrentlyMarking:    m.CurrentlyMarking,
		CurrentlyAnnotating: m.CurrentlyAnnotating,
		Filepath:            m.Filepath,
		Date:                m.Date,
		TextDirection:       m.TextDirection,
		PageDirection:       m.PageDirection,
		PageCount:           m.PageCount,
		Chapters:            entries(sum.Chapters),
		Asides:              entries(sum.Asides),
		AnnotatedLines:      entries(sum.Lines),
	}
}

func entries(in []aggregate.Entry) []Entry {
	out := make([]Entry, 0, len(in))
	for _, e := range in {
		out = append(out, Entry{ID: e.ID, Complete: e.Complete})
	}
	return out
}

func annotations(in []aggregate.Resolved) []Annotation {
	out := make([]Annotation, 0, len(in))
	for _, r := range in {
		out = append(out, annotation(r))
	}
	return out
}

func annotation(r aggregate.Resolved) Annotation {
	a := r.Annotation
	out := Annotation{
		ID:           a.AnnotationID,
		Manuscript:   a.ManuscriptID,
		Page:         a.Page,
		Annotator:    r.Annotator,
		Text:         a.Text,
		Label:        a.Label,
		ResearchNote: a.ResearchNote,
		BoundingBox:  rawOrNull(a.BoundingBox),
		Complete:     a.Complete,
		Kind:         string(types.KindNone),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if s := r.Specialization; s != nil {
		out.Kind = string(s.Kind)
		out.SameAs = s.SameAs
		out.TextField = s.TextFieldID
		out.PreviousLine = s.PreviousLine
		out.NextLine = s.NextLine
		out.HypoText = s.HypoText
	}
	return out
}

func textField(tf *types.TextField) TextField {
	return TextField{
		ID:          tf.TextFieldID,
		Manuscript:  tf.ManuscriptID,
		Page:        tf.Page,
		BoundingBox: rawOrNull(tf.BoundingBox),
	}
}

func rawOrNull(box types.BoundingBox) json.RawMessage {
	if len(box) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(box)
}

// AlignChapter re-targets or clears a chapter's alignment.
func (b *Boundary) AlignChapter(id int64, w ChapterWrite) (*Annotation, error) {
	if err := Validate(&w); err != nil {
		return nil, err
	}
	if err := b.graph.AlignChapter(id, w.SameAs); err != nil {
		return nil, err
	}
	return b.Annotation(id)
}

// UnlinkLine removes a line from its chain.
func (b *Boundary) UnlinkLine(id int64) (*Annotation, error) {
	if err := b.graph.UnlinkLine(id); err != nil {
		return nil, err
	}
	return b.Annotation(id)
}

// SetHypoText sets or clears a line's hypothetical reading.
func (b *Boundary) SetHypoText(id int64, w HypoTextWrite) (*Annotation, error) {
	if err := b.graph.SetHypoText(id, w.HypoText); err != nil {
		return nil, err
	}
	return b.Annotation(id)
}

// AssignTextField sets or clears a line's text field.
func (b *Boundary) AssignTextField(id int64, w TextFieldAssign) (*Annotation, error) {
	if err := Validate(&w); err != nil {
		return nil, err
	}
	if err := b.graph.AssignTextField(id, w.TextField); err != nil {
		return nil, err
	}
	return b.Annotation(id)
}
