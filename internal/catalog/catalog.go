// Package catalog writes and reads books, manuscripts, and text fields.
// Author and editor names are resolved to identity rows in the same
// transaction as the write that references them.
package catalog

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/khatt/internal/identity"
	"github.com/mesh-intelligence/khatt/pkg/types"
)

// Catalog manages the bibliographic side of the store.
type Catalog struct {
	store  types.Store
	logger *slog.Logger
}

// New returns a Catalog over store. A nil logger uses slog.Default.
func New(store types.Store, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{store: store, logger: logger}
}

// NewManuscript carries the fields of a manuscript to create. Empty
// directions default to rtl and zero page indices default to page 1.
type NewManuscript struct {
	BookID              int64
	Editor              string
	Title               string
	Date                string
	TextDirection       string
	PageDirection       string
	Filepath            string
	PageCount           int
	CurrentlyMarking    int
	CurrentlyAnnotating int
}

// ManuscriptPatch carries manuscript fields to change. Nil fields are left
// unchanged; an empty Editor clears the editor.
type ManuscriptPatch struct {
	Editor              *string
	Title               *string
	Date                *string
	TextDirection       *string
	PageDirection       *string
	Filepath            *string
	PageCount           *int
	CurrentlyMarking    *int
	CurrentlyAnnotating *int
}

func (c *Catalog) transact(op string, attrs []any, fn func(s types.Session) error) error {
	if err := c.store.Transact(fn); err != nil {
		return err
	}
	c.logger.Debug(op, attrs...)
	return nil
}

// CreateBook stores a book by the named author, creating the author on
// first use.
func (c *Catalog) CreateBook(title, author string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("%w: empty book title", types.ErrInvalidName)
	}
	var id int64
	err := c.transact("created book", []any{"title", title, "author", author}, func(s types.Session) error {
		authorID, err := identity.ResolveIn(s, types.KindAuthor, author)
		if err != nil {
			return err
		}
		books, err := s.GetTable(types.BooksTable)
		if err != nil {
			return err
		}
		id, err = books.Create(&types.Book{Title: title, AuthorID: authorID})
		return err
	})
	return id, err
}

// Book returns a stored book.
func (c *Catalog) Book(id int64) (*types.Book, error) {
	e, err := get(c.store, types.BooksTable, id)
	if err != nil {
		return nil, err
	}
	return e.(*types.Book), nil
}

// Books returns every book ordered by id.
func (c *Catalog) Books() ([]*types.Book, error) {
	return fetch[*types.Book](c.store, types.BooksTable, nil)
}

// AuthorName returns the name of the book's author.
func (c *Catalog) AuthorName(book *types.Book) (string, error) {
	return identity.NameIn(c.store, types.KindAuthor, book.AuthorID)
}

// CreateManuscript stores a manuscript of an existing book. A non-empty
// Editor is resolved by name.
// Returns ErrNotFound if the book is absent, ErrInvalidDirection for an
// unknown direction, and ErrInvalidPage if a page index is out of range.
func (c *Catalog) CreateManuscript(nm NewManuscript) (int64, error) {
	m := &types.Manuscript{
		BookID:              nm.BookID,
		Title:               strings.TrimSpace(nm.Title),
		Date:                nm.Date,
		TextDirection:       orDefault(nm.TextDirection),
		PageDirection:       orDefault(nm.PageDirection),
		Filepath:            nm.Filepath,
		PageCount:           nm.PageCount,
		CurrentlyMarking:    max(nm.CurrentlyMarking, 1),
		CurrentlyAnnotating: max(nm.CurrentlyAnnotating, 1),
	}
	if nm.CurrentlyMarking < 0 || nm.CurrentlyAnnotating < 0 {
		return 0, types.ErrInvalidPage
	}
	if err := m.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := c.transact("created manuscript", []any{"book_id", nm.BookID, "title", m.Title}, func(s types.Session) error {
		if _, err := get(s, types.BooksTable, nm.BookID); err != nil {
			return err
		}
		if err := setEditor(s, m, nm.Editor); err != nil {
			return err
		}
		manuscripts, err := s.GetTable(types.ManuscriptsTable)
		if err != nil {
			return err
		}
		id, err = manuscripts.Create(m)
		return err
	})
	return id, err
}

// UpdateManuscript applies patch and returns the updated manuscript. Page
// indices, annotations, and text fields are checked against the resulting
// page count.
func (c *Catalog) UpdateManuscript(id int64, patch ManuscriptPatch) (*types.Manuscript, error) {
	var out *types.Manuscript
	err := c.transact("updated manuscript", []any{"manuscript_id", id}, func(s types.Session) error {
		e, err := get(s, types.ManuscriptsTable, id)
		if err != nil {
			return err
		}
		m := e.(*types.Manuscript)
		patch.apply(m)
		if patch.Editor != nil {
			if err := setEditor(s, m, *patch.Editor); err != nil {
				return err
			}
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("manuscript %d: %w", id, err)
		}
		if patch.PageCount != nil {
			if err := checkPagesInUse(s, m); err != nil {
				return err
			}
		}
		manuscripts, err := s.GetTable(types.ManuscriptsTable)
		if err != nil {
			return err
		}
		if err := manuscripts.Update(id, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkPagesInUse rejects a page count that would strand annotations or text
// fields on pages the manuscript no longer has.
func checkPagesInUse(s types.Session, m *types.Manuscript) error {
	if m.PageCount == 0 {
		return nil
	}
	filter := types.Filter{"manuscript_id": m.ManuscriptID}
	annotations, err := fetch[*types.Annotation](s, types.AnnotationsTable, filter)
	if err != nil {
		return err
	}
	for _, a := range annotations {
		if a.Page > m.PageCount {
			return fmt.Errorf("%w: annotation %d is on page %d of %d", types.ErrInvalidPage, a.AnnotationID, a.Page, m.PageCount)
		}
	}
	fields, err := fetch[*types.TextField](s, types.TextFieldsTable, filter)
	if err != nil {
		return err
	}
	for _, tf := range fields {
		if tf.Page > m.PageCount {
			return fmt.Errorf("%w: text field %d is on page %d of %d", types.ErrInvalidPage, tf.TextFieldID, tf.Page, m.PageCount)
		}
	}
	return nil
}

func (p ManuscriptPatch) apply(m *types.Manuscript) {
	if p.Title != nil {
		m.Title = strings.TrimSpace(*p.Title)
	}
	if p.Date != nil {
		m.Date = *p.Date
	}
	if p.TextDirection != nil {
		m.TextDirection = *p.TextDirection
	}
	if p.PageDirection != nil {
		m.PageDirection = *p.PageDirection
	}
	if p.Filepath != nil {
		m.Filepath = *p.Filepath
	}
	if p.PageCount != nil {
		m.PageCount = *p.PageCount
	}
	if p.CurrentlyMarking != nil {
		m.CurrentlyMarking = *p.CurrentlyMarking
	}
	if p.CurrentlyAnnotating != nil {
		m.CurrentlyAnnotating = *p.CurrentlyAnnotating
	}
}

// Manuscript returns a stored manuscript.
func (c *Catalog) Manuscript(id int64) (*types.Manuscript, error) {
	e, err := get(c.store, types.ManuscriptsTable, id)
	if err != nil {
		return nil, err
	}
	return e.(*types.Manuscript), nil
}

// Manuscripts returns the manuscripts of a book, or of every book when
// bookID is zero.
func (c *Catalog) Manuscripts(bookID int64) ([]*types.Manuscript, error) {
	var filter types.Filter
	if bookID != 0 {
		filter = types.Filter{"book_id": bookID}
	}
	return fetch[*types.Manuscript](c.store, types.ManuscriptsTable, filter)
}

// CreateTextField stores a page region of a manuscript.
// Returns ErrNotFound if the manuscript is absent and ErrInvalidPage if the
// page is out of range.
func (c *Catalog) CreateTextField(manuscriptID int64, page int, box types.BoundingBox) (int64, error) {
	var id int64
	err := c.transact("created text field", []any{"manuscript_id", manuscriptID, "page", page}, func(s types.Session) error {
		e, err := get(s, types.ManuscriptsTable, manuscriptID)
		if err != nil {
			return err
		}
		if !e.(*types.Manuscript).ValidPage(page) {
			return fmt.Errorf("%w: page %d of manuscript %d", types.ErrInvalidPage, page, manuscriptID)
		}
		fields, err := s.GetTable(types.TextFieldsTable)
		if err != nil {
			return err
		}
		id, err = fields.Create(&types.TextField{ManuscriptID: manuscriptID, Page: page, BoundingBox: box})
		return err
	})
	return id, err
}

// TextField returns a stored text field.
func (c *Catalog) TextField(id int64) (*types.TextField, error) {
	e, err := get(c.store, types.TextFieldsTable, id)
	if err != nil {
		return nil, err
	}
	return e.(*types.TextField), nil
}

// TextFields returns the text fields of a manuscript, limited to one page
// when page is positive.
func (c *Catalog) TextFields(manuscriptID int64, page int) ([]*types.TextField, error) {
	filter := types.Filter{"manuscript_id": manuscriptID}
	if page > 0 {
		filter["page"] = page
	}
	return fetch[*types.TextField](c.store, types.TextFieldsTable, filter)
}

func setEditor(s types.Session, m *types.Manuscript, name string) error {
	if strings.TrimSpace(name) == "" {
		m.EditorID = nil
		return nil
	}
	id, err := identity.ResolveIn(s, types.KindEditor, name)
	if err != nil {
		return err
	}
	m.EditorID = &id
	return nil
}

func orDefault(direction string) string {
	if direction == "" {
		return types.DefaultDirection
	}
	return direction
}

func get(s types.Session, table string, id int64) (any, error) {
	t, err := s.GetTable(table)
	if err != nil {
		return nil, err
	}
	e, err := t.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", strings.TrimSuffix(table, "s"), id, err)
	}
	return e, nil
}

func fetch[T any](s types.Session, table string, filter types.Filter) ([]T, error) {
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
