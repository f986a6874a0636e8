package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/khatt/internal/identity"
	"github.com/mesh-intelligence/khatt/internal/sqlite"
	"github.com/mesh-intelligence/khatt/pkg/types"
)

func setupCatalog(t *testing.T) (*Catalog, *sqlite.Backend) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return New(b, nil), b
}

func ptr[T any](v T) *T { return &v }

func TestCreateBookResolvesAuthor(t *testing.T) {
	c, b := setupCatalog(t)

	first, err := c.CreateBook("Muqaddimah", "Ibn Khaldun")
	require.NoError(t, err)
	second, err := c.CreateBook("Kitab al-Ibar", "Ibn Khaldun")
	require.NoError(t, err)

	b1, err := c.Book(first)
	require.NoError(t, err)
	b2, err := c.Book(second)
	require.NoError(t, err)
	assert.Equal(t, b1.AuthorID, b2.AuthorID)

	name, err := identity.NewResolver(b).Name(types.KindAuthor, b1.AuthorID)
	require.NoError(t, err)
	assert.Equal(t, "Ibn Khaldun", name)

	books, err := c.Books()
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestCreateBookErrors(t *testing.T) {
	c, _ := setupCatalog(t)

	_, err := c.CreateBook(" ", "someone")
	assert.ErrorIs(t, err, types.ErrInvalidName)
	_, err = c.CreateBook("Untitled author", "")
	assert.ErrorIs(t, err, types.ErrInvalidName)

	books, err := c.Books()
	require.NoError(t, err)
	assert.Empty(t, books)

	_, err = c.Book(7)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCreateManuscriptDefaults(t *testing.T) {
	c, _ := setupCatalog(t)
	book, err := c.CreateBook("Muqaddimah", "Ibn Khaldun")
	require.NoError(t, err)

	id, err := c.CreateManuscript(NewManuscript{BookID: book, Title: "MS-1", Editor: "J. Doe"})
	require.NoError(t, err)

	m, err := c.Manuscript(id)
	require.NoError(t, err)
	assert.Equal(t, types.DirectionRTL, m.TextDirection)
	assert.Equal(t, types.DirectionRTL, m.PageDirection)
	assert.Equal(t, 1, m.CurrentlyMarking)
	assert.Equal(t, 1, m.CurrentlyAnnotating)
	require.NotNil(t, m.EditorID)

	other, err := c.CreateManuscript(NewManuscript{BookID: book, Title: "MS-2", Editor: "J. Doe", TextDirection: types.DirectionLTR})
	require.NoError(t, err)
	m2, err := c.Manuscript(other)
	require.NoError(t, err)
	assert.Equal(t, *m.EditorID, *m2.EditorID, "editor is deduplicated by name")
	assert.Equal(t, types.DirectionLTR, m2.TextDirection)

	list, err := c.Manuscripts(book)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	none, err := c.Manuscripts(book + 1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateManuscriptErrors(t *testing.T) {
	c, _ := setupCatalog(t)
	book, err := c.CreateBook("Muqaddimah", "Ibn Khaldun")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   NewManuscript
		want error
	}{
		{"missing book", NewManuscript{BookID: 99, Title: "x"}, types.ErrNotFound},
		{"empty title", NewManuscript{BookID: book}, types.ErrInvalidName},
		{"bad direction", NewManuscript{BookID: book, Title: "x", TextDirection: "ttb"}, types.ErrInvalidDirection},
		{"marking past end", NewManuscript{BookID: book, Title: "x", PageCount: 3, CurrentlyMarking: 4}, types.ErrInvalidPage},
		{"negative index", NewManuscript{BookID: book, Title: "x", CurrentlyAnnotating: -1}, types.ErrInvalidPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateManuscript(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateManuscript(t *testing.T) {
	c, _ := setupCatalog(t)
	book, err := c.CreateBook("Muqaddimah", "Ibn Khaldun")
	require.NoError(t, err)
	id, err := c.CreateManuscript(NewManuscript{BookID: book, Title: "MS-1", PageCount: 10})
	require.NoError(t, err)

	m, err := c.UpdateManuscript(id, ManuscriptPatch{CurrentlyMarking: ptr(4), Editor: ptr("A. Scribe")})
	require.NoError(t, err)
	assert.Equal(t, 4, m.CurrentlyMarking)
	require.NotNil(t, m.EditorID)

	_, err = c.UpdateManuscript(id, ManuscriptPatch{CurrentlyAnnotating: ptr(11)})
	assert.ErrorIs(t, err, types.ErrInvalidPage)
	_, err = c.UpdateManuscript(id, ManuscriptPatch{PageCount: ptr(3)})
	assert.ErrorIs(t, err, types.ErrInvalidPage, "shrinking below the marking index is rejected")
	_, err = c.UpdateManuscript(id, ManuscriptPatch{PageDirection: ptr("up")})
	assert.ErrorIs(t, err, types.ErrInvalidDirection)

	stored, err := c.Manuscript(id)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.PageCount)
	assert.Equal(t, 4, stored.CurrentlyMarking)

	m, err = c.UpdateManuscript(id, ManuscriptPatch{Editor: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, m.EditorID)

	_, err = c.UpdateManuscript(99, ManuscriptPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestTextFields(t *testing.T) {
	c, _ := setupCatalog(t)
	book, err := c.CreateBook("Muqaddimah", "Ibn Khaldun")
	require.NoError(t, err)
	ms, err := c.CreateManuscript(NewManuscript{BookID: book, Title: "MS-1", PageCount: 2})
	require.NoError(t, err)

	p1, err := c.CreateTextField(ms, 1, types.BoundingBox(`{"x":0,"y":0,"w":10,"h":4}`))
	require.NoError(t, err)
	_, err = c.CreateTextField(ms, 2, nil)
	require.NoError(t, err)

	tf, err := c.TextField(p1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":0,"y":0,"w":10,"h":4}`, string(tf.BoundingBox))

	all, err := c.TextFields(ms, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	page2, err := c.TextFields(ms, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "null", string(page2[0].BoundingBox))

	_, err = c.CreateTextField(ms, 3, nil)
	assert.ErrorIs(t, err, types.ErrInvalidPage)
	_, err = c.CreateTextField(99, 1, nil)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdateManuscriptKeepsUsedPages(t *testing.T) {
	c, b := setupCatalog(t)
	book, err := c.CreateBook("Muqaddimah", "Ibn Khaldun")
	require.NoError(t, err)
	ms, err := c.CreateManuscript(NewManuscript{BookID: book, Title: "MS-1", PageCount: 10})
	require.NoError(t, err)

	_, err = c.CreateTextField(ms, 6, nil)
	require.NoError(t, err)
	_, err = c.UpdateManuscript(ms, ManuscriptPatch{PageCount: ptr(5)})
	assert.ErrorIs(t, err, types.ErrInvalidPage, "text field on page 6")

	require.NoError(t, b.Transact(func(s types.Session) error {
		annotator, err := s.UpsertName(types.AnnotatorsTable, "reader")
		require.NoError(t, err)
		annotations, err := s.GetTable(types.AnnotationsTable)
		require.NoError(t, err)
		_, err = annotations.Create(&types.Annotation{ManuscriptID: ms, Page: 8, AnnotatorID: annotator})
		return err
	}))
	_, err = c.UpdateManuscript(ms, ManuscriptPatch{PageCount: ptr(7)})
	assert.ErrorIs(t, err, types.ErrInvalidPage, "annotation on page 8")

	m, err := c.UpdateManuscript(ms, ManuscriptPatch{PageCount: ptr(8)})
	require.NoError(t, err)
	assert.Equal(t, 8, m.PageCount)
	m, err = c.UpdateManuscript(ms, ManuscriptPatch{PageCount: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, m.PageCount)
}
