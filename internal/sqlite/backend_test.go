// Tests for the SQLite backend lifecycle and transactions.
package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// setupBackend creates an attached Backend in a temp dir, detached on cleanup.
func setupBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

// fixture holds the ids of a minimal catalog: one book with one manuscript
// and one annotator.
type fixture struct {
	author, book, manuscript, annotator int64
}

func seedCatalog(t *testing.T, s types.Session) fixture {
	t.Helper()
	var f fixture
	var err error
	f.author, err = s.UpsertName(types.AuthorsTable, "al-Jahiz")
	require.NoError(t, err)
	f.annotator, err = s.UpsertName(types.AnnotatorsTable, "reader")
	require.NoError(t, err)

	books, err := s.GetTable(types.BooksTable)
	require.NoError(t, err)
	f.book, err = books.Create(&types.Book{Title: "Kitab al-Hayawan", AuthorID: f.author})
	require.NoError(t, err)

	manuscripts, err := s.GetTable(types.ManuscriptsTable)
	require.NoError(t, err)
	f.manuscript, err = manuscripts.Create(&types.Manuscript{
		BookID:              f.book,
		Title:               "MS A",
		TextDirection:       types.DirectionRTL,
		PageDirection:       types.DirectionRTL,
		PageCount:           10,
		CurrentlyMarking:    1,
		CurrentlyAnnotating: 1,
	})
	require.NoError(t, err)
	return f
}

func createAnnotation(t *testing.T, s types.Session, f fixture, page int) int64 {
	t.Helper()
	annotations, err := s.GetTable(types.AnnotationsTable)
	require.NoError(t, err)
	id, err := annotations.Create(&types.Annotation{
		ManuscriptID: f.manuscript,
		Page:         page,
		AnnotatorID:  f.annotator,
		Text:         "bismillah",
	})
	require.NoError(t, err)
	return id
}

func TestBackendAttach(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	require.NoError(t, b.Attach(config))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(dir, DatabaseFile))
	require.NoError(t, err, "database file should be created")
	assert.Equal(t, dir, b.DataDir())

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
}

func TestBackendAttachInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config types.Config
		want   error
	}{
		{"empty backend", types.Config{DataDir: t.TempDir()}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "postgres", DataDir: t.TempDir()}, types.ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, NewBackend().Attach(tt.config), tt.want)
		})
	}
}

func TestBackendDetach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "detach is idempotent")

	_, err := b.GetTable(types.BooksTable)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.UpsertName(types.AuthorsTable, "x")
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	err = b.Transact(func(types.Session) error { return nil })
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestBackendReattachKeepsData(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(config))
	id, err := b.UpsertName(types.EditorsTable, "J. Doe")
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b = NewBackend()
	require.NoError(t, b.Attach(config))
	defer b.Detach()

	editors, err := b.GetTable(types.EditorsTable)
	require.NoError(t, err)
	got, err := editors.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "J. Doe", got.(*types.Editor).Name)
}

func TestGetTableUnknown(t *testing.T) {
	b := setupBackend(t)
	_, err := b.GetTable("folios")
	assert.ErrorIs(t, err, types.ErrTableNotFound)
}

func TestTransactRollsBack(t *testing.T) {
	b := setupBackend(t)
	boom := errors.New("boom")

	err := b.Transact(func(s types.Session) error {
		_, err := s.UpsertName(types.AuthorsTable, "rolled back")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	authors, err := b.GetTable(types.AuthorsTable)
	require.NoError(t, err)
	rows, err := authors.Fetch(types.Filter{"name": "rolled back"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTransactCommits(t *testing.T) {
	b := setupBackend(t)

	var f fixture
	var ann int64
	require.NoError(t, b.Transact(func(s types.Session) error {
		f = seedCatalog(t, s)
		ann = createAnnotation(t, s, f, 3)
		return nil
	}))

	annotations, err := b.GetTable(types.AnnotationsTable)
	require.NoError(t, err)
	got, err := annotations.Get(ann)
	require.NoError(t, err)
	a := got.(*types.Annotation)
	assert.Equal(t, f.manuscript, a.ManuscriptID)
	assert.Equal(t, 3, a.Page)
	assert.False(t, a.Complete)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestDSNPragmas(t *testing.T) {
	got := dsn("/data/khatt.db")
	assert.Contains(t, got, "file:/data/khatt.db?")
	assert.Contains(t, got, "foreign_keys%281%29")
	assert.Contains(t, got, "journal_mode%28WAL%29")
	assert.Contains(t, got, "busy_timeout%285000%29")
	assert.Contains(t, got, "_txlock=immediate")
}

func TestViewReadsAndRefusesWrites(t *testing.T) {
	b := setupBackend(t)
	id, err := b.UpsertName(types.EditorsTable, "J. Doe")
	require.NoError(t, err)

	err = b.View(func(s types.Session) error {
		editors, err := s.GetTable(types.EditorsTable)
		require.NoError(t, err)
		got, err := editors.Get(id)
		require.NoError(t, err)
		assert.Equal(t, "J. Doe", got.(*types.Editor).Name)

		_, err = s.UpsertName(types.EditorsTable, "A. Scribe")
		assert.ErrorIs(t, err, types.ErrReadOnly)
		_, err = editors.Create(&types.Editor{Name: "A. Scribe"})
		assert.ErrorIs(t, err, types.ErrReadOnly)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Detach())
	err = b.View(func(types.Session) error { return nil })
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestViewRunsAlongsideWriter(t *testing.T) {
	b := setupBackend(t)
	require.NoError(t, b.Transact(func(s types.Session) error {
		_, err := s.UpsertName(types.AuthorsTable, "written")
		require.NoError(t, err)
		return b.View(func(v types.Session) error {
			authors, err := v.GetTable(types.AuthorsTable)
			require.NoError(t, err)
			rows, err := authors.Fetch(nil)
			require.NoError(t, err)
			assert.Empty(t, rows, "a view sees only committed rows")
			return nil
		})
	}))
}

func TestCompleteCannotBeCleared(t *testing.T) {
	b := setupBackend(t)
	var ann int64
	require.NoError(t, b.Transact(func(s types.Session) error {
		ann = createAnnotation(t, s, seedCatalog(t, s), 1)
		return nil
	}))
	annotations, err := b.GetTable(types.AnnotationsTable)
	require.NoError(t, err)

	got, err := annotations.Get(ann)
	require.NoError(t, err)
	a := got.(*types.Annotation)
	a.Complete = true
	require.NoError(t, annotations.Update(ann, a))
	require.NoError(t, annotations.Update(ann, a), "rewriting a complete annotation as complete is allowed")

	a.Complete = false
	assert.ErrorIs(t, annotations.Update(ann, a), types.ErrAnnotationComplete)

	got, err = annotations.Get(ann)
	require.NoError(t, err)
	assert.True(t, got.(*types.Annotation).Complete)
}
