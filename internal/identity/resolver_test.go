package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/khatt/internal/sqlite"
	"github.com/mesh-intelligence/khatt/pkg/types"
)

func setupResolver(t *testing.T) (*Resolver, *sqlite.Backend) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return NewResolver(b), b
}

func TestResolveOrCreateDeduplicates(t *testing.T) {
	tests := []struct {
		kind  types.IdentityKind
		table string
	}{
		{types.KindAuthor, types.AuthorsTable},
		{types.KindEditor, types.EditorsTable},
		{types.KindAnnotator, types.AnnotatorsTable},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			r, b := setupResolver(t)

			first, err := r.ResolveOrCreate(tt.kind, "J. Doe")
			require.NoError(t, err)
			second, err := r.ResolveOrCreate(tt.kind, "J. Doe")
			require.NoError(t, err)
			assert.Equal(t, first, second)

			table, err := b.GetTable(tt.table)
			require.NoError(t, err)
			rows, err := table.Fetch(nil)
			require.NoError(t, err)
			assert.Len(t, rows, 1)

			name, err := r.Name(tt.kind, first)
			require.NoError(t, err)
			assert.Equal(t, "J. Doe", name)
		})
	}
}

func TestResolveKindsAreSeparate(t *testing.T) {
	r, _ := setupResolver(t)

	author, err := r.ResolveOrCreate(types.KindAuthor, "Ibn Khaldun")
	require.NoError(t, err)
	editor, err := r.ResolveOrCreate(types.KindEditor, "Ibn Khaldun")
	require.NoError(t, err)
	other, err := r.ResolveOrCreate(types.KindAuthor, "al-Tabari")
	require.NoError(t, err)

	assert.Equal(t, int64(1), author)
	assert.Equal(t, int64(1), editor)
	assert.NotEqual(t, author, other)
}

func TestResolveErrors(t *testing.T) {
	r, _ := setupResolver(t)

	_, err := r.ResolveOrCreate(types.KindEditor, " \t")
	assert.ErrorIs(t, err, types.ErrInvalidName)

	_, err = r.ResolveOrCreate(types.IdentityKind("scribe"), "x")
	assert.ErrorIs(t, err, types.ErrInvalidData)

	_, err = r.Name(types.KindAuthor, 404)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestResolveInRollsBackWithTransaction(t *testing.T) {
	r, b := setupResolver(t)

	err := b.Transact(func(s types.Session) error {
		_, err := ResolveIn(s, types.KindAuthor, "transient")
		require.NoError(t, err)
		_, err = ResolveIn(s, types.KindAuthor, "")
		return err
	})
	require.ErrorIs(t, err, types.ErrInvalidName)

	authors, err := b.GetTable(types.AuthorsTable)
	require.NoError(t, err)
	rows, err := authors.Fetch(types.Filter{"name": "transient"})
	require.NoError(t, err)
	assert.Empty(t, rows)

	id, err := r.ResolveOrCreate(types.KindAuthor, "transient")
	require.NoError(t, err)
	assert.Positive(t, id)
}
