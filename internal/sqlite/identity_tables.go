package sqlite

import "github.com/mesh-intelligence/khatt/pkg/types"

// Identity tables (authors, editors, annotators) share one layout: an id and
// a unique name. Rows referenced by books, manuscripts, or annotations are
// protected by ON DELETE RESTRICT.

func init() {
	registerTable(&tableSpec{
		name:      types.AuthorsTable,
		idColumn:  "author_id",
		columns:   []string{"name"},
		filters:   map[string]string{"name": "name"},
		identity:  true,
		uniqueErr: types.ErrDuplicateIdentity,
		scan: func(sc scanner) (any, error) {
			var a types.Author
			if err := sc.Scan(&a.AuthorID, &a.Name); err != nil {
				return nil, err
			}
			return &a, nil
		},
		bind: func(data any) (int64, []any, error) {
			a, ok := data.(*types.Author)
			if !ok {
				return 0, nil, types.ErrInvalidData
			}
			if a.Name == "" {
				return 0, nil, types.ErrInvalidName
			}
			return a.AuthorID, []any{a.Name}, nil
		},
		setID: func(data any, id int64) { data.(*types.Author).AuthorID = id },
	})

	registerTable(&tableSpec{
		name:      types.EditorsTable,
		idColumn:  "editor_id",
		columns:   []string{"name"},
		filters:   map[string]string{"name": "name"},
		identity:  true,
		uniqueErr: types.ErrDuplicateIdentity,
		scan: func(sc scanner) (any, error) {
			var e types.Editor
			if err := sc.Scan(&e.EditorID, &e.Name); err != nil {
				return nil, err
			}
			return &e, nil
		},
		bind: func(data any) (int64, []any, error) {
			e, ok := data.(*types.Editor)
			if !ok {
				return 0, nil, types.ErrInvalidData
			}
			if e.Name == "" {
				return 0, nil, types.ErrInvalidName
			}
			return e.EditorID, []any{e.Name}, nil
		},
		setID: func(data any, id int64) { data.(*types.Editor).EditorID = id },
	})

	registerTable(&tableSpec{
		name:      types.AnnotatorsTable,
		idColumn:  "annotator_id",
		columns:   []string{"name"},
		filters:   map[string]string{"name": "name"},
		identity:  true,
		uniqueErr: types.ErrDuplicateIdentity,
		scan: func(sc scanner) (any, error) {
			var a types.Annotator
			if err := sc.Scan(&a.AnnotatorID, &a.Name); err != nil {
				return nil, err
			}
			return &a, nil
		},
		bind: func(data any) (int64, []any, error) {
			a, ok := data.(*types.Annotator)
			if !ok {
				return 0, nil, types.ErrInvalidData
			}
			if a.Name == "" {
				return 0, nil, types.ErrInvalidName
			}
			return a.AnnotatorID, []any{a.Name}, nil
		},
		setID: func(data any, id int64) { data.(*types.Annotator).AnnotatorID = id },
	})
}
