package sqlite

import (
	"database/sql"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

func init() {
	registerTable(&tableSpec{
		name:     types.BooksTable,
		idColumn: "book_id",
		columns:  []string{"title", "author_id"},
		filters: map[string]string{
			"title":     "title",
			"author_id": "author_id",
		},
		scan: func(sc scanner) (any, error) {
			var b types.Book
			if err := sc.Scan(&b.BookID, &b.Title, &b.AuthorID); err != nil {
				return nil, err
			}
			return &b, nil
		},
		bind: func(data any) (int64, []any, error) {
			b, ok := data.(*types.Book)
			if !ok {
				return 0, nil, types.ErrInvalidData
			}
			if b.Title == "" {
				return 0, nil, types.ErrInvalidName
			}
			return b.BookID, []any{b.Title, b.AuthorID}, nil
		},
		setID: func(data any, id int64) { data.(*types.Book).BookID = id },
	})

	registerTable(&tableSpec{
		name:     types.ManuscriptsTable,
		idColumn: "manuscript_id",
		columns: []string{
			"book_id", "editor_id", "title", "date", "text_direction", "page_direction",
			"filepath", "page_count", "currently_marking", "currently_annotating",
		},
		filters: map[string]string{
			"book_id":   "book_id",
			"editor_id": "editor_id",
			"title":     "title",
		},
		scan: func(sc scanner) (any, error) {
			var m types.Manuscript
			var editor sql.NullInt64
			if err := sc.Scan(
				&m.ManuscriptID, &m.BookID, &editor, &m.Title, &m.Date, &m.TextDirection, &m.PageDirection,
				&m.Filepath, &m.PageCount, &m.CurrentlyMarking, &m.CurrentlyAnnotating,
			); err != nil {
				return nil, err
			}
			m.EditorID = int64Ptr(editor)
			return &m, nil
		},
		bind: func(data any) (int64, []any, error) {
			m, ok := data.(*types.Manuscript)
			if !ok {
				return 0, nil, types.ErrInvalidData
			}
			if err := m.Validate(); err != nil {
				return 0, nil, err
			}
			return m.ManuscriptID, []any{
				m.BookID, nullInt64(m.EditorID), m.Title, m.Date, m.TextDirection, m.PageDirection,
				m.Filepath, m.PageCount, m.CurrentlyMarking, m.CurrentlyAnnotating,
			}, nil
		},
		setID: func(data any, id int64) { data.(*types.Manuscript).ManuscriptID = id },
	})

	registerTable(&tableSpec{
		name:     types.TextFieldsTable,
		idColumn: "text_field_id",
		columns:  []string{"manuscript_id", "page", "bounding_box"},
		filters: map[string]string{
			"manuscript_id": "manuscript_id",
			"page":          "page",
		},
		scan: func(sc scanner) (any, error) {
			var tf types.TextField
			var box string
			if err := sc.Scan(&tf.TextFieldID, &tf.ManuscriptID, &tf.Page, &box); err != nil {
				return nil, err
			}
			tf.BoundingBox = types.BoundingBox(box)
			return &tf, nil
		},
		bind: func(data any) (int64, []any, error) {
			tf, ok := data.(*types.TextField)
			if !ok {
				return 0, nil, types.ErrInvalidData
			}
			if tf.Page < 1 {
				return 0, nil, types.ErrInvalidPage
			}
			box, err := geometry(tf.BoundingBox)
			if err != nil {
				return 0, nil, err
			}
			return tf.TextFieldID, []any{tf.ManuscriptID, tf.Page, box}, nil
		},
		setID: func(data any, id int64) { data.(*types.TextField).TextFieldID = id },
	})
}
