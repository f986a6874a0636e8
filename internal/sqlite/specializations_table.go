package sqlite

import (
	"database/sql"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// specializations holds the tagged union of annotation roles. Rows are keyed
// by annotation id, so a second specialization of the same annotation fails
// on the primary key and surfaces as ErrAlreadySpecialized. Rows are never
// deleted.
func init() {
	registerTable(&tableSpec{
		name:     types.SpecializationsTable,
		idColumn: "annotation_id",
		columns:  []string{"kind", "same_as", "text_field_id", "previous_line", "next_line", "hypo_text"},
		filters: map[string]string{
			"kind":          "kind",
			"same_as":       "same_as",
			"text_field_id": "text_field_id",
			"previous_line": "previous_line",
			"next_line":     "next_line",
			"manuscript_id": "annotation_id IN (SELECT annotation_id FROM annotations WHERE manuscript_id = ?)",
			"page":          "annotation_id IN (SELECT annotation_id FROM annotations WHERE page = ?)",
		},
		callerID:  true,
		noDelete:  true,
		keyErr:    types.ErrAlreadySpecialized,
		uniqueErr: types.ErrIntegrityFault,
		scan: func(sc scanner) (any, error) {
			var s types.Specialization
			var kind string
			var sameAs, textField, prev, next sql.NullInt64
			var hypo sql.NullString
			if err := sc.Scan(&s.AnnotationID, &kind, &sameAs, &textField, &prev, &next, &hypo); err != nil {
				return nil, err
			}
			s.Kind = types.Kind(kind)
			s.SameAs = int64Ptr(sameAs)
			s.TextFieldID = int64Ptr(textField)
			s.PreviousLine = int64Ptr(prev)
			s.NextLine = int64Ptr(next)
			s.HypoText = stringPtr(hypo)
			return &s, nil
		},
		bind: func(data any) (int64, []any, error) {
			s, ok := data.(*types.Specialization)
			if !ok {
				return 0, nil, types.ErrInvalidData
			}
			return s.AnnotationID, []any{
				string(s.Kind), nullInt64(s.SameAs), nullInt64(s.TextFieldID),
				nullInt64(s.PreviousLine), nullInt64(s.NextLine), nullString(s.HypoText),
			}, nil
		},
		setID: func(data any, id int64) { data.(*types.Specialization).AnnotationID = id },
	})
}
