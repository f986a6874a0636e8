package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

func init() {
	registerTable(&tableSpec{
		name:     types.AnnotationsTable,
		idColumn: "annotation_id",
		columns: []string{
			"manuscript_id", "page", "annotator_id", "text", "label", "research_note",
			"bounding_box", "complete", "created_at", "updated_at",
		},
		filters: map[string]string{
			"manuscript_id": "manuscript_id",
			"page":          "page",
			"annotator_id":  "annotator_id",
			"complete":      "complete",
		},
		triggerErr: types.ErrAnnotationComplete,
		scan:       scanAnnotation,
		bind:       bindAnnotation,
		setID:      func(data any, id int64) { data.(*types.Annotation).AnnotationID = id },
	})
}

func scanAnnotation(sc scanner) (any, error) {
	var a types.Annotation
	var box, createdAt, updatedAt string
	var complete int64
	if err := sc.Scan(
		&a.AnnotationID, &a.ManuscriptID, &a.Page, &a.AnnotatorID, &a.Text, &a.Label, &a.ResearchNote,
		&box, &complete, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	a.BoundingBox = types.BoundingBox(box)
	a.Complete = complete != 0

	var err error
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &a, nil
}

func bindAnnotation(data any) (int64, []any, error) {
	a, ok := data.(*types.Annotation)
	if !ok {
		return 0, nil, types.ErrInvalidData
	}
	if a.Page < 1 {
		return 0, nil, types.ErrInvalidPage
	}
	box, err := geometry(a.BoundingBox)
	if err != nil {
		return 0, nil, err
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	return a.AnnotationID, []any{
		a.ManuscriptID, a.Page, a.AnnotatorID, a.Text, a.Label, a.ResearchNote,
		box, boolToInt(a.Complete),
		a.CreatedAt.UTC().Format(time.RFC3339Nano), a.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

// geometry returns the stored text form of a bounding box. An empty box is
// stored as JSON null; anything else must be valid JSON and is kept as is.
func geometry(box types.BoundingBox) (string, error) {
	if len(box) == 0 {
		return "null", nil
	}
	if !json.Valid(box) {
		return "", fmt.Errorf("%w: bounding box is not valid JSON", types.ErrInvalidData)
	}
	return string(box), nil
}
