package graph

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/khatt/internal/identity"
	"github.com/mesh-intelligence/khatt/pkg/types"
)

// CreateAnnotation stores an unspecialized, incomplete annotation.
// Returns ErrNotFound if the manuscript or annotator is absent and
// ErrInvalidPage if page does not address a page of the manuscript.
func (m *Manager) CreateAnnotation(a NewAnnotation) (int64, error) {
	if a.Complete {
		return 0, fmt.Errorf("%w: cannot create a complete annotation without a role", types.ErrNotSpecialized)
	}
	var id int64
	err := m.transact("created annotation", []any{"manuscript_id", a.ManuscriptID, "page", a.Page}, func(v view) error {
		var err error
		id, err = createAnnotation(v, a)
		return err
	})
	return id, err
}

func createAnnotation(v view, a NewAnnotation) (int64, error) {
	ms, err := v.manuscript(a.ManuscriptID)
	if err != nil {
		return 0, err
	}
	if !ms.ValidPage(a.Page) {
		return 0, fmt.Errorf("%w: page %d of manuscript %d", types.ErrInvalidPage, a.Page, ms.ManuscriptID)
	}
	if a.AnnotatorID == 0 {
		if a.AnnotatorID, err = identity.ResolveIn(v.s, types.KindAnnotator, a.Annotator); err != nil {
			return 0, err
		}
	} else if _, err := identity.NameIn(v.s, types.KindAnnotator, a.AnnotatorID); err != nil {
		return 0, err
	}

	annotations, err := v.table(types.AnnotationsTable)
	if err != nil {
		return 0, err
	}
	return annotations.Create(&types.Annotation{
		ManuscriptID: a.ManuscriptID,
		Page:         a.Page,
		AnnotatorID:  a.AnnotatorID,
		Text:         a.Text,
		Label:        a.Label,
		ResearchNote: a.ResearchNote,
		BoundingBox:  a.BoundingBox,
	})
}

// Annotation returns the stored annotation.
func (m *Manager) Annotation(id int64) (*types.Annotation, error) {
	return view{s: m.store}.annotation(id)
}

// UpdateAnnotation applies patch to an annotation that is not yet complete
// and returns the updated record. Returns ErrAnnotationComplete once the
// annotation is complete.
func (m *Manager) UpdateAnnotation(id int64, patch types.AnnotationPatch) (*types.Annotation, error) {
	var out *types.Annotation
	err := m.transact("updated annotation", []any{"annotation_id", id}, func(v view) error {
		ann, err := v.annotation(id)
		if err != nil {
			return err
		}
		if patch.Empty() {
			out = ann
			return nil
		}
		if err := ann.Apply(patch); err != nil {
			return fmt.Errorf("annotation %d: %w", id, err)
		}
		annotations, err := v.table(types.AnnotationsTable)
		if err != nil {
			return err
		}
		if err := annotations.Update(id, ann); err != nil {
			return err
		}
		out = ann
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkComplete marks a specialized annotation complete. Marking a complete
// annotation again succeeds without change. Returns ErrNotSpecialized if the
// annotation has no role yet.
func (m *Manager) MarkComplete(id int64) error {
	return m.transact("marked annotation complete", []any{"annotation_id", id}, func(v view) error {
		return markComplete(v, id)
	})
}

func markComplete(v view, id int64) error {
	ann, _, err := v.kindOf(id)
	if err != nil {
		return err
	}
	if !ann.MarkComplete() {
		return nil
	}
	annotations, err := v.table(types.AnnotationsTable)
	if err != nil {
		return err
	}
	return annotations.Update(id, ann)
}

// SpecializationKind reports the role of an annotation, KindNone if it has
// none. Returns ErrIntegrityFault if the stored role is inconsistent.
func (m *Manager) SpecializationKind(id int64) (types.Kind, error) {
	_, spec, err := view{s: m.store}.kindOf(id)
	switch {
	case errors.Is(err, types.ErrNotSpecialized):
		return types.KindNone, nil
	case errors.Is(err, types.ErrIntegrityFault):
		m.logger.Error("inconsistent specialization", "annotation_id", id, "error", err)
		return "", err
	case err != nil:
		return "", err
	}
	return spec.Kind, nil
}
