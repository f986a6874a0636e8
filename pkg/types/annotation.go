package types

import (
	"errors"
	"time"
)

// Annotation is the base transcription record tied to one manuscript page.
// Its role is given by at most one Specialization. Entity methods modify the
// struct in memory; the caller persists through Table.Update.
type Annotation struct {
	AnnotationID int64       `json:"annotation_id"`
	ManuscriptID int64       `json:"manuscript_id"`
	Page         int         `json:"page"`
	AnnotatorID  int64       `json:"annotator_id"`
	Text         string      `json:"text"`
	Label        string      `json:"label"`
	ResearchNote string      `json:"research_note"`
	BoundingBox  BoundingBox `json:"bounding_box"`
	Complete     bool        `json:"complete"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// AnnotationPatch carries the annotator-editable fields. Nil fields are left
// unchanged.
type AnnotationPatch struct {
	Text         *string
	Label        *string
	ResearchNote *string
	BoundingBox  BoundingBox
}

// Empty reports whether the patch changes nothing.
func (p AnnotationPatch) Empty() bool {
	return p.Text == nil && p.Label == nil && p.ResearchNote == nil && p.BoundingBox == nil
}

// Apply copies the set fields of patch onto the annotation.
// Returns ErrAnnotationComplete once the annotation is complete.
func (a *Annotation) Apply(patch AnnotationPatch) error {
	if a.Complete {
		return ErrAnnotationComplete
	}
	if patch.Text != nil {
		a.Text = *patch.Text
	}
	if patch.Label != nil {
		a.Label = *patch.Label
	}
	if patch.ResearchNote != nil {
		a.ResearchNote = *patch.ResearchNote
	}
	if patch.BoundingBox != nil {
		a.BoundingBox = patch.BoundingBox
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkComplete sets Complete. It reports whether the annotation changed;
// marking an already complete annotation is a no-op.
func (a *Annotation) MarkComplete() bool {
	if a.Complete {
		return false
	}
	a.Complete = true
	a.UpdatedAt = time.Now().UTC()
	return true
}

// Annotation graph errors.
var (
	ErrAlreadySpecialized    = errors.New("annotation is already specialized")
	ErrInvalidSpecialization = errors.New("invalid specialization")
	ErrNotSpecialized        = errors.New("annotation is not specialized")
	ErrCycleDetected         = errors.New("line chain would contain a cycle")
	ErrChainScope            = errors.New("lines belong to different manuscripts")
	ErrIntegrityFault        = errors.New("annotation graph integrity fault")
	ErrAnnotationComplete    = errors.New("annotation is complete")
)
