package types

import "fmt"

// Kind is the discriminant of a Specialization.
type Kind string

// Specialization kinds. KindNone is reported for an annotation without a
// specialization and is never stored.
const (
	KindNone          Kind = "none"
	KindChapter       Kind = "chapter"
	KindAside         Kind = "aside"
	KindAnnotatedLine Kind = "annotated_line"
)

// Specialization is the single role an Annotation plays. It is a tagged
// union keyed by AnnotationID: SameAs belongs to chapters only, and
// TextFieldID, PreviousLine, NextLine, and HypoText belong to annotated lines
// only.
type Specialization struct {
	AnnotationID int64   `json:"annotation_id"`
	Kind         Kind    `json:"kind"`
	SameAs       *int64  `json:"same_as"`
	TextFieldID  *int64  `json:"text_field_id"`
	PreviousLine *int64  `json:"previous_line"`
	NextLine     *int64  `json:"next_line"`
	HypoText     *string `json:"hypo_text"`
}

// NewChapter returns a chapter specialization for the annotation.
func NewChapter(annotationID int64, sameAs *int64) *Specialization {
	return &Specialization{AnnotationID: annotationID, Kind: KindChapter, SameAs: sameAs}
}

// NewAside returns an aside specialization for the annotation.
func NewAside(annotationID int64) *Specialization {
	return &Specialization{AnnotationID: annotationID, Kind: KindAside}
}

// NewLine returns an unlinked annotated-line specialization.
func NewLine(annotationID int64, textFieldID *int64, hypoText *string) *Specialization {
	return &Specialization{
		AnnotationID: annotationID,
		Kind:         KindAnnotatedLine,
		TextFieldID:  textFieldID,
		HypoText:     hypoText,
	}
}

// IsLine reports whether s is an annotated line.
func (s *Specialization) IsLine() bool {
	return s != nil && s.Kind == KindAnnotatedLine
}

// Validate checks that the payload matches the discriminant. A mismatch
// means more than one role is recorded for the annotation and is reported as
// ErrIntegrityFault.
func (s *Specialization) Validate() error {
	lineFields := s.TextFieldID != nil || s.PreviousLine != nil || s.NextLine != nil || s.HypoText != nil
	switch s.Kind {
	case KindChapter:
		if lineFields {
			return s.fault("chapter carries line fields")
		}
	case KindAside:
		if lineFields || s.SameAs != nil {
			return s.fault("aside carries chapter or line fields")
		}
	case KindAnnotatedLine:
		if s.SameAs != nil {
			return s.fault("line carries chapter fields")
		}
	default:
		return s.fault(fmt.Sprintf("unknown kind %q", s.Kind))
	}
	return nil
}

func (s *Specialization) fault(msg string) error {
	return fmt.Errorf("%w: annotation %d: %s", ErrIntegrityFault, s.AnnotationID, msg)
}

// Ref returns a pointer to a copy of id.
func Ref(id int64) *int64 {
	return &id
}
