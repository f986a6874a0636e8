package graph

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// SpecializeAsChapter makes the annotation a chapter, optionally aligned
// with a chapter of another manuscript.
// Returns ErrAlreadySpecialized if the annotation already has a role and
// ErrInvalidSpecialization if sameAs is not a chapter of a different
// manuscript.
func (m *Manager) SpecializeAsChapter(id int64, sameAs *int64) error {
	return m.transact("specialized chapter", []any{"annotation_id", id}, func(v view) error {
		return specializeChapter(v, id, sameAs)
	})
}

// SpecializeAsAside makes the annotation an aside.
// Returns ErrAlreadySpecialized if the annotation already has a role.
func (m *Manager) SpecializeAsAside(id int64) error {
	return m.transact("specialized aside", []any{"annotation_id", id}, func(v view) error {
		return specializeAside(v, id)
	})
}

// SpecializeAsLine makes the annotation an annotated line and links it into
// a chain. With only PreviousLine set the line is spliced after it; with only
// NextLine set it is spliced before it; with both set it goes between them
// and displaced neighbours lose their back pointers.
// Returns ErrAlreadySpecialized, ErrNotFound for a missing neighbour or text
// field, ErrChainScope for a neighbour in another manuscript, and
// ErrCycleDetected if the chain would loop.
func (m *Manager) SpecializeAsLine(id int64, spec LineSpec) error {
	return m.transact("specialized line", []any{"annotation_id", id}, func(v view) error {
		return specializeLine(v, id, spec)
	})
}

// CreateChapter creates an annotation and makes it a chapter in one
// transaction.
func (m *Manager) CreateChapter(a NewAnnotation, sameAs *int64) (int64, error) {
	return m.create("created chapter", a, func(v view, id int64) error {
		return specializeChapter(v, id, sameAs)
	})
}

// CreateAside creates an annotation and makes it an aside in one
// transaction.
func (m *Manager) CreateAside(a NewAnnotation) (int64, error) {
	return m.create("created aside", a, func(v view, id int64) error {
		return specializeAside(v, id)
	})
}

// CreateLine creates an annotation and makes it an annotated line in one
// transaction.
func (m *Manager) CreateLine(a NewAnnotation, spec LineSpec) (int64, error) {
	return m.create("created line", a, func(v view, id int64) error {
		return specializeLine(v, id, spec)
	})
}

func (m *Manager) create(op string, a NewAnnotation, specialize func(v view, id int64) error) (int64, error) {
	var id int64
	err := m.transact(op, []any{"manuscript_id", a.ManuscriptID, "page", a.Page}, func(v view) error {
		complete := a.Complete
		a.Complete = false
		var err error
		if id, err = createAnnotation(v, a); err != nil {
			return err
		}
		if err := specialize(v, id); err != nil {
			return err
		}
		if complete {
			return markComplete(v, id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AlignChapter sets or clears the chapter's cross-manuscript alignment.
// Returns ErrNotSpecialized if the annotation has no role and
// ErrInvalidSpecialization if it is not a chapter or sameAs is invalid.
func (m *Manager) AlignChapter(id int64, sameAs *int64) error {
	return m.transact("aligned chapter", []any{"annotation_id", id}, func(v view) error {
		ann, spec, err := v.kindOf(id)
		if err != nil {
			return err
		}
		if spec.Kind != types.KindChapter {
			return fmt.Errorf("%w: annotation %d is a %s, not a chapter", types.ErrInvalidSpecialization, id, spec.Kind)
		}
		if sameAs != nil {
			if err := checkSameAs(v, ann, *sameAs); err != nil {
				return err
			}
		}
		spec.SameAs = sameAs
		return v.saveSpecialization(spec)
	})
}

func insertSpecialization(v view, spec *types.Specialization) error {
	specs, err := v.table(types.SpecializationsTable)
	if err != nil {
		return err
	}
	if _, err := specs.Create(spec); err != nil {
		return fmt.Errorf("annotation %d: %w", spec.AnnotationID, err)
	}
	return nil
}

func specializeChapter(v view, id int64, sameAs *int64) error {
	ann, err := v.annotation(id)
	if err != nil {
		return err
	}
	spec := types.NewChapter(id, nil)
	if err := insertSpecialization(v, spec); err != nil {
		return err
	}
	if sameAs == nil {
		return nil
	}
	if err := checkSameAs(v, ann, *sameAs); err != nil {
		return err
	}
	spec.SameAs = sameAs
	return v.saveSpecialization(spec)
}

// checkSameAs requires target to be a chapter of a manuscript other than
// the chapter's own.
func checkSameAs(v view, chapter *types.Annotation, target int64) error {
	if target == chapter.AnnotationID {
		return fmt.Errorf("%w: chapter %d cannot align with itself", types.ErrInvalidSpecialization, target)
	}
	other, spec, err := v.kindOf(target)
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrNotSpecialized) {
		return fmt.Errorf("%w: chapter %d does not exist", types.ErrInvalidSpecialization, target)
	}
	if err != nil {
		return err
	}
	if spec.Kind != types.KindChapter {
		return fmt.Errorf("%w: annotation %d is a %s, not a chapter", types.ErrInvalidSpecialization, target, spec.Kind)
	}
	if other.ManuscriptID == chapter.ManuscriptID {
		return fmt.Errorf("%w: chapter %d is in the same manuscript", types.ErrInvalidSpecialization, target)
	}
	return nil
}

func specializeAside(v view, id int64) error {
	if _, err := v.annotation(id); err != nil {
		return err
	}
	return insertSpecialization(v, types.NewAside(id))
}

func specializeLine(v view, id int64, ls LineSpec) error {
	ann, err := v.annotation(id)
	if err != nil {
		return err
	}
	if err := insertSpecialization(v, types.NewLine(id, nil, ls.HypoText)); err != nil {
		return err
	}
	if (ls.PreviousLine != nil && *ls.PreviousLine == id) || (ls.NextLine != nil && *ls.NextLine == id) {
		return fmt.Errorf("%w: line %d cannot neighbour itself", types.ErrCycleDetected, id)
	}

	c := newChain(v)
	line, err := c.line(id)
	if err != nil {
		return err
	}
	if ls.TextFieldID != nil {
		if err := checkTextField(v, ann, *ls.TextFieldID); err != nil {
			return err
		}
		line.TextFieldID = ls.TextFieldID
		c.touch(line)
	}

	var prev, next *types.Specialization
	if ls.PreviousLine != nil {
		if prev, err = c.line(*ls.PreviousLine); err != nil {
			return err
		}
	}
	if ls.NextLine != nil {
		if next, err = c.line(*ls.NextLine); err != nil {
			return err
		}
	}

	switch {
	case prev != nil && next != nil:
		if err := c.link(prev, line); err != nil {
			return err
		}
		if err := c.link(line, next); err != nil {
			return err
		}
	case prev != nil:
		if err := splice(c, prev, line); err != nil {
			return err
		}
	case next != nil:
		if next.PreviousLine == nil {
			if err := c.link(line, next); err != nil {
				return err
			}
		} else {
			before, err := c.line(*next.PreviousLine)
			if err != nil {
				return err
			}
			if err := splice(c, before, line); err != nil {
				return err
			}
		}
	}
	return c.flush()
}

// splice inserts an unlinked line between after and its current successor.
func splice(c *chain, after, line *types.Specialization) error {
	var oldNext *types.Specialization
	if after.NextLine != nil {
		var err error
		if oldNext, err = c.line(*after.NextLine); err != nil {
			return err
		}
	}
	if err := c.link(after, line); err != nil {
		return err
	}
	if oldNext != nil {
		return c.link(line, oldNext)
	}
	return nil
}

// checkTextField requires the text field to exist on the annotation's
// manuscript.
func checkTextField(v view, ann *types.Annotation, textFieldID int64) error {
	tf, err := v.textField(textFieldID)
	if err != nil {
		return err
	}
	if tf.ManuscriptID != ann.ManuscriptID {
		return fmt.Errorf("%w: text field %d belongs to manuscript %d, not %d",
			types.ErrInvalidSpecialization, textFieldID, tf.ManuscriptID, ann.ManuscriptID)
	}
	return nil
}
