package aggregate

import (
	"fmt"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// LineChain returns the chain containing line, from its head to its tail.
// Returns ErrNotFound if id is not a line and ErrIntegrityFault if the
// stored chain loops.
func (a *Aggregator) LineChain(id int64) ([]Resolved, error) {
	return inView(a.store, func(s types.Session) ([]Resolved, error) {
		return a.lineChain(s, id)
	})
}

func (a *Aggregator) lineChain(s types.Session, id int64) ([]Resolved, error) {
	start, err := a.line(s, id)
	if err != nil {
		return nil, err
	}

	head := start
	seen := map[int64]bool{head.AnnotationID: true}
	for head.PreviousLine != nil {
		if seen[*head.PreviousLine] {
			return nil, a.loop(id)
		}
		seen[*head.PreviousLine] = true
		if head, err = a.line(s, *head.PreviousLine); err != nil {
			return nil, err
		}
	}

	var specs []*types.Specialization
	seen = map[int64]bool{}
	for cur := head; ; {
		if seen[cur.AnnotationID] {
			return nil, a.loop(id)
		}
		seen[cur.AnnotationID] = true
		specs = append(specs, cur)
		if cur.NextLine == nil {
			break
		}
		if cur, err = a.line(s, *cur.NextLine); err != nil {
			return nil, err
		}
	}
	return a.resolveAll(s, specs)
}

// TextFieldLines returns the lines placed on a text field in chain order.
// Separate runs of lines are ordered by the id of their first line.
func (a *Aggregator) TextFieldLines(textFieldID int64) ([]Resolved, error) {
	return inView(a.store, func(s types.Session) ([]Resolved, error) {
		return a.textFieldLines(s, textFieldID)
	})
}

func (a *Aggregator) textFieldLines(s types.Session, textFieldID int64) ([]Resolved, error) {
	if _, err := getAs[*types.TextField](s, types.TextFieldsTable, textFieldID); err != nil {
		return nil, err
	}
	specs, err := a.specializations(s, types.Filter{
		"kind":          types.KindAnnotatedLine,
		"text_field_id": textFieldID,
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*types.Specialization, len(specs))
	for _, spec := range specs {
		byID[spec.AnnotationID] = spec
	}
	ordered := make([]*types.Specialization, 0, len(specs))
	placed := make(map[int64]bool, len(specs))
	for _, spec := range specs {
		if spec.PreviousLine != nil && byID[*spec.PreviousLine] != nil {
			continue
		}
		for cur := spec; cur != nil && !placed[cur.AnnotationID]; {
			placed[cur.AnnotationID] = true
			ordered = append(ordered, cur)
			if cur.NextLine == nil {
				break
			}
			cur = byID[*cur.NextLine]
		}
	}
	if len(ordered) != len(specs) {
		return nil, a.loop(specs[0].AnnotationID)
	}
	return a.resolveAll(s, ordered)
}

func (a *Aggregator) line(s types.Session, id int64) (*types.Specialization, error) {
	spec, err := a.specialization(s, id)
	if err != nil {
		return nil, err
	}
	if !spec.IsLine() {
		return nil, fmt.Errorf("%w: annotation %d is a %s, not a line", types.ErrNotFound, id, spec.Kind)
	}
	return spec, nil
}

func (a *Aggregator) loop(id int64) error {
	err := fmt.Errorf("%w: chain through line %d loops", types.ErrIntegrityFault, id)
	a.logger.Error("inconsistent line chain", "line_id", id, "error", err)
	return err
}

func (a *Aggregator) resolveAll(s types.Session, specs []*types.Specialization) ([]Resolved, error) {
	r := newResolver(s)
	out := make([]Resolved, 0, len(specs))
	for _, spec := range specs {
		ann, err := getAs[*types.Annotation](s, types.AnnotationsTable, spec.AnnotationID)
		if err != nil {
			return nil, err
		}
		res, err := r.resolve(ann, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}
