package graph

import (
	"fmt"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// InsertLineAfter moves newLine so that it directly follows line. newLine
// leaves its current chain first and its old neighbours are joined.
// Returns ErrNotFound if either annotation is absent or not a line,
// ErrChainScope if they belong to different manuscripts, and
// ErrCycleDetected if line and newLine are the same.
func (m *Manager) InsertLineAfter(lineID, newLineID int64) error {
	attrs := []any{"line_id", lineID, "new_line_id", newLineID}
	return m.transact("inserted line", attrs, func(v view) error {
		c := newChain(v)
		line, err := c.line(lineID)
		if err != nil {
			return err
		}
		newLine, err := c.line(newLineID)
		if err != nil {
			return err
		}
		if lineID == newLineID {
			return fmt.Errorf("%w: line %d cannot follow itself", types.ErrCycleDetected, lineID)
		}
		if line.NextLine != nil && *line.NextLine == newLineID {
			return nil
		}
		if err := c.detach(newLine); err != nil {
			return err
		}
		if err := splice(c, line, newLine); err != nil {
			return err
		}
		return c.flush()
	})
}

// UnlinkLine removes a line from its chain and joins its neighbours.
func (m *Manager) UnlinkLine(id int64) error {
	return m.transact("unlinked line", []any{"line_id", id}, func(v view) error {
		c := newChain(v)
		line, err := c.line(id)
		if err != nil {
			return err
		}
		if line.PreviousLine == nil && line.NextLine == nil {
			return nil
		}
		if err := c.detach(line); err != nil {
			return err
		}
		return c.flush()
	})
}

// SetHypoText sets or clears the hypothetical reading of a line.
func (m *Manager) SetHypoText(id int64, text *string) error {
	return m.transact("set hypo text", []any{"line_id", id}, func(v view) error {
		line, err := newChain(v).line(id)
		if err != nil {
			return err
		}
		line.HypoText = text
		return v.saveSpecialization(line)
	})
}

// AssignTextField sets or clears the text field of a line. The text field
// must be on the line's manuscript.
func (m *Manager) AssignTextField(id int64, textFieldID *int64) error {
	return m.transact("assigned text field", []any{"line_id", id}, func(v view) error {
		line, err := newChain(v).line(id)
		if err != nil {
			return err
		}
		if textFieldID != nil {
			ann, err := v.annotation(id)
			if err != nil {
				return err
			}
			if err := checkTextField(v, ann, *textFieldID); err != nil {
				return err
			}
		}
		line.TextFieldID = textFieldID
		return v.saveSpecialization(line)
	})
}

// Line returns the specialization of an annotated line.
// Returns ErrNotFound if id is not a line.
func (m *Manager) Line(id int64) (*types.Specialization, error) {
	return newChain(view{s: m.store}).line(id)
}
