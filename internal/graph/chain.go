package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

// chain rewires previous/next pointers of annotated lines in memory and
// writes the touched rows back in one flush. Links are always set on both
// sides, so the cached rows stay two-sided consistent between calls.
type chain struct {
	v     view
	scope int64 // manuscript of the first line loaded
	lines map[int64]*types.Specialization
	dirty map[int64]bool
}

func newChain(v view) *chain {
	return &chain{
		v:     v,
		lines: make(map[int64]*types.Specialization),
		dirty: make(map[int64]bool),
	}
}

// line returns the cached line id, loading it on first use. Returns
// ErrNotFound if id is not an annotated line and ErrChainScope if it belongs
// to another manuscript than the lines already loaded.
func (c *chain) line(id int64) (*types.Specialization, error) {
	if l, ok := c.lines[id]; ok {
		return l, nil
	}
	ann, spec, err := c.v.kindOf(id)
	if errors.Is(err, types.ErrNotSpecialized) {
		return nil, fmt.Errorf("%w: annotation %d is not a line", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if !spec.IsLine() {
		return nil, fmt.Errorf("%w: annotation %d is a %s, not a line", types.ErrNotFound, id, spec.Kind)
	}
	if c.scope == 0 {
		c.scope = ann.ManuscriptID
	} else if ann.ManuscriptID != c.scope {
		return nil, fmt.Errorf("%w: line %d is in manuscript %d, not %d",
			types.ErrChainScope, id, ann.ManuscriptID, c.scope)
	}
	c.lines[id] = spec
	return spec, nil
}

func (c *chain) touch(l *types.Specialization) {
	c.dirty[l.AnnotationID] = true
}

// link makes b the successor of a. A's old successor and b's old
// predecessor lose their pointer back.
func (c *chain) link(a, b *types.Specialization) error {
	if a.NextLine != nil && *a.NextLine != b.AnnotationID {
		old, err := c.line(*a.NextLine)
		if err != nil {
			return err
		}
		old.PreviousLine = nil
		c.touch(old)
	}
	if b.PreviousLine != nil && *b.PreviousLine != a.AnnotationID {
		old, err := c.line(*b.PreviousLine)
		if err != nil {
			return err
		}
		old.NextLine = nil
		c.touch(old)
	}
	a.NextLine = types.Ref(b.AnnotationID)
	b.PreviousLine = types.Ref(a.AnnotationID)
	c.touch(a)
	c.touch(b)
	return nil
}

// detach removes l from its chain and joins its old neighbours.
func (c *chain) detach(l *types.Specialization) error {
	var prev, next *types.Specialization
	var err error
	if l.PreviousLine != nil {
		if prev, err = c.line(*l.PreviousLine); err != nil {
			return err
		}
		prev.NextLine = nil
		c.touch(prev)
	}
	if l.NextLine != nil {
		if next, err = c.line(*l.NextLine); err != nil {
			return err
		}
		next.PreviousLine = nil
		c.touch(next)
	}
	l.PreviousLine = nil
	l.NextLine = nil
	c.touch(l)
	if prev != nil && next != nil {
		return c.link(prev, next)
	}
	return nil
}

// acyclic walks next_line from every touched line and fails with
// ErrCycleDetected if a line is reached twice.
func (c *chain) acyclic() error {
	for _, id := range c.touched() {
		seen := map[int64]bool{id: true}
		cur := c.lines[id]
		for cur.NextLine != nil {
			next := *cur.NextLine
			if seen[next] {
				return fmt.Errorf("%w: line %d reaches itself", types.ErrCycleDetected, next)
			}
			seen[next] = true
			var err error
			if cur, err = c.line(next); err != nil {
				return err
			}
		}
	}
	return nil
}

// flush checks acyclicity and writes the touched lines. Pointers are cleared
// on every touched row first so that no intermediate state collides with
// the unique neighbour columns.
func (c *chain) flush() error {
	if err := c.acyclic(); err != nil {
		return err
	}
	ids := c.touched()
	for _, id := range ids {
		cleared := *c.lines[id]
		cleared.PreviousLine = nil
		cleared.NextLine = nil
		if err := c.v.saveSpecialization(&cleared); err != nil {
			return err
		}
	}
	for _, id := range ids {
		if err := c.v.saveSpecialization(c.lines[id]); err != nil {
			return err
		}
	}
	return nil
}

func (c *chain) touched() []int64 {
	ids := make([]int64, 0, len(c.dirty))
	for id := range c.dirty {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
