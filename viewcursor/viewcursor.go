// Package viewcursor counts how many log entries were already surfaced to the user.
package viewcursor

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation signals a programming defect: the log appeared to shrink
var ErrInvariantViolation = errors.New("invariant violation")

// Cursor is not safe for concurrent use, callers serialize access
type Cursor struct {
	pos int
}

func (c *Cursor) Pos() int {
	return c.pos
}

// Advance moves the cursor forward to 'to'. Moving backwards fails and keeps the position.
func (c *Cursor) Advance(to int) error {
	if to < c.pos {
		return fmt.Errorf("%w: cursor can't move back from %d to %d", ErrInvariantViolation, c.pos, to)
	}
	c.pos = to
	return nil
}
