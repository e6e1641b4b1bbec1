// Package board contains the ordinal sequencer: pure position arithmetic
// for siblings that share a scope (a project's columns, a column's tasks).
// Live siblings of a scope always occupy exactly the positions 1..N. The
// sequencer computes what has to shift; repositories apply the shift as a
// single bulk update inside the same transaction as the entity write.
package board

import (
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

// Append is the in-band sentinel for "no explicit position requested".
const Append = 0

// Span describes a contiguous range of sibling positions, inclusive on both
// ends, whose occupants must be shifted by Delta. An empty span (Lo > Hi)
// means no sibling moves.
type Span struct {
	Lo    int
	Hi    int
	Delta int
}

// Empty reports whether the span shifts nothing.
func (s Span) Empty() bool { return s.Lo > s.Hi }

// InsertAt computes the position assigned to a new sibling entering a scope
// that currently holds n siblings. target == Append appends at n+1.
// Valid explicit targets are 1..n+1; the returned span shifts every sibling
// at or after the assigned position up by one.
func InsertAt(n, target int) (int, Span, error) {
	if target == Append {
		target = n + 1
	}
	if target < 1 || target > n+1 {
		return 0, Span{}, faults.OutOfRange("insert position %d outside [1, %d]", target, n+1)
	}
	return target, Span{Lo: target, Hi: n, Delta: +1}, nil
}

// MoveWithin computes the sibling shift for moving the occupant of current
// to target inside a scope of n siblings. Equal positions are a no-op.
func MoveWithin(n, current, target int) (Span, error) {
	if current < 1 || current > n {
		return Span{}, faults.OutOfRange("current position %d outside [1, %d]", current, n)
	}
	if target < 1 || target > n {
		return Span{}, faults.OutOfRange("move position %d outside [1, %d]", target, n)
	}
	if target == current {
		return Span{Lo: 1, Hi: 0}, nil
	}
	if target > current {
		// Everyone strictly after current, up to target, slides down one.
		return Span{Lo: current + 1, Hi: target, Delta: -1}, nil
	}
	// Everyone from target up to just before current slides up one.
	return Span{Lo: target, Hi: current - 1, Delta: +1}, nil
}

// RemoveAt computes the sibling shift for removing the occupant of position
// from a scope of n siblings: everyone after it slides down one.
func RemoveAt(n, position int) (Span, error) {
	if position < 1 || position > n {
		return Span{}, faults.OutOfRange("remove position %d outside [1, %d]", position, n)
	}
	return Span{Lo: position + 1, Hi: n, Delta: -1}, nil
}

// Apply returns the position of a sibling after the span shift, given where
// it stood before. Used by tests and by in-memory projections.
func (s Span) Apply(position int) int {
	if s.Empty() || position < s.Lo || position > s.Hi {
		return position
	}
	return position + s.Delta
}
