package octree

import "github.com/pkg/errors"

var (
	// ErrInvalidDimension is returned when an octree is constructed with a
	// dimension that is zero or not a power of two.
	ErrInvalidDimension = errors.New("octree dimension must be a nonzero power of two")

	// ErrInvalidPosition is returned when a coordinate lies outside the cubic
	// bounds of the octree.
	ErrInvalidPosition = errors.New("position is outside the bounds of this octree")

	// ErrInvalidOctant is returned when an integer-to-octant conversion
	// receives a value outside 0-7. The geometry routines never produce such a
	// value; seeing this error indicates a corrupted snapshot or a logic defect.
	ErrInvalidOctant = errors.New("octant index out of range")

	// ErrMalformedTree is returned when a snapshot's child-index graph is
	// inconsistent: a dangling index, a cycle, or a record claimed by more than
	// one parent.
	ErrMalformedTree = errors.New("malformed octree snapshot")
)
