package octree

import "github.com/pkg/errors"

// An octant identifies one of the eight equal subdivisions of a cubic region.
// The index packs one bit per axis, 0 for the lower half and 1 for the upper
// half, combined as (zBit<<2)|(yBit<<1)|xBit. Serialized trees depend on this
// exact encoding, so children remain addressable by any compliant reader.
type octant uint8

const numOctants = 8

// octantOffsets maps an octant to its {0,1}³ corner, consistent with the bit
// packing above.
var octantOffsets = [numOctants]Vec3{
	{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
}

// octantFromPoint classifies p against the midpoint of a node's region.
func octantFromPoint(midpoint, p Vec3) octant {
	var o octant
	if p.X >= midpoint.X {
		o |= 1
	}
	if p.Y >= midpoint.Y {
		o |= 2
	}
	if p.Z >= midpoint.Z {
		o |= 4
	}
	return o
}

// octantFromIndex validates an integer arriving from outside the geometry
// routines, such as a snapshot child slot, before it addresses a child.
func octantFromIndex(i int) (octant, error) {
	if i < 0 || i >= numOctants {
		return 0, errors.Wrapf(ErrInvalidOctant, "index %d", i)
	}
	return octant(i), nil
}

// offset returns the octant's {0,1}³ corner vector.
func (o octant) offset() Vec3 {
	return octantOffsets[o]
}

// childMinCorner computes the lower bound of the child occupying oct within a
// region anchored at nodeMin, given the child's already-halved dimension.
func childMinCorner(nodeMin Vec3, childDim uint32, oct octant) Vec3 {
	return nodeMin.Add(splat(childDim).Mul(oct.offset()))
}

// regionContains reports whether p lies in the half-open cube [min, min+dim)
// on every axis.
func regionContains(min Vec3, dim uint32, p Vec3) bool {
	return p.X >= min.X && p.X < min.X+dim &&
		p.Y >= min.Y && p.Y < min.Y+dim &&
		p.Z >= min.Z && p.Z < min.Z+dim
}
