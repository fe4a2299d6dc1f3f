// Package octree implements a sparse voxel octree over a cubic integer domain
// of power-of-two side length: it maps (x, y, z) coordinates to values, storing
// only the regions that diverge from a default value, with bottom-up
// compaction, level-of-detail coarsening, and an index-linked snapshot format
// for storage and transmission.
package octree

import (
	"math/bits"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Each node in the octree is either an internal node, which subdivides its
// region among up to eight children, or a leaf node, which represents its
// entire region as a single value.
const (
	InternalNode = NodeType(iota)
	LeafNode
)

// NodeType represents the possible types of nodes in an octree.
type NodeType uint8

// Octree is a sparse map from integer (x, y, z) coordinates in [0, dimension)³
// to values of type T. Unwritten regions occupy no memory. An octree is not
// safe for concurrent use; callers must serialize access to a shared instance.
type Octree[T comparable] interface {
	// Set writes value into the minimum addressable cell containing p.
	Set(p Vec3, value T) error
	// At returns the value stored at (x, y, z) and whether the containing
	// region has ever been written.
	At(x, y, z uint32) (T, bool)
	// ClearAt resets the minimum addressable cell containing p to the
	// default value.
	ClearAt(p Vec3) error
	// Clear resets the whole tree to a single default-valued leaf at full
	// dimension.
	Clear()
	// Contains reports whether p lies within the cubic domain.
	Contains(p Vec3) bool
	// Simplify compacts the tree bottom-up, merging fully populated uniform
	// subtrees into single leaves. It reports whether the root itself
	// collapsed to a leaf.
	Simplify() bool
	// LODDown coarsens the tree by majority vote and doubles the minimum
	// addressable cell, capped at the domain depth.
	LODDown()
	// LODUp permits finer writes again by halving the minimum addressable
	// cell, floored at 1. Previously collapsed detail is not recovered.
	LODUp()
	// Dimension returns the side length of the cubic domain.
	Dimension() uint32
	// MinDimension returns the side length of the smallest currently
	// addressable cell, as derived from the level-of-detail counter.
	MinDimension() uint32
	// Center returns the midpoint of the domain for interop with float
	// spatial code.
	Center() r3.Vector
	// Bounds returns the inclusive lower and exclusive upper corners of the
	// domain.
	Bounds() (r3.Vector, r3.Vector)
	// Snapshot flattens the tree breadth-first into an index-linked record
	// list suitable for storage or transmission. See FromSnapshot.
	Snapshot() []SnapshotNode[T]
}

// basicOctree owns the root node and tracks the level-of-detail bookkeeping
// that derives the minimum addressable cell size.
type basicOctree[T comparable] struct {
	logger       golog.Logger
	root         *node[T]
	dimension    uint32
	defaultValue T
	currLODLevel uint32
	maxLODLevel  uint32
	minDimension uint32
}

// New creates an octree covering [0, dimension)³ in which every cell initially
// holds defaultValue. dimension must be a nonzero power of two.
func New[T comparable](dimension uint32, defaultValue T, logger golog.Logger) (Octree[T], error) {
	if bits.OnesCount32(dimension) != 1 {
		return nil, errors.Wrapf(ErrInvalidDimension, "dimension %d", dimension)
	}
	return &basicOctree[T]{
		logger:       logger,
		root:         newLeafNode(Vec3{}, dimension, defaultValue),
		dimension:    dimension,
		defaultValue: defaultValue,
		currLODLevel: 1,
		maxLODLevel:  maxLODLevelFor(dimension),
		minDimension: 1,
	}, nil
}

// maxLODLevelFor maps a validated dimension to the deepest level-of-detail
// counter value. The clamp keeps a degenerate 1³ domain from driving the
// minimum dimension through a zero exponent.
func maxLODLevelFor(dimension uint32) uint32 {
	level := uint32(bits.Len32(dimension) - 1)
	if level < 1 {
		level = 1
	}
	return level
}

func (ot *basicOctree[T]) Set(p Vec3, value T) error {
	return ot.root.insert(p, ot.minDimension, true, value)
}

func (ot *basicOctree[T]) At(x, y, z uint32) (T, bool) {
	return ot.root.get(Vec3{X: x, Y: y, Z: z})
}

func (ot *basicOctree[T]) ClearAt(p Vec3) error {
	return ot.root.clear(p, ot.minDimension, ot.defaultValue)
}

func (ot *basicOctree[T]) Clear() {
	ot.root = newLeafNode(Vec3{}, ot.dimension, ot.defaultValue)
}

func (ot *basicOctree[T]) Contains(p Vec3) bool {
	return ot.root.contains(p)
}

func (ot *basicOctree[T]) Simplify() bool {
	return ot.root.simplifyTree()
}

func (ot *basicOctree[T]) LODDown() {
	level := ot.currLODLevel + 1
	if level >= ot.maxLODLevel {
		level = ot.maxLODLevel
	}
	ot.root.lod()
	ot.currLODLevel = level
	ot.minDimension = 1 << (level - 1)
	ot.logger.Debugf("octree coarsened to lod level %d, min dimension %d", level, ot.minDimension)
}

func (ot *basicOctree[T]) LODUp() {
	level := uint32(1)
	if ot.currLODLevel > 1 {
		level = ot.currLODLevel - 1
	}
	ot.currLODLevel = level
	ot.minDimension = 1 << (level - 1)
	ot.logger.Debugf("octree refined to lod level %d, min dimension %d", level, ot.minDimension)
}

func (ot *basicOctree[T]) Dimension() uint32 {
	return ot.dimension
}

func (ot *basicOctree[T]) MinDimension() uint32 {
	return ot.minDimension
}

func (ot *basicOctree[T]) Center() r3.Vector {
	half := float64(ot.dimension) / 2
	return r3.Vector{X: half, Y: half, Z: half}
}

func (ot *basicOctree[T]) Bounds() (r3.Vector, r3.Vector) {
	return r3.Vector{}, splat(ot.dimension).R3()
}
