package octree

import "github.com/pkg/errors"

// node is one cube of the recursive subdivision. A leaf represents its entire
// region as a single value; an internal node delegates to up to eight
// children, each covering one octant at half the dimension. Children are owned
// exclusively by their parent and are dropped whenever the parent becomes a
// leaf again, so no aliasing can arise inside the engine.
type node[T comparable] struct {
	nodeType  NodeType
	value     T
	minCorner Vec3
	dimension uint32
	children  [numOctants]*node[T]
}

func newLeafNode[T comparable](minCorner Vec3, dimension uint32, value T) *node[T] {
	return &node[T]{nodeType: LeafNode, value: value, minCorner: minCorner, dimension: dimension}
}

func newInternalNode[T comparable](minCorner Vec3, dimension uint32) *node[T] {
	return &node[T]{nodeType: InternalNode, minCorner: minCorner, dimension: dimension}
}

func (n *node[T]) isLeaf() bool {
	return n.nodeType == LeafNode
}

// setLeaf turns n into a leaf holding value and drops any children. Stale
// children must not survive a leaf transition or they would resurface on the
// next split.
func (n *node[T]) setLeaf(value T) {
	n.nodeType = LeafNode
	n.value = value
	n.children = [numOctants]*node[T]{}
}

// setInternal marks n as subdivided and zeroes the now-meaningless leaf value.
func (n *node[T]) setInternal() {
	var zero T
	n.nodeType = InternalNode
	n.value = zero
}

func (n *node[T]) contains(p Vec3) bool {
	return regionContains(n.minCorner, n.dimension, p)
}

func (n *node[T]) midpoint() Vec3 {
	return n.minCorner.Offset(n.dimension / 2)
}

// insert writes value into the cell of side targetDim containing p. targetDim
// is the minimum addressable dimension configured by the owning octree;
// descent stops there regardless of the domain's true resolution. When a leaf
// is split at the last level of subdivision, the seven sibling octants are
// materialized first as leaves carrying the prior value, so previously uniform
// data survives the split.
func (n *node[T]) insert(p Vec3, targetDim uint32, mergeAfterWrite bool, value T) error {
	if !n.contains(p) {
		return errors.Wrapf(ErrInvalidPosition, "position (%d, %d, %d)", p.X, p.Y, p.Z)
	}
	if n.dimension == targetDim {
		n.setLeaf(value)
		return nil
	}

	childDim := n.dimension / 2
	oct := octantFromPoint(n.midpoint(), p)

	if n.isLeaf() && childDim == targetDim {
		prior := n.value
		for i := range n.children {
			if octant(i) == oct {
				continue
			}
			corner := childMinCorner(n.minCorner, childDim, octant(i))
			n.children[i] = newLeafNode(corner, childDim, prior)
		}
	}

	child := n.children[oct]
	if child == nil {
		child = newInternalNode[T](childMinCorner(n.minCorner, childDim, oct), childDim)
	}
	if err := child.insert(p, targetDim, mergeAfterWrite, value); err != nil {
		return err
	}
	n.children[oct] = child
	n.setInternal()

	if mergeAfterWrite {
		n.simplify()
	}
	return nil
}

// get returns the value covering p. A leaf answers for its entire region at
// any depth; a missing child means the region was never written.
func (n *node[T]) get(p Vec3) (T, bool) {
	var zero T
	if !n.contains(p) {
		return zero, false
	}
	if n.isLeaf() {
		return n.value, true
	}
	child := n.children[octantFromPoint(n.midpoint(), p)]
	if child == nil {
		return zero, false
	}
	return child.get(p)
}

// clear writes def into the cell of side targetDim containing p, mirroring
// insert. At the splitting boundary the seven sibling octants keep the prior
// leaf value and only the target octant resets, so clearing one cell never
// discards the rest of a uniform region.
func (n *node[T]) clear(p Vec3, targetDim uint32, def T) error {
	if !n.contains(p) {
		return errors.Wrapf(ErrInvalidPosition, "position (%d, %d, %d)", p.X, p.Y, p.Z)
	}
	if n.dimension == targetDim {
		n.setLeaf(def)
		return nil
	}

	childDim := n.dimension / 2
	oct := octantFromPoint(n.midpoint(), p)
	wasLeaf := n.isLeaf()

	if wasLeaf && childDim == targetDim {
		prior := n.value
		for i := range n.children {
			corner := childMinCorner(n.minCorner, childDim, octant(i))
			if octant(i) == oct {
				n.children[i] = newLeafNode(corner, childDim, def)
			} else {
				n.children[i] = newLeafNode(corner, childDim, prior)
			}
		}
		n.setInternal()
		return nil
	}

	child := n.children[oct]
	if child == nil {
		child = newInternalNode[T](childMinCorner(n.minCorner, childDim, oct), childDim)
	}
	if err := child.clear(p, targetDim, def); err != nil {
		return err
	}
	if wasLeaf || childDim == targetDim {
		child.setLeaf(def)
	}
	n.children[oct] = child
	n.setInternal()
	return nil
}

// simplify merges the children into n when all eight slots hold leaves
// carrying one identical value. A node with any absent slot never simplifies:
// absence means "unwritten", not "default-valued", and conflating the two
// would invent data.
func (n *node[T]) simplify() bool {
	var merged T
	haveValue := false
	for _, child := range n.children {
		if child == nil || !child.isLeaf() {
			return false
		}
		if !haveValue {
			merged = child.value
			haveValue = true
		} else if child.value != merged {
			return false
		}
	}
	n.setLeaf(merged)
	return true
}

// simplifyTree compacts bottom-up, children first. Sparseness anywhere along a
// branch blocks compaction at every ancestor of that branch.
func (n *node[T]) simplifyTree() bool {
	for _, child := range n.children {
		if child == nil {
			return false
		}
		if !child.isLeaf() && !child.simplifyTree() {
			return false
		}
	}
	return n.simplify()
}

// lod collapses n into a leaf holding the most common value among its eight
// children, coarsening stored detail without changing the domain's addressing.
// The subtree must be fully dense: an absent slot aborts with no effect, as
// does a child whose own collapse was blocked deeper down. Ties break toward
// the lowest octant index so the outcome never depends on iteration order.
func (n *node[T]) lod() {
	for _, child := range n.children {
		if child == nil {
			return
		}
	}
	for _, child := range n.children {
		if !child.isLeaf() {
			child.lod()
		}
	}
	for _, child := range n.children {
		if !child.isLeaf() {
			return
		}
	}

	// Tally in first-seen order; a strict > comparison keeps the earliest
	// maximal entry, which is the lowest octant index.
	var (
		values   [numOctants]T
		counts   [numOctants]int
		distinct int
	)
	for _, child := range n.children {
		found := false
		for i := 0; i < distinct; i++ {
			if values[i] == child.value {
				counts[i]++
				found = true
				break
			}
		}
		if !found {
			values[distinct] = child.value
			counts[distinct] = 1
			distinct++
		}
	}
	best := 0
	for i := 1; i < distinct; i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	n.setLeaf(values[best])
}
