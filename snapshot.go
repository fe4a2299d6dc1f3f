package octree

import (
	"math/bits"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// SnapshotNode is one record of a flattened octree. Records are index-linked:
// each child slot holds the absolute index of the child's record within the
// snapshot, with 0 marking an absent child. Index 0 always holds the root,
// which can never be anyone's child, so the sentinel is unambiguous.
type SnapshotNode[T comparable] struct {
	NodeType  NodeType
	Value     T
	MinCorner Vec3
	Dimension uint32
	Children  [numOctants]uint32
}

// Snapshot flattens the tree breadth-first. The root becomes record 0 and each
// present child is appended to the end of the working list, so a record's
// child indices always point forward.
func (ot *basicOctree[T]) Snapshot() []SnapshotNode[T] {
	pending := []*node[T]{ot.root}
	records := make([]SnapshotNode[T], 0, 1)
	for next := 0; next < len(pending); next++ {
		n := pending[next]
		rec := SnapshotNode[T]{
			NodeType:  n.nodeType,
			MinCorner: n.minCorner,
			Dimension: n.dimension,
		}
		if n.isLeaf() {
			rec.Value = n.value
		}
		for slot, child := range n.children {
			if child == nil {
				continue
			}
			pending = append(pending, child)
			rec.Children[slot] = uint32(len(pending) - 1)
		}
		records = append(records, rec)
	}
	return records
}

// FromSnapshot rebuilds an octree from a flattened record list. The rebuilt
// tree starts at level-of-detail 1 with every cell addressable; records beyond
// those reachable from the root are ignored.
func FromSnapshot[T comparable](records []SnapshotNode[T], defaultValue T, logger golog.Logger) (Octree[T], error) {
	root, err := rebuildTree(records)
	if err != nil {
		return nil, err
	}
	if bits.OnesCount32(root.dimension) != 1 {
		return nil, errors.Wrapf(ErrInvalidDimension, "snapshot root dimension %d", root.dimension)
	}
	return &basicOctree[T]{
		logger:       logger,
		root:         root,
		dimension:    root.dimension,
		defaultValue: defaultValue,
		currLODLevel: 1,
		maxLODLevel:  maxLODLevelFor(root.dimension),
		minDimension: 1,
	}, nil
}

// rebuildFrame is one pending construction: the record at index will be
// attached into slot of the record at parent once all of its own children have
// been constructed.
type rebuildFrame struct {
	index  int
	parent int
	slot   int
}

// rebuildTree materializes a node tree from records using an explicit work
// stack, post-order. Snapshot depth is caller-controlled, so native recursion
// here would risk stack exhaustion. A node shell is claimed when its frame is
// pushed and attached into its parent's slot when popped, so each record is
// moved exactly once; dangling indices, cycles, and records referenced by two
// parents all fail with ErrMalformedTree rather than looping or aliasing
// nodes.
func rebuildTree[T comparable](records []SnapshotNode[T]) (*node[T], error) {
	if len(records) == 0 {
		return nil, errors.Wrap(ErrMalformedTree, "empty record list")
	}

	built := make([]*node[T], len(records))
	claimed := make([]bool, len(records))
	done := make([]bool, len(records))
	claimant := make([]int, len(records))
	claimantSlot := make([]int, len(records))

	stack := []rebuildFrame{{index: 0}}
	claimed[0] = true
	built[0] = &node[T]{}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		rec := &records[top.index]

		// Descend into the first child that has not been constructed yet.
		pushed := false
		for slot, childIndex := range rec.Children {
			if childIndex == 0 {
				continue
			}
			if int(childIndex) >= len(records) {
				return nil, errors.Wrapf(ErrMalformedTree,
					"record %d: child index %d out of range", top.index, childIndex)
			}
			if done[childIndex] {
				// Only the exact (parent, slot) pair that claimed the child
				// may see it again; a second slot of the same parent is as
				// malformed as a second parent.
				if claimant[childIndex] != top.index || claimantSlot[childIndex] != slot {
					return nil, errors.Wrapf(ErrMalformedTree,
						"record %d: child %d already claimed by record %d",
						top.index, childIndex, claimant[childIndex])
				}
				continue
			}
			if claimed[childIndex] {
				// Still on the stack beneath us: the index graph loops.
				return nil, errors.Wrapf(ErrMalformedTree,
					"child index cycle through record %d", childIndex)
			}
			claimed[childIndex] = true
			claimant[childIndex] = top.index
			claimantSlot[childIndex] = slot
			built[childIndex] = &node[T]{}
			stack = append(stack, rebuildFrame{index: int(childIndex), parent: top.index, slot: slot})
			pushed = true
			break
		}
		if pushed {
			continue
		}

		// All children are constructed and already attached below us: fill
		// this node from its record, attach it into the parent's child slot,
		// and clear its working entry.
		n := built[top.index]
		n.nodeType = rec.NodeType
		n.minCorner = rec.MinCorner
		n.dimension = rec.Dimension
		if rec.NodeType == LeafNode {
			n.value = rec.Value
		}
		done[top.index] = true
		if top.index != 0 {
			oct, err := octantFromIndex(top.slot)
			if err != nil {
				return nil, err
			}
			built[top.parent].children[oct] = n
			built[top.index] = nil
		}
		stack = stack[:len(stack)-1]
	}

	return built[0], nil
}
