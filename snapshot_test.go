package octree

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestSnapshotLayout(t *testing.T) {
	logger := golog.NewTestLogger(t)

	t.Run("a single-leaf tree is one record", func(t *testing.T) {
		ot, err := New[uint8](8, 3, logger)
		test.That(t, err, test.ShouldBeNil)

		records := ot.Snapshot()
		test.That(t, records, test.ShouldHaveLength, 1)
		test.That(t, records[0].NodeType, test.ShouldEqual, LeafNode)
		test.That(t, records[0].Value, test.ShouldEqual, 3)
		test.That(t, records[0].Dimension, test.ShouldEqual, 8)
		test.That(t, records[0].Children, test.ShouldResemble, [numOctants]uint32{})
	})

	t.Run("children are linked by absolute index with 0 as the absent sentinel", func(t *testing.T) {
		ot, err := New[uint8](2, 0, logger)
		test.That(t, err, test.ShouldBeNil)
		err = ot.Set(Vec3{1, 1, 1}, 9)
		test.That(t, err, test.ShouldBeNil)

		records := ot.Snapshot()
		// Root plus the eight children materialized by the boundary split.
		test.That(t, records, test.ShouldHaveLength, 9)
		test.That(t, records[0].NodeType, test.ShouldEqual, InternalNode)
		for slot, childIndex := range records[0].Children {
			test.That(t, childIndex, test.ShouldEqual, slot+1)
		}

		target := records[records[0].Children[7]]
		test.That(t, target.NodeType, test.ShouldEqual, LeafNode)
		test.That(t, target.Value, test.ShouldEqual, 9)
		test.That(t, target.MinCorner, test.ShouldResemble, Vec3{X: 1, Y: 1, Z: 1})
		test.That(t, target.Dimension, test.ShouldEqual, 1)
	})

	t.Run("a sparse branch leaves sibling slots at the sentinel", func(t *testing.T) {
		ot, err := New[uint8](4, 0, logger)
		test.That(t, err, test.ShouldBeNil)
		err = ot.Set(Vec3{3, 3, 3}, 1)
		test.That(t, err, test.ShouldBeNil)

		records := ot.Snapshot()
		test.That(t, records, test.ShouldHaveLength, 3)
		for slot := 0; slot < numOctants-1; slot++ {
			test.That(t, records[0].Children[slot], test.ShouldEqual, 0)
		}
		test.That(t, records[0].Children[7], test.ShouldEqual, 1)
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	logger := golog.NewTestLogger(t)

	ot, err := New[uint8](8, 0, logger)
	test.That(t, err, test.ShouldBeNil)

	for x := uint32(0); x < 8; x++ {
		for y := uint32(0); y < 8; y++ {
			for z := uint32(0); z < 8; z++ {
				if (x+y+z)%3 == 0 {
					err := ot.Set(Vec3{x, y, z}, uint8(x*4+y*2+z))
					test.That(t, err, test.ShouldBeNil)
				}
			}
		}
	}
	err = ot.ClearAt(Vec3{3, 3, 3})
	test.That(t, err, test.ShouldBeNil)

	rebuilt, err := FromSnapshot(ot.Snapshot(), 0, logger)
	test.That(t, err, test.ShouldBeNil)

	for x := uint32(0); x < 8; x++ {
		for y := uint32(0); y < 8; y++ {
			for z := uint32(0); z < 8; z++ {
				wantV, wantOK := ot.At(x, y, z)
				gotV, gotOK := rebuilt.At(x, y, z)
				test.That(t, gotOK, test.ShouldEqual, wantOK)
				test.That(t, gotV, test.ShouldEqual, wantV)
			}
		}
	}

	test.That(t, rebuilt.Dimension(), test.ShouldEqual, ot.Dimension())
	test.That(t, rebuilt.MinDimension(), test.ShouldEqual, 1)
}

func TestFromSnapshotMalformed(t *testing.T) {
	logger := golog.NewTestLogger(t)

	leafRecord := func(v uint8) SnapshotNode[uint8] {
		return SnapshotNode[uint8]{NodeType: LeafNode, Value: v, Dimension: 1}
	}

	t.Run("empty record list", func(t *testing.T) {
		_, err := FromSnapshot([]SnapshotNode[uint8]{}, 0, logger)
		test.That(t, errors.Is(err, ErrMalformedTree), test.ShouldBeTrue)
	})

	t.Run("dangling child index", func(t *testing.T) {
		records := []SnapshotNode[uint8]{
			{NodeType: InternalNode, Dimension: 2, Children: [numOctants]uint32{0: 5}},
		}
		_, err := FromSnapshot(records, 0, logger)
		test.That(t, errors.Is(err, ErrMalformedTree), test.ShouldBeTrue)
	})

	t.Run("child index cycle", func(t *testing.T) {
		records := []SnapshotNode[uint8]{
			{NodeType: InternalNode, Dimension: 4, Children: [numOctants]uint32{0: 1}},
			{NodeType: InternalNode, Dimension: 2, Children: [numOctants]uint32{0: 2}},
			{NodeType: InternalNode, Dimension: 1, Children: [numOctants]uint32{0: 1}},
		}
		_, err := FromSnapshot(records, 0, logger)
		test.That(t, errors.Is(err, ErrMalformedTree), test.ShouldBeTrue)
	})

	t.Run("self-referencing record", func(t *testing.T) {
		records := []SnapshotNode[uint8]{
			{NodeType: InternalNode, Dimension: 2, Children: [numOctants]uint32{0: 1}},
			{NodeType: InternalNode, Dimension: 1, Children: [numOctants]uint32{0: 1}},
		}
		_, err := FromSnapshot(records, 0, logger)
		test.That(t, errors.Is(err, ErrMalformedTree), test.ShouldBeTrue)
	})

	t.Run("record claimed by two parents", func(t *testing.T) {
		records := []SnapshotNode[uint8]{
			{NodeType: InternalNode, Dimension: 4, Children: [numOctants]uint32{0: 1, 1: 2}},
			{NodeType: InternalNode, Dimension: 2, Children: [numOctants]uint32{0: 3}},
			{NodeType: InternalNode, Dimension: 2, Children: [numOctants]uint32{0: 3}},
			leafRecord(7),
		}
		_, err := FromSnapshot(records, 0, logger)
		test.That(t, errors.Is(err, ErrMalformedTree), test.ShouldBeTrue)
	})

	t.Run("record claimed twice by one parent", func(t *testing.T) {
		records := []SnapshotNode[uint8]{
			{NodeType: InternalNode, Dimension: 2, Children: [numOctants]uint32{0: 1, 1: 1}},
			leafRecord(7),
		}
		_, err := FromSnapshot(records, 0, logger)
		test.That(t, errors.Is(err, ErrMalformedTree), test.ShouldBeTrue)
	})

	t.Run("root dimension must be a power of two", func(t *testing.T) {
		records := []SnapshotNode[uint8]{
			{NodeType: LeafNode, Value: 1, Dimension: 12},
		}
		_, err := FromSnapshot(records, 0, logger)
		test.That(t, errors.Is(err, ErrInvalidDimension), test.ShouldBeTrue)
	})
}
