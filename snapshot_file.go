package octree

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// Binary snapshot wire format, all integers big-endian:
//
//	count:uint32, then per record:
//	tag:uint8 (0 = internal, 1 = leaf), value bytes if leaf,
//	min corner x,y,z:uint32, dimension:uint32, child indices [8]uint32
//
// Value bytes are delegated to a ValueCoder so the record framing stays
// independent of the value type.

const (
	tagInternal = uint8(0)
	tagLeaf     = uint8(1)
)

// recordFieldCount is min corner (3) + dimension (1) + child indices (8).
const recordFieldCount = 12

// ValueCoder encodes and decodes values of type T for the binary snapshot
// format. Encode and Decode must agree on a self-delimiting layout.
type ValueCoder[T any] interface {
	Encode(w io.Writer, value T) error
	Decode(r io.Reader) (T, error)
}

// BinaryCoder is a ValueCoder for fixed-size types (integers, floats, and
// arrays or structs of them) backed by encoding/binary in big-endian order.
type BinaryCoder[T any] struct{}

// Encode writes value to w in big-endian order.
func (BinaryCoder[T]) Encode(w io.Writer, value T) error {
	return binary.Write(w, binary.BigEndian, value)
}

// Decode reads one value from r.
func (BinaryCoder[T]) Decode(r io.Reader) (T, error) {
	var value T
	err := binary.Read(r, binary.BigEndian, &value)
	return value, err
}

// WriteSnapshot flattens tree and writes it to w in the binary snapshot
// format. The format is a point-in-time copy; it carries no level-of-detail
// bookkeeping.
func WriteSnapshot[T comparable](w io.Writer, tree Octree[T], coder ValueCoder[T]) error {
	records := tree.Snapshot()
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.BigEndian, uint32(len(records))); err != nil {
		return errors.Wrap(err, "writing record count")
	}
	for i, rec := range records {
		tag := tagInternal
		if rec.NodeType == LeafNode {
			tag = tagLeaf
		}
		if err := binary.Write(bw, binary.BigEndian, tag); err != nil {
			return errors.Wrapf(err, "writing record %d", i)
		}
		if rec.NodeType == LeafNode {
			if err := coder.Encode(bw, rec.Value); err != nil {
				return errors.Wrapf(err, "encoding value of record %d", i)
			}
		}
		fields := make([]uint32, 0, recordFieldCount)
		fields = append(fields, rec.MinCorner.X, rec.MinCorner.Y, rec.MinCorner.Z, rec.Dimension)
		fields = append(fields, rec.Children[:]...)
		if err := binary.Write(bw, binary.BigEndian, fields); err != nil {
			return errors.Wrapf(err, "writing record %d", i)
		}
	}
	return bw.Flush()
}

// ReadSnapshot parses the binary snapshot format from r and rebuilds the tree.
func ReadSnapshot[T comparable](r io.Reader, coder ValueCoder[T], defaultValue T, logger golog.Logger) (Octree[T], error) {
	br := bufio.NewReader(r)
	var count uint32
	if err := binary.Read(br, binary.BigEndian, &count); err != nil {
		return nil, errors.Wrap(err, "reading record count")
	}

	// The count is untrusted input; cap the preallocation and let a short
	// stream fail record by record instead.
	initialCap := int(count)
	if initialCap > 4096 {
		initialCap = 4096
	}
	records := make([]SnapshotNode[T], 0, initialCap)
	for i := uint32(0); i < count; i++ {
		var tag uint8
		if err := binary.Read(br, binary.BigEndian, &tag); err != nil {
			return nil, errors.Wrapf(err, "reading record %d", i)
		}
		var rec SnapshotNode[T]
		switch tag {
		case tagInternal:
			rec.NodeType = InternalNode
		case tagLeaf:
			rec.NodeType = LeafNode
			value, err := coder.Decode(br)
			if err != nil {
				return nil, errors.Wrapf(err, "decoding value of record %d", i)
			}
			rec.Value = value
		default:
			return nil, errors.Wrapf(ErrMalformedTree, "record %d: unknown tag %d", i, tag)
		}
		var fields [recordFieldCount]uint32
		if err := binary.Read(br, binary.BigEndian, &fields); err != nil {
			return nil, errors.Wrapf(err, "reading record %d", i)
		}
		rec.MinCorner = Vec3{X: fields[0], Y: fields[1], Z: fields[2]}
		rec.Dimension = fields[3]
		copy(rec.Children[:], fields[4:])
		records = append(records, rec)
	}
	return FromSnapshot(records, defaultValue, logger)
}

// WriteSnapshotFile writes the tree's snapshot to the named file.
func WriteSnapshotFile[T comparable](fn string, tree Octree[T], coder ValueCoder[T]) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return WriteSnapshot(f, tree, coder)
}

// ReadSnapshotFile rebuilds a tree from the named snapshot file.
func ReadSnapshotFile[T comparable](fn string, coder ValueCoder[T], defaultValue T, logger golog.Logger) (Octree[T], error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return ReadSnapshot(f, coder, defaultValue, logger)
}
