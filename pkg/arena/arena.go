// Package arena turns a raw byte region into a pointer-chasing structure.
//
// The region is divided into cells spaced Stride bytes apart. Each cell holds
// a native-endian 32-bit offset of the next cell to visit. Geometry is checked
// once in New, and every cursor read back from memory is a bounds-checked
// index into the backing slice, never a raw address.
package arena

import (
	"encoding/binary"
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
	"github.com/pojntfx/test-tlb/pkg/errdefs"
)

const (
	// CellSize is the width of one stored offset.
	CellSize = 4

	// MinStride is the smallest stride that keeps cells from overlapping.
	MinStride = CellSize

	// MaxSize is the largest region whose offsets fit into a cell.
	MaxSize = math.MaxUint32 + 1
)

// ErrBrokenCycle is returned when the chain does not visit every cell exactly
// once before returning to offset 0.
var ErrBrokenCycle = errors.New("broken cycle")

// Cursor is the byte offset of a cell within the arena.
type Cursor uint32

type Arena struct {
	buf    []byte
	size   uint64
	stride uint64
	cells  int
}

// CheckGeometry reports whether size and stride describe a valid arena.
func CheckGeometry(size, stride uint64) error {
	switch {
	case stride < MinStride:
		return errors.Wrapf(errdefs.ErrInvalidArgument, "stride %v is smaller than %v", stride, MinStride)
	case size < stride:
		return errors.Wrapf(errdefs.ErrInvalidArgument, "size %v is smaller than stride %v", size, stride)
	case size > MaxSize:
		return errors.Wrapf(errdefs.ErrInvalidArgument, "size %v exceeds %v", size, uint64(MaxSize))
	}

	return nil
}

// New wraps the first size bytes of buf. It does not modify buf.
func New(buf []byte, size, stride uint64) (*Arena, error) {
	if err := CheckGeometry(size, stride); err != nil {
		return nil, err
	}

	if uint64(len(buf)) < size {
		return nil, errors.Wrapf(errdefs.ErrInvalidArgument, "buffer of %v bytes is smaller than size %v", len(buf), size)
	}

	return &Arena{
		buf:    buf[:size],
		size:   size,
		stride: stride,
		cells:  int(size / stride),
	}, nil
}

func (a *Arena) Size() uint64 {
	return a.size
}

func (a *Arena) Stride() uint64 {
	return a.stride
}

// Cells returns the number of cells, which is also the cycle length.
func (a *Arena) Cells() int {
	return a.cells
}

// Offset returns the cursor of the i-th cell in address order.
func (a *Arena) Offset(i int) Cursor {
	return Cursor(uint64(i) * a.stride)
}

// Next reads the cursor stored in the cell at c.
func (a *Arena) Next(c Cursor) Cursor {
	return Cursor(binary.NativeEndian.Uint32(a.buf[c:]))
}

func (a *Arena) set(c, next Cursor) {
	binary.NativeEndian.PutUint32(a.buf[c:], uint32(next))
}

// LinkSequential makes every cell point to the following one and the last
// cell point back to offset 0.
func (a *Arena) LinkSequential() {
	last := a.cells - 1
	for i := 0; i < last; i++ {
		a.set(a.Offset(i), a.Offset(i+1))
	}

	a.set(a.Offset(last), 0)
}

// Link stores order as a single cycle: order[i] points to order[i+1] and the
// last entry points to order[0]. order must be a permutation of the cell
// offsets; this is not checked here, see Verify.
func (a *Arena) Link(order []uint32) error {
	if len(order) != a.cells {
		return errors.Wrapf(errdefs.ErrInvalidArgument, "order has %v entries, want %v", len(order), a.cells)
	}

	for i := 0; i < len(order)-1; i++ {
		a.set(Cursor(order[i]), Cursor(order[i+1]))
	}

	a.set(Cursor(order[len(order)-1]), Cursor(order[0]))

	return nil
}

// Verify walks Cells hops from offset 0 and checks that every visited offset
// is a distinct cell and that the next hop returns to 0.
func (a *Arena) Verify() error {
	visited := bitset.New(uint(a.cells))

	c := Cursor(0)
	for hop := 0; hop < a.cells; hop++ {
		if uint64(c)%a.stride != 0 || uint64(c) >= uint64(a.cells)*a.stride {
			return errors.Wrapf(ErrBrokenCycle, "hop %v reached offset %v outside the cell set", hop, c)
		}

		i := uint(uint64(c) / a.stride)
		if visited.Test(i) {
			return errors.Wrapf(ErrBrokenCycle, "hop %v revisited offset %v", hop, c)
		}
		visited.Set(i)

		c = a.Next(c)
	}

	if c != 0 {
		return errors.Wrapf(ErrBrokenCycle, "chain ends at offset %v instead of 0 after %v hops", c, a.cells)
	}

	return nil
}
