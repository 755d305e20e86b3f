// Package mapper reserves the private anonymous memory a latency trial runs
// over and seeds it with the sequential chain.
package mapper

import (
	"fmt"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"github.com/pojntfx/test-tlb/pkg/arena"
	"github.com/pojntfx/test-tlb/pkg/errdefs"
	"github.com/rs/zerolog"
)

// Advice is the page-size hint given to the kernel for a region.
type Advice int

const (
	// AdviceBasePages keeps transparent huge pages away from the region.
	AdviceBasePages Advice = iota
	// AdviceLargePages asks for transparent huge pages.
	AdviceLargePages
)

func (a Advice) String() string {
	if a == AdviceLargePages {
		return "large-pages"
	}

	return "base-pages"
}

// Request describes an aligned allocation.
type Request struct {
	Size   uint64
	Stride uint64

	// Align is the boundary the usable range starts on. Zero means the
	// platform's base page, which every mapping already satisfies.
	Align  uint64
	Advice Advice
}

func (r Request) reservationSize() uint64 {
	if r.Align == 0 {
		return r.Size
	}

	return r.Size + 2*r.Align
}

// Region is an opaque handle to a mapped, seeded working set.
type Region struct {
	req         Request
	reservation mmap.MMap
	data        []byte
	arena       *arena.Arena
}

// Map returns a region of at least req.Size bytes whose cells form the
// sequential chain. If prev was created for the same request, its
// reservation is replaced in place so the working set keeps its virtual
// address across trials; otherwise prev is released and a new reservation
// is made.
func Map(prev *Region, req Request, log zerolog.Logger) (*Region, error) {
	if req.Align != 0 && req.Align&(req.Align-1) != 0 {
		return nil, errors.Wrapf(errdefs.ErrInvalidArgument, "alignment %v is not a power of two", req.Align)
	}

	if err := arena.CheckGeometry(req.Size, req.Stride); err != nil {
		return nil, err
	}

	if prev != nil && prev.req != req {
		if err := prev.Close(); err != nil {
			return nil, err
		}

		prev = nil
	}

	r := prev
	if r == nil {
		reservation, err := mmap.MapRegion(nil, int(req.reservationSize()), mmap.COPY, mmap.ANON, 0)
		if err != nil {
			return nil, errors.Wrapf(errdefs.ErrResourceExhaustion, "could not map %v: %v", humanize.IBytes(req.reservationSize()), err)
		}

		r = &Region{
			req:         req,
			reservation: reservation,
		}

		start := uint64(0)
		if req.Align != 0 {
			start = alignUp(r.base(), req.Align) - r.base()
		}
		r.data = r.reservation[start : start+req.Size]
	} else if err := remapFixed(r.reservation); err != nil {
		return nil, errors.Wrapf(errdefs.ErrResourceExhaustion, "could not remap %v at %#x: %v", humanize.IBytes(req.reservationSize()), r.base(), err)
	}

	if err := advise(r.advisedRange(), req.Advice); err != nil {
		log.Warn().Err(err).Str("advice", req.Advice.String()).Msg("Kernel rejected page size advice")
	}

	a, err := arena.New(r.data, req.Size, req.Stride)
	if err != nil {
		_ = r.Close()

		return nil, err
	}
	a.LinkSequential()
	r.arena = a

	log.Debug().
		Str("addr", r.String()).
		Str("size", humanize.IBytes(req.Size)).
		Str("reserved", humanize.IBytes(req.reservationSize())).
		Str("advice", req.Advice.String()).
		Bool("reused", prev != nil).
		Msg("Mapped working set")

	return r, nil
}

// advisedRange is the part of the reservation the page size hint covers: the
// usable range rounded up to a whole number of aligned units, or the whole
// reservation when no alignment was requested.
func (r *Region) advisedRange() []byte {
	if r.req.Align == 0 {
		return r.reservation
	}

	start := r.Addr() - r.base()

	return r.reservation[start : start+alignUp(r.req.Size, r.req.Align)]
}

func (r *Region) base() uint64 {
	return uint64(uintptr(unsafe.Pointer(&r.reservation[0])))
}

// Addr returns the virtual address of the first cell.
func (r *Region) Addr() uint64 {
	return uint64(uintptr(unsafe.Pointer(&r.data[0])))
}

func (r *Region) String() string {
	return fmt.Sprintf("%#x", r.Addr())
}

// Arena returns the chain stored in the region.
func (r *Region) Arena() *arena.Arena {
	return r.arena
}

// Close releases the reservation. The region must not be used afterwards.
func (r *Region) Close() error {
	if r.reservation == nil {
		return nil
	}

	if err := r.reservation.Unmap(); err != nil {
		return err
	}

	r.reservation, r.data, r.arena = nil, nil, nil

	return nil
}

func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
