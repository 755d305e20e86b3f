// Package pattern replaces the sequential chain with a randomized one so the
// hardware prefetcher cannot predict the next cell.
package pattern

import (
	"math/rand/v2"
	"time"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"github.com/pojntfx/test-tlb/pkg/arena"
	"github.com/pojntfx/test-tlb/pkg/errdefs"
)

// NewSource returns a generator seeded from the wall clock, meant to be
// created once per process.
func NewSource() *rand.Rand {
	now := uint64(time.Now().UnixNano())

	return rand.New(rand.NewPCG(now, now>>32))
}

// Randomize links every cell of a into one cycle in shuffled order.
func Randomize(a *arena.Arena, rng *rand.Rand) error {
	n := a.Cells()

	// One spare entry, so a scratch buffer is never empty
	scratchSize := (n + 1) * arena.CellSize

	scratch, err := mmap.MapRegion(nil, scratchSize, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return errors.Wrapf(errdefs.ErrResourceExhaustion, "could not allocate %v scratch buffer: %v", humanize.IBytes(uint64(scratchSize)), err)
	}
	defer scratch.Unmap()

	order := unsafe.Slice((*uint32)(unsafe.Pointer(&scratch[0])), n+1)[:n]
	for i := range order {
		order[i] = uint32(a.Offset(i))
	}

	Shuffle(order, rng)

	return a.Link(order)
}

// Shuffle permutes order in place with an unbiased Fisher-Yates shuffle.
func Shuffle(order []uint32, rng *rand.Rand) {
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
}
