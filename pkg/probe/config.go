package probe

import (
	"github.com/pojntfx/test-tlb/pkg/arena"
)

// Config selects what a run measures.
type Config struct {
	Size       uint64
	Stride     uint64
	LargePages bool
	Randomize  bool
}

// Validate rejects configurations that cannot form a chain. It is called
// before any memory is mapped.
func (c Config) Validate() error {
	return arena.CheckGeometry(c.Size, c.Stride)
}
