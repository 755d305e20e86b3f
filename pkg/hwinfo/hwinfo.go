// Package hwinfo reports host facts that explain where latency steps appear.
package hwinfo

import (
	"github.com/dustin/go-humanize"
	"github.com/klauspost/cpuid/v2"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/mem"
)

// DefaultLargePageSize is used when the host does not report a huge page size.
const DefaultLargePageSize = 2 * 1024 * 1024

// LargePageSize returns the host's default huge page size in bytes.
func LargePageSize() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil || !isPowerOfTwo(vm.HugePageSize) {
		return DefaultLargePageSize
	}

	return vm.HugePageSize
}

func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// LogCaches writes the CPU's cache hierarchy to log at debug level.
func LogCaches(log zerolog.Logger) {
	log.Debug().
		Str("cpu", cpuid.CPU.BrandName).
		Str("l1d", cacheSize(cpuid.CPU.Cache.L1D)).
		Str("l2", cacheSize(cpuid.CPU.Cache.L2)).
		Str("l3", cacheSize(cpuid.CPU.Cache.L3)).
		Int("line", cpuid.CPU.CacheLine).
		Msg("Detected cache hierarchy")
}

func cacheSize(n int) string {
	if n <= 0 {
		return "unknown"
	}

	return humanize.IBytes(uint64(n))
}
