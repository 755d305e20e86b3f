package mapper

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// remapFixed replaces b with fresh zeroed anonymous memory at the same
// virtual address.
func remapFixed(b []byte) error {
	_, err := unix.MmapPtr(
		-1,
		0,
		unsafe.Pointer(&b[0]),
		uintptr(len(b)),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_FIXED,
	)

	return err
}

func advise(b []byte, a Advice) error {
	if a == AdviceLargePages {
		return unix.Madvise(b, unix.MADV_HUGEPAGE)
	}

	return unix.Madvise(b, unix.MADV_NOHUGEPAGE)
}
