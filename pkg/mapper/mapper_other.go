//go:build !linux

package mapper

// Without MAP_FIXED re-mapping the old pages are zeroed in place, so the
// virtual address stays stable but physical placement is reused.
func remapFixed(b []byte) error {
	clear(b)

	return nil
}

// Page size advice is Linux specific.
func advise(b []byte, a Advice) error {
	return nil
}
