// Package units parses the size and stride arguments of the latency probe.
package units

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
	"github.com/pojntfx/test-tlb/pkg/errdefs"
)

// ParseSize parses an unsigned integer in decimal, hexadecimal (0x) or octal
// (leading 0) notation followed by at most one binary unit suffix:
// k/K (KiB), m/M (MiB) or g/G (GiB). Zero and values that do not fit into 64
// bits are rejected.
func ParseSize(s string) (uint64, error) {
	if s == "" {
		return 0, errors.Wrap(errdefs.ErrInvalidArgument, "empty number")
	}

	base, start := detectBase(s)

	end := start
	for end < len(s) && isDigit(s[end], base) {
		end++
	}

	// A bare "0x" or leading "0" is the number zero followed by the rest.
	digits := s[start:end]
	if digits == "" {
		if start == 0 {
			return 0, errors.Wrapf(errdefs.ErrInvalidArgument, "invalid number: %q", s)
		}

		base, digits, end = 10, "0", 1
	}

	// Every byte is a digit of base, so only a range error is possible
	val, err := strconv.ParseUint(digits, base, 64)
	if err != nil || val == math.MaxUint64 {
		return 0, errors.Wrapf(errdefs.ErrInvalidArgument, "number out of range: %q", s)
	}

	if val == 0 {
		return 0, errors.Wrapf(errdefs.ErrInvalidArgument, "invalid number: %q", s)
	}

	rest := s[end:]
	if rest == "" {
		return val, nil
	}

	if len(rest) > 1 {
		return 0, errors.Wrapf(errdefs.ErrInvalidArgument, "invalid suffix: %q", rest)
	}

	var shift uint
	switch rest[0] {
	case 'k', 'K':
		shift = 10
	case 'm', 'M':
		shift = 20
	case 'g', 'G':
		shift = 30
	default:
		return 0, errors.Wrapf(errdefs.ErrInvalidArgument, "invalid suffix: %q", rest)
	}

	if val > math.MaxUint64>>shift {
		return 0, errors.Wrapf(errdefs.ErrInvalidArgument, "number out of range: %q", s)
	}

	return val << shift, nil
}

func detectBase(s string) (int, int) {
	if len(s) > 1 && s[0] == '0' {
		if s[1] == 'x' || s[1] == 'X' {
			return 16, 2
		}

		return 8, 1
	}

	return 10, 0
}

func isDigit(c byte, base int) bool {
	switch base {
	case 16:
		return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
	case 8:
		return '0' <= c && c <= '7'
	default:
		return '0' <= c && c <= '9'
	}
}
