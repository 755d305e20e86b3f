package units

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/pojntfx/test-tlb/pkg/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"4", 4},
		{"4096", 4096},
		{"16k", 16384},
		{"16K", 16384},
		{"2M", 2097152},
		{"2m", 2097152},
		{"1G", 1073741824},
		{"1g", 1073741824},
		{"0x40", 64},
		{"0X10k", 16384},
		{"010", 8},
		{"4294967296", 1 << 32},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSize_Rejects(t *testing.T) {
	for _, in := range []string{
		"",
		"0",
		"00",
		"0k",
		"0x",
		"123x",
		"1kk",
		"k",
		"-1",
		" 1",
		"18446744073709551615",
		"18446744073709551616",
		"17179869184G",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSize(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errdefs.ErrInvalidArgument), "unexpected error class: %v", err)
		})
	}
}

func TestParseSize_SuffixInMessage(t *testing.T) {
	_, err := ParseSize("123x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid suffix: "x"`)
}
