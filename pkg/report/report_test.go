package report

import (
	"bytes"
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBest(t *testing.T) {
	latencies := []float64{3.5, 1.25, 7, 1.5, 2}

	best := Best(latencies)

	assert.Equal(t, 1.25, best)
	for _, l := range latencies {
		assert.LessOrEqual(t, best, l)
	}
}

func TestBest_Empty(t *testing.T) {
	assert.True(t, math.IsInf(Best(nil), 1))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "  1.00ns (~3.9 cycles)\n", Format(1, NominalGHz))
	assert.Equal(t, " 12.35ns (~24.7 cycles)\n", Format(12.346, 2))
	assert.Equal(t, "123.46ns (~123.5 cycles)\n", Format(123.456, 1))
}

func TestWrite(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, Write(&out, 0.8))

	assert.Regexp(t, regexp.MustCompile(`^\s*\d+\.\d{2}ns \(~\d+\.\d cycles\)\n$`), out.String())
}
