// Package report formats the result line.
package report

import (
	"fmt"
	"io"
	"math"
)

// NominalGHz converts nanoseconds into an approximate cycle count. It is a
// fixed figure, not a measured clock.
const NominalGHz = 3.9

// Best returns the smallest latency, or +Inf if there are none. Noise only
// ever inflates a trial, so the minimum is the closest to the hardware.
func Best(latencies []float64) float64 {
	best := math.Inf(1)
	for _, l := range latencies {
		if l < best {
			best = l
		}
	}

	return best
}

// Format renders latency in nanoseconds and the cycle estimate as one line.
func Format(latency, ghz float64) string {
	return fmt.Sprintf("%6.2fns (~%.1f cycles)\n", latency, latency*ghz)
}

func Write(w io.Writer, latency float64) error {
	_, err := io.WriteString(w, Format(latency, NominalGHz))

	return err
}
