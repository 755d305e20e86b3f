// Package harness times a pointer chase over an arena.
//
// A run goes through four states. WARMUP walks one full lap from offset 0 to
// pre-fault the mapping and estimate the lap cost. CALIBRATE derives the
// measurement window from that estimate and arms the alarm. MEASURE chases
// pointers until the alarm sets the stop flag. DONE converts the elapsed time
// into nanoseconds per access.
package harness

import (
	"time"

	"github.com/pkg/errors"
	"github.com/pojntfx/test-tlb/pkg/arena"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	DefaultMinWindow        = 200 * time.Millisecond
	DefaultWindowMultiplier = 5
)

type State int

const (
	StateWarmup State = iota
	StateCalibrate
	StateMeasure
	StateDone
)

func (s State) String() string {
	switch s {
	case StateWarmup:
		return "WARMUP"
	case StateCalibrate:
		return "CALIBRATE"
	case StateMeasure:
		return "MEASURE"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Sink receives the cell read after the measurement loop so the chase has an
// observable result.
var Sink arena.Cursor

type Options struct {
	Alarm            Alarm
	MinWindow        time.Duration
	WindowMultiplier int
	Logger           *zerolog.Logger
}

type Measurement struct {
	Warmup   time.Duration
	Window   time.Duration
	Elapsed  time.Duration
	Accesses uint64

	// Latency is in nanoseconds per access.
	Latency float64
}

type Harness struct {
	alarm      Alarm
	minWindow  time.Duration
	multiplier int
	log        zerolog.Logger
}

func New(options *Options) *Harness {
	if options == nil {
		options = &Options{}
	}

	h := &Harness{
		alarm:      options.Alarm,
		minWindow:  options.MinWindow,
		multiplier: options.WindowMultiplier,
		log:        zerolog.Nop(),
	}

	if h.alarm == nil {
		h.alarm = DefaultAlarm()
	}

	if h.minWindow <= 0 {
		h.minWindow = DefaultMinWindow
	}

	if h.multiplier <= 0 {
		h.multiplier = DefaultWindowMultiplier
	}

	if options.Logger != nil {
		h.log = *options.Logger
	}

	return h
}

// Window returns the measurement window for a warm-up lap of the given
// duration.
func (h *Harness) Window(warmup time.Duration) time.Duration {
	return max(warmup*time.Duration(h.multiplier), h.minWindow)
}

// Run measures a once. The arena must hold a single cycle through offset 0.
func (h *Harness) Run(a *arena.Arena) (Measurement, error) {
	m := Measurement{}

	h.enter(StateWarmup)

	warmup, err := Warmup(a)
	if err != nil {
		return m, err
	}
	m.Warmup = warmup

	h.enter(StateCalibrate)

	m.Window = h.Window(warmup)

	stop := atomic.NewBool(false)
	if err := h.alarm.Arm(m.Window, stop); err != nil {
		return m, err
	}
	defer h.alarm.Disarm()

	h.enter(StateMeasure)

	var (
		count uint64
		c     arena.Cursor
	)

	before := time.Now()
	for {
		count++
		c = a.Next(c)

		if stop.Load() {
			break
		}
	}
	m.Elapsed = time.Since(before)

	Sink = a.Next(c)

	h.enter(StateDone)

	m.Accesses = count
	m.Latency = float64(m.Elapsed.Nanoseconds()) / float64(count)

	h.log.Debug().
		Dur("warmup", m.Warmup).
		Dur("window", m.Window).
		Dur("elapsed", m.Elapsed).
		Uint64("accesses", m.Accesses).
		Float64("latency_ns", m.Latency).
		Msg("Measured trial")

	return m, nil
}

func (h *Harness) enter(s State) {
	h.log.Debug().Stringer("state", s).Msg("Entering state")
}

// Warmup follows the chain from offset 0 until it reads 0 again and returns
// the time the lap took. It fails if the lap is not exactly Cells hops long.
func Warmup(a *arena.Arena) (time.Duration, error) {
	var (
		hops  int
		c     arena.Cursor
		limit = a.Cells()
	)

	before := time.Now()
	for {
		c = a.Next(c)
		hops++

		if c == 0 || hops > limit {
			break
		}
	}
	elapsed := time.Since(before)

	if hops != limit {
		return elapsed, errors.Wrapf(arena.ErrBrokenCycle, "lap from offset 0 took %v hops, want %v", hops, limit)
	}

	return elapsed, nil
}
