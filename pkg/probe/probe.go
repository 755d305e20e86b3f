// Package probe runs repeated latency trials over a mapped working set.
package probe

import (
	"math/rand/v2"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pojntfx/test-tlb/pkg/harness"
	"github.com/pojntfx/test-tlb/pkg/hwinfo"
	"github.com/pojntfx/test-tlb/pkg/mapper"
	"github.com/pojntfx/test-tlb/pkg/pattern"
	"github.com/pojntfx/test-tlb/pkg/report"
	"github.com/rs/zerolog"
)

const DefaultTrials = 5

type Options struct {
	Trials int

	// LargePageSize is the alignment used with Config.LargePages. Zero
	// means the host's huge page size.
	LargePageSize uint64

	// Rand drives the shuffle when Config.Randomize is set.
	Rand *rand.Rand

	Alarm            harness.Alarm
	MinWindow        time.Duration
	WindowMultiplier int

	// Verify walks the whole chain before every trial.
	Verify bool

	Logger *zerolog.Logger
}

type Result struct {
	Trials []harness.Measurement

	// Best is the lowest latency over all trials in nanoseconds.
	Best float64
}

// Run validates config and measures it Trials times, re-mapping the working
// set and, if enabled, re-shuffling it before each trial. The working set
// keeps its virtual address across trials.
func Run(config Config, options *Options) (Result, error) {
	if options == nil {
		options = &Options{}
	}

	log := zerolog.Nop()
	if options.Logger != nil {
		log = *options.Logger
	}

	if err := config.Validate(); err != nil {
		return Result{}, err
	}

	trials := options.Trials
	if trials <= 0 {
		trials = DefaultTrials
	}

	rng := options.Rand
	if config.Randomize && rng == nil {
		rng = pattern.NewSource()
	}

	req := mapper.Request{
		Size:   config.Size,
		Stride: config.Stride,
		Advice: mapper.AdviceBasePages,
	}
	if config.LargePages {
		req.Align = options.LargePageSize
		if req.Align == 0 {
			req.Align = hwinfo.LargePageSize()
		}
		req.Advice = mapper.AdviceLargePages
	}

	log.Debug().
		Str("size", humanize.IBytes(config.Size)).
		Str("stride", humanize.IBytes(config.Stride)).
		Int("cells", int(config.Size/config.Stride)).
		Bool("large_pages", config.LargePages).
		Bool("randomize", config.Randomize).
		Int("trials", trials).
		Msg("Starting latency run")

	h := harness.New(&harness.Options{
		Alarm:            options.Alarm,
		MinWindow:        options.MinWindow,
		WindowMultiplier: options.WindowMultiplier,
		Logger:           &log,
	})

	var region *mapper.Region
	defer func() {
		if region != nil {
			_ = region.Close()
		}
	}()

	res := Result{
		Trials: make([]harness.Measurement, 0, trials),
	}
	latencies := make([]float64, 0, trials)
	for i := 0; i < trials; i++ {
		next, err := mapper.Map(region, req, log)
		if err != nil {
			return res, err
		}
		region = next

		a := region.Arena()
		if config.Randomize {
			if err := pattern.Randomize(a, rng); err != nil {
				return res, err
			}
		}

		if options.Verify {
			if err := a.Verify(); err != nil {
				return res, err
			}
		}

		m, err := h.Run(a)
		if err != nil {
			return res, err
		}

		log.Debug().Int("trial", i).Float64("latency_ns", m.Latency).Msg("Completed trial")

		res.Trials = append(res.Trials, m)
		latencies = append(latencies, m.Latency)
	}

	res.Best = report.Best(latencies)

	return res, nil
}
