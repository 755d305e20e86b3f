package main

import (
	"flag"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/pojntfx/test-tlb/pkg/errdefs"
	"github.com/pojntfx/test-tlb/pkg/harness"
	"github.com/pojntfx/test-tlb/pkg/hwinfo"
	"github.com/pojntfx/test-tlb/pkg/pattern"
	"github.com/pojntfx/test-tlb/pkg/probe"
	"github.com/pojntfx/test-tlb/pkg/report"
	"github.com/pojntfx/test-tlb/pkg/units"
	"github.com/rs/zerolog"
)

const usage = "usage: test-tlb [-H] [-r] [-v] <size> <stride>"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, harness.DefaultAlarm()))
}

func run(args []string, stdout, stderr io.Writer, alarm harness.Alarm) int {
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}).
		Level(zerolog.WarnLevel).
		With().
		Timestamp().
		Logger()

	flags := flag.NewFlagSet("test-tlb", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	largePages := flags.Bool("H", false, "Whether to back the working set with large pages")
	randomize := flags.Bool("r", false, "Whether to visit the cells in a randomized order")
	verbose := flags.Bool("v", false, "Whether to enable verbose logging and verify the chain before every trial")

	if err := flags.Parse(args); err != nil {
		log.Error().Err(err).Msg(usage)

		return 1
	}

	if *verbose {
		log = log.Level(zerolog.DebugLevel)
	}

	config, err := parseConfig(flags.Args(), *largePages, *randomize)
	if err != nil {
		log.Error().Err(err).Msg(usage)

		return 1
	}

	hwinfo.LogCaches(log)

	res, err := probe.Run(config, &probe.Options{
		Rand:   pattern.NewSource(),
		Alarm:  alarm,
		Verify: *verbose,
		Logger: &log,
	})
	if err != nil {
		log.Error().Err(err).Msg("Could not measure latency")

		return 1
	}

	if err := report.Write(stdout, res.Best); err != nil {
		log.Error().Err(err).Msg("Could not write result")

		return 1
	}

	return 0
}

func parseConfig(args []string, largePages, randomize bool) (probe.Config, error) {
	if len(args) != 2 {
		return probe.Config{}, errors.Wrapf(errdefs.ErrInvalidArgument, "expected <size> <stride>, got %v arguments", len(args))
	}

	size, err := units.ParseSize(args[0])
	if err != nil {
		return probe.Config{}, errors.Wrap(err, "size")
	}

	stride, err := units.ParseSize(args[1])
	if err != nil {
		return probe.Config{}, errors.Wrap(err, "stride")
	}

	config := probe.Config{
		Size:       size,
		Stride:     stride,
		LargePages: largePages,
		Randomize:  randomize,
	}

	return config, config.Validate()
}
