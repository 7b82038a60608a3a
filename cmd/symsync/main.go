// Command symsync synthesizes a pulse-shaped QPSK stream with a fixed
// timing offset, runs it through the symbol synchronizer and reports how
// the timing loop converged.
//
// Usage:
//
//	symsync -k 2 -bt 0.02 -offset -0.45
//	symsync -loop active-lag -snr 20 -debug symsync_debug.m
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/tphakala/simd/cpu"

	symsync "github.com/tphakala/go-symsync"
	"github.com/tphakala/go-symsync/internal/diag"
	"github.com/tphakala/go-symsync/internal/filter"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("symsync failed")
	}
}

func run() error {
	var (
		k        = flag.Int("k", defaultSamplesPerSymbol, "Input samples per symbol")
		npfb     = flag.Int("npfb", defaultNumFilters, "Number of polyphase filters")
		kOut     = flag.Int("kout", defaultOutputRate, "Output samples per symbol")
		m        = flag.Int("m", defaultDelay, "Filter delay in symbols")
		beta     = flag.Float64("beta", defaultExcessBandwidth, "Excess bandwidth factor")
		kindName = flag.String("filter", "rrc", "Prototype pulse: rrc, rc, gmsktx, kaiser")
		bt       = flag.Float64("bt", defaultBandwidth, "Loop bandwidth (0 freezes the loop)")
		loopName = flag.String("loop", "single-pole", "Loop filter: single-pole, active-lag")
		symbols  = flag.Int("symbols", defaultSymbols, "Number of symbols to generate")
		offset   = flag.Float64("offset", defaultTimingOffset, "Transmit timing offset in samples [-1, 1]")
		snr      = flag.Float64("snr", defaultSNR, "Signal-to-noise ratio in dB")
		seed     = flag.Uint64("seed", defaultSeed, "Random seed")
		debug    = flag.String("debug", "", "Write an Octave/MATLAB trace script to this path")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	kind, err := filter.ParseKind(*kindName)
	if err != nil {
		return err
	}
	loop, err := parseLoopFilter(*loopName)
	if err != nil {
		return err
	}

	recorder := diag.NewRecorder(diag.DefaultWindowLength, logrus.StandardLogger())
	cfg := &symsync.Config{
		SamplesPerSymbol: *k,
		NumFilters:       *npfb,
		OutputRate:       *kOut,
		Bandwidth:        *bt,
		FreezeLoop:       *bt == 0,
		LoopFilter:       loop,
		Observer:         recorder,
	}
	design := symsync.DesignSpec{Kind: kind, Delay: *m, ExcessBandwidth: *beta}

	s, err := symsync.NewRNyquist[complex64, float32](cfg, design)
	if err != nil {
		return err
	}

	info := s.Info()
	logrus.WithFields(logrus.Fields{
		"k":      info.SamplesPerSymbol,
		"k_out":  info.OutputRate,
		"npfb":   info.NumFilters,
		"h_len":  info.TapsPerBranch,
		"bt":     info.Bandwidth,
		"loop":   info.LoopFilter,
		"filter": kind,
		"simd":   cpu.Info(),
	}).Debug("Synchronizer created")

	input, err := generateQPSK(streamParams{
		samplesPerSymbol: *k,
		symbols:          *symbols,
		delay:            *m,
		excessBandwidth:  *beta,
		kind:             kind,
		timingOffset:     *offset,
		snr:              *snr,
		seed:             *seed,
	})
	if err != nil {
		return err
	}

	estimated := len(input)*info.OutputRate/info.SamplesPerSymbol + s.MaxOutputPerInput()
	output := s.Execute(input, make([]complex64, 0, estimated))

	// Decimate to one sample per symbol before measuring.
	symbolsOut := make([]complex64, 0, len(output)/info.OutputRate+1)
	for i := 0; i < len(output); i += info.OutputRate {
		symbolsOut = append(symbolsOut, output[i])
	}
	last := tail(symbolsOut, reportSymbols)

	fmt.Println(s)
	fmt.Printf("  Input samples:  %d\n", s.SamplesIn())
	fmt.Printf("  Output samples: %d\n", s.SamplesOut())
	fmt.Printf("  Final tau: %.4f, branch: %d (soft %.2f)\n", s.Tau(), s.BranchIndex(), s.SoftBranchIndex())
	fmt.Printf("  Filtered error: %+.5f\n", s.FilteredError())
	fmt.Printf("  Modulus error (last %d symbols): %.2f%%\n", len(last), modulusError(last)*100)

	if *debug != "" {
		if err := recorder.WriteScript(*debug, info); err != nil {
			// Diagnostics are best effort.
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	return nil
}
