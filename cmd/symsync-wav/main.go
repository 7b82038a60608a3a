// Command symsync-wav recovers symbol timing from baseband recorded in a WAV file.
//
// A stereo file is read as an I/Q pair (left = I, right = Q) and processed as
// one complex stream. Mono files, multichannel files and stereo files run with
// -real are processed as independent real-valued channels. The output WAV
// holds the matched-filtered stream at -kout samples per symbol.
//
// Usage:
//
//	symsync-wav -k 4 capture_iq.wav symbols.wav
//	symsync-wav -k 8 -kout 2 -bt 0.01 -loop active-lag capture.wav out.wav
//	symsync-wav -k 4 -real -parallel=false pam.wav out.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tphakala/simd/cpu"

	symsync "github.com/tphakala/go-symsync"
	"github.com/tphakala/go-symsync/internal/diag"
	"github.com/tphakala/go-symsync/internal/filter"
)

// options holds the parsed command line.
type options struct {
	samplesPerSymbol int
	numFilters       int
	outputRate       int
	delay            int
	excessBandwidth  float64
	kind             filter.Kind
	bandwidth        float64
	loop             symsync.LoopFilterKind
	forceReal        bool
	parallel         bool
	debugPath        string
	verbose          bool
}

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("symsync-wav failed")
	}
}

func run() error {
	k := flag.Int("k", defaultSamplesPerSymbol, "Input samples per symbol")
	npfb := flag.Int("npfb", defaultNumFilters, "Number of polyphase filters")
	kOut := flag.Int("kout", defaultOutputRate, "Output samples per symbol")
	m := flag.Int("m", defaultDelay, "Filter delay in symbols")
	beta := flag.Float64("beta", defaultExcessBandwidth, "Excess bandwidth factor")
	kindName := flag.String("filter", "rrc", "Prototype pulse: rrc, rc, gmsktx, kaiser")
	bt := flag.Float64("bt", defaultBandwidth, "Loop bandwidth (0 freezes the loop)")
	loopName := flag.String("loop", "single-pole", "Loop filter: single-pole, active-lag")
	fast := flag.Bool("fast", false, "Use float32 precision")
	forceReal := flag.Bool("real", false, "Treat a stereo file as two real channels instead of I/Q")
	parallel := flag.Bool("parallel", true, "Process real-valued channels concurrently")
	debugPath := flag.String("debug", "", "Write an Octave/MATLAB trace script for the first stream")
	verbose := flag.Bool("v", false, "Verbose output")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file (for PGO)")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return fmt.Errorf("insufficient arguments")
	}

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	kind, err := filter.ParseKind(*kindName)
	if err != nil {
		return err
	}
	loop, err := parseLoopFilter(*loopName)
	if err != nil {
		return err
	}

	opts := options{
		samplesPerSymbol: *k,
		numFilters:       *npfb,
		outputRate:       *kOut,
		delay:            *m,
		excessBandwidth:  *beta,
		kind:             kind,
		bandwidth:        *bt,
		loop:             loop,
		forceReal:        *forceReal,
		parallel:         *parallel,
		debugPath:        *debugPath,
		verbose:          *verbose,
	}

	inputPath, outputPath := args[0], args[1]
	logrus.WithFields(logrus.Fields{
		"input":  inputPath,
		"output": outputPath,
		"fast":   *fast,
		"simd":   cpu.Info(),
	}).Debug("Starting")

	start := time.Now()
	var stats *processStats
	if *fast {
		stats, err = processWAV[float32, complex64](inputPath, outputPath, opts)
	} else {
		stats, err = processWAV[float64, complex128](inputPath, outputPath, opts)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Synchronized %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  %d Hz -> %d Hz (%d channels, %d-bit, %s)\n",
		stats.inputRate, stats.outputRate, stats.channels, stats.bitDepth, stats.mode)
	fmt.Printf("  %d samples -> %d samples\n", stats.inputSamples, stats.outputSamples)
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
		elapsed.Seconds(),
		float64(stats.inputSamples)/float64(stats.inputRate)/elapsed.Seconds())

	return nil
}

type processStats struct {
	inputRate     int
	outputRate    int
	channels      int
	bitDepth      int
	mode          string
	inputSamples  int64
	outputSamples int64
}

func parseLoopFilter(s string) (symsync.LoopFilterKind, error) {
	switch s {
	case "single-pole", "single":
		return symsync.LoopSinglePole, nil
	case "active-lag", "pll":
		return symsync.LoopActiveLag, nil
	default:
		return 0, fmt.Errorf("unknown loop filter %q", s)
	}
}

// outputSampleRate returns the WAV rate of a stream resampled from k to kOut
// samples per symbol.
func outputSampleRate(inputRate, k, kOut int) int {
	return int(math.Round(float64(inputRate) * float64(kOut) / float64(k)))
}

func processWAV[F Float, X complex64 | complex128](inputPath, outputPath string, opts options) (stats *processStats, err error) {
	// 1. Open and validate input
	input, err := openWAVInput(inputPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	// 2. Create processor
	var recorder *diag.Recorder
	cfg := &symsync.Config{
		SamplesPerSymbol: opts.samplesPerSymbol,
		NumFilters:       opts.numFilters,
		OutputRate:       opts.outputRate,
		Bandwidth:        opts.bandwidth,
		FreezeLoop:       opts.bandwidth == 0,
		LoopFilter:       opts.loop,
		Channels:         input.channels,
		EnableParallel:   opts.parallel,
	}
	if opts.debugPath != "" {
		recorder = diag.NewRecorder(diag.DefaultWindowLength, logrus.StandardLogger())
		cfg.Observer = recorder
	}
	design := symsync.DesignSpec{Kind: opts.kind, Delay: opts.delay, ExcessBandwidth: opts.excessBandwidth}

	var (
		proc channelProcessor[F]
		info symsync.Info
		mode string
	)
	if input.channels == stereoChannels && !opts.forceReal {
		iq, err := newIQProcessor[F, X](cfg, design)
		if err != nil {
			return nil, err
		}
		proc, info, mode = iq, iq.sync.Info(), "I/Q"
	} else {
		rp, err := newRealProcessor[F](cfg, design)
		if err != nil {
			return nil, err
		}
		proc, info, mode = rp, rp.group.Channel(0).Info(), "real"
	}

	// 3. Create output writer
	outputRate := outputSampleRate(input.rate, opts.samplesPerSymbol, info.OutputRate)
	output, err := createWAVOutput(outputPath, outputRate, input.bitDepth, input.channels)
	if err != nil {
		return nil, err
	}
	// WAV header sizes are patched on close.
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	// 4. Initialize processing buffers
	buffers := newProcessBuffers[F](input.channels, input.bitDepth, input.format)
	aligner := newFrameAligner[F](input.channels)

	stats = &processStats{
		inputRate:  input.rate,
		outputRate: outputRate,
		channels:   input.channels,
		bitDepth:   input.bitDepth,
		mode:       mode,
	}
	progress := newProgressTracker(input.totalSamples, opts.verbose)

	write := func(frames [][]F) error {
		buffers.outputIntBuf = interleaveInto(frames, buffers.outputIntBuf, buffers.maxVal)
		if len(buffers.outputIntBuf) == 0 {
			return nil
		}
		stats.outputSamples += int64(len(frames[0]))
		return output.WriteSamples(buffers.outputIntBuf)
	}

	// 5. Main processing loop
	for {
		n, err := input.decoder.PCMBuffer(buffers.intBuffer)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
		if n == 0 {
			break
		}

		// PCMBuffer reports interleaved values; convert to frames.
		frames := n / input.channels
		buffers.intBuffer.Data = buffers.intBuffer.Data[:frames*input.channels]
		stats.inputSamples += int64(frames)

		deinterleaveInto(buffers.intBuffer.Data, buffers.channelBufs, input.channels, frames, buffers.invMaxVal)

		out, err := proc.process(buffers.channelBufs, frames)
		if err != nil {
			return nil, err
		}
		if err := write(aligner.push(out)); err != nil {
			return nil, fmt.Errorf("failed to write audio data: %w", err)
		}

		progress.reportIfNeeded(stats.inputSamples)

		buffers.intBuffer.Data = buffers.intBuffer.Data[:cap(buffers.intBuffer.Data)]
	}

	// 6. Write whatever is left on uneven channels
	if err := write(aligner.flush()); err != nil {
		return nil, fmt.Errorf("failed to write flushed data: %w", err)
	}

	if recorder != nil {
		// Diagnostics are best effort; failures are logged by the recorder.
		_ = recorder.WriteScript(opts.debugPath, info)
	}

	return stats, nil
}
