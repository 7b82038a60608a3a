// Package symsync recovers symbol timing from an oversampled baseband stream.
//
// A synchronizer runs the input through a polyphase bank of matched filters
// and a matching bank of derivative filters. At every decimation boundary the
// product of the two outputs estimates the timing error, a loop filter
// smooths it, and the result steers which branch (fractional delay) the next
// output is interpolated from. The output is the matched-filtered stream
// resampled to a fixed number of samples per symbol, aligned to the symbol
// instants.
//
// # Features
//
//   - Generic over sample type (float32, float64, complex64, complex128)
//     and coefficient type (float32, float64)
//   - Root-Nyquist prototype design (RRC, RC, GMSK transmit, Kaiser)
//   - First-order and second-order (active lag) loop filters
//   - Lock and unlock of the timing loop with two selectable behaviors
//   - Optional SIMD acceleration (AVX2/NEON) via github.com/tphakala/simd
//   - Multi-channel groups with optional parallel processing
//   - Pure Go implementation with no CGO dependencies
//
// # Quick Start
//
// For one-shot recovery of a complex stream at 2 samples per symbol:
//
//	symbols, err := symsync.SynchronizeComplex(input, 2, symsync.DesignSpec{
//	    Kind:            symsync.FilterRRC,
//	    Delay:           3,
//	    ExcessBandwidth: 0.5,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For streaming with a reusable synchronizer:
//
//	s, err := symsync.NewRNyquist[complex64, float32](&symsync.Config{
//	    SamplesPerSymbol: 2,
//	    NumFilters:       32,
//	    Bandwidth:        0.02,
//	}, symsync.DesignSpec{Kind: symsync.FilterRRC, Delay: 3, ExcessBandwidth: 0.5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	buf := make([]complex64, 0, 1024)
//	for chunk := range chunks {
//	    buf = s.Execute(chunk, buf[:0])
//	    consume(buf)
//	}
//
// # Output Scaling
//
// Matched-filter outputs are divided by the input samples per symbol, so a
// prototype with unit energy per sample yields unit-scale symbols.
//
// # Loop Bandwidth
//
// Config.Bandwidth (bt) trades acquisition speed for jitter. Values around
// 0.01 to 0.05 suit most links; zero in Config selects DefaultBandwidth,
// while SetBandwidth(0) freezes the loop at its current state.
//
// # Thread Safety
//
// A Synchronizer is not safe for concurrent use. A Group may process its
// channels concurrently because each channel owns its state.
package symsync
