package main

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"

	symsync "github.com/tphakala/go-symsync"
	"github.com/tphakala/go-symsync/internal/filter"
)

// streamParams describes the synthetic test transmission.
type streamParams struct {
	samplesPerSymbol int
	symbols          int
	delay            int
	excessBandwidth  float64
	kind             filter.Kind
	timingOffset     float64 // fractional sample delay applied by the transmit pulse
	snr              float64 // Es/N0 in dB
	seed             uint64
}

// generateQPSK produces pulse-shaped QPSK at samplesPerSymbol with a fixed
// fractional timing offset and complex Gaussian noise.
func generateQPSK(p streamParams) ([]complex64, error) {
	pulse, err := filter.Design(p.kind, p.samplesPerSymbol, p.delay, p.excessBandwidth, p.timingOffset)
	if err != nil {
		return nil, fmt.Errorf("failed to design transmit pulse: %w", err)
	}

	rng := rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15))
	k := p.samplesPerSymbol
	out := make([]complex128, p.symbols*k+len(pulse))
	for n := range p.symbols {
		phase := float64(rng.IntN(qpskPoints))*math.Pi/2 + math.Pi/4
		sym := cmplx.Rect(1, phase)
		for i, h := range pulse {
			out[n*k+i] += sym * complex(h, 0)
		}
	}

	// Es per sample is ~1/k after shaping with a unit-energy-per-sample pulse.
	sigma := math.Sqrt(0.5 / math.Pow(10, p.snr/dbScale))
	result := make([]complex64, len(out))
	for i, v := range out {
		noise := complex(rng.NormFloat64()*sigma, rng.NormFloat64()*sigma)
		result[i] = complex64(v + noise)
	}
	return result, nil
}

// modulusError returns std(|y|)/mean(|y|), which is zero for QPSK sampled
// at the symbol instants without noise.
func modulusError(y []complex64) float64 {
	if len(y) == 0 {
		return math.NaN()
	}
	var sum, sumSq float64
	for _, v := range y {
		m := cmplx.Abs(complex128(v))
		sum += m
		sumSq += m * m
	}
	n := float64(len(y))
	mean := sum / n
	variance := max(sumSq/n-mean*mean, 0)
	return math.Sqrt(variance) / mean
}

// tail returns the last n elements of x (all of x if shorter).
func tail[T any](x []T, n int) []T {
	return x[max(len(x)-n, 0):]
}

// parseLoopFilter maps a flag value to a loop filter kind.
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
