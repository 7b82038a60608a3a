// Command analyze-filter prints the polyphase prototype a synchronizer
// would be built from: per-branch DC gain of the matched and derivative
// banks and the prototype's magnitude response.
package main

import (
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tphakala/go-symsync/internal/filter"
)

const (
	defaultSamplesPerSymbol = 2
	defaultNumFilters       = 32
	defaultDelay            = 3
	defaultExcessBandwidth  = 0.5
	defaultResponsePoints   = 512

	// Display limits
	maxBranchesToShow = 8
	responseRows      = 16
)

func main() {
	var (
		kindName = flag.String("filter", "rrc", "Prototype pulse: rrc, rc, gmsktx, kaiser")
		k        = flag.Int("k", defaultSamplesPerSymbol, "Samples per symbol")
		npfb     = flag.Int("npfb", defaultNumFilters, "Number of polyphase filters")
		m        = flag.Int("m", defaultDelay, "Filter delay in symbols")
		beta     = flag.Float64("beta", defaultExcessBandwidth, "Excess bandwidth factor")
		points   = flag.Int("points", defaultResponsePoints, "Frequency response points")
	)
	flag.Parse()

	if err := analyze(*kindName, *k, *npfb, *m, *beta, *points); err != nil {
		logrus.WithError(err).Fatal("analysis failed")
	}
}

func analyze(kindName string, k, npfb, m int, beta float64, points int) error {
	kind, err := filter.ParseKind(kindName)
	if err != nil {
		return err
	}

	h, err := filter.Design(kind, k*npfb, m, beta, 0)
	if err != nil {
		return err
	}
	dh := filter.DerivativeCoefficients(h, npfb)
	hLen := (len(h) - 1) / npfb

	mf, err := filter.NewBank[float64](npfb, h, hLen)
	if err != nil {
		return err
	}
	dmf, err := filter.NewBank[float64](npfb, dh, hLen)
	if err != nil {
		return err
	}

	fmt.Println("=== Analyzing Prototype Filter ===")
	fmt.Printf("  Kind: %s, k=%d, npfb=%d, m=%d, beta=%.3f\n", kind, k, npfb, m, beta)
	fmt.Printf("  Prototype length: %d taps (%d per branch)\n", len(h), hLen)
	fmt.Printf("  Peak tap: %d, energy: %.4f\n\n", filter.PeakIndex(h), filter.Energy(h))

	fmt.Println("DC gain per branch (matched / derivative):")
	branches := branchesToShow(npfb)
	var mfTotal float64
	for i := range npfb {
		mfGain := sum(mf.Branch(i))
		mfTotal += mfGain
		if _, ok := branches[i]; ok {
			fmt.Printf("  Branch %3d: %9.5f / %+9.5f\n", i, mfGain, sum(dmf.Branch(i)))
		}
	}
	fmt.Printf("  Mean matched DC gain: %.5f (output scale 1/k gives %.5f)\n\n",
		mfTotal/float64(npfb), mfTotal/float64(npfb)/float64(k))

	resp := filter.ComputeFrequencyResponse(h, points)
	// Pulse band edge, (1+β)/2 cycles per symbol at k·npfb samples per symbol.
	edge := (1 + beta) / (2 * float64(k*npfb))
	fmt.Printf("Stopband attenuation above %.5f: %.1f dB\n\n", edge, filter.StopbandAttenuation(resp, edge))

	fmt.Println("Magnitude response (prototype rate):")
	step := max(len(resp.Frequencies)/(npfb*responseRows), 1)
	for i := 0; i < len(resp.Frequencies) && i/step < responseRows; i += step {
		fmt.Printf("  f=%.5f  %8.2f dB\n", resp.Frequencies[i], filter.MagnitudeDB(resp.Magnitude[i]/resp.Magnitude[0]))
	}

	return nil
}

// branchesToShow picks the first branches and a few around the middle of the bank.
func branchesToShow(npfb int) map[int]struct{} {
	show := make(map[int]struct{})
	for i := range min(maxBranchesToShow/2, npfb) {
		show[i] = struct{}{}
	}
	mid := npfb / 2
	for i := max(mid-maxBranchesToShow/4, 0); i < min(mid+maxBranchesToShow/4, npfb); i++ {
		show[i] = struct{}{}
	}
	show[npfb-1] = struct{}{}
	return show
}

func sum(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}
	return s
}
