package symsync

import (
	"testing"

	"github.com/tphakala/go-symsync/internal/testutil"
)

// BenchmarkGroupSequential benchmarks sequential multi-channel processing.
func BenchmarkGroupSequential(b *testing.B) {
	benchmarkGroup(b, false)
}

// BenchmarkGroupParallel benchmarks parallel multi-channel processing.
func BenchmarkGroupParallel(b *testing.B) {
	benchmarkGroup(b, true)
}

func benchmarkGroup(b *testing.B, parallel bool) {
	b.Helper()

	const (
		channels   = 4
		numSamples = 32768
	)

	g, err := NewGroupRNyquist[complex64, float32](&Config{
		SamplesPerSymbol: 2,
		NumFilters:       DefaultNumFilters,
		Channels:         channels,
		EnableParallel:   parallel,
	}, defaultDesign)
	if err != nil {
		b.Fatalf("Failed to create group: %v", err)
	}

	input := make([][]complex64, channels)
	for ch := range channels {
		input[ch] = testutil.ToComplex64(testutil.GaussianNoise(numSamples, 1, uint64(ch+1)))
	}

	b.ResetTimer()
	for b.Loop() {
		if _, err := g.Execute(input); err != nil {
			b.Fatal(err)
		}
	}
}
