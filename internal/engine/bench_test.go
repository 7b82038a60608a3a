package engine

import (
	"testing"

	"github.com/tphakala/go-symsync/internal/testutil"
)

// BenchmarkStep_Complex64 benchmarks per-sample stepping at k=2, npfb=32.
func BenchmarkStep_Complex64(b *testing.B) {
	h := toFloat32(rrcPrototype(b, testK, testNPFB, testM, testBeta))
	s, err := New[complex64](Params{SamplesPerSymbol: testK, NumFilters: testNPFB}, h)
	if err != nil {
		b.Fatal(err)
	}

	input := testutil.ToComplex64(testutil.GaussianNoise(4096, 1, 1))
	out := make([]complex64, 0, len(input)*s.MaxOutputPerInput())

	b.ResetTimer()
	for b.Loop() {
		out = s.Execute(input, out[:0])
	}
}

// BenchmarkStep_Float64 benchmarks the real-valued path.
func BenchmarkStep_Float64(b *testing.B) {
	h := rrcPrototype(b, testK, testNPFB, testM, testBeta)
	s, err := New[float64](Params{SamplesPerSymbol: testK, NumFilters: testNPFB}, h)
	if err != nil {
		b.Fatal(err)
	}

	input := testutil.GaussianNoise(4096, 1, 1)
	out := make([]float64, 0, len(input)*s.MaxOutputPerInput())

	b.ResetTimer()
	for b.Loop() {
		out = s.Execute(input, out[:0])
	}
}

// BenchmarkStep_ActiveLag benchmarks the second-order loop filter.
func BenchmarkStep_ActiveLag(b *testing.B) {
	h := rrcPrototype(b, 4, testNPFB, testM, testBeta)
	s, err := New[complex128](Params{SamplesPerSymbol: 4, NumFilters: testNPFB, LoopFilter: LoopActiveLag}, h)
	if err != nil {
		b.Fatal(err)
	}

	input := bpskStream(1024, 4, 3)
	out := make([]complex128, 0, len(input)*s.MaxOutputPerInput())

	b.ResetTimer()
	for b.Loop() {
		out = s.Execute(input, out[:0])
	}
}
