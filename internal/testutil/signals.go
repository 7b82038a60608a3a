package testutil

import (
	"math"
	"math/rand/v2"
)

// RandomSymbols returns n BPSK symbols (±1) drawn from a seeded source.
func RandomSymbols(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, n)
	for i := range out {
		if rng.IntN(2) == 0 {
			out[i] = -1
		} else {
			out[i] = 1
		}
	}
	return out
}

// GaussianNoise returns n zero-mean samples with the given standard deviation.
func GaussianNoise(n int, sigma float64, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, ^seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = sigma * rng.NormFloat64()
	}
	return out
}

// ShapeSymbols upsamples symbols by k and filters them with pulse.
// The result has len(symbols)·k samples; the pulse tail is truncated.
func ShapeSymbols(symbols, pulse []float64, k int) []float64 {
	out := make([]float64, len(symbols)*k)
	for s, sym := range symbols {
		base := s * k
		for n, h := range pulse {
			if base+n >= len(out) {
				break
			}
			out[base+n] += sym * h
		}
	}
	return out
}

// Sinusoid returns n samples of cos(2π·freq·i + phase); freq is in cycles per sample.
func Sinusoid(n int, freq, phase float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Cos(2*math.Pi*freq*float64(i) + phase)
	}
	return out
}

// Impulse returns a unit impulse followed by n-1 zeros.
func Impulse(n int) []float64 {
	out := make([]float64, max(n, 1))
	out[0] = 1
	return out
}

// ToComplex128 lifts a real signal onto the in-phase axis.
func ToComplex128(x []float64) []complex128 {
	out := make([]complex128, len(x))
	for i, v := range x {
		out[i] = complex(v, 0)
	}
	return out
}

// ToComplex64 lifts a real signal onto the in-phase axis at single precision.
func ToComplex64(x []float64) []complex64 {
	out := make([]complex64, len(x))
	for i, v := range x {
		out[i] = complex(float32(v), 0)
	}
	return out
}
