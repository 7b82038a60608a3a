package simdops

import (
	"testing"

	"github.com/tphakala/simd/f32"
	"github.com/tphakala/simd/f64"
)

// BenchmarkDirectF64DotProduct measures direct SIMD call overhead.
func BenchmarkDirectF64DotProduct(b *testing.B) {
	a := make([]float64, 64)
	c := make([]float64, 64)
	for i := range a {
		a[i] = float64(i) * 0.01
		c[i] = float64(i) * 0.02
	}

	b.ReportAllocs()
	for b.Loop() {
		_ = f64.DotProductUnsafe(a, c)
	}
}

// BenchmarkIndirectF64DotProduct measures indirect call through Ops struct.
func BenchmarkIndirectF64DotProduct(b *testing.B) {
	ops := For[float64, float64]()
	a := make([]float64, 64)
	c := make([]float64, 64)
	for i := range a {
		a[i] = float64(i) * 0.01
		c[i] = float64(i) * 0.02
	}

	b.ReportAllocs()
	for b.Loop() {
		_ = ops.DotProductUnsafe(a, c)
	}
}

// BenchmarkDirectF32DotProduct measures direct SIMD call overhead.
func BenchmarkDirectF32DotProduct(b *testing.B) {
	a := make([]float32, 64)
	c := make([]float32, 64)
	for i := range a {
		a[i] = float32(i) * 0.01
		c[i] = float32(i) * 0.02
	}

	b.ReportAllocs()
	for b.Loop() {
		_ = f32.DotProductUnsafe(a, c)
	}
}

// BenchmarkComplex64DotProduct measures the scalar complex kernel used for I/Q streams.
func BenchmarkComplex64DotProduct(b *testing.B) {
	ops := For[complex64, float32]()
	a := make([]complex64, 64)
	c := make([]float32, 64)
	for i := range a {
		a[i] = complex(float32(i)*0.01, -float32(i)*0.01)
		c[i] = float32(i) * 0.02
	}

	b.ReportAllocs()
	for b.Loop() {
		_ = ops.DotProductUnsafe(a, c)
	}
}
