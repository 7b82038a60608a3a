// Package simdops provides the numeric kernels the synchronizer needs for each
// supported pairing of sample type and coefficient type.
//
// Real samples paired with coefficients of the same precision are delegated to
// the SIMD dot products in github.com/tphakala/simd. Mixed precision and
// complex samples use scalar loops that accumulate in float64.
//
// With Profile-Guided Optimization (Go 1.22+), function pointer calls in hot paths
// can be devirtualized and inlined, achieving near-zero overhead.
package simdops

import (
	"fmt"
	"math/cmplx"

	"github.com/tphakala/simd/f32"
	"github.com/tphakala/simd/f64"
)

// Float is the type constraint for filter coefficients.
type Float interface {
	float32 | float64
}

// Sample is the type constraint for input and output samples.
type Sample interface {
	float32 | float64 | complex64 | complex128
}

// Ops provides the kernels for sample type S filtered by coefficients of type C.
// Function pointers allow type-safe generic code while delegating
// to optimized type-specific implementations.
type Ops[S Sample, C Float] struct {
	// DotProductUnsafe computes Σ history[i]*coeffs[i] without bounds checking.
	// Use only when slices are guaranteed to have equal length.
	DotProductUnsafe func(history []S, coeffs []C) S

	// Scale multiplies a sample by a real scalar.
	Scale func(x S, s float64) S

	// ErrorSignal returns Re(conj(mf)*dmf). For real samples this is mf*dmf.
	ErrorSignal func(mf, dmf S) float64

	// Magnitude returns |x|.
	Magnitude func(x S) float64

	// Complex reports whether S is a complex type.
	Complex bool
}

// Pre-instantiated operations for each type pairing.
// These are package-level variables to avoid repeated allocation.
var (
	opsF32F32 = Ops[float32, float32]{
		DotProductUnsafe: f32.DotProductUnsafe,
		Scale:            scaleReal[float32],
		ErrorSignal:      errorReal[float32],
		Magnitude:        magnitudeReal[float32],
	}
	opsF32F64 = Ops[float32, float64]{
		DotProductUnsafe: dotMixed[float32, float64],
		Scale:            scaleReal[float32],
		ErrorSignal:      errorReal[float32],
		Magnitude:        magnitudeReal[float32],
	}
	opsF64F32 = Ops[float64, float32]{
		DotProductUnsafe: dotMixed[float64, float32],
		Scale:            scaleReal[float64],
		ErrorSignal:      errorReal[float64],
		Magnitude:        magnitudeReal[float64],
	}
	opsF64F64 = Ops[float64, float64]{
		DotProductUnsafe: f64.DotProductUnsafe,
		Scale:            scaleReal[float64],
		ErrorSignal:      errorReal[float64],
		Magnitude:        magnitudeReal[float64],
	}
	opsC64F32 = Ops[complex64, float32]{
		DotProductUnsafe: dotComplex64[float32],
		Scale:            scaleComplex64,
		ErrorSignal:      errorComplex64,
		Magnitude:        magnitudeComplex64,
		Complex:          true,
	}
	opsC64F64 = Ops[complex64, float64]{
		DotProductUnsafe: dotComplex64[float64],
		Scale:            scaleComplex64,
		ErrorSignal:      errorComplex64,
		Magnitude:        magnitudeComplex64,
		Complex:          true,
	}
	opsC128F32 = Ops[complex128, float32]{
		DotProductUnsafe: dotComplex128[float32],
		Scale:            scaleComplex128,
		ErrorSignal:      errorComplex128,
		Magnitude:        magnitudeComplex128,
		Complex:          true,
	}
	opsC128F64 = Ops[complex128, float64]{
		DotProductUnsafe: dotComplex128[float64],
		Scale:            scaleComplex128,
		ErrorSignal:      errorComplex128,
		Magnitude:        magnitudeComplex128,
		Complex:          true,
	}
)

// For returns the Ops instance for the pairing (S, C).
// The type switch happens at instantiation time, not in hot paths.
func For[S Sample, C Float]() *Ops[S, C] {
	var (
		zeroS S
		zeroC C
	)
	var ops any
	switch any(zeroS).(type) {
	case float32:
		ops = pick(zeroC, &opsF32F32, &opsF32F64)
	case float64:
		ops = pick(zeroC, &opsF64F32, &opsF64F64)
	case complex64:
		ops = pick(zeroC, &opsC64F32, &opsC64F64)
	case complex128:
		ops = pick(zeroC, &opsC128F32, &opsC128F64)
	}
	typed, ok := ops.(*Ops[S, C])
	if !ok {
		panic(fmt.Sprintf("simdops: unsupported type pairing %T/%T", zeroS, zeroC))
	}
	return typed
}

// pick selects between the float32 and float64 coefficient variants.
func pick[C Float](zero C, f32Ops, f64Ops any) any {
	if _, ok := any(zero).(float32); ok {
		return f32Ops
	}
	return f64Ops
}

func dotMixed[S, C Float](history []S, coeffs []C) S {
	var acc float64
	for i, h := range history {
		acc += float64(h) * float64(coeffs[i])
	}
	return S(acc)
}

func dotComplex64[C Float](history []complex64, coeffs []C) complex64 {
	var re, im float64
	for i, h := range history {
		c := float64(coeffs[i])
		re += float64(real(h)) * c
		im += float64(imag(h)) * c
	}
	return complex(float32(re), float32(im))
}

func dotComplex128[C Float](history []complex128, coeffs []C) complex128 {
	var re, im float64
	for i, h := range history {
		c := float64(coeffs[i])
		re += real(h) * c
		im += imag(h) * c
	}
	return complex(re, im)
}

func scaleReal[S Float](x S, s float64) S {
	return x * S(s)
}

func scaleComplex64(x complex64, s float64) complex64 {
	return x * complex(float32(s), 0)
}

func scaleComplex128(x complex128, s float64) complex128 {
	return x * complex(s, 0)
}

func errorReal[S Float](mf, dmf S) float64 {
	return float64(mf) * float64(dmf)
}

// Re(conj(a)*b) = Re(a)Re(b) + Im(a)Im(b)
func errorComplex64(mf, dmf complex64) float64 {
	return float64(real(mf))*float64(real(dmf)) + float64(imag(mf))*float64(imag(dmf))
}

func errorComplex128(mf, dmf complex128) float64 {
	return real(mf)*real(dmf) + imag(mf)*imag(dmf)
}

func magnitudeReal[S Float](x S) float64 {
	if x < 0 {
		return -float64(x)
	}
	return float64(x)
}

func magnitudeComplex64(x complex64) float64 {
	return magnitudeComplex128(complex128(x))
}

func magnitudeComplex128(x complex128) float64 {
	return cmplx.Abs(x)
}
