// Package filter provides the polyphase filter banks and pulse-shape design
// routines used by the symbol synchronizer.
package filter

import (
	"math"

	"github.com/tphakala/go-symsync/internal/mathutil"
)

// KaiserWindow generates a Kaiser window of the specified length and β parameter.
//
// The Kaiser window provides excellent control over the trade-off between
// main lobe width and sidelobe level in frequency domain.
//
// Parameters:
//
//	length: Number of samples in the window (should be odd for symmetric FIR)
//	beta: Kaiser β parameter (controls sidelobe attenuation)
//	      Typically 0-15, where higher values = more attenuation but wider main lobe
//
// The window is symmetric: w[i] = w[length-1-i], with a peak of 1.0 at the center.
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)

	// Special case for length 1
	if length == 1 {
		window[0] = sincCenterTap
		return window
	}

	// w[n] = I₀(β * sqrt(1 - ((n - α)/α)²)) / I₀(β)
	// where α = (N-1)/2 and N is the window length
	alpha := float64(length-1) / windowNormalizationFactor
	i0Beta := mathutil.BesselI0(beta)

	for n := range length {
		x := (float64(n) - alpha) / alpha
		arg := beta * math.Sqrt(math.Max(0, 1.0-x*x))
		window[n] = mathutil.BesselI0(arg) / i0Beta
	}

	return window
}

// kaiserNyquist designs a Kaiser-windowed sinc pulse with zero crossings at
// multiples of k samples. The window parameter is the attenuation a filter of
// this length can reach for a transition width of beta/k.
func kaiserNyquist(k, m int, beta, dt float64) []float64 {
	n := designLength(k, m)
	att := mathutil.AttenuationForLength(n, beta/float64(k))
	window := KaiserWindow(n, mathutil.KaiserBeta(att))

	h := make([]float64, n)
	for i := range n {
		z := symbolTime(i, k, m, dt)
		h[i] = sinc(z) * window[i]
	}
	return h
}

func sinc(x float64) float64 {
	if math.Abs(x) < sincZeroThreshold {
		return sincCenterTap
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}
