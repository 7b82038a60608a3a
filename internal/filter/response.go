package filter

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// FilterResponse holds the frequency response of a filter.
type FilterResponse struct {
	// Frequencies at which response was calculated (normalized, 0 to 0.5)
	Frequencies []float64

	// Magnitude response at each frequency (linear scale)
	Magnitude []float64

	// Phase response at each frequency (radians)
	Phase []float64
}

// ComputeFrequencyResponse calculates the frequency response of a FIR filter
// at numPoints frequencies evenly spaced over [0, 0.5).
//
// The coefficients are zero-padded to a multiple of 2·numPoints and
// transformed with a real FFT; every stride-th bin is kept.
func ComputeFrequencyResponse(coeffs []float64, numPoints int) FilterResponse {
	if numPoints <= 0 {
		numPoints = defaultResponsePoints
	}

	base := responseSpan * numPoints
	size := base
	for size < len(coeffs) {
		size += base
	}
	stride := size / base

	padded := make([]float64, size)
	copy(padded, coeffs)
	spectrum := fourier.NewFFT(size).Coefficients(nil, padded)

	response := FilterResponse{
		Frequencies: make([]float64, numPoints),
		Magnitude:   make([]float64, numPoints),
		Phase:       make([]float64, numPoints),
	}
	for k := range numPoints {
		bin := spectrum[k*stride]
		response.Frequencies[k] = float64(k) / float64(base)
		response.Magnitude[k] = cmplx.Abs(bin)
		response.Phase[k] = cmplx.Phase(bin)
	}

	return response
}

// MagnitudeDB converts linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return dbMultiplier * math.Log10(magnitude)
}

// StopbandAttenuation returns the attenuation in dB of the strongest
// response component at or above edge (normalized frequency), relative to DC.
func StopbandAttenuation(resp FilterResponse, edge float64) float64 {
	if len(resp.Magnitude) == 0 {
		return 0
	}
	dc := resp.Magnitude[0]
	var peak float64
	for i, f := range resp.Frequencies {
		if f >= edge {
			peak = math.Max(peak, resp.Magnitude[i])
		}
	}
	return MagnitudeDB(dc) - MagnitudeDB(peak)
}

// PeakIndex returns the index of the largest coefficient.
func PeakIndex(coeffs []float64) int {
	if len(coeffs) == 0 {
		return -1
	}
	return floats.MaxIdx(coeffs)
}

// Energy returns Σ h².
func Energy(coeffs []float64) float64 {
	return floats.Dot(coeffs, coeffs)
}
