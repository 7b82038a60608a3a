package filter

import "math"

const (
	// Window normalization
	windowNormalizationFactor = 2.0

	// Sinc function constants
	sincCenterTap     = 1.0
	sincZeroThreshold = 1e-10

	// Raised-cosine singularity detection
	rrcZeroThreshold     = 1e-5
	rrcSingularThreshold = 1e-5
	rrcSingularScale     = 16.0
	rrcQuarterPi         = math.Pi / 4.0

	// GMSK transmit pulse
	gmskHalfSymbol = 0.5
	gmskTargetSum  = math.Pi / 2.0

	// Derivative filter scaling: dh is scaled by npfb/derivativeScaleDivisor
	derivativeScaleDivisor = 16.0

	// Design parameter bounds
	minDesignSamplesPerSymbol = 1
	minDesignDelay            = 1
	maxExcessBandwidth        = 1.0
	maxFractionalDelay        = 1.0

	// Frequency response
	defaultResponsePoints = 512
	responseSpan          = 2     // bins cover [0, 1), half are kept
	minMagnitude          = 1e-10 // Avoid log(0)
	dbMultiplier          = 20.0  // 20*log10 for magnitude
)
