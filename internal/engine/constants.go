package engine

// Construction limits
const (
	// minSamplesPerSymbol is the smallest input oversampling the detector can work with.
	minSamplesPerSymbol = 2

	// minOutputRate is the smallest number of output samples per symbol.
	minOutputRate = 1
)

// Loop filter constants
const (
	// DefaultBandwidth is the loop bandwidth applied at construction.
	DefaultBandwidth = 0.01

	// Single-pole smoother: alpha = 1 - bt, beta = singlePoleGain * bt
	singlePoleGain = 0.22

	// Active-lag PLL tuning: natural frequency = activeLagBandwidthScale * bt
	activeLagBandwidthScale = 0.5
	activeLagDamping        = 1.1
	activeLagGain           = 1000.0

	// Biquad sizes
	biquadOrder = 3
)

// Timing error and step constants
const (
	// errorClip bounds the detector output to [-errorClip, errorClip].
	errorClip = 1.0

	// minStepFraction floors the interpolation step at this fraction of the nominal step.
	minStepFraction = 0.5

	// Output bound slack: the phase may start half a branch below zero and
	// leave the loop half a branch above one symbol.
	branchSlack = 1.5
)
