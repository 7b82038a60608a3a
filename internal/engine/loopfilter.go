package engine

import (
	"fmt"
	"math"
)

// LoopFilterKind selects the loop filter used by the synchronizer.
type LoopFilterKind int

const (
	// LoopSinglePole is a first-order exponential smoother of the timing error.
	LoopSinglePole LoopFilterKind = iota
	// LoopActiveLag is a second-order active-lag PLL filter.
	LoopActiveLag
)

// String returns the loop filter name.
func (k LoopFilterKind) String() string {
	switch k {
	case LoopSinglePole:
		return "single-pole"
	case LoopActiveLag:
		return "active-lag"
	default:
		return fmt.Sprintf("LoopFilterKind(%d)", int(k))
	}
}

// LoopFilter turns clipped timing errors into a correction of the
// interpolation step: del = k/k_out + Filter(q).
type LoopFilter interface {
	// Filter consumes one timing error and returns the new step correction.
	Filter(q float64) float64

	// SetBandwidth re-tunes the filter; bt must be in [0, 1].
	SetBandwidth(bt float64) error

	// Output returns the last step correction (q_hat).
	Output() float64

	// Memory returns the filter's feedback state (q_prime).
	Memory() float64

	// Reset clears the filter state, keeping its tuning.
	Reset()

	Kind() LoopFilterKind
}

// NewLoopFilter creates a loop filter of the given kind tuned to bt.
func NewLoopFilter(kind LoopFilterKind, bt float64) (LoopFilter, error) {
	var lf LoopFilter
	switch kind {
	case LoopSinglePole:
		lf = &SinglePole{}
	case LoopActiveLag:
		lf = &ActiveLag{}
	default:
		return nil, fmt.Errorf("unknown loop filter kind %d", int(kind))
	}
	if err := lf.SetBandwidth(bt); err != nil {
		return nil, err
	}
	return lf, nil
}

func validateBandwidth(bt float64) error {
	if math.IsNaN(bt) || bt < 0 || bt > 1 {
		return fmt.Errorf("loop bandwidth %f out of range [0, 1]", bt)
	}
	return nil
}

// SinglePole retains alpha of the previous estimate and beta of the new error:
//
//	q_hat = q·beta + q_prime·alpha, q_prime = q_hat
type SinglePole struct {
	alpha  float64
	beta   float64
	qHat   float64
	qPrime float64
}

func (f *SinglePole) Filter(q float64) float64 {
	f.qHat = q*f.beta + f.qPrime*f.alpha
	f.qPrime = f.qHat
	return f.qHat
}

func (f *SinglePole) SetBandwidth(bt float64) error {
	if err := validateBandwidth(bt); err != nil {
		return err
	}
	f.alpha = 1 - bt
	f.beta = singlePoleGain * bt
	return nil
}

func (f *SinglePole) Output() float64 { return f.qHat }
func (f *SinglePole) Memory() float64 { return f.qPrime }

func (f *SinglePole) Reset() {
	f.qHat = 0
	f.qPrime = 0
}

func (f *SinglePole) Kind() LoopFilterKind { return LoopSinglePole }

// Coefficients returns (alpha, beta).
func (f *SinglePole) Coefficients() (alpha, beta float64) {
	return f.alpha, f.beta
}

// ActiveLag is a second-order active-lag PLL loop filter run as a single
// normalized biquad in direct form II transposed.
//
// The biquad includes the oscillator integrator, so its output is a phase
// estimate; the step correction is the change of that estimate between
// decimation boundaries.
type ActiveLag struct {
	b [biquadOrder]float64
	a [biquadOrder]float64

	// direct form II transposed state
	v1 float64
	v2 float64

	phase float64
	qHat  float64
}

// ActiveLagCoefficients designs the active-lag PLL filter for natural
// frequency wn, damping zeta and loop gain gain. The coefficients are
// normalized so that a[0] == 1.
//
//	t1 = K/wn², t2 = 2ζ/wn − 1/K
//	b = [2K(1+t2/2), 4K, 2K(1−t2/2)]
//	a = [1+t1/2, −t1, −1+t1/2]
//
// wn == 0 yields a filter with zero output.
func ActiveLagCoefficients(wn, zeta, gain float64) (b, a [biquadOrder]float64) {
	if wn <= 0 {
		a[0] = 1
		return b, a
	}
	t1 := gain / (wn * wn)
	t2 := 2*zeta/wn - 1/gain

	b[0] = 2 * gain * (1 + t2/2)
	b[1] = 2 * gain * 2
	b[2] = 2 * gain * (1 - t2/2)

	a[0] = 1 + t1/2
	a[1] = -t1
	a[2] = -1 + t1/2

	a0 := a[0]
	for i := range biquadOrder {
		b[i] /= a0
		a[i] /= a0
	}
	return b, a
}

func (f *ActiveLag) Filter(q float64) float64 {
	y := f.b[0]*q + f.v1
	f.v1 = f.b[1]*q - f.a[1]*y + f.v2
	f.v2 = f.b[2]*q - f.a[2]*y

	f.qHat = y - f.phase
	f.phase = y
	return f.qHat
}

// SetBandwidth re-tunes the biquad; the filter state is kept.
func (f *ActiveLag) SetBandwidth(bt float64) error {
	if err := validateBandwidth(bt); err != nil {
		return err
	}
	f.b, f.a = ActiveLagCoefficients(activeLagBandwidthScale*bt, activeLagDamping, activeLagGain)
	return nil
}

func (f *ActiveLag) Output() float64 { return f.qHat }

// Memory returns the phase estimate at the last boundary.
func (f *ActiveLag) Memory() float64 { return f.phase }

func (f *ActiveLag) Reset() {
	f.v1 = 0
	f.v2 = 0
	f.phase = 0
	f.qHat = 0
}

func (f *ActiveLag) Kind() LoopFilterKind { return LoopActiveLag }

// Coefficients returns the normalized biquad numerator and denominator.
func (f *ActiveLag) Coefficients() (b, a [biquadOrder]float64) {
	return f.b, f.a
}
