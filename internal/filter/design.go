package filter

import (
	"fmt"
	"math"
	"strings"

	"github.com/tphakala/go-symsync/internal/mathutil"
	"github.com/tphakala/simd/f64"
)

// Kind selects the pulse shape produced by Design.
type Kind int

const (
	// KindRRC is the square-root raised-cosine pulse (matched filter for RRC transmitters).
	KindRRC Kind = iota
	// KindRC is the raised-cosine (Nyquist) pulse.
	KindRC
	// KindGMSKTx is the Gaussian-filtered MSK transmit pulse; beta is the bandwidth-time product.
	KindGMSKTx
	// KindKaiser is a Kaiser-windowed sinc Nyquist pulse.
	KindKaiser
)

var kindNames = map[Kind]string{
	KindRRC:    "rrc",
	KindRC:     "rc",
	KindGMSKTx: "gmsktx",
	KindKaiser: "kaiser",
}

// String returns the short name of the pulse shape.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind resolves a short pulse-shape name ("rrc", "rc", "gmsktx", "kaiser").
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, s := range kindNames {
		if s == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown filter kind %q", name)
}

// Design synthesizes a prototype pulse of length 2·k·m+1.
//
// Parameters:
//
//	kind: pulse shape
//	k:    samples per symbol (≥ 1)
//	m:    symbol delay (≥ 1)
//	beta: excess bandwidth factor in [0, 1] (bandwidth-time product for GMSK, must be > 0)
//	dt:   fractional sample delay in [-1, 1]
func Design(kind Kind, k, m int, beta, dt float64) ([]float64, error) {
	if k < minDesignSamplesPerSymbol {
		return nil, fmt.Errorf("samples per symbol must be at least %d, got %d", minDesignSamplesPerSymbol, k)
	}
	if m < minDesignDelay {
		return nil, fmt.Errorf("symbol delay must be at least %d, got %d", minDesignDelay, m)
	}
	if beta < 0 || beta > maxExcessBandwidth || math.IsNaN(beta) {
		return nil, fmt.Errorf("excess bandwidth %f out of range [0, %g]", beta, maxExcessBandwidth)
	}
	if dt < -maxFractionalDelay || dt > maxFractionalDelay || math.IsNaN(dt) {
		return nil, fmt.Errorf("fractional delay %f out of range [-1, 1]", dt)
	}

	switch kind {
	case KindRRC:
		return rootRaisedCosine(k, m, beta, dt), nil
	case KindRC:
		return raisedCosine(k, m, beta, dt), nil
	case KindGMSKTx:
		if beta <= 0 {
			return nil, fmt.Errorf("gmsk bandwidth-time product must be positive, got %f", beta)
		}
		return gmskTransmit(k, m, beta, dt), nil
	case KindKaiser:
		return kaiserNyquist(k, m, beta, dt), nil
	default:
		return nil, fmt.Errorf("unknown filter kind %v", kind)
	}
}

func designLength(k, m int) int {
	return 2*k*m + 1
}

// symbolTime maps tap i to its time offset from the pulse center, in symbols.
func symbolTime(i, k, m int, dt float64) float64 {
	return (float64(i)+dt)/float64(k) - float64(m)
}

func rootRaisedCosine(k, m int, beta, dt float64) []float64 {
	n := designLength(k, m)
	h := make([]float64, n)
	for i := range n {
		h[i] = rrcTap(symbolTime(i, k, m, dt), beta)
	}
	return h
}

func rrcTap(z, beta float64) float64 {
	if math.Abs(z) < rrcZeroThreshold {
		return 1 - beta + 4*beta/math.Pi
	}

	g := 1 - rrcSingularScale*beta*beta*z*z
	if beta > 0 && g*g < rrcSingularThreshold {
		// z = ±1/(4β)
		arg := math.Pi / (4 * beta)
		return beta / math.Sqrt2 * ((1+2/math.Pi)*math.Sin(arg) + (1-2/math.Pi)*math.Cos(arg))
	}

	num := math.Sin(math.Pi*z*(1-beta)) + 4*beta*z*math.Cos(math.Pi*z*(1+beta))
	return num / (math.Pi * z * g)
}

func raisedCosine(k, m int, beta, dt float64) []float64 {
	n := designLength(k, m)
	h := make([]float64, n)
	for i := range n {
		z := symbolTime(i, k, m, dt)
		g := 1 - 4*beta*beta*z*z
		if beta > 0 && math.Abs(g) < rrcSingularThreshold {
			// z = ±1/(2β)
			h[i] = rrcQuarterPi * sinc(1/(2*beta))
			continue
		}
		h[i] = sinc(z) * math.Cos(math.Pi*beta*z) / g
	}
	return h
}

func gmskTransmit(k, m int, bt, dt float64) []float64 {
	n := designLength(k, m)
	h := make([]float64, n)
	c0 := 1 / math.Sqrt(math.Ln2)
	for i := range n {
		t := float64(i)/float64(k) - float64(m) + dt
		h[i] = mathutil.Q(2*math.Pi*bt*(t-gmskHalfSymbol)*c0) -
			mathutil.Q(2*math.Pi*bt*(t+gmskHalfSymbol)*c0)
	}

	sum := f64.Sum(h)
	if math.Abs(sum) > sincZeroThreshold {
		f64.Scale(h, h, gmskTargetSum/sum)
	}
	return h
}
