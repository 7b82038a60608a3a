package mathutil

import "math"

// Q is the Gaussian tail probability Q(x) = P(N(0,1) > x).
func Q(x float64) float64 {
	return 0.5 * math.Erfc(x/math.Sqrt2)
}
