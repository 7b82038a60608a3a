package engine

import (
	"math"

	"github.com/tphakala/go-symsync/internal/simdops"
)

// detectTimingError returns the maximum-likelihood timing error
// Re(conj(mf)·dmf), clipped to [-1, 1].
//
// The sign tells whether the current branch samples early (positive) or
// late (negative) relative to the matched-filter peak.
func detectTimingError[S simdops.Sample, C simdops.Float](ops *simdops.Ops[S, C], mf, dmf S) float64 {
	return clipError(ops.ErrorSignal(mf, dmf))
}

func clipError(q float64) float64 {
	switch {
	case q > errorClip:
		return errorClip
	case q < -errorClip:
		return -errorClip
	case math.IsNaN(q):
		return 0
	default:
		return q
	}
}
