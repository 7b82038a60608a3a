package filter

import (
	"fmt"

	"github.com/tphakala/go-symsync/internal/simdops"
)

// Bank is a polyphase decomposition of a prototype FIR filter.
//
// Branch i holds the prototype taps h[i], h[i+npfb], h[i+2·npfb], ... so that
// branch i realizes the prototype delayed by i/npfb of an input sample.
// All branches share one input history; Push is the only mutation.
//
// Coefficient storage format (per branch):
//   - taps are stored newest-first reversed, i.e. branch[T-1-n] = h[i+n·npfb],
//     so evaluating a branch is a straight dot product with the oldest-first
//     history window.
type Bank[S simdops.Sample, C simdops.Float] struct {
	// branches holds NumBranches coefficient vectors of TapsPerBranch taps each.
	branches [][]C

	// history is a mirrored ring: every sample is written at head and head+taps
	// so history[head:head+taps] is always a contiguous oldest-first window.
	history []S
	head    int

	taps int
	ops  *simdops.Ops[S, C]
}

// NewBank decomposes prototype h into npfb branches of tapsPerBranch taps.
// Taps past the end of h are zero; prototype taps beyond npfb·tapsPerBranch
// are dropped.
func NewBank[S simdops.Sample, C simdops.Float](npfb int, h []C, tapsPerBranch int) (*Bank[S, C], error) {
	if npfb < 1 {
		return nil, fmt.Errorf("number of branches must be positive, got %d", npfb)
	}
	if tapsPerBranch < 1 {
		return nil, fmt.Errorf("taps per branch must be positive, got %d", tapsPerBranch)
	}
	if len(h) == 0 {
		return nil, fmt.Errorf("prototype filter is empty")
	}

	// One backing array keeps every branch contiguous in memory.
	coeffs := make([]C, npfb*tapsPerBranch)
	branches := make([][]C, npfb)
	for i := range npfb {
		branch := coeffs[i*tapsPerBranch : (i+1)*tapsPerBranch : (i+1)*tapsPerBranch]
		for n := range tapsPerBranch {
			idx := i + n*npfb
			if idx < len(h) {
				branch[tapsPerBranch-1-n] = h[idx]
			}
		}
		branches[i] = branch
	}

	return &Bank[S, C]{
		branches: branches,
		history:  make([]S, 2*tapsPerBranch),
		taps:     tapsPerBranch,
		ops:      simdops.For[S, C](),
	}, nil
}

// Push appends x to the shared input history, evicting the oldest sample.
func (b *Bank[S, C]) Push(x S) {
	b.history[b.head] = x
	b.history[b.head+b.taps] = x
	b.head++
	if b.head == b.taps {
		b.head = 0
	}
}

// Execute evaluates branch i against the current history.
// i must be in [0, NumBranches()).
func (b *Bank[S, C]) Execute(i int) S {
	window := b.history[b.head : b.head+b.taps]
	return b.ops.DotProductUnsafe(window, b.branches[i])
}

// Clear zeroes the input history without reallocating.
func (b *Bank[S, C]) Clear() {
	clear(b.history)
	b.head = 0
}

// NumBranches returns the number of polyphase branches.
func (b *Bank[S, C]) NumBranches() int {
	return len(b.branches)
}

// TapsPerBranch returns the length of each branch sub-filter.
func (b *Bank[S, C]) TapsPerBranch() int {
	return b.taps
}

// Branch returns a copy of branch i in prototype order (h[i], h[i+npfb], ...).
func (b *Bank[S, C]) Branch(i int) []C {
	out := make([]C, b.taps)
	for n := range b.taps {
		out[n] = b.branches[i][b.taps-1-n]
	}
	return out
}

// DerivativeCoefficients returns the centered-difference derivative of the
// prototype, scaled by npfb/16:
//
//	dh[i] = (h[i+1] - h[i-1]) · npfb/16
//
// Indices wrap circularly, so dh[0] uses h[L-1] and dh[L-1] uses h[0].
func DerivativeCoefficients[C simdops.Float](h []C, npfb int) []C {
	n := len(h)
	dh := make([]C, n)
	if n == 0 {
		return dh
	}
	scale := float64(npfb) / derivativeScaleDivisor
	for i := range n {
		next := h[(i+1)%n]
		prev := h[(i-1+n)%n]
		dh[i] = C((float64(next) - float64(prev)) * scale)
	}
	return dh
}
