package engine

import "math"

// phaseAccumulator tracks the fractional sampling phase.
//
//	tau: accumulated phase in input samples
//	bf:  soft branch index, tau·npfb
//	b:   hard branch index, round(bf) with halves rounded away from zero
type phaseAccumulator struct {
	tau  float64
	bf   float64
	b    int
	npfb int
}

func newPhaseAccumulator(npfb int) phaseAccumulator {
	return phaseAccumulator{npfb: npfb}
}

// advance moves the phase forward by del input samples.
func (p *phaseAccumulator) advance(del float64) {
	p.tau += del
	p.bf = p.tau * float64(p.npfb)
	p.b = int(math.Round(p.bf))
}

// inRange reports whether the hard branch index still selects a branch
// of the current input sample.
func (p *phaseAccumulator) inRange() bool {
	return p.b < p.npfb
}

// wrap removes exactly one input sample of phase.
func (p *phaseAccumulator) wrap() {
	p.tau -= 1
	p.bf -= float64(p.npfb)
	p.b -= p.npfb
}

func (p *phaseAccumulator) reset() {
	p.tau = 0
	p.bf = 0
	p.b = 0
}
