package engine

import (
	"fmt"
	"math"

	"github.com/tphakala/go-symsync/internal/filter"
	"github.com/tphakala/go-symsync/internal/simdops"
)

// LockPolicy decides what a locked synchronizer does at a decimation boundary.
type LockPolicy int

const (
	// LockSkipsErrorUpdate skips only the detector and loop filter; the
	// decimation counter and phase still advance.
	LockSkipsErrorUpdate LockPolicy = iota

	// LockRepeatsBranch abandons the iteration: the pending output is
	// discarded and the same branch is evaluated again with the counter
	// restarted. The output stream is identical to LockSkipsErrorUpdate.
	LockRepeatsBranch
)

// String returns the policy name.
func (p LockPolicy) String() string {
	switch p {
	case LockSkipsErrorUpdate:
		return "skip-error-update"
	case LockRepeatsBranch:
		return "repeat-branch"
	default:
		return fmt.Sprintf("LockPolicy(%d)", int(p))
	}
}

// Params holds the construction parameters of a Synchronizer.
type Params struct {
	SamplesPerSymbol int // k, input samples per symbol (≥ 2)
	NumFilters       int // npfb, polyphase branches (≥ 1)
	LoopFilter       LoopFilterKind
	LockPolicy       LockPolicy
	Observer         Observer // optional
}

// Info describes a Synchronizer's configuration.
type Info struct {
	SamplesPerSymbol int
	OutputRate       int // k_out, output samples per symbol
	NumFilters       int
	TapsPerBranch    int // h_len
	Bandwidth        float64
	Rate             float64 // r
	LoopFilter       LoopFilterKind
	LockPolicy       LockPolicy
}

// Synchronizer recovers symbol timing from a k-times oversampled stream
// and interpolates k_out output samples per symbol at the recovered phase.
//
// Type parameter S is the sample type (real or complex), C the
// coefficient type of the filter banks.
//
// A Synchronizer is not safe for concurrent use.
type Synchronizer[S simdops.Sample, C simdops.Float] struct {
	// Configuration
	k    int // input samples per symbol
	kOut int // output samples per symbol
	npfb int
	hLen int
	bt   float64
	r    float64 // output rate relative to input
	del  float64 // interpolation step in input samples

	// Filter banks: matched filter and its derivative
	mf  *filter.Bank[S, C]
	dmf *filter.Bank[S, C]

	loop   LoopFilter
	phase  phaseAccumulator
	rate   rateController
	q      float64
	locked bool
	policy LockPolicy

	observer Observer
	ops      *simdops.Ops[S, C]

	// Statistics
	samplesIn  int64
	samplesOut int64
}

// New builds a synchronizer around prototype matched filter h.
//
// The per-branch length is h_len = (len(h)-1)/npfb; trailing prototype taps
// that do not fill a whole branch are dropped. The derivative bank is
// built from the centered difference of h.
func New[S simdops.Sample, C simdops.Float](p Params, h []C) (*Synchronizer[S, C], error) {
	if p.SamplesPerSymbol < minSamplesPerSymbol {
		return nil, fmt.Errorf("input sample rate must be at least %d samples/symbol, got %d",
			minSamplesPerSymbol, p.SamplesPerSymbol)
	}
	if len(h) == 0 {
		return nil, fmt.Errorf("filter length must be greater than zero")
	}
	if p.NumFilters < 1 {
		return nil, fmt.Errorf("number of filter banks must be greater than zero, got %d", p.NumFilters)
	}
	hLen := (len(h) - 1) / p.NumFilters
	if hLen < 1 {
		return nil, fmt.Errorf("filter length %d too short for %d filter banks (need at least %d taps)",
			len(h), p.NumFilters, p.NumFilters+1)
	}
	if p.LockPolicy != LockSkipsErrorUpdate && p.LockPolicy != LockRepeatsBranch {
		return nil, fmt.Errorf("unknown lock policy %d", int(p.LockPolicy))
	}

	mf, err := filter.NewBank[S](p.NumFilters, h, hLen)
	if err != nil {
		return nil, fmt.Errorf("failed to create matched filter bank: %w", err)
	}
	dmf, err := filter.NewBank[S](p.NumFilters, filter.DerivativeCoefficients(h, p.NumFilters), hLen)
	if err != nil {
		return nil, fmt.Errorf("failed to create derivative filter bank: %w", err)
	}
	loop, err := NewLoopFilter(p.LoopFilter, DefaultBandwidth)
	if err != nil {
		return nil, err
	}

	s := &Synchronizer[S, C]{
		k:        p.SamplesPerSymbol,
		npfb:     p.NumFilters,
		hLen:     hLen,
		bt:       DefaultBandwidth,
		mf:       mf,
		dmf:      dmf,
		loop:     loop,
		phase:    newPhaseAccumulator(p.NumFilters),
		policy:   p.LockPolicy,
		observer: p.Observer,
		ops:      simdops.For[S, C](),
	}
	if err := s.SetOutputRate(minOutputRate); err != nil {
		return nil, err
	}
	return s, nil
}

// Step pushes one input sample and appends the zero or more interpolated
// outputs it produces to dst.
func (s *Synchronizer[S, C]) Step(x S, dst []S) []S {
	s.mf.Push(x)
	s.dmf.Push(x)
	s.samplesIn++

	start := len(dst)
	scale := 1 / float64(s.k)
	for s.phase.inRange() {
		mf := s.mf.Execute(s.phase.b)
		dst = append(dst, s.ops.Scale(mf, scale))

		if s.rate.atBoundary() {
			s.rate.restart()
			if s.observer != nil {
				s.observer.ObserveDecimation(s.trace())
			}

			if s.locked {
				if s.policy == LockRepeatsBranch {
					dst = dst[:len(dst)-1]
					continue
				}
			} else {
				dmf := s.dmf.Execute(s.phase.b)
				s.advanceLoop(mf, dmf)
			}
		}

		s.rate.tick()
		s.phase.advance(s.del)
	}
	s.phase.wrap()

	s.samplesOut += int64(len(dst) - start)
	return dst
}

// Execute runs Step over xs, appending every output to dst.
func (s *Synchronizer[S, C]) Execute(xs []S, dst []S) []S {
	for _, x := range xs {
		dst = s.Step(x, dst)
	}
	return dst
}

// advanceLoop feeds one timing error through the loop filter and
// recomputes the interpolation step, kept within [nominal/2, nominal+k].
func (s *Synchronizer[S, C]) advanceLoop(mf, dmf S) {
	s.q = detectTimingError(s.ops, mf, dmf)
	qHat := s.loop.Filter(s.q)

	nominal := s.nominalStep()
	s.del = min(max(nominal+qHat, minStepFraction*nominal), nominal+float64(s.k))
}

func (s *Synchronizer[S, C]) nominalStep() float64 {
	return float64(s.k) / float64(s.kOut)
}

func (s *Synchronizer[S, C]) trace() Trace {
	return Trace{
		Delta:         s.del,
		Tau:           s.phase.tau,
		SoftBranch:    s.phase.bf,
		Branch:        s.phase.b,
		FilteredError: s.loop.Output(),
	}
}

// SetBandwidth sets the loop bandwidth bt in [0, 1].
func (s *Synchronizer[S, C]) SetBandwidth(bt float64) error {
	if err := s.loop.SetBandwidth(bt); err != nil {
		return err
	}
	s.bt = bt
	return nil
}

// SetOutputRate sets the number of output samples per symbol and resets the
// interpolation step to k/k_out. k_out must be in [1, k²·npfb] so that the
// rate stays within RateLimits.
func (s *Synchronizer[S, C]) SetOutputRate(kOut int) error {
	maxOut := s.k * s.k * s.npfb
	if kOut < minOutputRate || kOut > maxOut {
		return fmt.Errorf("output rate must be in [%d, %d], got %d", minOutputRate, maxOut, kOut)
	}
	s.kOut = kOut
	s.rate.setOutputRate(kOut)
	s.r = float64(kOut) / float64(s.k)
	s.del = 1 / s.r
	return nil
}

// SetRate overrides the output/input rate r directly; the step becomes 1/r
// until the next error update. The rate must lie within RateLimits.
func (s *Synchronizer[S, C]) SetRate(rate float64) error {
	lo, hi := s.RateLimits()
	if math.IsNaN(rate) || rate < lo || rate > hi {
		return fmt.Errorf("rate must be in [%g, %g], got %g", lo, hi, rate)
	}
	s.r = rate
	s.del = 1 / rate
	return nil
}

// RateLimits returns the range of output/input rates the phase accumulator
// can follow: at most one output per k·npfb inputs and at most k·npfb
// outputs per input.
func (s *Synchronizer[S, C]) RateLimits() (lo, hi float64) {
	span := float64(s.k * s.npfb)
	return 1 / span, span
}

// Lock freezes the loop: del, q_hat and q_prime stop adapting.
func (s *Synchronizer[S, C]) Lock() { s.locked = true }

// Unlock resumes loop adaptation.
func (s *Synchronizer[S, C]) Unlock() { s.locked = false }

// IsLocked reports whether the loop is frozen.
func (s *Synchronizer[S, C]) IsLocked() bool { return s.locked }

// Reset clears phase, error, decimation and filter history state. The
// configuration (rates, bandwidth, lock state) is kept and the step is
// restored to 1/r, so a reset synchronizer behaves like a new one.
func (s *Synchronizer[S, C]) Reset() {
	s.mf.Clear()
	s.dmf.Clear()
	s.phase.reset()
	s.rate.reset()
	s.loop.Reset()
	s.q = 0
	s.del = 1 / s.r
	s.samplesIn = 0
	s.samplesOut = 0
}

// Tau returns the accumulated fractional phase.
func (s *Synchronizer[S, C]) Tau() float64 { return s.phase.tau }

// Rate returns r, output samples per input sample.
func (s *Synchronizer[S, C]) Rate() float64 { return s.r }

// Delta returns the current interpolation step in input samples.
func (s *Synchronizer[S, C]) Delta() float64 { return s.del }

// BranchIndex returns the hard branch index b.
func (s *Synchronizer[S, C]) BranchIndex() int { return s.phase.b }

// SoftBranchIndex returns the soft branch index bf.
func (s *Synchronizer[S, C]) SoftBranchIndex() float64 { return s.phase.bf }

// TimingError returns the last clipped detector output q.
func (s *Synchronizer[S, C]) TimingError() float64 { return s.q }

// FilteredError returns the loop filter output q_hat.
func (s *Synchronizer[S, C]) FilteredError() float64 { return s.loop.Output() }

// FilterMemory returns the loop filter feedback state q_prime.
func (s *Synchronizer[S, C]) FilterMemory() float64 { return s.loop.Memory() }

// SamplesIn returns the number of input samples consumed since the last reset.
func (s *Synchronizer[S, C]) SamplesIn() int64 { return s.samplesIn }

// SamplesOut returns the number of output samples produced since the last reset.
func (s *Synchronizer[S, C]) SamplesOut() int64 { return s.samplesOut }

// Info returns the synchronizer configuration.
func (s *Synchronizer[S, C]) Info() Info {
	return Info{
		SamplesPerSymbol: s.k,
		OutputRate:       s.kOut,
		NumFilters:       s.npfb,
		TapsPerBranch:    s.hLen,
		Bandwidth:        s.bt,
		Rate:             s.r,
		LoopFilter:       s.loop.Kind(),
		LockPolicy:       s.policy,
	}
}

// MaxOutputPerInput bounds the number of outputs a single Step can append
// with the current rate settings.
func (s *Synchronizer[S, C]) MaxOutputPerInput() int {
	step := math.Min(s.del, minStepFraction*s.nominalStep())
	span := 1 + branchSlack/float64(s.npfb)
	return int(math.Ceil(span/step)) + 1
}

// String implements fmt.Stringer.
func (s *Synchronizer[S, C]) String() string {
	return fmt.Sprintf("symsync [rate: %f]", s.r)
}
