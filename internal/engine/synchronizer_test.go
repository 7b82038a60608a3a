package engine

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-symsync/internal/filter"
	"github.com/tphakala/go-symsync/internal/testutil"
	"gonum.org/v1/gonum/stat"
)

const (
	testK    = 2
	testNPFB = 32
	testM    = 3
	testBeta = 0.5
)

// hannPrototype returns the 65-tap raised-cosine bump 0.5(1-cos(2πn/64)).
func hannPrototype() []float64 {
	const n = 65
	h := make([]float64, n)
	for i := range h {
		h[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return h
}

func rrcPrototype(t testing.TB, k, npfb, m int, beta float64) []float64 {
	t.Helper()
	h, err := filter.Design(filter.KindRRC, k*npfb, m, beta, 0)
	require.NoError(t, err)
	return h
}

func newTestSync(t testing.TB, p Params, h []float64) *Synchronizer[complex128, float64] {
	t.Helper()
	s, err := New[complex128](p, h)
	require.NoError(t, err)
	return s
}

func bpskStream(n, k int, seed uint64) []complex128 {
	pulse, _ := filter.Design(filter.KindRRC, k, testM, testBeta, 0)
	symbols := testutil.RandomSymbols(n, seed)
	return testutil.ToComplex128(testutil.ShapeSymbols(symbols, pulse, k))
}

func TestNew_Validation(t *testing.T) {
	h := hannPrototype()
	tests := []struct {
		name   string
		params Params
		h      []float64
	}{
		{"k_below_two", Params{SamplesPerSymbol: 1, NumFilters: testNPFB}, h},
		{"empty_prototype", Params{SamplesPerSymbol: testK, NumFilters: testNPFB}, nil},
		{"zero_filters", Params{SamplesPerSymbol: testK, NumFilters: 0}, h},
		{"prototype_shorter_than_bank", Params{SamplesPerSymbol: testK, NumFilters: 64}, h[:64]},
		{"unknown_loop_filter", Params{SamplesPerSymbol: testK, NumFilters: testNPFB, LoopFilter: 5}, h},
		{"unknown_lock_policy", Params{SamplesPerSymbol: testK, NumFilters: testNPFB, LockPolicy: 5}, h},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New[complex64](tt.params, tt.h)
			require.Error(t, err)
			assert.Nil(t, s)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	s := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB}, hannPrototype())

	info := s.Info()
	assert.Equal(t, testK, info.SamplesPerSymbol)
	assert.Equal(t, 1, info.OutputRate)
	assert.Equal(t, testNPFB, info.NumFilters)
	assert.Equal(t, 2, info.TapsPerBranch)
	assert.InDelta(t, DefaultBandwidth, info.Bandwidth, 0)
	assert.InDelta(t, 0.5, info.Rate, 0)
	assert.Equal(t, LoopSinglePole, info.LoopFilter)
	assert.Equal(t, LockSkipsErrorUpdate, info.LockPolicy)

	assert.False(t, s.IsLocked())
	assert.Zero(t, s.Tau())
	assert.Zero(t, s.BranchIndex())
	assert.Zero(t, s.SoftBranchIndex())
	assert.Zero(t, s.FilteredError())
	assert.Zero(t, s.FilterMemory())
	assert.Zero(t, s.TimingError())
	assert.InDelta(t, 2.0, s.Delta(), 0)
	assert.Equal(t, "symsync [rate: 0.500000]", s.String())
}

func TestNew_BranchLengthDerivation(t *testing.T) {
	for _, npfb := range []int{1, 2, 7, 16, 32} {
		for _, length := range []int{npfb + 1, 3*npfb + 1, 5*npfb + 3, 101} {
			if (length-1)/npfb < 1 {
				continue
			}
			h := make([]float64, length)
			h[length/2] = 1
			s := newTestSync(t, Params{SamplesPerSymbol: 4, NumFilters: npfb}, h)

			want := (length - 1) / npfb
			assert.Equal(t, want, s.Info().TapsPerBranch, "npfb=%d L=%d", npfb, length)
			assert.Equal(t, npfb, s.mf.NumBranches())
			assert.Equal(t, npfb, s.dmf.NumBranches())
			assert.Equal(t, want, s.mf.TapsPerBranch())
			assert.Equal(t, want, s.dmf.TapsPerBranch())
		}
	}
}

func TestStep_ImpulseResponse(t *testing.T) {
	h := hannPrototype()
	s := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB}, h)
	require.NoError(t, s.SetBandwidth(0))
	require.NoError(t, s.SetOutputRate(testNPFB)) // del = 1/16, two branches per output

	out := s.Execute(testutil.ToComplex128(testutil.Impulse(4)), nil)
	require.Len(t, out, 64)

	// Output j reads prototype tap 2j, scaled by 1/k.
	for j := range 32 {
		testutil.AssertComplexInDelta(t, complex(h[2*j]/testK, 0), out[j], 1e-12, "output %d", j)
	}
	for j := 32; j < len(out); j++ {
		assert.Zero(t, out[j])
	}

	// Peak at the design delay, decaying symmetrically around it.
	mag := make([]float64, 32)
	for j := range mag {
		mag[j] = cmplx.Abs(out[j])
	}
	assert.Equal(t, 16, filter.PeakIndex(mag))
	for d := 1; d < 16; d++ {
		assert.InDelta(t, mag[16-d], mag[16+d], 1e-12, "offset %d", d)
		assert.Less(t, mag[16+d], mag[16+d-1])
	}
}

func TestStep_SteadyStateRate_ZeroBandwidth(t *testing.T) {
	s := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB},
		rrcPrototype(t, testK, testNPFB, testM, testBeta))
	require.NoError(t, s.SetBandwidth(0))

	in := testutil.ToComplex128(testutil.GaussianNoise(20000, 1, 3))
	var out []complex128
	counts := make([]int, 0, len(in))
	for _, x := range in {
		before := len(out)
		out = s.Step(x, out)
		counts = append(counts, len(out)-before)
	}

	assert.Len(t, out, len(in)/2)
	for i, c := range counts {
		assert.Equal(t, (i+1)%2, c, "step %d", i)
	}
	assert.Equal(t, int64(len(in)), s.SamplesIn())
	assert.Equal(t, int64(len(out)), s.SamplesOut())
}

func TestStep_SteadyStateRate_Adaptive(t *testing.T) {
	s := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB},
		rrcPrototype(t, testK, testNPFB, testM, testBeta))

	in := bpskStream(20000, testK, 11)
	out := s.Execute(in, nil)

	ratio := float64(len(out)) / float64(len(in))
	assert.InDelta(t, 0.5, ratio, 0.02)
	testutil.AssertNoNaNOrInf(t, realParts(out))
}

func TestStep_ConvergesOnSinusoid(t *testing.T) {
	const (
		k       = 4
		symbols = 4000
		tail    = 200
	)
	var taus []float64
	obs := ObserverFunc(func(tr Trace) { taus = append(taus, tr.Tau) })

	s := newTestSync(t, Params{SamplesPerSymbol: k, NumFilters: testNPFB, Observer: obs},
		rrcPrototype(t, k, testNPFB, testM, testBeta))
	require.NoError(t, s.SetBandwidth(0.02))

	// A symbol-rate/2 tone is an alternating ±1 symbol pattern offset by 0.37 samples.
	in := testutil.ToComplex128(testutil.Sinusoid(symbols*k, 1.0/(2*k), 2*math.Pi*0.37/(2*k)))
	_ = s.Execute(in, nil)

	require.Greater(t, len(taus), tail)
	last := taus[len(taus)-tail:]
	assert.Greater(t, phaseConcentration(last), 0.95,
		"tau did not settle: circular mean %f", circularMeanTau(last))

	// Loop correction decays once locked on.
	assert.Less(t, math.Abs(s.FilteredError()), 0.01)
	testutil.AssertAllInRange(t, last, -1, 1)
}

func TestStep_ConvergesOnShapedBPSK(t *testing.T) {
	const k = 4
	var taus []float64
	obs := ObserverFunc(func(tr Trace) { taus = append(taus, tr.Tau) })

	s := newTestSync(t, Params{SamplesPerSymbol: k, NumFilters: testNPFB, Observer: obs},
		rrcPrototype(t, k, testNPFB, testM, testBeta))
	require.NoError(t, s.SetBandwidth(0.02))

	_ = s.Execute(bpskStream(6000, k, 5), nil)

	last := taus[len(taus)-500:]
	assert.Greater(t, phaseConcentration(last), 0.7)
}

func TestStep_ErrorIsClipped(t *testing.T) {
	var filtered []float64
	obs := ObserverFunc(func(tr Trace) { filtered = append(filtered, tr.FilteredError) })

	s := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB, Observer: obs},
		rrcPrototype(t, testK, testNPFB, testM, testBeta))
	require.NoError(t, s.SetBandwidth(1)) // q_hat = 0.22·q

	in := testutil.ToComplex128(testutil.GaussianNoise(4000, 1e6, 9))
	_ = s.Execute(in, nil)

	require.NotEmpty(t, filtered)
	testutil.AssertAllInRange(t, filtered, -singlePoleGain-1e-12, singlePoleGain+1e-12)
	assert.LessOrEqual(t, math.Abs(s.TimingError()), 1.0)
}

func TestLock_FreezesLoopState(t *testing.T) {
	s := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB},
		rrcPrototype(t, testK, testNPFB, testM, testBeta))

	in := bpskStream(4000, testK, 21)
	_ = s.Execute(in[:4000], nil)

	s.Lock()
	require.True(t, s.IsLocked())
	del, qHat, qPrime := s.Delta(), s.FilteredError(), s.FilterMemory()

	out := s.Execute(in[4000:], nil)
	assert.NotEmpty(t, out)
	assert.InDelta(t, del, s.Delta(), 0)
	assert.InDelta(t, qHat, s.FilteredError(), 0)
	assert.InDelta(t, qPrime, s.FilterMemory(), 0)

	s.Unlock()
	assert.False(t, s.IsLocked())
	_ = s.Execute(in[:2000], nil)
	assert.NotEqual(t, qHat, s.FilteredError())
}

func TestLock_PoliciesTerminateAndAgree(t *testing.T) {
	for _, kOut := range []int{1, 2, 3} {
		h := rrcPrototype(t, testK, testNPFB, testM, testBeta)
		skip := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB,
			LockPolicy: LockSkipsErrorUpdate}, h)
		repeat := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB,
			LockPolicy: LockRepeatsBranch}, h)

		var skipBoundaries, repeatBoundaries int
		skip.observer = ObserverFunc(func(Trace) { skipBoundaries++ })
		repeat.observer = ObserverFunc(func(Trace) { repeatBoundaries++ })

		for _, s := range []*Synchronizer[complex128, float64]{skip, repeat} {
			require.NoError(t, s.SetOutputRate(kOut))
		}

		in := bpskStream(3000, testK, 77)
		half := len(in) / 2

		// Adapt first, then lock for the rest of the stream.
		outSkip := skip.Execute(in[:half], nil)
		outRepeat := repeat.Execute(in[:half], nil)
		skip.Lock()
		repeat.Lock()
		outSkip = skip.Execute(in[half:], outSkip)
		outRepeat = repeat.Execute(in[half:], outRepeat)

		require.Equal(t, len(outSkip), len(outRepeat), "k_out=%d", kOut)
		assert.Equal(t, outSkip, outRepeat, "k_out=%d", kOut)
		assert.Equal(t, skipBoundaries, repeatBoundaries)
		assert.InDelta(t, skip.Tau(), repeat.Tau(), 0)
	}
}

func TestLock_LockedFromStartTerminates(t *testing.T) {
	s := newTestSync(t, Params{SamplesPerSymbol: 4, NumFilters: 8, LockPolicy: LockRepeatsBranch},
		rrcPrototype(t, 4, 8, testM, testBeta))
	s.Lock()
	require.NoError(t, s.SetOutputRate(8))

	out := s.Execute(bpskStream(500, 4, 1), nil)
	assert.Len(t, out, 500*4*8/4)
}

func TestReset_MatchesFreshSynchronizer(t *testing.T) {
	h := rrcPrototype(t, testK, testNPFB, testM, testBeta)
	configure := func(s *Synchronizer[complex128, float64]) {
		require.NoError(t, s.SetOutputRate(2))
		require.NoError(t, s.SetBandwidth(0.05))
	}

	used := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB}, h)
	configure(used)
	_ = used.Execute(bpskStream(1500, testK, 4), nil)
	used.Reset()

	fresh := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB}, h)
	configure(fresh)

	in := bpskStream(2000, testK, 8)
	got := used.Execute(in, nil)
	want := fresh.Execute(in, nil)

	assert.Equal(t, want, got)
	assert.InDelta(t, fresh.Tau(), used.Tau(), 0)
	assert.InDelta(t, fresh.Delta(), used.Delta(), 0)
	assert.Equal(t, fresh.SamplesIn(), used.SamplesIn())
}

func TestSetters_Validation(t *testing.T) {
	s := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB}, hannPrototype())

	for _, bt := range []float64{-0.1, 1.1, math.NaN()} {
		assert.Error(t, s.SetBandwidth(bt))
	}
	assert.InDelta(t, DefaultBandwidth, s.Info().Bandwidth, 0)

	assert.Error(t, s.SetOutputRate(0))
	assert.Error(t, s.SetOutputRate(-3))
	assert.Equal(t, 1, s.Info().OutputRate)

	assert.Error(t, s.SetOutputRate(testK*testK*testNPFB+1))

	for _, r := range []float64{0, -1, math.NaN(), math.Inf(1), 1e-300, 1e20} {
		assert.Error(t, s.SetRate(r), "rate %g", r)
	}
	require.NoError(t, s.SetRate(0.8))
	assert.InDelta(t, 0.8, s.Rate(), 0)
	assert.InDelta(t, 1.25, s.Delta(), 1e-15)

	require.NoError(t, s.SetOutputRate(4))
	assert.InDelta(t, 2.0, s.Rate(), 0)
	assert.InDelta(t, 0.5, s.Delta(), 0)
}

func TestSetRate_ExtremesStayBounded(t *testing.T) {
	s := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB},
		rrcPrototype(t, testK, testNPFB, testM, testBeta))
	lo, hi := s.RateLimits()
	assert.InDelta(t, 1.0/(testK*testNPFB), lo, 0)
	assert.InDelta(t, float64(testK*testNPFB), hi, 0)

	in := bpskStream(50, testK, 2)

	require.NoError(t, s.SetRate(lo))
	require.NotPanics(t, func() {
		for _, x := range in {
			_ = s.Step(x, nil)
		}
	})

	s.Reset()
	require.NoError(t, s.SetRate(hi))
	limit := s.MaxOutputPerInput()
	for i, x := range in {
		out := s.Step(x, nil)
		require.LessOrEqual(t, len(out), limit, "input %d", i)
	}
}

func TestSetOutputRate_LoweredMidStream(t *testing.T) {
	s := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB},
		rrcPrototype(t, testK, testNPFB, testM, testBeta))
	require.NoError(t, s.SetOutputRate(4))

	in := bpskStream(2000, testK, 6)
	pos := 0
	for ; pos < len(in) && s.rate.counter <= 2; pos++ {
		_ = s.Step(in[pos], nil)
	}
	require.Greater(t, s.rate.counter, 2, "counter never passed the new output rate")

	require.NoError(t, s.SetOutputRate(2))
	assert.LessOrEqual(t, s.rate.counter, 2)

	var boundaries int
	s.observer = ObserverFunc(func(Trace) { boundaries++ })
	out := s.Execute(in[pos:], nil)

	require.NotEmpty(t, out)
	assert.LessOrEqual(t, s.rate.counter, 2)
	assert.InDelta(t, len(out)/2, boundaries, 1)
}

func TestMaxOutputPerInput_Bounds(t *testing.T) {
	tests := []struct {
		name string
		k    int
		kOut int
		loop LoopFilterKind
		bt   float64
	}{
		{"single_pole_decimate", 2, 1, LoopSinglePole, 0.05},
		{"single_pole_interpolate", 2, 8, LoopSinglePole, 0.2},
		{"active_lag", 4, 2, LoopActiveLag, 0.05},
		{"full_bandwidth", 2, 4, LoopSinglePole, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSync(t, Params{SamplesPerSymbol: tt.k, NumFilters: 16, LoopFilter: tt.loop},
				rrcPrototype(t, tt.k, 16, testM, testBeta))
			require.NoError(t, s.SetOutputRate(tt.kOut))
			require.NoError(t, s.SetBandwidth(tt.bt))

			var out []complex128
			for _, x := range bpskStream(3000, tt.k, 13) {
				limit := s.MaxOutputPerInput()
				before := len(out)
				out = s.Step(x, out)
				require.LessOrEqual(t, len(out)-before, limit)
			}
			testutil.AssertNoNaNOrInf(t, realParts(out))
		})
	}
}

func TestActiveLag_TracksRate(t *testing.T) {
	s := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB, LoopFilter: LoopActiveLag},
		rrcPrototype(t, testK, testNPFB, testM, testBeta))
	assert.Equal(t, LoopActiveLag, s.Info().LoopFilter)

	in := bpskStream(20000, testK, 2)
	out := s.Execute(in, nil)

	ratio := float64(len(out)) / float64(len(in))
	assert.InDelta(t, 0.5, ratio, 0.05)
	testutil.AssertNoNaNOrInf(t, realParts(out))
}

func TestSynchronizer_RealSamples(t *testing.T) {
	h := rrcPrototype(t, testK, testNPFB, testM, testBeta)
	real32, err := New[float32](Params{SamplesPerSymbol: testK, NumFilters: testNPFB}, toFloat32(h))
	require.NoError(t, err)
	cplx := newTestSync(t, Params{SamplesPerSymbol: testK, NumFilters: testNPFB}, h)
	require.NoError(t, real32.SetBandwidth(0))
	require.NoError(t, cplx.SetBandwidth(0))

	noise := testutil.GaussianNoise(400, 1, 6)
	in32 := make([]float32, len(noise))
	for i, v := range noise {
		in32[i] = float32(v)
	}

	got := real32.Execute(in32, nil)
	want := cplx.Execute(testutil.ToComplex128(noise), nil)
	require.Len(t, got, len(want))
	for i := range got {
		assert.InDelta(t, real(want[i]), float64(got[i]), 1e-4)
	}
}

func realParts(x []complex128) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = real(v)
	}
	return out
}

func toFloat32(h []float64) []float32 {
	out := make([]float32, len(h))
	for i, v := range h {
		out[i] = float32(v)
	}
	return out
}

// phaseConcentration returns the mean resultant length of tau treated as a
// phase on the unit circle: 1 means every value is identical modulo one sample.
func phaseConcentration(taus []float64) float64 {
	var re, im float64
	for _, tau := range taus {
		re += math.Cos(2 * math.Pi * tau)
		im += math.Sin(2 * math.Pi * tau)
	}
	n := float64(len(taus))
	return math.Hypot(re/n, im/n)
}

func circularMeanTau(taus []float64) float64 {
	angles := make([]float64, len(taus))
	for i, tau := range taus {
		angles[i] = 2 * math.Pi * tau
	}
	return stat.CircularMean(angles, nil) / (2 * math.Pi)
}
