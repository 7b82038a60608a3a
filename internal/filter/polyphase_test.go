package filter

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testNumBranches = 4
	testPrototype   = 13 // 4 branches × 3 taps + 1 dropped tap
	coeffTolerance  = 1e-12
)

func rampPrototype(n int) []float64 {
	h := make([]float64, n)
	for i := range h {
		h[i] = float64(i + 1)
	}
	return h
}

func TestNewBank_Validation(t *testing.T) {
	h := rampPrototype(testPrototype)

	tests := []struct {
		name string
		npfb int
		h    []float64
		taps int
	}{
		{"zero_branches", 0, h, 3},
		{"zero_taps", testNumBranches, h, 0},
		{"empty_prototype", testNumBranches, nil, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank, err := NewBank[float64](tt.npfb, tt.h, tt.taps)
			require.Error(t, err)
			assert.Nil(t, bank)
		})
	}
}

func TestBank_Decomposition(t *testing.T) {
	h := rampPrototype(testPrototype)
	taps := (len(h) - 1) / testNumBranches

	bank, err := NewBank[float64](testNumBranches, h, taps)
	require.NoError(t, err)

	assert.Equal(t, testNumBranches, bank.NumBranches())
	assert.Equal(t, 3, bank.TapsPerBranch())

	for i := range testNumBranches {
		branch := bank.Branch(i)
		for n := range taps {
			assert.InDelta(t, h[i+n*testNumBranches], branch[n], coeffTolerance,
				"branch %d tap %d", i, n)
		}
	}
}

func TestBank_ShortPrototypeIsZeroPadded(t *testing.T) {
	h := []float64{1, 2, 3}
	bank, err := NewBank[float64](2, h, 3)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 3, 0}, bank.Branch(0))
	assert.Equal(t, []float64{2, 0, 0}, bank.Branch(1))
}

func TestBank_ImpulseResponse(t *testing.T) {
	h := rampPrototype(testPrototype)
	taps := 3

	bank, err := NewBank[float64](testNumBranches, h, taps)
	require.NoError(t, err)

	// After pushing an impulse followed by j zeros, branch i reads h[i+j·npfb].
	bank.Push(1)
	for j := range taps {
		if j > 0 {
			bank.Push(0)
		}
		for i := range testNumBranches {
			assert.InDelta(t, h[i+j*testNumBranches], bank.Execute(i), coeffTolerance,
				"branch %d after %d zeros", i, j)
		}
	}

	// The impulse has left the window.
	bank.Push(0)
	for i := range testNumBranches {
		assert.InDelta(t, 0, bank.Execute(i), coeffTolerance)
	}
}

func TestBank_MatchesDirectConvolution(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	const (
		npfb = 8
		taps = 5
	)
	h := make([]float64, npfb*taps+1)
	for i := range h {
		h[i] = rng.NormFloat64()
	}
	x := make([]complex128, 64)
	for i := range x {
		x[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}

	bank, err := NewBank[complex128](npfb, h, taps)
	require.NoError(t, err)

	for t0, v := range x {
		bank.Push(v)
		for i := range npfb {
			var want complex128
			for n := range taps {
				if t0-n >= 0 {
					want += x[t0-n] * complex(h[i+n*npfb], 0)
				}
			}
			got := bank.Execute(i)
			assert.InDelta(t, real(want), real(got), 1e-9)
			assert.InDelta(t, imag(want), imag(got), 1e-9)
		}
	}
}

func TestBank_MixedPrecision(t *testing.T) {
	h := []float32{0.5, 0.25, -1, 2}
	bank, err := NewBank[complex64](2, h, 2)
	require.NoError(t, err)

	bank.Push(complex(1, -1))
	bank.Push(complex(2, 0))

	// branch 0 taps: h[0], h[2]; newest sample pairs with h[0]
	got := bank.Execute(0)
	assert.InDelta(t, 2*0.5+1*-1, float64(real(got)), 1e-6)
	assert.InDelta(t, -1*-1, float64(imag(got)), 1e-6)
}

func TestBank_Clear(t *testing.T) {
	bank, err := NewBank[float64](testNumBranches, rampPrototype(testPrototype), 3)
	require.NoError(t, err)

	for range 7 {
		bank.Push(1)
	}
	require.NotZero(t, bank.Execute(0))

	bank.Clear()
	for i := range testNumBranches {
		assert.Zero(t, bank.Execute(i))
	}

	// History keeps working after a clear.
	bank.Push(1)
	assert.InDelta(t, 1.0, bank.Execute(0), coeffTolerance)
}

func TestDerivativeCoefficients(t *testing.T) {
	h := []float64{1, 4, 9, 16, 25}
	const npfb = 32
	scale := float64(npfb) / 16

	dh := DerivativeCoefficients(h, npfb)
	require.Len(t, dh, len(h))

	// interior
	for i := 1; i < len(h)-1; i++ {
		assert.InDelta(t, (h[i+1]-h[i-1])*scale, dh[i], coeffTolerance, "dh[%d]", i)
	}
	// wrap at both ends
	assert.InDelta(t, (h[1]-h[4])*scale, dh[0], coeffTolerance)
	assert.InDelta(t, (h[0]-h[3])*scale, dh[4], coeffTolerance)
}

func TestDerivativeCoefficients_SymmetricPrototypeIsAntisymmetric(t *testing.T) {
	h, err := Design(KindRRC, 8, 2, 0.5, 0)
	require.NoError(t, err)

	dh := DerivativeCoefficients(h, 8)
	n := len(dh)
	for i := 1; i < n-1; i++ {
		assert.InDelta(t, -dh[n-1-i], dh[i], 1e-12, "dh[%d]", i)
	}
	assert.InDelta(t, 0, dh[n/2], 1e-12)
}

func TestDerivativeCoefficients_Empty(t *testing.T) {
	assert.Empty(t, DerivativeCoefficients([]float32{}, 4))
}

func BenchmarkBankExecute(b *testing.B) {
	h, err := Design(KindRRC, 2*32, 3, 0.5, 0)
	require.NoError(b, err)
	bank, err := NewBank[complex64](32, toFloat32(h), (len(h)-1)/32)
	require.NoError(b, err)

	i := 0
	for b.Loop() {
		bank.Push(complex(1, -1))
		_ = bank.Execute(i % 32)
		i++
	}
}

func toFloat32(h []float64) []float32 {
	out := make([]float32, len(h))
	for i, v := range h {
		out[i] = float32(v)
	}
	return out
}
