package symsync

// NewComplex creates a complex64 synchronizer with a root-raised-cosine
// prototype of the default delay and excess bandwidth.
func NewComplex(samplesPerSymbol int) (*Synchronizer[complex64, float32], error) {
	return NewRNyquist[complex64, float32](&Config{
		SamplesPerSymbol: samplesPerSymbol,
		NumFilters:       DefaultNumFilters,
	}, DesignSpec{
		Kind:            FilterRRC,
		Delay:           DefaultDelay,
		ExcessBandwidth: DefaultExcessBandwidth,
	})
}

// NewReal creates a float64 synchronizer for real-valued baseband such as
// PAM or binary FSK after discrimination.
func NewReal(samplesPerSymbol int) (*Synchronizer[float64, float64], error) {
	return NewRNyquist[float64, float64](&Config{
		SamplesPerSymbol: samplesPerSymbol,
		NumFilters:       DefaultNumFilters,
	}, DesignSpec{
		Kind:            FilterRRC,
		Delay:           DefaultDelay,
		ExcessBandwidth: DefaultExcessBandwidth,
	})
}

// SynchronizeComplex is a convenience function for one-shot symbol recovery.
// It creates a synchronizer with default settings, runs the whole input
// through it and returns one sample per recovered symbol.
func SynchronizeComplex(input []complex64, samplesPerSymbol int, design DesignSpec) ([]complex64, error) {
	s, err := NewRNyquist[complex64, float32](&Config{
		SamplesPerSymbol: samplesPerSymbol,
		NumFilters:       DefaultNumFilters,
	}, design)
	if err != nil {
		return nil, err
	}

	dst := make([]complex64, 0, len(input)/samplesPerSymbol+s.MaxOutputPerInput())
	return s.Execute(input, dst), nil
}

// InterleaveIQ converts complex samples to interleaved I/Q.
// Output format: [I0, Q0, I1, Q1, I2, Q2, ...]
func InterleaveIQ(x []complex64) []float32 {
	result := make([]float32, len(x)*iqComponents)
	for i, v := range x {
		result[i*iqComponents] = real(v)
		result[i*iqComponents+1] = imag(v)
	}
	return result
}

// DeinterleaveIQ converts interleaved I/Q to complex samples.
// Input format: [I0, Q0, I1, Q1, I2, Q2, ...]; a trailing odd value is dropped.
func DeinterleaveIQ(interleaved []float32) []complex64 {
	numSamples := len(interleaved) / iqComponents
	result := make([]complex64, numSamples)
	for i := range numSamples {
		result[i] = complex(interleaved[i*iqComponents], interleaved[i*iqComponents+1])
	}
	return result
}

// ComplexFromIQ combines separate I and Q channels into complex samples.
// The result has the length of the shorter input.
func ComplexFromIQ(i, q []float64) []complex128 {
	n := min(len(i), len(q))
	result := make([]complex128, n)
	for k := range n {
		result[k] = complex(i[k], q[k])
	}
	return result
}

// SplitIQ separates complex samples into I and Q channels.
func SplitIQ(x []complex128) (i, q []float64) {
	i = make([]float64, len(x))
	q = make([]float64, len(x))
	for k, v := range x {
		i[k] = real(v)
		q[k] = imag(v)
	}
	return i, q
}
