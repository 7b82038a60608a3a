package engine

// Trace is the synchronizer state captured at a decimation boundary.
type Trace struct {
	Delta         float64 // interpolation step (del)
	Tau           float64 // accumulated phase
	SoftBranch    float64 // bf
	Branch        int     // b
	FilteredError float64 // q_hat
}

// Observer receives a Trace at every decimation boundary, before the
// lock check. Implementations must not retain the synchronizer.
type Observer interface {
	ObserveDecimation(Trace)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Trace)

// ObserveDecimation calls f(tr).
func (f ObserverFunc) ObserveDecimation(tr Trace) {
	f(tr)
}
