// Package diag records synchronizer loop state and exports it as an
// Octave/MATLAB script for offline inspection.
package diag

import (
	"github.com/sirupsen/logrus"
	"github.com/tphakala/go-symsync/internal/engine"
)

// DefaultWindowLength is the number of decimation boundaries each series keeps.
const DefaultWindowLength = 1024

// window is a fixed-length, zero-initialized series that keeps the most
// recent values.
type window struct {
	data []float64
	head int
}

func newWindow(n int) *window {
	return &window{data: make([]float64, n)}
}

func (w *window) push(v float64) {
	w.data[w.head] = v
	w.head++
	if w.head == len(w.data) {
		w.head = 0
	}
}

// read returns the series from oldest to newest.
func (w *window) read() []float64 {
	out := make([]float64, 0, len(w.data))
	out = append(out, w.data[w.head:]...)
	return append(out, w.data[:w.head]...)
}

func (w *window) clear() {
	clear(w.data)
	w.head = 0
}

// Recorder is an engine.Observer that keeps the last N values of the step,
// phase, soft and hard branch indices and filtered error.
type Recorder struct {
	del, tau, bf, b, qHat *window

	count  int64
	logger *logrus.Logger
}

// NewRecorder creates a recorder with windows of length n
// (DefaultWindowLength if n < 1). A nil logger selects the logrus
// standard logger.
func NewRecorder(n int, logger *logrus.Logger) *Recorder {
	if n < 1 {
		n = DefaultWindowLength
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Recorder{
		del:    newWindow(n),
		tau:    newWindow(n),
		bf:     newWindow(n),
		b:      newWindow(n),
		qHat:   newWindow(n),
		logger: logger,
	}
}

// ObserveDecimation implements engine.Observer.
func (r *Recorder) ObserveDecimation(tr engine.Trace) {
	r.del.push(tr.Delta)
	r.tau.push(tr.Tau)
	r.bf.push(tr.SoftBranch)
	r.b.push(float64(tr.Branch))
	r.qHat.push(tr.FilteredError)
	r.count++
}

// Len returns the window length.
func (r *Recorder) Len() int { return len(r.del.data) }

// Count returns the number of boundaries observed since creation or Reset.
func (r *Recorder) Count() int64 { return r.count }

// Series holds one snapshot of every recorded window, oldest first.
// Windows that have not filled yet are zero-padded at the start.
type Series struct {
	Delta         []float64
	Tau           []float64
	SoftBranch    []float64
	Branch        []float64
	FilteredError []float64
}

// Snapshot copies the current windows.
func (r *Recorder) Snapshot() Series {
	return Series{
		Delta:         r.del.read(),
		Tau:           r.tau.read(),
		SoftBranch:    r.bf.read(),
		Branch:        r.b.read(),
		FilteredError: r.qHat.read(),
	}
}

// Reset zeroes every window.
func (r *Recorder) Reset() {
	r.del.clear()
	r.tau.clear()
	r.bf.clear()
	r.b.clear()
	r.qHat.clear()
	r.count = 0
}
