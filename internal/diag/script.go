package diag

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/tphakala/go-symsync/internal/engine"
)

// DefaultScriptName is the file name used when no path is given.
const DefaultScriptName = "symsync_internal_debug.m"

// WriteScript writes the recorded series as an Octave/MATLAB script to path.
//
// Failure to create or write the file is logged and returned; the recorder
// and the synchronizer it observes are unaffected.
func (r *Recorder) WriteScript(path string, info engine.Info) error {
	if path == "" {
		path = DefaultScriptName
	}
	log := r.logger.WithField("path", path)

	f, err := os.Create(path)
	if err != nil {
		log.WithError(err).Error("Could not open debug script for writing")
		return fmt.Errorf("failed to create debug script: %w", err)
	}

	w := bufio.NewWriter(f)
	writeErr := r.writeScript(w, filepath.Base(path), info)
	if writeErr == nil {
		writeErr = w.Flush()
	}
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		log.WithError(writeErr).Error("Failed to write debug script")
		return fmt.Errorf("failed to write debug script: %w", writeErr)
	}

	log.WithFields(logrus.Fields{
		"boundaries": r.count,
		"window":     r.Len(),
	}).Info("symsync internal results written")
	return nil
}

func (r *Recorder) writeScript(w io.Writer, name string, info engine.Info) error {
	ew := &errWriter{w: w}

	ew.printf("%% %s, auto-generated file\n\n", name)
	ew.printf("npfb = %d;\n", info.NumFilters)
	ew.printf("k = %d;\n", info.SamplesPerSymbol)
	ew.printf("\n\n")

	if err := writeLoopCoefficients(ew, info); err != nil {
		return err
	}
	ew.printf("\n\n")

	s := r.Snapshot()
	ew.printf("n = %d;\n", r.Len())
	for _, series := range []struct {
		name   string
		values []float64
	}{
		{"del", s.Delta},
		{"tau", s.Tau},
		{"bf", s.SoftBranch},
		{"b", s.Branch},
		{"q_hat", s.FilteredError},
	} {
		ew.printf("%s = zeros(1,n);\n", series.name)
		for i, v := range series.values {
			ew.printf("%s(%4d) = %12.8f;\n", series.name, i+1, v)
		}
		ew.printf("\n\n")
	}

	ew.printf("t=1:n;\n")
	ew.printf("figure;\n")
	ew.printf("hold on;\n")
	ew.printf("plot(t,b,'Color',[0.5 0.5 0.5]);\n")
	ew.printf("plot(t,bf,'LineWidth',2,'Color',[0 0.25 0.5]);\n")
	ew.printf("hold off;\n")
	ew.printf("grid on;\n")
	ew.printf("axis([t(1) t(end) -1 npfb]);\n")
	ew.printf("legend('b','b (soft)');\n")
	ew.printf("xlabel('Symbol Index')\n")
	ew.printf("ylabel('Polyphase Filter Index')\n")
	ew.printf("%% done.\n")

	return ew.err
}

// writeLoopCoefficients prints alpha/beta for the single-pole filter and
// the biquad vectors for the active-lag filter.
func writeLoopCoefficients(ew *errWriter, info engine.Info) error {
	loop, err := engine.NewLoopFilter(info.LoopFilter, info.Bandwidth)
	if err != nil {
		return err
	}

	switch lf := loop.(type) {
	case *engine.SinglePole:
		alpha, beta := lf.Coefficients()
		ew.printf("alpha = %12.5e;\n", alpha)
		ew.printf("beta = %12.5e;\n", beta)
	case *engine.ActiveLag:
		b, a := lf.Coefficients()
		ew.printf("b = [%12.5e %12.5e %12.5e];\n", b[0], b[1], b[2])
		ew.printf("a = [%12.5e %12.5e %12.5e];\n", a[0], a[1], a[2])
	}
	return nil
}

// errWriter stops writing after the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
