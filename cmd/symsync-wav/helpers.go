package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"

	symsync "github.com/tphakala/go-symsync"
)

// Float constraint for the sample buffers.
type Float interface {
	float32 | float64
}

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file         *os.File
	decoder      *wav.Decoder
	rate         int
	channels     int
	bitDepth     int
	totalSamples int64
	format       *audio.Format
}

// openWAVInput opens and validates a WAV file, returning format information.
func openWAVInput(path string) (*wavInputInfo, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)

	logrus.WithFields(logrus.Fields{
		"rate":      format.SampleRate,
		"channels":  format.NumChannels,
		"bit_depth": bitDepth,
	}).Debug("Input format")

	duration, err := decoder.Duration()
	if err != nil {
		duration = 0
	}
	totalSamples := int64(duration.Seconds() * float64(format.SampleRate))

	return &wavInputInfo{
		file:         inputFile,
		decoder:      decoder,
		rate:         format.SampleRate,
		channels:     format.NumChannels,
		bitDepth:     bitDepth,
		totalSamples: totalSamples,
		format:       format,
	}, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// wavOutputWriter wraps output file and fast writer.
type wavOutputWriter struct {
	file   *os.File
	writer *fastWAVWriter
}

// createWAVOutput creates output file and writer.
func createWAVOutput(path string, sampleRate, bitDepth, channels int) (*wavOutputWriter, error) {
	outputFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	fastWriter, err := newFastWAVWriter(outputFile, sampleRate, bitDepth, channels)
	if err != nil {
		_ = outputFile.Close()
		return nil, fmt.Errorf("failed to create WAV writer: %w", err)
	}

	return &wavOutputWriter{
		file:   outputFile,
		writer: fastWriter,
	}, nil
}

// WriteSamples writes samples to the output file.
func (w *wavOutputWriter) WriteSamples(samples []int) error {
	return w.writer.WriteSamples(samples)
}

// Close closes the output writer and file.
func (w *wavOutputWriter) Close() error {
	if err := w.writer.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// channelProcessor synchronizes one block of deinterleaved channels.
type channelProcessor[F Float] interface {
	process(channelBufs [][]F, n int) ([][]F, error)
}

// iqProcessor treats a two-channel file as in-phase and quadrature
// components of one complex stream.
type iqProcessor[F Float, X complex64 | complex128] struct {
	sync *symsync.Synchronizer[X, F]
	in   []X
	out  []X
	i, q []F
}

func newIQProcessor[F Float, X complex64 | complex128](cfg *symsync.Config, design symsync.DesignSpec) (*iqProcessor[F, X], error) {
	s, err := symsync.NewRNyquist[X, F](cfg, design)
	if err != nil {
		return nil, err
	}
	return &iqProcessor[F, X]{
		sync: s,
		in:   make([]X, bufferSize),
	}, nil
}

func (p *iqProcessor[F, X]) process(channelBufs [][]F, n int) ([][]F, error) {
	if len(channelBufs) != stereoChannels {
		return nil, fmt.Errorf("I/Q processing needs %d channels, got %d", stereoChannels, len(channelBufs))
	}
	if cap(p.in) < n {
		p.in = make([]X, n)
	}
	in := p.in[:n]
	re, im := channelBufs[0], channelBufs[1]
	for k := range n {
		in[k] = X(complex(float64(re[k]), float64(im[k])))
	}

	p.out = p.sync.Execute(in, p.out[:0])

	p.i = p.i[:0]
	p.q = p.q[:0]
	for _, v := range p.out {
		c := complex128(v)
		p.i = append(p.i, F(real(c)))
		p.q = append(p.q, F(imag(c)))
	}
	return [][]F{p.i, p.q}, nil
}

// realProcessor runs an independent real-valued synchronizer per channel.
type realProcessor[F Float] struct {
	group *symsync.Group[F, F]
	in    [][]F
}

func newRealProcessor[F Float](cfg *symsync.Config, design symsync.DesignSpec) (*realProcessor[F], error) {
	g, err := symsync.NewGroupRNyquist[F, F](cfg, design)
	if err != nil {
		return nil, err
	}
	return &realProcessor[F]{
		group: g,
		in:    make([][]F, g.NumChannels()),
	}, nil
}

func (p *realProcessor[F]) process(channelBufs [][]F, n int) ([][]F, error) {
	for ch := range p.in {
		p.in[ch] = channelBufs[ch][:n]
	}
	return p.group.Execute(p.in)
}

// frameAligner holds per-channel output until every channel can contribute
// to a frame. Real-valued channels run independent loops and may emit
// different counts per block.
type frameAligner[F Float] struct {
	pending [][]F
}

func newFrameAligner[F Float](channels int) *frameAligner[F] {
	return &frameAligner[F]{pending: make([][]F, channels)}
}

// push appends new output and returns the frames complete on every channel.
func (a *frameAligner[F]) push(out [][]F) [][]F {
	frames := -1
	for ch := range a.pending {
		a.pending[ch] = append(a.pending[ch], out[ch]...)
		if frames < 0 || len(a.pending[ch]) < frames {
			frames = len(a.pending[ch])
		}
	}
	return a.take(max(frames, 0))
}

// flush pads shorter channels with zeros and returns everything pending.
func (a *frameAligner[F]) flush() [][]F {
	frames := 0
	for _, p := range a.pending {
		frames = max(frames, len(p))
	}
	for ch, p := range a.pending {
		if len(p) < frames {
			padded := make([]F, frames)
			copy(padded, p)
			a.pending[ch] = padded
		}
	}
	return a.take(frames)
}

func (a *frameAligner[F]) take(frames int) [][]F {
	ready := make([][]F, len(a.pending))
	for ch, p := range a.pending {
		ready[ch] = make([]F, frames)
		copy(ready[ch], p[:frames])
		a.pending[ch] = append(p[:0], p[frames:]...)
	}
	return ready
}

// processBuffers holds all preallocated buffers for the processing loop.
type processBuffers[F Float] struct {
	intBuffer    *audio.IntBuffer
	channelBufs  [][]F
	outputIntBuf []int
	invMaxVal    float64
	maxVal       float64
}

// newProcessBuffers creates and preallocates all processing buffers.
func newProcessBuffers[F Float](channels, bitDepth int, format *audio.Format) *processBuffers[F] {
	intBuffer := &audio.IntBuffer{
		Data:   make([]int, bufferSize*channels),
		Format: format,
	}

	channelBufs := make([][]F, channels)
	for ch := range channels {
		channelBufs[ch] = make([]F, bufferSize)
	}

	maxVal := getMaxValue(bitDepth)
	return &processBuffers[F]{
		intBuffer:    intBuffer,
		channelBufs:  channelBufs,
		outputIntBuf: make([]int, bufferSize*channels),
		invMaxVal:    1.0 / maxVal,
		maxVal:       maxVal,
	}
}

// progressTracker handles progress reporting.
type progressTracker struct {
	totalSamples int64
	lastProgress int
	verbose      bool
}

// newProgressTracker creates a new progress tracker.
func newProgressTracker(totalSamples int64, verbose bool) *progressTracker {
	return &progressTracker{
		totalSamples: totalSamples,
		verbose:      verbose,
	}
}

// reportIfNeeded reports progress if threshold crossed.
func (p *progressTracker) reportIfNeeded(currentSamples int64) {
	if !p.verbose || p.totalSamples == 0 {
		return
	}

	progress := int(float64(currentSamples) / float64(p.totalSamples) * percentScale)
	if progress >= p.lastProgress+progressInterval {
		logrus.WithField("percent", progress).Info("Progress")
		p.lastProgress = progress
	}
}

// getMaxValue returns the maximum sample value for the given bit depth.
func getMaxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// deinterleaveInto converts interleaved int samples into preallocated per-channel buffers.
func deinterleaveInto[F Float](data []int, channelBufs [][]F, numChannels, samplesPerChannel int, invMaxVal float64) {
	if numChannels == stereoChannels {
		buf0, buf1 := channelBufs[0], channelBufs[1]
		for i := range samplesPerChannel {
			idx := i * stereoChannels
			buf0[i] = F(float64(data[idx]) * invMaxVal)
			buf1[i] = F(float64(data[idx+1]) * invMaxVal)
		}
		return
	}

	for i := range samplesPerChannel {
		base := i * numChannels
		for ch := range numChannels {
			channelBufs[ch][i] = F(float64(data[base+ch]) * invMaxVal)
		}
	}
}

// interleaveInto converts equal-length per-channel slices into dst,
// clamping to [-1, 1]. It grows dst when needed and returns it resliced
// to the written length.
func interleaveInto[F Float](channels [][]F, dst []int, maxVal float64) []int {
	if len(channels) == 0 || len(channels[0]) == 0 {
		return dst[:0]
	}

	numChannels := len(channels)
	totalLen := len(channels[0]) * numChannels
	if cap(dst) < totalLen {
		dst = make([]int, totalLen)
	}
	dst = dst[:totalLen]

	for i := range len(channels[0]) {
		base := i * numChannels
		for ch := range numChannels {
			sample := min(max(float64(channels[ch][i]), -1.0), 1.0)
			dst[base+ch] = int(sample * maxVal)
		}
	}
	return dst
}
