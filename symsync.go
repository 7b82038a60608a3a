package symsync

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-symsync/internal/engine"
	"github.com/tphakala/go-symsync/internal/filter"
	"github.com/tphakala/go-symsync/internal/simdops"
)

// Common errors returned by the synchronizer.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid synchronizer configuration")

	// ErrChannelCount indicates a multi-channel call with the wrong number of channels.
	ErrChannelCount = errors.New("channel count mismatch")
)

// Sample is the set of supported sample types.
type Sample = simdops.Sample

// Float is the set of supported filter coefficient types.
type Float = simdops.Float

// Observer receives the loop state at every decimation boundary.
type Observer = engine.Observer

// ObserverFunc adapts a function to Observer.
type ObserverFunc = engine.ObserverFunc

// Trace is the loop state captured at a decimation boundary.
type Trace = engine.Trace

// Info describes a synchronizer's configuration.
type Info = engine.Info

// LoopFilterKind selects the loop filter.
type LoopFilterKind = engine.LoopFilterKind

// Loop filters.
const (
	LoopSinglePole = engine.LoopSinglePole
	LoopActiveLag  = engine.LoopActiveLag
)

// LockPolicy selects what a locked loop does at a decimation boundary.
type LockPolicy = engine.LockPolicy

// Lock policies.
const (
	LockSkipsErrorUpdate = engine.LockSkipsErrorUpdate
	LockRepeatsBranch    = engine.LockRepeatsBranch
)

// FilterKind selects the prototype pulse shape for NewRNyquist.
type FilterKind = filter.Kind

// Pulse shapes.
const (
	FilterRRC    = filter.KindRRC
	FilterRC     = filter.KindRC
	FilterGMSKTx = filter.KindGMSKTx
	FilterKaiser = filter.KindKaiser
)

// DefaultBandwidth is the loop bandwidth used when Config.Bandwidth is zero.
const DefaultBandwidth = engine.DefaultBandwidth

// Config holds synchronizer configuration.
type Config struct {
	// SamplesPerSymbol is the input oversampling factor k (≥ 2).
	SamplesPerSymbol int

	// NumFilters is the number of polyphase branches npfb (≥ 1).
	// More branches give finer timing resolution.
	NumFilters int

	// OutputRate is the number of output samples per symbol k_out.
	// Zero selects 1 (one sample per symbol).
	OutputRate int

	// Bandwidth is the loop bandwidth bt in [0, 1]. Zero selects
	// DefaultBandwidth unless FreezeLoop is set.
	Bandwidth float64

	// FreezeLoop builds the synchronizer with bt = 0, so the step stays at
	// k/k_out. Bandwidth must be zero.
	FreezeLoop bool

	// LoopFilter selects the loop filter. The zero value is LoopSinglePole.
	LoopFilter LoopFilterKind

	// LockPolicy selects the locked-loop behavior. The zero value is
	// LockSkipsErrorUpdate.
	LockPolicy LockPolicy

	// Observer, when set, receives the loop state at every decimation boundary.
	Observer Observer

	// Channels is the number of independent streams handled by a Group.
	// Zero selects 1. Ignored by single-stream constructors.
	Channels int

	// EnableParallel processes Group channels concurrently.
	EnableParallel bool
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SamplesPerSymbol < minSamplesPerSymbol {
		return fmt.Errorf("%w: samples per symbol must be at least %d", ErrInvalidConfig, minSamplesPerSymbol)
	}

	if c.NumFilters < minNumFilters {
		return fmt.Errorf("%w: number of filters must be at least %d", ErrInvalidConfig, minNumFilters)
	}

	if c.OutputRate < 0 {
		return fmt.Errorf("%w: output rate must not be negative", ErrInvalidConfig)
	}

	if math.IsNaN(c.Bandwidth) || c.Bandwidth < 0 || c.Bandwidth > 1 {
		return fmt.Errorf("%w: bandwidth must be in [0, 1]", ErrInvalidConfig)
	}

	if c.FreezeLoop && c.Bandwidth != 0 {
		return fmt.Errorf("%w: bandwidth must be zero when the loop is frozen", ErrInvalidConfig)
	}

	if c.LoopFilter != LoopSinglePole && c.LoopFilter != LoopActiveLag {
		return fmt.Errorf("%w: unknown loop filter %v", ErrInvalidConfig, c.LoopFilter)
	}

	if c.LockPolicy != LockSkipsErrorUpdate && c.LockPolicy != LockRepeatsBranch {
		return fmt.Errorf("%w: unknown lock policy %v", ErrInvalidConfig, c.LockPolicy)
	}

	if c.Channels < 0 || c.Channels > maxChannels {
		return fmt.Errorf("%w: channels must be in [0, %d]", ErrInvalidConfig, maxChannels)
	}

	return nil
}

func (c *Config) outputRate() int {
	return max(c.OutputRate, 1)
}

func (c *Config) bandwidth() float64 {
	if c.FreezeLoop {
		return 0
	}
	if c.Bandwidth == 0 {
		return DefaultBandwidth
	}
	return c.Bandwidth
}

func (c *Config) channels() int {
	return max(c.Channels, 1)
}

// DesignSpec selects the prototype pulse synthesized by NewRNyquist.
type DesignSpec struct {
	// Kind is the pulse shape. The zero value is FilterRRC.
	Kind FilterKind

	// Delay is the pulse half-length in symbols (m ≥ 1).
	Delay int

	// ExcessBandwidth is the roll-off factor β in [0, 1]
	// (bandwidth-time product for FilterGMSKTx).
	ExcessBandwidth float64

	// Offset delays the pulse by a fraction of a sample, in [-1, 1].
	// Synchronizer prototypes use zero; a non-zero offset is meant for
	// synthesizing transmit pulses with a known timing error.
	Offset float64
}

// Validate checks if the design specification is valid.
func (d *DesignSpec) Validate() error {
	if d.Delay < minDelay {
		return fmt.Errorf("%w: filter delay must be at least %d symbol", ErrInvalidConfig, minDelay)
	}

	if math.IsNaN(d.ExcessBandwidth) || d.ExcessBandwidth < 0 || d.ExcessBandwidth > 1 {
		return fmt.Errorf("%w: excess bandwidth must be in [0, 1]", ErrInvalidConfig)
	}

	if math.IsNaN(d.Offset) || d.Offset < -1 || d.Offset > 1 {
		return fmt.Errorf("%w: offset must be in [-1, 1]", ErrInvalidConfig)
	}

	if _, err := filter.ParseKind(d.Kind.String()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// Synchronizer recovers symbol timing from an oversampled stream.
// S is the sample type, C the filter coefficient type.
//
// A Synchronizer is not safe for concurrent use; use one instance per stream.
type Synchronizer[S Sample, C Float] struct {
	*engine.Synchronizer[S, C]
}

// New creates a synchronizer around an explicit prototype matched filter.
//
// The prototype is decomposed into cfg.NumFilters branches of
// (len(prototype)-1)/cfg.NumFilters taps each; it must be long enough to
// give every branch at least one tap.
func New[S Sample, C Float](cfg *Config, prototype []C) (*Synchronizer[S, C], error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	core, err := engine.New[S](engine.Params{
		SamplesPerSymbol: cfg.SamplesPerSymbol,
		NumFilters:       cfg.NumFilters,
		LoopFilter:       cfg.LoopFilter,
		LockPolicy:       cfg.LockPolicy,
		Observer:         cfg.Observer,
	}, prototype)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	s := &Synchronizer[S, C]{Synchronizer: core}
	if err := s.SetOutputRate(cfg.outputRate()); err != nil {
		return nil, err
	}
	if err := s.SetBandwidth(cfg.bandwidth()); err != nil {
		return nil, err
	}
	return s, nil
}

// NewRNyquist creates a synchronizer whose prototype is designed from
// design at cfg.SamplesPerSymbol·cfg.NumFilters samples per symbol
// (length 2·k·npfb·m + 1).
func NewRNyquist[S Sample, C Float](cfg *Config, design DesignSpec) (*Synchronizer[S, C], error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := design.Validate(); err != nil {
		return nil, err
	}

	h, err := DesignPrototype(design, cfg.SamplesPerSymbol, cfg.NumFilters)
	if err != nil {
		return nil, err
	}

	return New[S](cfg, convertCoefficients[C](h))
}

// DesignPrototype synthesizes the pulse at k·npfb samples per symbol: the
// polyphase prototype for k samples per symbol and npfb branches, or a plain
// k samples-per-symbol pulse when npfb is 1.
func DesignPrototype(design DesignSpec, k, npfb int) ([]float64, error) {
	h, err := filter.Design(design.Kind, k*npfb, design.Delay, design.ExcessBandwidth, design.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return h, nil
}

func convertCoefficients[C Float](h []float64) []C {
	out := make([]C, len(h))
	for i, v := range h {
		out[i] = C(v)
	}
	return out
}

// SetBandwidth sets the loop bandwidth bt in [0, 1].
func (s *Synchronizer[S, C]) SetBandwidth(bt float64) error {
	if err := s.Synchronizer.SetBandwidth(bt); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// SetOutputRate sets the number of output samples per symbol (≥ 1).
func (s *Synchronizer[S, C]) SetOutputRate(kOut int) error {
	if err := s.Synchronizer.SetOutputRate(kOut); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// SetRate overrides the output/input rate directly (positive and finite).
func (s *Synchronizer[S, C]) SetRate(rate float64) error {
	if err := s.Synchronizer.SetRate(rate); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
