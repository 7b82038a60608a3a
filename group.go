package symsync

import (
	"fmt"
	"sync"
)

// Group runs one synchronizer per channel over parallel streams that share
// a configuration, such as the channels of a multi-antenna receiver.
//
// Channels are independent: each has its own filter history, loop state
// and phase. Only channel 0 reports to Config.Observer.
type Group[S Sample, C Float] struct {
	channels []*Synchronizer[S, C]
	parallel bool
}

// NewGroup creates cfg.Channels synchronizers around the same prototype.
func NewGroup[S Sample, C Float](cfg *Config, prototype []C) (*Group[S, C], error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.channels()
	g := &Group[S, C]{
		channels: make([]*Synchronizer[S, C], n),
		parallel: cfg.EnableParallel,
	}

	for ch := range n {
		chCfg := *cfg
		if ch > 0 {
			chCfg.Observer = nil
		}
		s, err := New[S](&chCfg, prototype)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", ch, err)
		}
		g.channels[ch] = s
	}

	return g, nil
}

// NewGroupRNyquist is NewGroup with a designed prototype.
func NewGroupRNyquist[S Sample, C Float](cfg *Config, design DesignSpec) (*Group[S, C], error) {
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

	return NewGroup[S](cfg, convertCoefficients[C](h))
}

// NumChannels returns the number of channels.
func (g *Group[S, C]) NumChannels() int {
	return len(g.channels)
}

// Channel returns the synchronizer for channel ch.
func (g *Group[S, C]) Channel(ch int) *Synchronizer[S, C] {
	return g.channels[ch]
}

// Execute processes one block per channel.
// When EnableParallel is set, channels are processed concurrently.
// Otherwise, channels are processed sequentially.
func (g *Group[S, C]) Execute(input [][]S) ([][]S, error) {
	if len(input) != len(g.channels) {
		return nil, fmt.Errorf("%w: expected %d channels, got %d", ErrChannelCount, len(g.channels), len(input))
	}

	output := make([][]S, len(input))

	if !g.parallel || len(input) <= 1 {
		for ch := range input {
			output[ch] = g.executeChannel(ch, input[ch])
		}
		return output, nil
	}

	var wg sync.WaitGroup
	for ch := range input {
		wg.Add(1)
		go func(channel int) {
			defer wg.Done()
			output[channel] = g.executeChannel(channel, input[channel])
		}(ch)
	}
	wg.Wait()

	return output, nil
}

func (g *Group[S, C]) executeChannel(ch int, input []S) []S {
	s := g.channels[ch]
	dst := make([]S, 0, len(input)*s.MaxOutputPerInput())
	return s.Execute(input, dst)
}

// SetBandwidth sets the loop bandwidth on every channel.
func (g *Group[S, C]) SetBandwidth(bt float64) error {
	for ch, s := range g.channels {
		if err := s.SetBandwidth(bt); err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}
	}
	return nil
}

// Lock freezes the timing loop on every channel.
func (g *Group[S, C]) Lock() {
	for _, s := range g.channels {
		s.Lock()
	}
}

// Unlock resumes the timing loop on every channel.
func (g *Group[S, C]) Unlock() {
	for _, s := range g.channels {
		s.Unlock()
	}
}

// Reset clears the state of every channel.
func (g *Group[S, C]) Reset() {
	for _, s := range g.channels {
		s.Reset()
	}
}
