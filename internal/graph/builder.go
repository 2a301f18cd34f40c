package graph

import (
	"log/slog"
	"sync"

	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/dsp"
	"github.com/auraplay/auraplay/internal/ports"
)

// Tone filter and band constants from the signal chain design.
const (
	bandQ    = 1.4
	toneFreq = 800
	toneQ    = 1
	fftSize  = 128
)

// Config holds graph construction parameters.
type Config struct {
	// SampleRate is the processing context's sample rate in Hz
	SampleRate int

	// ImpulseResponsePath is the WAV file loaded into the reverb convolver
	ImpulseResponsePath string
}

// Builder owns the audio signal graph for one session. Exactly one instance
// exists per mounted player: Initialize runs once, at application wiring,
// and the graph is never recreated while the session lives, because the
// engine's decoded stream can be tapped only once.
//
// The builder is the graph's only writer. The equalizer engine and effect
// selection write through its contract (ports.GraphController), never
// through node references.
type Builder struct {
	logger *slog.Logger
	cfg    Config

	mu          sync.RWMutex
	initialized bool
	suspended   bool
	active      domain.EffectKind

	// Fixed node set, created once in Initialize
	gain     *dsp.Gain
	bands    [domain.BandCount]*dsp.Biquad
	reverb   *dsp.Convolver
	tone     *dsp.Biquad
	analyser *dsp.Analyser

	// edges maps each node to its single downstream node. Storing the
	// topology this way makes "no node feeds two downstream nodes" hold by
	// construction.
	edges map[NodeID]NodeID

	// chain is the compiled source-to-destination processor order,
	// rebuilt on every rewire and read by the playback goroutine.
	chain []dsp.Processor

	reverbErr error
	loaderWg  sync.WaitGroup
}

// New creates a graph builder. Nodes are not created until Initialize.
func New(logger *slog.Logger, cfg Config) *Builder {
	return &Builder{
		logger: logger,
		cfg:    cfg,
		edges:  make(map[NodeID]NodeID),
	}
}

// Initialize creates the fixed node set, chains the equalizer bands in
// series, taps the engine's decoded stream, and starts the asynchronous
// impulse-response fetch for the reverb unit.
//
// Idempotent: once initialized for the session, further calls are no-ops.
// An impulse-response failure degrades reverb to unavailable but never
// blocks the graph from becoming playable.
func (b *Builder) Initialize(engine ports.AudioEngine) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	if err := engine.SetProcessor(b); err != nil {
		return err
	}

	sr := float64(b.cfg.SampleRate)
	b.gain = dsp.NewGain(1)
	for i := 0; i < domain.BandCount; i++ {
		b.bands[i] = dsp.NewPeaking(sr, domain.BandFrequencies[i], bandQ, 0)
	}
	b.reverb = dsp.NewConvolver()
	b.tone = dsp.NewLowPass(sr, toneFreq, toneQ)
	b.analyser = dsp.NewAnalyser(fftSize)

	b.initialized = true
	b.suspended = true
	b.active = domain.EffectNone
	b.rewireLocked()

	b.loaderWg.Add(1)
	go b.loadImpulseResponse()

	b.logger.Debug("audio graph initialized",
		slog.Int("sample_rate", b.cfg.SampleRate),
		slog.Int("bands", domain.BandCount))

	return nil
}

// SetActiveEffect rewires the edges after the band chain for the given
// effect. Selecting reverb while its impulse response is unavailable still
// records the selection; the convolver just passes audio through dry.
func (b *Builder) SetActiveEffect(kind domain.EffectKind) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return domain.ErrGraphNotInitialized
	}

	b.active = kind
	b.rewireLocked()

	b.logger.Debug("graph rewired", slog.String("effect", kind.String()))
	return nil
}

// SetBandGain sets one equalizer band's gain parameter. The value is
// clamped to [-12, +12] dB; an out-of-range band index is ignored.
func (b *Builder) SetBandGain(band int, gainDB float64) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return domain.ErrGraphNotInitialized
	}
	if band < 0 || band >= domain.BandCount {
		b.logger.Warn("band index out of range", slog.Int("band", band))
		return nil
	}

	b.bands[band].SetGainDB(domain.ClampBandGain(gainDB))
	return nil
}

// SetMasterGain sets the gain node's level (clamped to [0, 1]).
func (b *Builder) SetMasterGain(level float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return
	}
	b.gain.SetLevel(level)
}

// Resume moves the processing context out of the suspended state.
func (b *Builder) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suspended = false
}

// Suspend halts processing; samples pass through untouched.
func (b *Builder) Suspend() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suspended = true
}

// Suspended reports whether the processing context is suspended.
func (b *Builder) Suspended() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.suspended
}

// ReverbAvailable reports whether the impulse response loaded.
func (b *Builder) ReverbAvailable() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized && b.reverb.Loaded()
}

// ActiveEffect returns the effect currently wired into the path.
func (b *Builder) ActiveEffect() domain.EffectKind {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

// SpectrumSnapshot returns the analyser's current magnitude bins, or nil
// before initialization.
func (b *Builder) SpectrumSnapshot() []float64 {
	b.mu.RLock()
	analyser := b.analyser
	b.mu.RUnlock()

	if analyser == nil {
		return nil
	}
	return analyser.Spectrum()
}

// Edges returns a snapshot of the current edge list.
func (b *Builder) Edges() []Edge {
	b.mu.RLock()
	defer b.mu.RUnlock()

	edges := make([]Edge, 0, len(b.edges))
	for from, to := range b.edges {
		edges = append(edges, Edge{From: from, To: to})
	}
	return edges
}

// ProcessSamples runs the buffer through the compiled chain. Called from
// the playback goroutine.
func (b *Builder) ProcessSamples(samples [][2]float64) {
	b.mu.RLock()
	chain := b.chain
	suspended := b.suspended || !b.initialized
	b.mu.RUnlock()

	if suspended {
		return
	}
	for _, p := range chain {
		p.Process(samples)
	}
}

// Shutdown waits for the impulse loader and tears the graph down.
func (b *Builder) Shutdown() error {
	b.loaderWg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = false
	b.chain = nil
	b.edges = make(map[NodeID]NodeID)
	return nil
}

// rewireLocked rebuilds the wiring for the current active effect. It first
// disconnects the dynamic outgoing edges (gain, last band, both effect
// units) and only then reconnects, so a duplicate or parallel path can
// never exist, and it completes before the lock is released, so the
// processing goroutine never observes an intermediate state.
func (b *Builder) rewireLocked() {
	delete(b.edges, NodeGain)
	delete(b.edges, BandNode(domain.BandCount-1))
	delete(b.edges, NodeReverb)
	delete(b.edges, NodeTone)

	for _, e := range DeriveTopology(b.active) {
		b.edges[e.From] = e.To
	}

	b.chain = b.compileChainLocked()
}

// compileChainLocked walks the single path from source to destination and
// returns the processors in signal order.
func (b *Builder) compileChainLocked() []dsp.Processor {
	processors := map[NodeID]dsp.Processor{
		NodeGain:     b.gain,
		NodeReverb:   b.reverb,
		NodeTone:     b.tone,
		NodeAnalyser: b.analyser,
	}
	for i := 0; i < domain.BandCount; i++ {
		processors[BandNode(i)] = b.bands[i]
	}

	var chain []dsp.Processor
	node := NodeSource
	for steps := 0; node != NodeDestination; steps++ {
		if steps > len(b.edges) {
			// A cycle here would be a programming error in DeriveTopology.
			b.logger.Error("signal path does not reach destination")
			return nil
		}
		next, ok := b.edges[node]
		if !ok {
			b.logger.Error("signal path broken", slog.String("node", string(node)))
			return nil
		}
		if p, ok := processors[next]; ok {
			chain = append(chain, p)
		}
		node = next
	}
	return chain
}

// Interface compliance checks.
var (
	_ ports.GraphController = (*Builder)(nil)
	_ ports.SampleProcessor = (*Builder)(nil)
)
