// Package ports define the graph controller interface.
package ports

import (
	"github.com/auraplay/auraplay/internal/domain"
)

// GraphController is the writer-side contract of the audio signal graph.
// The graph is a per-session singleton: the node graph builder is its only
// implementation and the only component that mutates node wiring. The
// equalizer engine and effect selection write through this contract, never
// through node references.
type GraphController interface {
	// Initialize creates the fixed node set and taps the engine's decoded
	// stream. Idempotent: once initialized for the session, further calls
	// are no-ops. The reverb impulse response is fetched asynchronously;
	// its failure degrades reverb to unavailable without blocking playback.
	Initialize(engine AudioEngine) error

	// SetActiveEffect rewires the post-equalizer edges for the given effect.
	// The rewiring is derived fresh from the argument on every call and is
	// idempotent under repeated calls with the same argument.
	SetActiveEffect(kind domain.EffectKind) error

	// SetBandGain sets one equalizer band's gain in dB.
	// Out-of-range values are clamped to [-12, +12], never an error.
	SetBandGain(band int, gainDB float64) error

	// SetMasterGain sets the gain node's level (0.0 to 1.0).
	SetMasterGain(level float64)

	// Resume moves the processing context out of the suspended state.
	// The transport calls this before starting playback.
	Resume()

	// Suspend halts the processing context; samples pass through unprocessed
	// silence handling is the engine's concern.
	Suspend()

	// ReverbAvailable reports whether the impulse response loaded.
	ReverbAvailable() bool

	// SpectrumSnapshot returns the analyser's current magnitude bins.
	SpectrumSnapshot() []float64

	// Shutdown tears the graph down at session end.
	Shutdown() error
}
