// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"time"

	"github.com/auraplay/auraplay/internal/domain"
)

// SampleProcessor receives decoded audio on its way to the output device.
// The node graph builder implements this; the audio engine calls it from the
// playback goroutine with interleaved stereo samples in [-1, 1].
type SampleProcessor interface {
	// ProcessSamples mutates the buffer in place.
	ProcessSamples(samples [][2]float64)
}

// AudioEngine is the interface for audio playback engines.
// It wraps the host platform's media decoder and output device; decoding and
// resampling are its problem, signal processing is the graph's.
//
// Implementations must be thread-safe.
type AudioEngine interface {
	// SetProcessor installs the single processing tap on the decoded stream.
	// A media pipeline permits exactly one tap: a second call returns
	// domain.ErrSourceTapped.
	SetProcessor(p SampleProcessor) error

	// Load decodes a media source and returns a handle to it.
	// Loading releases any pending play request for the previous track with
	// domain.ErrPlaybackAborted.
	Load(source domain.MediaSource) (domain.TrackHandle, error)

	// Unload releases decoder resources for a previously loaded track.
	Unload(handle domain.TrackHandle) error

	// Play starts or resumes playback of the specified track.
	// Returns an error if the platform rejects the request (e.g. an
	// unsupported format discovered at play time).
	Play(handle domain.TrackHandle) error

	// Pause pauses playback, preserving the position.
	Pause(handle domain.TrackHandle) error

	// Stop halts playback and rewinds to the start.
	Stop(handle domain.TrackHandle) error

	// Status returns the engine's playback status for the track.
	Status(handle domain.TrackHandle) (domain.PlaybackStatus, error)

	// Position returns the current playback position within the track.
	Position(handle domain.TrackHandle) (time.Duration, error)

	// Duration returns the total duration of the track.
	Duration(handle domain.TrackHandle) (time.Duration, error)

	// Seek sets the playback position. Positions outside [0, Duration]
	// are clamped by the implementation.
	Seek(handle domain.TrackHandle, position time.Duration) error

	// Shutdown releases all engine resources.
	Shutdown() error
}
