// Package mock provides an in-memory implementation of the AudioEngine
// interface. It is used for testing services without decoding real audio.
package mock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/ports"
)

// defaultDuration is the simulated length of every loaded track.
const defaultDuration = 3 * time.Minute

// Engine simulates audio playback in memory.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	logger *slog.Logger

	mu         sync.RWMutex
	processor  ports.SampleProcessor
	tracks     map[domain.TrackHandle]*mockTrack
	nextHandle domain.TrackHandle
	shutdown   bool

	// Behavior configuration for testing error scenarios
	failLoad error
	failPlay error
}

// mockTrack represents a loaded track in the mock engine.
type mockTrack struct {
	source   domain.MediaSource
	duration time.Duration
	position time.Duration
	status   domain.PlaybackStatus
}

// NewEngine creates a new mock audio engine.
func NewEngine() *Engine {
	return &Engine{
		tracks:     make(map[domain.TrackHandle]*mockTrack),
		nextHandle: 1,
	}
}

// SetLogger sets the logger for this engine.
// This should be called after construction before using the engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetFailLoad configures Load to fail with the given error (nil clears).
func (m *Engine) SetFailLoad(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = err
}

// SetFailPlay configures Play to fail with the given error (nil clears).
func (m *Engine) SetFailPlay(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = err
}

// SetProcessor installs the single sample tap for the pipeline.
func (m *Engine) SetProcessor(p ports.SampleProcessor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.processor != nil {
		return domain.ErrSourceTapped
	}
	m.processor = p
	return nil
}

// Processor returns the installed sample tap (for testing).
func (m *Engine) Processor() ports.SampleProcessor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.processor
}

// Load registers a media source and returns a handle. The source is opened
// to validate it has not been released, then closed again.
func (m *Engine) Load(source domain.MediaSource) (domain.TrackHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}
	if m.failLoad != nil {
		return domain.InvalidTrackHandle, m.failLoad
	}
	if source == nil {
		return domain.InvalidTrackHandle, domain.ErrInvalidTrackHandle
	}

	r, err := source.Open()
	if err != nil {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", source.MIMEType(), "open source", err)
	}
	_ = r.Close()

	handle := m.nextHandle
	m.nextHandle++

	m.tracks[handle] = &mockTrack{
		source:   source,
		duration: defaultDuration,
		status:   domain.StatusStopped,
	}
	return handle, nil
}

// Unload removes a previously loaded track.
func (m *Engine) Unload(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tracks[handle]; !exists {
		return domain.ErrInvalidTrackHandle
	}
	delete(m.tracks, handle)
	return nil
}

// Play starts or resumes playback.
func (m *Engine) Play(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failPlay != nil {
		return m.failPlay
	}

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	// After a natural end the engine restarts from the beginning.
	if track.status == domain.StatusStopped && track.position >= track.duration {
		track.position = 0
	}
	track.status = domain.StatusPlaying
	return nil
}

// Pause suspends playback with the position preserved.
func (m *Engine) Pause(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	if track.status == domain.StatusPlaying {
		track.status = domain.StatusPaused
	}
	return nil
}

// Stop halts playback and rewinds to the start.
func (m *Engine) Stop(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	track.status = domain.StatusStopped
	track.position = 0
	return nil
}

// Status returns the playback status.
func (m *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, exists := m.tracks[handle]
	if !exists {
		return domain.StatusStopped, domain.ErrInvalidTrackHandle
	}
	return track.status, nil
}

// Position returns the current playback position.
func (m *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, exists := m.tracks[handle]
	if !exists {
		return 0, domain.ErrInvalidTrackHandle
	}
	return track.position, nil
}

// Duration returns the total track duration.
func (m *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, exists := m.tracks[handle]
	if !exists {
		return 0, domain.ErrInvalidTrackHandle
	}
	return track.duration, nil
}

// Seek sets the playback position, clamped to the track's duration.
func (m *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	if position < 0 {
		position = 0
	}
	if position > track.duration {
		position = track.duration
	}
	track.position = position
	return nil
}

// Shutdown releases all tracks and stops the engine.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdown = true
	m.tracks = make(map[domain.TrackHandle]*mockTrack)
	m.processor = nil
	return nil
}

// LoadedTracks returns the number of currently loaded tracks (for testing).
func (m *Engine) LoadedTracks() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tracks)
}

// SimulateProgress advances a playing track's position (for testing).
// Reaching the end transitions the track to the stopped status, the same
// signal a real decoder gives when the stream drains.
func (m *Engine) SimulateProgress(handle domain.TrackHandle, delta time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, exists := m.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	if track.status != domain.StatusPlaying {
		return domain.NewAudioEngineError("progress", "", "track is not playing", nil)
	}

	track.position += delta
	if track.position >= track.duration {
		track.position = track.duration
		track.status = domain.StatusStopped
	}
	return nil
}

// FinishTrack drives a playing track to its natural end (for testing).
func (m *Engine) FinishTrack(handle domain.TrackHandle) error {
	m.mu.RLock()
	track, exists := m.tracks[handle]
	m.mu.RUnlock()

	if !exists {
		return domain.ErrInvalidTrackHandle
	}
	return m.SimulateProgress(handle, track.duration)
}

// Verify that Engine implements the AudioEngine interface.
var _ ports.AudioEngine = (*Engine)(nil)
