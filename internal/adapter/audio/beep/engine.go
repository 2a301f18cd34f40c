// Package beep implements the AudioEngine interface on the beep playback
// library. Tracks are decoded from their media sources, resampled to the
// engine rate, and mixed through the process-wide speaker.
package beep

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	beeplib "github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"

	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/ports"
)

// resampleQuality balances resampler CPU cost against interpolation accuracy.
const resampleQuality = 4

// Engine is the beep-backed audio engine.
//
// Thread-safety: This implementation is thread-safe. The installed sample
// processor is captured at Load time, so the speaker goroutine never touches
// the engine's lock.
type Engine struct {
	logger     *slog.Logger
	sampleRate beeplib.SampleRate

	mu         sync.RWMutex
	processor  ports.SampleProcessor
	tracks     map[domain.TrackHandle]*track
	nextHandle domain.TrackHandle
	shutdown   bool
}

// track is one decoded stream queued on the speaker.
type track struct {
	stream beeplib.StreamSeekCloser
	format beeplib.Format
	ctrl   *beeplib.Ctrl
	queued bool
	status domain.PlaybackStatus

	// drained flips when the stream plays to its natural end. Written from
	// the speaker goroutine, so it stays off the engine lock.
	drained atomic.Bool
}

// NewEngine initializes the speaker at the given sample rate and returns
// the engine.
func NewEngine(logger *slog.Logger, sampleRate int) (*Engine, error) {
	sr := beeplib.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(100*time.Millisecond)); err != nil {
		return nil, domain.NewAudioEngineError("init", "", "speaker init failed", err)
	}

	logger.Debug("audio engine initialized", slog.Int("sample_rate", sampleRate))

	return &Engine{
		logger:     logger,
		sampleRate: sr,
		tracks:     make(map[domain.TrackHandle]*track),
		nextHandle: 1,
	}, nil
}

// SetProcessor installs the single sample tap for the pipeline. Every track
// loaded afterwards streams through it at the engine sample rate.
func (e *Engine) SetProcessor(p ports.SampleProcessor) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.processor != nil {
		return domain.ErrSourceTapped
	}
	e.processor = p
	return nil
}

// Load decodes a media source and prepares it for playback, paused at the
// start. The decoder is chosen by the source's MIME type.
func (e *Engine) Load(source domain.MediaSource) (domain.TrackHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shutdown {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}

	r, err := source.Open()
	if err != nil {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", source.MIMEType(), "open source", err)
	}

	stream, format, err := decode(source.MIMEType(), r)
	if err != nil {
		_ = r.Close()
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			return domain.InvalidTrackHandle, err
		}
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", source.MIMEType(), "decode failed", err)
	}

	t := &track{
		stream: stream,
		format: format,
		status: domain.StatusStopped,
	}

	t.ctrl = &beeplib.Ctrl{
		Streamer: e.buildChain(t),
		Paused:   true,
	}

	handle := e.nextHandle
	e.nextHandle++
	e.tracks[handle] = t

	e.logger.Debug("track loaded",
		slog.String("mime", source.MIMEType()),
		slog.Int("source_rate", int(format.SampleRate)))

	return handle, nil
}

// buildChain assembles the playable streamer chain for a track: resample
// to the engine rate, tap into the sample processor, and flip the drained
// flag when the stream runs out. Seq stays exhausted once it finishes
// even if the underlying stream is rewound, so every replay after a
// natural end needs a fresh chain.
func (e *Engine) buildChain(t *track) beeplib.Streamer {
	var s beeplib.Streamer = t.stream
	if t.format.SampleRate != e.sampleRate {
		s = beeplib.Resample(resampleQuality, t.format.SampleRate, e.sampleRate, s)
	}
	if e.processor != nil {
		s = &tapStreamer{src: s, tap: e.processor}
	}
	return beeplib.Seq(s, beeplib.Callback(func() {
		t.drained.Store(true)
	}))
}

// Unload removes a track and closes its decoder.
func (e *Engine) Unload(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, exists := e.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	if t.queued {
		// One track is queued at a time, so clearing the mixer only
		// removes this one.
		speaker.Clear()
	}
	delete(e.tracks, handle)
	return t.stream.Close()
}

// Play starts or resumes playback of a loaded track.
func (e *Engine) Play(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, exists := e.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	// A naturally ended sequence has left the mixer; rewind the decoder
	// and rebuild the chain, because the exhausted Seq would otherwise
	// stream nothing on requeue.
	if t.drained.Load() {
		speaker.Lock()
		err := t.stream.Seek(0)
		speaker.Unlock()
		if err != nil {
			return domain.NewAudioEngineError("play", "", "rewind failed", err)
		}
		t.drained.Store(false)
		t.ctrl = &beeplib.Ctrl{Streamer: e.buildChain(t)}
		t.queued = false
	}

	speaker.Lock()
	t.ctrl.Paused = false
	speaker.Unlock()

	if !t.queued {
		speaker.Play(t.ctrl)
		t.queued = true
	}
	t.status = domain.StatusPlaying
	return nil
}

// Pause suspends playback with the position preserved.
func (e *Engine) Pause(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, exists := e.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	speaker.Lock()
	t.ctrl.Paused = true
	speaker.Unlock()

	if t.status == domain.StatusPlaying {
		t.status = domain.StatusPaused
	}
	return nil
}

// Stop halts playback and rewinds to the start.
func (e *Engine) Stop(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, exists := e.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	speaker.Lock()
	t.ctrl.Paused = true
	err := t.stream.Seek(0)
	speaker.Unlock()
	if err != nil {
		return domain.NewAudioEngineError("stop", "", "rewind failed", err)
	}

	t.drained.Store(false)
	t.status = domain.StatusStopped
	return nil
}

// Status reports the playback status. A track that played to its natural
// end reads as stopped.
func (e *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, exists := e.tracks[handle]
	if !exists {
		return domain.StatusStopped, domain.ErrInvalidTrackHandle
	}
	if t.drained.Load() {
		return domain.StatusStopped, nil
	}
	return t.status, nil
}

// Position returns the current playback position.
func (e *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, exists := e.tracks[handle]
	if !exists {
		return 0, domain.ErrInvalidTrackHandle
	}

	speaker.Lock()
	n := t.stream.Position()
	speaker.Unlock()
	return t.format.SampleRate.D(n), nil
}

// Duration returns the total track duration.
func (e *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, exists := e.tracks[handle]
	if !exists {
		return 0, domain.ErrInvalidTrackHandle
	}
	return t.format.SampleRate.D(t.stream.Len()), nil
}

// Seek sets the playback position, clamped to the track's duration.
func (e *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, exists := e.tracks[handle]
	if !exists {
		return domain.ErrInvalidTrackHandle
	}

	n := t.format.SampleRate.N(position)
	if n < 0 {
		n = 0
	}
	if max := t.stream.Len(); n > max {
		n = max
	}

	speaker.Lock()
	err := t.stream.Seek(n)
	speaker.Unlock()
	if err != nil {
		return domain.NewAudioEngineError("seek", "", "seek failed", err)
	}
	return nil
}

// Shutdown stops the mixer and closes every loaded track.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shutdown {
		return nil
	}
	e.shutdown = true

	speaker.Clear()
	for _, t := range e.tracks {
		_ = t.stream.Close()
	}
	e.tracks = make(map[domain.TrackHandle]*track)
	e.processor = nil
	return nil
}

// decode selects a decoder by MIME type.
func decode(mimeType string, r io.ReadCloser) (beeplib.StreamSeekCloser, beeplib.Format, error) {
	switch mimeType {
	case "audio/mpeg", "audio/mp3":
		return mp3.Decode(r)
	case "audio/wav", "audio/x-wav", "audio/wave":
		return wav.Decode(r)
	case "audio/ogg", "application/ogg":
		return vorbis.Decode(r)
	case "audio/flac", "audio/x-flac":
		return flac.Decode(r)
	default:
		return nil, beeplib.Format{}, domain.ErrUnsupportedFormat
	}
}

// tapStreamer feeds decoded samples through the processing graph before
// they reach the mixer.
type tapStreamer struct {
	src beeplib.Streamer
	tap ports.SampleProcessor
}

func (s *tapStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := s.src.Stream(samples)
	if n > 0 {
		s.tap.ProcessSamples(samples[:n])
	}
	return n, ok
}

func (s *tapStreamer) Err() error {
	return s.src.Err()
}

// Verify that Engine implements the AudioEngine interface.
var _ ports.AudioEngine = (*Engine)(nil)
