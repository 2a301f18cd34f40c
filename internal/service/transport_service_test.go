package service

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auraplay/auraplay/internal/adapter/audio/mock"
	"github.com/auraplay/auraplay/internal/adapter/eventbus"
	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/logger"
	"github.com/auraplay/auraplay/internal/ports"
	"github.com/auraplay/auraplay/internal/testutil"
)

// fakeGraph records graph controller calls for assertions.
type fakeGraph struct {
	mu           sync.Mutex
	resumes      int
	suspends     int
	masterGain   float64
	bandGains    map[int]float64
	activeEffect domain.EffectKind
	reverbOK     bool
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{bandGains: make(map[int]float64), reverbOK: true}
}

func (g *fakeGraph) Initialize(ports.AudioEngine) error { return nil }

func (g *fakeGraph) SetActiveEffect(kind domain.EffectKind) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.activeEffect = kind
	return nil
}

func (g *fakeGraph) SetBandGain(band int, gainDB float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bandGains[band] = gainDB
	return nil
}

func (g *fakeGraph) SetMasterGain(level float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.masterGain = level
}

func (g *fakeGraph) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resumes++
}

func (g *fakeGraph) Suspend() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.suspends++
}

func (g *fakeGraph) ReverbAvailable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reverbOK
}

func (g *fakeGraph) SpectrumSnapshot() []float64 { return nil }
func (g *fakeGraph) Shutdown() error             { return nil }

func (g *fakeGraph) MasterGain() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.masterGain
}

func (g *fakeGraph) Resumes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resumes
}

var _ ports.GraphController = (*fakeGraph)(nil)

// testSource is a releasable in-memory media source.
type testSource struct {
	mu       sync.Mutex
	released bool
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (nopReadSeekCloser) Close() error { return nil }

func (s *testSource) Open() (io.ReadSeekCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, domain.ErrSourceReleased
	}
	return nopReadSeekCloser{bytes.NewReader([]byte("pcm"))}, nil
}

func (s *testSource) MIMEType() string { return "audio/mpeg" }

func (s *testSource) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	return nil
}

func (s *testSource) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func makeTrack(id, title string) domain.Track {
	return domain.Track{
		ID:     id,
		Title:  title,
		Artist: "Test Artist",
		Source: &testSource{},
	}
}

// eventRecorder captures bus events; safe against the ticker goroutine.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *eventRecorder) handle(e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) ofType(t domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *eventRecorder) count(t domain.EventType) int {
	return len(r.ofType(t))
}

func recordAll(t *testing.T, bus ports.EventBus) *eventRecorder {
	t.Helper()
	rec := &eventRecorder{}
	bus.SubscribeAll(rec.handle)
	return rec
}

func newTransportHarness(t *testing.T) (*TransportService, *mock.Engine, *fakeGraph, *eventRecorder) {
	t.Helper()

	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(logger.NewTestLogger())
	t.Cleanup(func() {
		_ = bus.Close()
	})
	rec := recordAll(t, bus)

	engine := mock.NewEngine()
	engine.SetLogger(logger.NewTestLogger())
	graph := newFakeGraph()

	transport := NewTransportService(logger.NewTestLogger(), engine, graph, bus)
	t.Cleanup(func() {
		_ = transport.Shutdown()
	})
	return transport, engine, graph, rec
}

func TestTransport_LoadAndPlay(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, _, graph, rec := newTransportHarness(t)

	track := makeTrack("t1", "First")
	require.NoError(t, transport.LoadTrack(track, 0))

	loaded := rec.ofType(domain.EventTrackLoaded)
	require.Len(t, loaded, 1)
	assert.Equal(t, "t1", loaded[0].(domain.TrackLoadedEvent).Track.ID)
	assert.Equal(t, domain.TransportPaused, transport.State().State)

	require.NoError(t, transport.Play())
	assert.Equal(t, domain.TransportPlaying, transport.State().State)
	assert.Equal(t, 1, rec.count(domain.EventTrackStarted))
	assert.Positive(t, graph.Resumes(), "graph must resume before playback")

	// Playing again is a no-op.
	require.NoError(t, transport.Play())
	assert.Equal(t, 1, rec.count(domain.EventTrackStarted))
}

func TestTransport_PlayWithoutTrack(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, _, _, _ := newTransportHarness(t)
	assert.ErrorIs(t, transport.Play(), domain.ErrNoTrackLoaded)
}

func TestTransport_PauseKeepsPosition(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, engine, _, rec := newTransportHarness(t)

	require.NoError(t, transport.LoadTrack(makeTrack("t1", "First"), 0))
	require.NoError(t, transport.Play())

	handle := transport.State().CurrentTrack
	require.NotNil(t, handle)
	require.NoError(t, engine.SimulateProgress(1, 30*time.Second))

	require.NoError(t, transport.Pause())
	assert.Equal(t, domain.TransportPaused, transport.State().State)
	assert.Equal(t, 30*time.Second, transport.State().Position)

	paused := rec.ofType(domain.EventTrackPaused)
	require.Len(t, paused, 1)
	assert.Equal(t, 30*time.Second, paused[0].(domain.TrackPausedEvent).Position)
}

func TestTransport_SameTrackReloadKeepsPosition(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, engine, _, _ := newTransportHarness(t)

	track := makeTrack("t1", "First")
	require.NoError(t, transport.LoadTrack(track, 0))
	require.NoError(t, transport.Play())
	require.NoError(t, engine.SimulateProgress(1, 45*time.Second))

	require.NoError(t, transport.LoadTrack(track, 0))
	assert.Equal(t, 45*time.Second, transport.State().Position)

	// A different track starts at zero.
	require.NoError(t, transport.LoadTrack(makeTrack("t2", "Second"), 1))
	assert.Zero(t, transport.State().Position)
}

func TestTransport_SeekNeverChangesPlayState(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, _, _, rec := newTransportHarness(t)

	require.NoError(t, transport.LoadTrack(makeTrack("t1", "First"), 0))
	require.NoError(t, transport.Seek(time.Minute))
	assert.Equal(t, domain.TransportPaused, transport.State().State)
	assert.Equal(t, time.Minute, transport.State().Position)

	progress := rec.ofType(domain.EventTrackProgress)
	require.NotEmpty(t, progress)

	require.NoError(t, transport.Play())
	require.NoError(t, transport.Seek(2*time.Minute))
	assert.Equal(t, domain.TransportPlaying, transport.State().State)
}

func TestTransport_ScrubPausesEngineAndResumes(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, engine, _, _ := newTransportHarness(t)

	require.NoError(t, transport.LoadTrack(makeTrack("t1", "First"), 0))
	require.NoError(t, transport.Play())

	// Dragging the seek control silences the engine without leaving the
	// playing state.
	transport.BeginScrub()
	status, err := engine.Status(1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, status)
	assert.Equal(t, domain.TransportPlaying, transport.State().State)

	require.NoError(t, transport.EndScrub(time.Minute))
	status, err = engine.Status(1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlaying, status)
	assert.Equal(t, time.Minute, transport.State().Position)
}

func TestTransport_ScrubWhilePausedStaysPaused(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, engine, _, _ := newTransportHarness(t)

	require.NoError(t, transport.LoadTrack(makeTrack("t1", "First"), 0))

	transport.BeginScrub()
	require.NoError(t, transport.EndScrub(30*time.Second))

	// No playback was interrupted, so none is resumed.
	status, err := engine.Status(1)
	require.NoError(t, err)
	assert.NotEqual(t, domain.StatusPlaying, status)
	assert.Equal(t, domain.TransportPaused, transport.State().State)
	assert.Equal(t, 30*time.Second, transport.State().Position)
}

func TestTransport_VolumeThroughGraph(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, _, graph, rec := newTransportHarness(t)

	require.NoError(t, transport.SetVolume(0.3))
	assert.InDelta(t, 0.3, graph.MasterGain(), 1e-9)

	assert.ErrorIs(t, transport.SetVolume(1.5), domain.ErrInvalidVolume)
	assert.ErrorIs(t, transport.SetVolume(-0.1), domain.ErrInvalidVolume)

	changed := rec.ofType(domain.EventVolumeChanged)
	require.Len(t, changed, 1)
	assert.InDelta(t, 0.3, changed[0].(domain.VolumeChangedEvent).Volume, 1e-9)
}

func TestTransport_MuteRestoresVolume(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, _, graph, rec := newTransportHarness(t)

	require.NoError(t, transport.SetVolume(0.6))

	transport.ToggleMute()
	assert.True(t, transport.IsMuted())
	assert.Zero(t, graph.MasterGain())

	// Adjusting volume while muted is remembered, not applied.
	require.NoError(t, transport.SetVolume(0.9))
	assert.Zero(t, graph.MasterGain())

	transport.ToggleMute()
	assert.False(t, transport.IsMuted())
	assert.InDelta(t, 0.9, graph.MasterGain(), 1e-9)
	assert.InDelta(t, 0.9, transport.Volume(), 1e-9)

	muteEvents := rec.ofType(domain.EventVolumeChanged)
	last := muteEvents[len(muteEvents)-1].(domain.VolumeChangedEvent)
	assert.False(t, last.Muted)
}

func TestTransport_CycleRepeat(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, _, _, rec := newTransportHarness(t)

	assert.Equal(t, domain.RepeatAll, transport.CycleRepeat())
	assert.Equal(t, domain.RepeatOne, transport.CycleRepeat())
	assert.Equal(t, domain.RepeatNone, transport.CycleRepeat())
	assert.Equal(t, 3, rec.count(domain.EventRepeatModeChanged))
}

func TestTransport_LoadFailurePublishesError(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, engine, _, rec := newTransportHarness(t)

	loadErr := domain.NewAudioEngineError("load", "audio/mpeg", "corrupt stream", nil)
	engine.SetFailLoad(loadErr)

	err := transport.LoadTrack(makeTrack("t1", "Broken"), 0)
	assert.ErrorIs(t, err, loadErr)
	assert.Equal(t, domain.TransportIdle, transport.State().State)

	errs := rec.ofType(domain.EventPlaybackError)
	require.Len(t, errs, 1)
	assert.Equal(t, playbackErrorMessage, errs[0].(domain.PlaybackErrorEvent).Message)
}

func TestTransport_AbortedPlaySuppressed(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, engine, _, rec := newTransportHarness(t)

	require.NoError(t, transport.LoadTrack(makeTrack("t1", "First"), 0))
	engine.SetFailPlay(domain.ErrPlaybackAborted)

	assert.NoError(t, transport.Play())
	assert.Equal(t, domain.TransportPaused, transport.State().State)
	assert.Zero(t, rec.count(domain.EventPlaybackError))
}

func TestTransport_EndOfMediaPublishesEnded(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, engine, _, rec := newTransportHarness(t)

	require.NoError(t, transport.LoadTrack(makeTrack("t1", "First"), 3))
	require.NoError(t, transport.Play())
	require.NoError(t, engine.FinishTrack(1))

	require.Eventually(t, func() bool {
		return rec.count(domain.EventTrackEnded) == 1
	}, 2*time.Second, 20*time.Millisecond)

	ended := rec.ofType(domain.EventTrackEnded)[0].(domain.TrackEndedEvent)
	assert.Equal(t, "t1", ended.Track.ID)
	assert.Equal(t, 3, ended.Index)
	assert.Equal(t, domain.TransportEnded, transport.State().State)
}

func TestTransport_RepeatOneReplaysInPlace(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	transport, engine, _, rec := newTransportHarness(t)

	transport.CycleRepeat() // all
	transport.CycleRepeat() // one

	require.NoError(t, transport.LoadTrack(makeTrack("t1", "First"), 0))
	require.NoError(t, transport.Play())
	require.NoError(t, engine.FinishTrack(1))

	require.Eventually(t, func() bool {
		return rec.count(domain.EventTrackStarted) == 2
	}, 2*time.Second, 20*time.Millisecond)

	assert.Equal(t, domain.TransportPlaying, transport.State().State)
	assert.Zero(t, rec.count(domain.EventTrackEnded), "repeat-one never reaches the playlist")
}
