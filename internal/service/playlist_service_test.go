package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auraplay/auraplay/internal/adapter/audio/mock"
	"github.com/auraplay/auraplay/internal/adapter/eventbus"
	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/logger"
	"github.com/auraplay/auraplay/internal/testutil"
)

func newPlaylistHarness(t *testing.T) (*PlaylistService, *TransportService, *mock.Engine, *eventRecorder) {
	t.Helper()

	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(logger.NewTestLogger())
	t.Cleanup(func() {
		_ = bus.Close()
	})
	rec := recordAll(t, bus)

	engine := mock.NewEngine()
	engine.SetLogger(logger.NewTestLogger())

	transport := NewTransportService(logger.NewTestLogger(), engine, newFakeGraph(), bus)
	playlist := NewPlaylistService(logger.NewTestLogger(), transport, bus)
	t.Cleanup(func() {
		_ = playlist.Shutdown()
		_ = transport.Shutdown()
	})
	return playlist, transport, engine, rec
}

func threeTracks() []domain.Track {
	return []domain.Track{
		makeTrack("t1", "First"),
		makeTrack("t2", "Second"),
		makeTrack("t3", "Third"),
	}
}

func waitForPlaying(t *testing.T, transport *TransportService, index int) {
	t.Helper()
	require.Eventually(t, func() bool {
		state := transport.State()
		return state.State == domain.TransportPlaying && state.CurrentIndex == index
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPlaylist_LoadTracksDebouncePlaysFirst(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	playlist, transport, _, rec := newPlaylistHarness(t)

	playlist.LoadTracks(threeTracks())

	// The first track is current as soon as the load returns, before the
	// debounced playback kicks in.
	assert.Equal(t, 0, playlist.CurrentIndex())
	updated := rec.ofType(domain.EventPlaylistUpdated)
	require.Len(t, updated, 1)
	assert.Equal(t, 0, updated[0].(domain.PlaylistUpdatedEvent).Index)

	waitForPlaying(t, transport, 0)
	assert.Equal(t, 0, playlist.CurrentIndex())
	assert.Equal(t, "t1", transport.State().CurrentTrack.ID)
}

func TestPlaylist_ReloadReleasesOldSourcesAndCancelsPendingPlay(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	playlist, transport, _, _ := newPlaylistHarness(t)

	first := threeTracks()
	playlist.LoadTracks(first)

	// Replace immediately, inside the first load's debounce window.
	replacement := []domain.Track{makeTrack("r1", "Replacement")}
	playlist.LoadTracks(replacement)

	waitForPlaying(t, transport, 0)
	assert.Equal(t, "r1", transport.State().CurrentTrack.ID)

	for _, track := range first {
		assert.True(t, track.Source.(*testSource).Released())
	}
	assert.False(t, replacement[0].Source.(*testSource).Released())
}

func TestPlaylist_SelectByDisplayIndex(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	playlist, transport, _, _ := newPlaylistHarness(t)

	playlist.LoadTracks(threeTracks())
	waitForPlaying(t, transport, 0)

	require.NoError(t, playlist.SelectByDisplayIndex(2))
	waitForPlaying(t, transport, 2)
	assert.Equal(t, "t3", transport.State().CurrentTrack.ID)

	assert.ErrorIs(t, playlist.SelectByDisplayIndex(7), domain.ErrInvalidIndex)
}

func TestPlaylist_LikedViewProjection(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	playlist, transport, _, rec := newPlaylistHarness(t)

	playlist.LoadTracks(threeTracks())
	waitForPlaying(t, transport, 0)

	playlist.ToggleLiked("t3")
	playlist.ToggleLiked("t1")
	playlist.ToggleLiked("missing") // no-op
	assert.Equal(t, 2, rec.count(domain.EventLikedToggled))

	playlist.SetView(domain.ViewLiked)
	visible := playlist.DisplayTracks()
	require.Len(t, visible, 2)

	// Canonical order is preserved in the projection.
	assert.Equal(t, "t1", visible[0].ID)
	assert.Equal(t, "t3", visible[1].ID)

	// Display position 1 is canonical track t3.
	require.NoError(t, playlist.SelectByDisplayIndex(1))
	waitForPlaying(t, transport, 2)

	// Unliking removes from the projection.
	playlist.ToggleLiked("t1")
	assert.Len(t, playlist.DisplayTracks(), 1)
}

func TestPlaylist_PreviousWraps(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	playlist, transport, _, _ := newPlaylistHarness(t)

	playlist.LoadTracks(threeTracks())
	waitForPlaying(t, transport, 0)

	require.NoError(t, playlist.Previous())
	waitForPlaying(t, transport, 2)

	require.NoError(t, playlist.Previous())
	waitForPlaying(t, transport, 1)
}

func TestPlaylist_NextAtEndRepeatNoneHalts(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	playlist, transport, _, _ := newPlaylistHarness(t)

	playlist.LoadTracks(threeTracks())
	waitForPlaying(t, transport, 0)

	require.NoError(t, playlist.PlayIndex(2))
	waitForPlaying(t, transport, 2)

	require.NoError(t, playlist.Next())

	// Rewound to the first track but not playing.
	state := transport.State()
	assert.Equal(t, domain.TransportPaused, state.State)
	assert.Equal(t, 0, state.CurrentIndex)
	assert.Equal(t, "t1", state.CurrentTrack.ID)
}

func TestPlaylist_NextAtEndRepeatAllWraps(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	playlist, transport, _, _ := newPlaylistHarness(t)

	transport.CycleRepeat() // all

	playlist.LoadTracks(threeTracks())
	waitForPlaying(t, transport, 0)

	require.NoError(t, playlist.PlayIndex(2))
	waitForPlaying(t, transport, 2)

	require.NoError(t, playlist.Next())
	waitForPlaying(t, transport, 0)
}

func TestPlaylist_AutoAdvanceOnTrackEnd(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	playlist, transport, engine, _ := newPlaylistHarness(t)

	playlist.LoadTracks(threeTracks())
	waitForPlaying(t, transport, 0)

	require.NoError(t, engine.FinishTrack(transportHandle(t, engine)))

	waitForPlaying(t, transport, 1)
	assert.Equal(t, "t2", transport.State().CurrentTrack.ID)
}

// transportHandle finds the single loaded handle in the mock engine.
func transportHandle(t *testing.T, engine *mock.Engine) domain.TrackHandle {
	t.Helper()
	for h := domain.TrackHandle(1); h < 100; h++ {
		if _, err := engine.Status(h); err == nil {
			return h
		}
	}
	t.Fatal("no loaded track in engine")
	return domain.InvalidTrackHandle
}

func TestPlaylist_StaleEndedEventIgnored(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	playlist, transport, _, _ := newPlaylistHarness(t)

	playlist.LoadTracks(threeTracks())
	waitForPlaying(t, transport, 0)

	require.NoError(t, playlist.PlayIndex(2))
	waitForPlaying(t, transport, 2)

	// An ended report for an index we already moved past does nothing.
	playlist.handleTrackEnded(domain.NewTrackEndedEvent(makeTrack("t1", "First"), 0))
	assert.Equal(t, 2, playlist.CurrentIndex())
}

func TestPlaylist_EmptyNavigation(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	playlist, _, _, _ := newPlaylistHarness(t)

	assert.ErrorIs(t, playlist.Next(), domain.ErrPlaylistEmpty)
	assert.ErrorIs(t, playlist.Previous(), domain.ErrPlaylistEmpty)
	assert.ErrorIs(t, playlist.PlayIndex(0), domain.ErrInvalidIndex)
}
