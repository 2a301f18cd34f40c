package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auraplay/auraplay/internal/adapter/eventbus"
	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/logger"
	"github.com/auraplay/auraplay/internal/ports"
	"github.com/auraplay/auraplay/internal/testutil"
)

// stubAnnotator blocks each lookup until released, honoring cancellation.
type stubAnnotator struct {
	release chan struct{}
}

func (a *stubAnnotator) Annotate(ctx context.Context, title, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-a.release:
		return fmt.Sprintf("vibe of %s", title), nil
	}
}

func newVibeHarness(t *testing.T) (*VibeService, *stubAnnotator, ports.EventBus, *eventRecorder) {
	t.Helper()

	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(logger.NewTestLogger())
	t.Cleanup(func() {
		_ = bus.Close()
	})
	rec := recordAll(t, bus)

	annotator := &stubAnnotator{release: make(chan struct{})}
	vibe := NewVibeService(logger.NewTestLogger(), annotator, bus)
	t.Cleanup(func() {
		_ = vibe.Shutdown()
	})
	return vibe, annotator, bus, rec
}

func loadedEvent(id, title string) domain.TrackLoadedEvent {
	track := domain.Track{ID: id, Title: title, Artist: "Test Artist"}
	return domain.NewTrackLoadedEvent(track, 1, 3*time.Minute, 0)
}

func TestVibe_PublishesLoadingThenResult(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, annotator, bus, rec := newVibeHarness(t)

	bus.Publish(loadedEvent("t1", "First"))
	assert.Equal(t, 1, rec.count(domain.EventVibeLoading))

	close(annotator.release)
	require.Eventually(t, func() bool {
		return rec.count(domain.EventVibeUpdated) == 1
	}, 2*time.Second, 10*time.Millisecond)

	updated := rec.ofType(domain.EventVibeUpdated)[0].(domain.VibeUpdatedEvent)
	assert.Equal(t, "t1", updated.TrackID)
	assert.Equal(t, "vibe of First", updated.Vibe)
}

func TestVibe_TrackChangeCancelsPendingLookup(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, annotator, bus, rec := newVibeHarness(t)

	// First lookup is still in flight when the second track loads.
	bus.Publish(loadedEvent("t1", "First"))
	bus.Publish(loadedEvent("t2", "Second"))
	assert.Equal(t, 2, rec.count(domain.EventVibeLoading))

	close(annotator.release)
	require.Eventually(t, func() bool {
		return rec.count(domain.EventVibeUpdated) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Only the current track's vibe is ever published.
	updated := rec.ofType(domain.EventVibeUpdated)[0].(domain.VibeUpdatedEvent)
	assert.Equal(t, "t2", updated.TrackID)
}

func TestVibe_ShutdownCancelsInFlightLookup(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	vibe, _, bus, rec := newVibeHarness(t)

	bus.Publish(loadedEvent("t1", "First"))
	require.NoError(t, vibe.Shutdown())

	assert.Zero(t, rec.count(domain.EventVibeUpdated))
}
