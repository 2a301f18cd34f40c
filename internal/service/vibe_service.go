package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/ports"
)

// VibeService fetches a one-sentence vibe for each newly loaded track. A
// track change cancels the pending lookup, and a result that arrives for a
// track that is no longer current is dropped instead of published.
type VibeService struct {
	// Dependencies (injected)
	logger    *slog.Logger
	annotator ports.VibeAnnotator
	bus       ports.EventBus

	// State
	mu        sync.Mutex
	currentID string
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// Event subscription
	loadedSub domain.SubscriptionID
}

// NewVibeService creates a vibe service and subscribes it to track loads.
func NewVibeService(
	logger *slog.Logger,
	annotator ports.VibeAnnotator,
	bus ports.EventBus,
) *VibeService {
	service := &VibeService{
		logger:    logger,
		annotator: annotator,
		bus:       bus,
	}

	service.loadedSub = bus.Subscribe(domain.EventTrackLoaded, service.handleTrackLoaded)
	return service
}

// handleTrackLoaded starts a lookup for the loaded track, cancelling any
// lookup still in flight for the previous one.
func (s *VibeService) handleTrackLoaded(event domain.Event) {
	loaded, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.currentID = loaded.Track.ID
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	s.bus.Publish(domain.NewVibeLoadingEvent(loaded.Track.ID))

	go s.annotate(ctx, loaded.Track)
}

// annotate runs one lookup and publishes the result if the track is still
// current.
func (s *VibeService) annotate(ctx context.Context, track domain.Track) {
	defer s.wg.Done()

	vibe, err := s.annotator.Annotate(ctx, track.Title, track.Artist)
	if err != nil {
		// Only context errors reach here; the lookup was superseded.
		s.logger.Debug("vibe lookup cancelled", slog.String("track", track.ID))
		return
	}

	s.mu.Lock()
	stale := s.currentID != track.ID
	s.mu.Unlock()

	if stale {
		s.logger.Debug("dropping stale vibe", slog.String("track", track.ID))
		return
	}

	s.bus.Publish(domain.NewVibeUpdatedEvent(track.ID, vibe))
}

// Shutdown cancels any pending lookup and waits for it to finish.
func (s *VibeService) Shutdown() error {
	s.bus.Unsubscribe(s.loadedSub)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}
