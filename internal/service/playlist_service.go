package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/ports"
)

// playDebounce delays the automatic first play after a playlist load, so a
// rapid second load replaces the pending play instead of racing it.
const playDebounce = 100 * time.Millisecond

// PlaylistService owns the canonical track order, the liked set, and the
// view projection, and decides what plays next when a track ends. It is the
// owner of the tracks' media sources: replacing the playlist releases the
// old sources.
//
// All operations are thread-safe via sync.RWMutex.
type PlaylistService struct {
	// Dependencies (injected)
	logger    *slog.Logger
	transport *TransportService
	bus       ports.EventBus

	// State
	tracks       []domain.Track
	liked        map[string]bool
	view         domain.PlaylistView
	currentIndex int

	// Concurrency control
	mu        sync.RWMutex
	playTimer *time.Timer

	// Event subscription
	endedSub domain.SubscriptionID
}

// NewPlaylistService creates a playlist service and subscribes it to
// track-ended events.
func NewPlaylistService(
	logger *slog.Logger,
	transport *TransportService,
	bus ports.EventBus,
) *PlaylistService {
	service := &PlaylistService{
		logger:       logger,
		transport:    transport,
		bus:          bus,
		liked:        make(map[string]bool),
		view:         domain.ViewAll,
		currentIndex: -1,
	}

	service.endedSub = bus.Subscribe(domain.EventTrackEnded, service.handleTrackEnded)
	return service
}

// LoadTracks replaces the whole playlist. The previous tracks' media
// sources are released, the liked set and view reset, and playback of the
// first track starts after a short debounce.
func (s *PlaylistService) LoadTracks(tracks []domain.Track) {
	s.mu.Lock()

	if s.playTimer != nil {
		s.playTimer.Stop()
		s.playTimer = nil
	}

	old := s.tracks
	s.tracks = make([]domain.Track, len(tracks))
	copy(s.tracks, tracks)
	s.liked = make(map[string]bool)
	s.view = domain.ViewAll
	s.currentIndex = -1

	if len(s.tracks) > 0 {
		// The first track is current immediately; only playback waits for
		// the debounce.
		s.currentIndex = 0
		s.playTimer = time.AfterFunc(playDebounce, func() {
			if err := s.PlayIndex(0); err != nil {
				s.logger.Warn("debounced play failed", slog.Any("error", err))
			}
		})
	}

	index := s.currentIndex
	snapshot := s.tracksLocked()
	s.mu.Unlock()

	for _, t := range old {
		if t.Source == nil {
			continue
		}
		if err := t.Source.Release(); err != nil {
			s.logger.Warn("failed to release media source", slog.String("id", t.ID))
		}
	}

	s.logger.Info("playlist loaded", slog.Int("tracks", len(tracks)))
	s.bus.Publish(domain.NewViewChangedEvent(domain.ViewAll))
	s.bus.Publish(domain.NewPlaylistUpdatedEvent(snapshot, index))
}

// PlayIndex loads and plays the track at the canonical index.
func (s *PlaylistService) PlayIndex(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.tracks) {
		s.mu.Unlock()
		return domain.ErrInvalidIndex
	}
	track := s.tracks[index]
	s.currentIndex = index
	s.mu.Unlock()

	if err := s.transport.LoadTrack(track, index); err != nil {
		return err
	}
	return s.transport.Play()
}

// SelectByDisplayIndex plays the track at a position of the current view.
// The position is resolved through the track's identity, so a filtered view
// always selects the track the user saw.
func (s *PlaylistService) SelectByDisplayIndex(displayIndex int) error {
	s.mu.RLock()
	visible := s.displayTracksLocked()
	if displayIndex < 0 || displayIndex >= len(visible) {
		s.mu.RUnlock()
		return domain.ErrInvalidIndex
	}
	id := visible[displayIndex].ID
	canonical := s.indexOfLocked(id)
	s.mu.RUnlock()

	if canonical < 0 {
		return domain.ErrTrackNotFound
	}
	return s.PlayIndex(canonical)
}

// Next advances to the next track. At the end of the playlist, repeat-all
// wraps to the first track; otherwise the first track is loaded but left
// halted.
func (s *PlaylistService) Next() error {
	return s.advance()
}

// Previous steps back one track, wrapping from the first to the last.
func (s *PlaylistService) Previous() error {
	s.mu.RLock()
	n := len(s.tracks)
	index := s.currentIndex
	s.mu.RUnlock()

	if n == 0 {
		return domain.ErrPlaylistEmpty
	}
	return s.PlayIndex(((index-1)%n + n) % n)
}

// ToggleLiked flips a track's liked membership. Unknown IDs are a no-op.
func (s *PlaylistService) ToggleLiked(trackID string) {
	s.mu.Lock()
	if s.indexOfLocked(trackID) < 0 {
		s.mu.Unlock()
		return
	}
	s.liked[trackID] = !s.liked[trackID]
	liked := s.liked[trackID]
	s.mu.Unlock()

	s.bus.Publish(domain.NewLikedToggledEvent(trackID, liked))
}

// IsLiked reports a track's liked membership.
func (s *PlaylistService) IsLiked(trackID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liked[trackID]
}

// SetView switches the playlist projection.
func (s *PlaylistService) SetView(view domain.PlaylistView) {
	s.mu.Lock()
	if s.view == view {
		s.mu.Unlock()
		return
	}
	s.view = view
	s.mu.Unlock()

	s.bus.Publish(domain.NewViewChangedEvent(view))
}

// View returns the active playlist projection.
func (s *PlaylistService) View() domain.PlaylistView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Tracks returns a copy of the canonical playlist.
func (s *PlaylistService) Tracks() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracksLocked()
}

// DisplayTracks returns the tracks of the current view, in canonical order.
func (s *PlaylistService) DisplayTracks() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayTracksLocked()
}

// CurrentIndex returns the canonical index of the current track (-1 if none).
func (s *PlaylistService) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentIndex
}

// Shutdown unsubscribes from the bus and releases all media sources.
func (s *PlaylistService) Shutdown() error {
	s.bus.Unsubscribe(s.endedSub)

	s.mu.Lock()
	if s.playTimer != nil {
		s.playTimer.Stop()
		s.playTimer = nil
	}
	tracks := s.tracks
	s.tracks = nil
	s.currentIndex = -1
	s.mu.Unlock()

	for _, t := range tracks {
		if t.Source == nil {
			continue
		}
		if err := t.Source.Release(); err != nil {
			s.logger.Warn("failed to release media source", slog.String("id", t.ID))
		}
	}
	return nil
}

// advance implements the track-advance policy shared by Next and the
// end-of-media handler.
func (s *PlaylistService) advance() error {
	s.mu.RLock()
	n := len(s.tracks)
	index := s.currentIndex
	repeat := s.transport.RepeatMode()
	s.mu.RUnlock()

	if n == 0 {
		return domain.ErrPlaylistEmpty
	}

	if index >= n-1 {
		if repeat == domain.RepeatAll {
			return s.PlayIndex(0)
		}
		// Played through: rewind to the first track, halted.
		return s.loadHalted(0)
	}
	return s.PlayIndex(index + 1)
}

// loadHalted loads a track without starting playback.
func (s *PlaylistService) loadHalted(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.tracks) {
		s.mu.Unlock()
		return domain.ErrInvalidIndex
	}
	track := s.tracks[index]
	s.currentIndex = index
	s.mu.Unlock()

	return s.transport.LoadTrack(track, index)
}

// handleTrackEnded advances the playlist when the transport reports a
// natural end for the track we believe is current.
func (s *PlaylistService) handleTrackEnded(event domain.Event) {
	ended, ok := event.(domain.TrackEndedEvent)
	if !ok {
		return
	}

	s.mu.RLock()
	current := s.currentIndex
	s.mu.RUnlock()

	// A stale event for a track we already moved past is ignored.
	if ended.Index != current {
		return
	}

	if err := s.advance(); err != nil {
		s.logger.Warn("auto-advance failed", slog.Any("error", err))
	}
}

func (s *PlaylistService) tracksLocked() []domain.Track {
	tracks := make([]domain.Track, len(s.tracks))
	copy(tracks, s.tracks)
	return tracks
}

func (s *PlaylistService) displayTracksLocked() []domain.Track {
	if s.view == domain.ViewAll {
		return s.tracksLocked()
	}
	visible := make([]domain.Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		if s.liked[t.ID] {
			visible = append(visible, t)
		}
	}
	return visible
}

func (s *PlaylistService) indexOfLocked(trackID string) int {
	for i, t := range s.tracks {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}
