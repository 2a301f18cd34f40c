// Package service provides business logic for the Aura player.
package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/ports"
)

// playbackErrorMessage is the user-visible text for a rejected play.
const playbackErrorMessage = "Playback failed. The file might be corrupt or unsupported."

// errorDisplayDuration is how long a playback error stays visible before
// the cleared event fires.
const errorDisplayDuration = 5 * time.Second

// TransportService owns the playback state machine: loading tracks into the
// engine, play/pause/seek, volume and mute through the graph's master gain,
// and repeat-mode bookkeeping. Track-advance policy lives in the playlist
// service; the transport only reports that a track ended.
//
// All operations are thread-safe via sync.RWMutex.
type TransportService struct {
	// Dependencies (injected)
	logger *slog.Logger
	engine ports.AudioEngine
	graph  ports.GraphController
	bus    ports.EventBus

	// State
	currentTrack  *domain.Track
	currentHandle domain.TrackHandle
	currentIndex  int
	state         domain.TransportState
	volume        float64
	preMuteVolume float64
	muted         bool
	repeat        domain.RepeatMode

	// Concurrency control
	mu             sync.RWMutex
	updateInterval time.Duration
	stopUpdate     chan struct{}
	updateRunning  bool
	updateWg       sync.WaitGroup
	manualStop     bool
	hasPlayed      bool
	errorClear     *time.Timer

	// Scrub bookkeeping
	scrubbing       bool
	scrubWasPlaying bool
}

// NewTransportService creates a transport service and starts its progress
// update routine.
func NewTransportService(
	logger *slog.Logger,
	engine ports.AudioEngine,
	graph ports.GraphController,
	bus ports.EventBus,
) *TransportService {
	service := &TransportService{
		logger:         logger,
		engine:         engine,
		graph:          graph,
		bus:            bus,
		currentHandle:  domain.InvalidTrackHandle,
		currentIndex:   -1,
		state:          domain.TransportIdle,
		volume:         0.8,
		preMuteVolume:  0.8,
		updateInterval: 333 * time.Millisecond,
		stopUpdate:     make(chan struct{}),
	}

	service.graph.SetMasterGain(service.volume)
	service.startUpdateRoutine()

	logger.Debug("transport service initialized")
	return service
}

// LoadTrack loads a track for playback, replacing the current one. Loading
// the same track again keeps the playback position; any other load starts
// paused at zero.
func (s *TransportService) LoadTrack(track domain.Track, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("loading track",
		slog.String("id", track.ID),
		slog.String("title", track.Title))

	// Same track reloaded: remember where it was.
	var keepPosition time.Duration
	sameTrack := s.currentTrack != nil && s.currentTrack.ID == track.ID
	if sameTrack {
		if pos, err := s.engine.Position(s.currentHandle); err == nil {
			keepPosition = pos
		}
	}

	if s.currentHandle != domain.InvalidTrackHandle {
		if err := s.engine.Stop(s.currentHandle); err != nil {
			s.logger.Warn("failed to stop current track", slog.Any("error", err))
		}
		if err := s.engine.Unload(s.currentHandle); err != nil {
			s.logger.Warn("failed to unload current track", slog.Any("error", err))
		}
		s.currentHandle = domain.InvalidTrackHandle
	}

	handle, err := s.engine.Load(track.Source)
	if err != nil {
		s.currentTrack = nil
		s.currentIndex = -1
		s.state = domain.TransportIdle
		s.publishPlaybackErrorLocked(track, err)
		return err
	}

	duration, err := s.engine.Duration(handle)
	if err != nil {
		if unloadErr := s.engine.Unload(handle); unloadErr != nil {
			s.logger.Warn("failed to unload track after duration error", slog.Any("error", unloadErr))
		}
		return err
	}

	if sameTrack && keepPosition > 0 {
		if err := s.engine.Seek(handle, keepPosition); err != nil {
			s.logger.Warn("failed to restore position", slog.Any("error", err))
		}
	}

	s.currentTrack = &track
	s.currentHandle = handle
	s.currentIndex = index
	s.state = domain.TransportPaused
	s.manualStop = false
	s.hasPlayed = false

	s.bus.Publish(domain.NewTrackLoadedEvent(track, handle, duration, index))
	return nil
}

// Play starts or resumes playback of the loaded track. The processing graph
// is resumed first so the suspended-on-creation context never swallows the
// opening samples.
func (s *TransportService) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentHandle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}
	if s.state == domain.TransportPlaying {
		return nil
	}

	s.graph.Resume()

	s.manualStop = false
	if err := s.engine.Play(s.currentHandle); err != nil {
		if errors.Is(err, domain.ErrPlaybackAborted) {
			// The engine's own track switching interrupted a pending play.
			// Expected during rapid navigation, not a user-visible failure.
			s.logger.Debug("play aborted by track switch")
			return nil
		}
		if s.currentTrack != nil {
			s.publishPlaybackErrorLocked(*s.currentTrack, err)
		}
		return err
	}

	s.hasPlayed = true
	s.state = domain.TransportPlaying

	if s.currentTrack != nil {
		s.bus.Publish(domain.NewTrackStartedEvent(*s.currentTrack))
	}
	return nil
}

// Pause suspends playback with the position preserved.
func (s *TransportService) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentHandle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}
	if s.state != domain.TransportPlaying {
		return nil
	}

	position, err := s.engine.Position(s.currentHandle)
	if err != nil {
		position = 0
	}

	if err := s.engine.Pause(s.currentHandle); err != nil {
		return err
	}
	s.state = domain.TransportPaused

	if s.currentTrack != nil {
		s.bus.Publish(domain.NewTrackPausedEvent(*s.currentTrack, position))
	}
	return nil
}

// TogglePlay plays when paused or ended, pauses when playing.
func (s *TransportService) TogglePlay() error {
	s.mu.RLock()
	playing := s.state == domain.TransportPlaying
	s.mu.RUnlock()

	if playing {
		return s.Pause()
	}
	return s.Play()
}

// Stop halts playback and rewinds to the start, keeping the track loaded.
func (s *TransportService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentHandle == domain.InvalidTrackHandle {
		return nil
	}

	s.manualStop = true
	s.hasPlayed = false
	if err := s.engine.Stop(s.currentHandle); err != nil {
		return err
	}
	s.state = domain.TransportPaused

	s.bus.Publish(domain.NewTrackProgressEvent(0, s.durationLocked()))
	return nil
}

// Seek sets the playback position without changing the play state.
func (s *TransportService) Seek(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentHandle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}

	if err := s.engine.Seek(s.currentHandle, position); err != nil {
		return err
	}

	s.bus.Publish(domain.NewTrackProgressEvent(position, s.durationLocked()))
	return nil
}

// BeginScrub pauses the engine while the user drags the seek control. The
// transport state is left untouched; EndScrub restores playback if the
// scrub interrupted it.
func (s *TransportService) BeginScrub() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scrubbing || s.currentHandle == domain.InvalidTrackHandle {
		return
	}

	s.scrubbing = true
	if s.state == domain.TransportPlaying {
		s.scrubWasPlaying = true
		if err := s.engine.Pause(s.currentHandle); err != nil {
			s.logger.Warn("failed to pause for scrub", slog.Any("error", err))
		}
	}
}

// EndScrub seeks to the released position and resumes playback if it was
// paused for the scrub.
func (s *TransportService) EndScrub(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasPlaying := s.scrubWasPlaying
	s.scrubbing = false
	s.scrubWasPlaying = false

	if s.currentHandle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}

	err := s.engine.Seek(s.currentHandle, position)
	if err == nil {
		s.bus.Publish(domain.NewTrackProgressEvent(position, s.durationLocked()))
	}

	if wasPlaying {
		if playErr := s.engine.Play(s.currentHandle); playErr != nil {
			s.logger.Warn("failed to resume after scrub", slog.Any("error", playErr))
		}
	}
	return err
}

// SetVolume sets the master volume (0.0 to 1.0). While muted the new level
// is remembered for unmute but the graph stays silent.
func (s *TransportService) SetVolume(volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	s.volume = volume
	if s.muted {
		s.preMuteVolume = volume
	} else {
		s.graph.SetMasterGain(volume)
	}

	s.bus.Publish(domain.NewVolumeChangedEvent(volume, s.muted))
	return nil
}

// Volume returns the current volume (0.0 to 1.0).
func (s *TransportService) Volume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// ToggleMute silences the graph, or restores the pre-mute volume.
func (s *TransportService) ToggleMute() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.muted {
		s.muted = false
		s.volume = s.preMuteVolume
		s.graph.SetMasterGain(s.volume)
	} else {
		s.muted = true
		s.preMuteVolume = s.volume
		s.graph.SetMasterGain(0)
	}

	s.bus.Publish(domain.NewVolumeChangedEvent(s.volume, s.muted))
}

// IsMuted returns true if playback is muted.
func (s *TransportService) IsMuted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.muted
}

// CycleRepeat advances the repeat mode (none, all, one) and returns the
// new mode.
func (s *TransportService) CycleRepeat() domain.RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.repeat = s.repeat.Cycle()
	s.bus.Publish(domain.NewRepeatModeChangedEvent(s.repeat))
	return s.repeat
}

// RepeatMode returns the active repeat mode.
func (s *TransportService) RepeatMode() domain.RepeatMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repeat
}

// State returns a snapshot of the transport state.
func (s *TransportService) State() domain.PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := domain.PlaybackState{
		CurrentTrack: s.currentTrack,
		CurrentIndex: s.currentIndex,
		State:        s.state,
		Volume:       s.volume,
		Repeat:       s.repeat,
	}

	if s.currentHandle != domain.InvalidTrackHandle {
		if position, err := s.engine.Position(s.currentHandle); err == nil {
			state.Position = position
		}
		state.Duration = s.durationLocked()
	}
	return state
}

// Shutdown stops the update routine and unloads the current track.
func (s *TransportService) Shutdown() error {
	s.mu.Lock()
	if s.updateRunning {
		close(s.stopUpdate)
		s.updateRunning = false
	}
	if s.errorClear != nil {
		s.errorClear.Stop()
		s.errorClear = nil
	}
	s.mu.Unlock()

	s.updateWg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentHandle != domain.InvalidTrackHandle {
		if err := s.engine.Stop(s.currentHandle); err != nil {
			s.logger.Warn("failed to stop track on shutdown", slog.Any("error", err))
		}
		if err := s.engine.Unload(s.currentHandle); err != nil {
			s.logger.Warn("failed to unload track on shutdown", slog.Any("error", err))
		}
		s.currentHandle = domain.InvalidTrackHandle
		s.currentTrack = nil
	}
	s.state = domain.TransportIdle
	return nil
}

// durationLocked reads the current track's duration; caller holds the lock.
func (s *TransportService) durationLocked() time.Duration {
	if s.currentHandle == domain.InvalidTrackHandle {
		return 0
	}
	duration, err := s.engine.Duration(s.currentHandle)
	if err != nil {
		return 0
	}
	return duration
}

// publishPlaybackErrorLocked emits the user-visible error and schedules the
// cleared event after the display window. A newer error resets the window.
func (s *TransportService) publishPlaybackErrorLocked(track domain.Track, err error) {
	s.logger.Warn("playback error",
		slog.String("track", track.Title),
		slog.Any("error", err))

	s.bus.Publish(domain.NewPlaybackErrorEvent(track, playbackErrorMessage, err))

	if s.errorClear != nil {
		s.errorClear.Stop()
	}
	s.errorClear = time.AfterFunc(errorDisplayDuration, func() {
		s.bus.Publish(domain.NewPlaybackErrorClearedEvent())
	})
}

// startUpdateRoutine starts the goroutine that publishes progress events
// and watches for end of media.
func (s *TransportService) startUpdateRoutine() {
	s.mu.Lock()
	if s.updateRunning {
		s.mu.Unlock()
		return
	}
	s.updateRunning = true
	s.updateWg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.updateWg.Done()
		ticker := time.NewTicker(s.updateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopUpdate:
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// tick publishes progress and detects a natural end of the current track.
func (s *TransportService) tick() {
	s.mu.RLock()
	if s.currentHandle == domain.InvalidTrackHandle || s.state != domain.TransportPlaying {
		s.mu.RUnlock()
		return
	}

	status, err := s.engine.Status(s.currentHandle)
	if err != nil {
		s.mu.RUnlock()
		return
	}
	position, _ := s.engine.Position(s.currentHandle)
	duration, _ := s.engine.Duration(s.currentHandle)
	ended := status == domain.StatusStopped && s.hasPlayed && !s.manualStop
	s.mu.RUnlock()

	s.bus.Publish(domain.NewTrackProgressEvent(position, duration))

	if ended {
		s.handleTrackEnded()
	}
}

// handleTrackEnded runs the end-of-media policy: repeat-one replays in
// place, anything else hands the decision to the playlist service.
func (s *TransportService) handleTrackEnded() {
	s.mu.Lock()

	if s.currentTrack == nil || s.state != domain.TransportPlaying {
		s.mu.Unlock()
		return
	}

	track := *s.currentTrack
	index := s.currentIndex
	s.hasPlayed = false

	if s.repeat == domain.RepeatOne {
		if err := s.engine.Play(s.currentHandle); err != nil {
			s.logger.Warn("failed to replay track", slog.Any("error", err))
			s.state = domain.TransportEnded
			s.mu.Unlock()
			return
		}
		s.hasPlayed = true
		s.mu.Unlock()
		s.bus.Publish(domain.NewTrackStartedEvent(track))
		return
	}

	s.state = domain.TransportEnded
	s.mu.Unlock()
	s.bus.Publish(domain.NewTrackEndedEvent(track, index))
}
