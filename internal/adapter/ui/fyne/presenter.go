// Package fyne provides the Fyne UI adapter.
// The presenter maps domain events to view updates and UI commands to
// service calls; it holds no business logic of its own.
package fyne

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/ports"
	"github.com/auraplay/auraplay/internal/service"
)

// spectrumInterval is the visualizer pull rate.
const spectrumInterval = 50 * time.Millisecond

// UIView defines the interface for UI updates.
// The actual UI implementation (MainWindow) must implement this interface.
type UIView interface {
	// Playback state updates
	SetPlayState(playing bool)
	SetMuteState(muted bool)
	SetRepeatState(mode domain.RepeatMode)
	SetVolume(volume float64)
	SetProgress(position, duration time.Duration)

	// Track information updates
	SetTrackInfo(title, artist, artworkURL string)
	SetVibeLoading()
	SetVibe(text string)

	// Playlist updates
	SetPlaylist(tracks []domain.Track, currentID string)
	SetViewFilter(view domain.PlaylistView)

	// Equalizer and effects
	SetBandGains(gains [domain.BandCount]float64)
	SetPresetName(name string)
	SetEffects(effects []domain.Effect, active string)

	// Identity
	SetIdentity(identity *domain.Identity)

	// Transient errors
	ShowPlaybackError(message string)
	ClearPlaybackError()

	// Visualizer
	SetSpectrum(bins []float64)
}

// Presenter coordinates between services and the UI (MVP architecture).
//
// Thread-safety: All operations are thread-safe.
type Presenter struct {
	// Dependencies
	logger *slog.Logger

	// Services (injected)
	transport *service.TransportService
	playlist  *service.PlaylistService
	equalizer *service.EqualizerService
	graph     ports.GraphController
	auth      ports.AuthGateway
	ingestor  ports.TrackIngestor
	bus       ports.EventBus

	// UI view
	view UIView

	// Concurrency control
	mu            sync.Mutex
	subscriptions []domain.SubscriptionID
	stopSpectrum  chan struct{}
	spectrumWg    sync.WaitGroup
	shutdownOnce  sync.Once
}

// NewPresenter creates a presenter, subscribes it to the event bus, and
// starts the spectrum pull loop.
func NewPresenter(
	logger *slog.Logger,
	transport *service.TransportService,
	playlist *service.PlaylistService,
	equalizer *service.EqualizerService,
	graph ports.GraphController,
	auth ports.AuthGateway,
	ingestor ports.TrackIngestor,
	bus ports.EventBus,
	view UIView,
) *Presenter {
	p := &Presenter{
		logger:       logger,
		transport:    transport,
		playlist:     playlist,
		equalizer:    equalizer,
		graph:        graph,
		auth:         auth,
		ingestor:     ingestor,
		bus:          bus,
		view:         view,
		stopSpectrum: make(chan struct{}),
	}

	p.subscribeToEvents()
	p.syncInitialState()
	p.startSpectrumUpdates()
	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		// Transport events
		domain.EventTrackLoaded:          p.onTrackLoaded,
		domain.EventTrackStarted:         p.onTrackStarted,
		domain.EventTrackPaused:          p.onTrackPaused,
		domain.EventTrackProgress:        p.onTrackProgress,
		domain.EventTrackEnded:           p.onTrackEnded,
		domain.EventPlaybackError:        p.onPlaybackError,
		domain.EventPlaybackErrorCleared: p.onPlaybackErrorCleared,

		// Volume and mode events
		domain.EventVolumeChanged:     p.onVolumeChanged,
		domain.EventRepeatModeChanged: p.onRepeatModeChanged,

		// Playlist events
		domain.EventPlaylistUpdated: p.onPlaylistChanged,
		domain.EventViewChanged:     p.onViewChanged,
		domain.EventLikedToggled:    p.onPlaylistChanged,

		// Equalizer and effect events
		domain.EventBandGainChanged:  p.onEqualizerChanged,
		domain.EventPresetApplied:    p.onEqualizerChanged,
		domain.EventEffectRegistered: p.onEffectsChanged,
		domain.EventEffectToggled:    p.onEffectsChanged,

		// Vibe events
		domain.EventVibeLoading: p.onVibeLoading,
		domain.EventVibeUpdated: p.onVibeUpdated,

		// Auth events
		domain.EventAuthChanged: p.onAuthChanged,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for eventType, handler := range subscriptions {
		p.subscriptions = append(p.subscriptions, p.bus.Subscribe(eventType, handler))
	}
}

// syncInitialState pushes the services' current state into the view.
func (p *Presenter) syncInitialState() {
	state := p.transport.State()
	p.view.SetVolume(state.Volume)
	p.view.SetMuteState(p.transport.IsMuted())
	p.view.SetRepeatState(state.Repeat)
	p.view.SetPlayState(state.State == domain.TransportPlaying)
	p.view.SetPlaylist(p.playlist.DisplayTracks(), p.currentTrackID())
	p.view.SetViewFilter(p.playlist.View())
	p.view.SetBandGains(p.equalizer.BandGains())
	p.view.SetPresetName(p.equalizer.PresetName())
	p.view.SetEffects(p.equalizer.Effects(), p.equalizer.ActiveEffect())
	p.view.SetIdentity(p.auth.Identity())

	if state.CurrentTrack != nil {
		track := state.CurrentTrack
		p.view.SetTrackInfo(track.Title, track.Artist, track.ArtworkURL)
		p.view.SetProgress(state.Position, state.Duration)
	}
}

// Event handlers

func (p *Presenter) onTrackLoaded(event domain.Event) {
	e, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}
	p.view.SetTrackInfo(e.Track.Title, e.Track.Artist, e.Track.ArtworkURL)
	p.view.SetProgress(0, e.Duration)
	p.view.SetPlaylist(p.playlist.DisplayTracks(), e.Track.ID)
}

func (p *Presenter) onTrackStarted(domain.Event) {
	p.view.SetPlayState(true)
}

func (p *Presenter) onTrackPaused(domain.Event) {
	p.view.SetPlayState(false)
}

func (p *Presenter) onTrackEnded(domain.Event) {
	p.view.SetPlayState(false)
}

func (p *Presenter) onTrackProgress(event domain.Event) {
	e, ok := event.(domain.TrackProgressEvent)
	if !ok {
		return
	}
	p.view.SetProgress(e.Position, e.Duration)
}

func (p *Presenter) onPlaybackError(event domain.Event) {
	e, ok := event.(domain.PlaybackErrorEvent)
	if !ok {
		return
	}
	p.view.ShowPlaybackError(e.Message)
}

func (p *Presenter) onPlaybackErrorCleared(domain.Event) {
	p.view.ClearPlaybackError()
}

func (p *Presenter) onVolumeChanged(event domain.Event) {
	e, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}
	p.view.SetVolume(e.Volume)
	p.view.SetMuteState(e.Muted)
}

func (p *Presenter) onRepeatModeChanged(event domain.Event) {
	e, ok := event.(domain.RepeatModeChangedEvent)
	if !ok {
		return
	}
	p.view.SetRepeatState(e.Mode)
}

func (p *Presenter) onPlaylistChanged(domain.Event) {
	p.view.SetPlaylist(p.playlist.DisplayTracks(), p.currentTrackID())
}

// currentTrackID returns the loaded track's ID, or "" when nothing is loaded.
func (p *Presenter) currentTrackID() string {
	if track := p.transport.State().CurrentTrack; track != nil {
		return track.ID
	}
	return ""
}

func (p *Presenter) onViewChanged(event domain.Event) {
	e, ok := event.(domain.ViewChangedEvent)
	if !ok {
		return
	}
	p.view.SetViewFilter(e.View)
	p.view.SetPlaylist(p.playlist.DisplayTracks(), p.currentTrackID())
}

func (p *Presenter) onEqualizerChanged(domain.Event) {
	p.view.SetBandGains(p.equalizer.BandGains())
	p.view.SetPresetName(p.equalizer.PresetName())
}

func (p *Presenter) onEffectsChanged(domain.Event) {
	p.view.SetEffects(p.equalizer.Effects(), p.equalizer.ActiveEffect())
}

func (p *Presenter) onVibeLoading(domain.Event) {
	p.view.SetVibeLoading()
}

func (p *Presenter) onVibeUpdated(event domain.Event) {
	e, ok := event.(domain.VibeUpdatedEvent)
	if !ok {
		return
	}
	p.view.SetVibe(e.Vibe)
}

func (p *Presenter) onAuthChanged(event domain.Event) {
	e, ok := event.(domain.AuthChangedEvent)
	if !ok {
		return
	}
	p.view.SetIdentity(e.Identity)
}

// UI command handlers (called by the view)

// OnPlayPauseClicked toggles play and pause.
func (p *Presenter) OnPlayPauseClicked() {
	if err := p.transport.TogglePlay(); err != nil {
		p.logger.Warn("play/pause failed", slog.Any("error", err))
	}
}

// OnNextClicked advances to the next track.
func (p *Presenter) OnNextClicked() {
	if err := p.playlist.Next(); err != nil {
		p.logger.Warn("next track failed", slog.Any("error", err))
	}
}

// OnPreviousClicked steps back to the previous track.
func (p *Presenter) OnPreviousClicked() {
	if err := p.playlist.Previous(); err != nil {
		p.logger.Warn("previous track failed", slog.Any("error", err))
	}
}

// OnScrubStarted marks the beginning of a drag on the progress slider.
func (p *Presenter) OnScrubStarted() {
	p.transport.BeginScrub()
}

// OnScrubReleased seeks to the released position, resuming playback if the
// scrub interrupted it.
func (p *Presenter) OnScrubReleased(position time.Duration) {
	if err := p.transport.EndScrub(position); err != nil {
		p.logger.Warn("seek failed", slog.Any("error", err))
	}
}

// OnVolumeChanged handles volume slider changes (0.0 to 1.0).
func (p *Presenter) OnVolumeChanged(volume float64) {
	if err := p.transport.SetVolume(volume); err != nil {
		p.logger.Warn("volume change failed", slog.Any("error", err))
	}
}

// OnMuteClicked toggles mute.
func (p *Presenter) OnMuteClicked() {
	p.transport.ToggleMute()
}

// OnRepeatClicked cycles the repeat mode.
func (p *Presenter) OnRepeatClicked() {
	p.transport.CycleRepeat()
}

// OnTrackSelected plays the track at a display position of the active view.
func (p *Presenter) OnTrackSelected(displayIndex int) {
	if err := p.playlist.SelectByDisplayIndex(displayIndex); err != nil {
		p.logger.Warn("track selection failed", slog.Any("error", err))
	}
}

// OnLikeClicked toggles the current track's liked membership.
func (p *Presenter) OnLikeClicked() {
	state := p.transport.State()
	if state.CurrentTrack == nil {
		return
	}
	p.playlist.ToggleLiked(state.CurrentTrack.ID)
}

// OnViewSelected switches the playlist projection.
func (p *Presenter) OnViewSelected(view domain.PlaylistView) {
	p.playlist.SetView(view)
}

// OnFilesOpened ingests a file-open selection into a fresh playlist.
func (p *Presenter) OnFilesOpened(selections []ports.FileSelection) {
	tracks := p.ingestor.IngestFiles(selections)
	if len(tracks) == 0 {
		p.logger.Warn("no playable files in selection")
		return
	}
	p.playlist.LoadTracks(tracks)
}

// OnBandChanged handles one equalizer band slider.
func (p *Presenter) OnBandChanged(band int, gainDB float64) {
	if err := p.equalizer.SetBand(band, gainDB); err != nil {
		p.logger.Warn("band change failed", slog.Any("error", err))
	}
}

// OnPresetSelected applies a named preset.
func (p *Presenter) OnPresetSelected(name string) {
	if name == domain.PresetCustom {
		return
	}
	if err := p.equalizer.ApplyPreset(name); err != nil {
		p.logger.Warn("preset failed", slog.Any("error", err))
	}
}

// OnEffectClicked toggles a rack effect.
func (p *Presenter) OnEffectClicked(name string) {
	if err := p.equalizer.ToggleEffect(name); err != nil {
		p.logger.Warn("effect toggle failed", slog.Any("error", err))
	}
}

// OnSignInClicked starts a sign-in attempt in the background.
func (p *Presenter) OnSignInClicked() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := p.auth.SignIn(ctx); err != nil {
			p.logger.Warn("sign-in failed", slog.Any("error", err))
		}
	}()
}

// OnSignOutClicked clears the identity.
func (p *Presenter) OnSignOutClicked() {
	if err := p.auth.SignOut(); err != nil {
		p.logger.Warn("sign-out failed", slog.Any("error", err))
	}
}

// startSpectrumUpdates pulls analyser snapshots for the visualizer.
func (p *Presenter) startSpectrumUpdates() {
	p.spectrumWg.Add(1)
	go func() {
		defer p.spectrumWg.Done()
		ticker := time.NewTicker(spectrumInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopSpectrum:
				return
			case <-ticker.C:
				if bins := p.graph.SpectrumSnapshot(); bins != nil {
					p.view.SetSpectrum(bins)
				}
			}
		}
	}()
}

// Shutdown unsubscribes and stops the spectrum loop. Idempotent.
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		close(p.stopSpectrum)
		p.spectrumWg.Wait()

		p.mu.Lock()
		defer p.mu.Unlock()
		for _, id := range p.subscriptions {
			p.bus.Unsubscribe(id)
		}
		p.subscriptions = nil
	})
}
