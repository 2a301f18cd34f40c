// Package domain defines events for the event-driven architecture.
// Events decouple "what happened" from how the UI or other consumers react.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Transport events
	EventTrackLoaded          EventType = "track.loaded"
	EventTrackStarted         EventType = "track.started"
	EventTrackPaused          EventType = "track.paused"
	EventTrackProgress        EventType = "track.progress"
	EventTrackEnded           EventType = "track.ended"
	EventPlaybackError        EventType = "playback.error"
	EventPlaybackErrorCleared EventType = "playback.error_cleared"

	// Volume and mode events
	EventVolumeChanged     EventType = "volume.changed"
	EventRepeatModeChanged EventType = "repeat.changed"

	// Playlist events
	EventPlaylistUpdated EventType = "playlist.updated"
	EventViewChanged     EventType = "playlist.view_changed"
	EventLikedToggled    EventType = "playlist.liked_toggled"

	// Effect chain events
	EventEffectRegistered EventType = "effect.registered"
	EventEffectToggled    EventType = "effect.toggled"
	EventBandGainChanged  EventType = "equalizer.band_changed"
	EventPresetApplied    EventType = "equalizer.preset_applied"

	// Vibe annotation events
	EventVibeLoading EventType = "vibe.loading"
	EventVibeUpdated EventType = "vibe.updated"

	// Auth events
	EventAuthChanged EventType = "auth.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackLoadedEvent is published when a track is loaded into the transport.
type TrackLoadedEvent struct {
	baseEvent
	Track    Track
	Handle   TrackHandle
	Duration time.Duration
	Index    int // Canonical playlist index
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track Track, handle TrackHandle, duration time.Duration, index int) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Handle:    handle,
		Duration:  duration,
		Index:     index,
	}
}

// TrackStartedEvent is published when playback starts or resumes.
type TrackStartedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Track    Track
	Position time.Duration
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(track Track, position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  position,
	}
}

// TrackProgressEvent is published periodically during playback and on seek.
type TrackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType {
	return EventTrackProgress
}

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(position, duration time.Duration) TrackProgressEvent {
	return TrackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// TrackEndedEvent is published when a track finishes naturally and the
// playlist should decide what plays next. Repeat-one never reaches here;
// the transport handles it internally.
type TrackEndedEvent struct {
	baseEvent
	Track Track
	Index int
}

// Type returns the event type.
func (e TrackEndedEvent) Type() EventType {
	return EventTrackEnded
}

// NewTrackEndedEvent creates a new TrackEndedEvent.
func NewTrackEndedEvent(track Track, index int) TrackEndedEvent {
	return TrackEndedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
	}
}

// PlaybackErrorEvent carries a transient user-visible playback failure.
// A matching PlaybackErrorClearedEvent follows after the display window.
type PlaybackErrorEvent struct {
	baseEvent
	Track   Track
	Message string
	Err     error
}

// Type returns the event type.
func (e PlaybackErrorEvent) Type() EventType {
	return EventPlaybackError
}

// NewPlaybackErrorEvent creates a new PlaybackErrorEvent.
func NewPlaybackErrorEvent(track Track, message string, err error) PlaybackErrorEvent {
	return PlaybackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Message:   message,
		Err:       err,
	}
}

// PlaybackErrorClearedEvent is published when a transient playback error
// display window elapses.
type PlaybackErrorClearedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e PlaybackErrorClearedEvent) Type() EventType {
	return EventPlaybackErrorCleared
}

// NewPlaybackErrorClearedEvent creates a new PlaybackErrorClearedEvent.
func NewPlaybackErrorClearedEvent() PlaybackErrorClearedEvent {
	return PlaybackErrorClearedEvent{baseEvent: newBaseEvent()}
}

// VolumeChangedEvent is published when the master volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 // 0.0 to 1.0
	Muted  bool
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64, muted bool) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
		Muted:     muted,
	}
}

// RepeatModeChangedEvent is published when the repeat mode changes.
type RepeatModeChangedEvent struct {
	baseEvent
	Mode RepeatMode
}

// Type returns the event type.
func (e RepeatModeChangedEvent) Type() EventType {
	return EventRepeatModeChanged
}

// NewRepeatModeChangedEvent creates a new RepeatModeChangedEvent.
func NewRepeatModeChangedEvent(mode RepeatMode) RepeatModeChangedEvent {
	return RepeatModeChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
	}
}

// PlaylistUpdatedEvent is published when the canonical playlist changes.
type PlaylistUpdatedEvent struct {
	baseEvent
	Tracks []Track
	Index  int // Current canonical track index
}

// Type returns the event type.
func (e PlaylistUpdatedEvent) Type() EventType {
	return EventPlaylistUpdated
}

// NewPlaylistUpdatedEvent creates a new PlaylistUpdatedEvent.
func NewPlaylistUpdatedEvent(tracks []Track, index int) PlaylistUpdatedEvent {
	return PlaylistUpdatedEvent{
		baseEvent: newBaseEvent(),
		Tracks:    tracks,
		Index:     index,
	}
}

// ViewChangedEvent is published when the playlist view filter changes.
type ViewChangedEvent struct {
	baseEvent
	View PlaylistView
}

// Type returns the event type.
func (e ViewChangedEvent) Type() EventType {
	return EventViewChanged
}

// NewViewChangedEvent creates a new ViewChangedEvent.
func NewViewChangedEvent(view PlaylistView) ViewChangedEvent {
	return ViewChangedEvent{
		baseEvent: newBaseEvent(),
		View:      view,
	}
}

// LikedToggledEvent is published when a track's liked membership flips.
type LikedToggledEvent struct {
	baseEvent
	TrackID string
	Liked   bool
}

// Type returns the event type.
func (e LikedToggledEvent) Type() EventType {
	return EventLikedToggled
}

// NewLikedToggledEvent creates a new LikedToggledEvent.
func NewLikedToggledEvent(trackID string, liked bool) LikedToggledEvent {
	return LikedToggledEvent{
		baseEvent: newBaseEvent(),
		TrackID:   trackID,
		Liked:     liked,
	}
}

// EffectRegisteredEvent is published when an effect joins the rack.
type EffectRegisteredEvent struct {
	baseEvent
	Effect Effect
}

// Type returns the event type.
func (e EffectRegisteredEvent) Type() EventType {
	return EventEffectRegistered
}

// NewEffectRegisteredEvent creates a new EffectRegisteredEvent.
func NewEffectRegisteredEvent(effect Effect) EffectRegisteredEvent {
	return EffectRegisteredEvent{
		baseEvent: newBaseEvent(),
		Effect:    effect,
	}
}

// EffectToggledEvent is published when the active effect changes.
// Name is empty when no effect is active.
type EffectToggledEvent struct {
	baseEvent
	Name string
	Kind EffectKind
}

// Type returns the event type.
func (e EffectToggledEvent) Type() EventType {
	return EventEffectToggled
}

// NewEffectToggledEvent creates a new EffectToggledEvent.
func NewEffectToggledEvent(name string, kind EffectKind) EffectToggledEvent {
	return EffectToggledEvent{
		baseEvent: newBaseEvent(),
		Name:      name,
		Kind:      kind,
	}
}

// BandGainChangedEvent is published when a single equalizer band changes.
type BandGainChangedEvent struct {
	baseEvent
	Band int
	Gain float64 // dB, clamped
}

// Type returns the event type.
func (e BandGainChangedEvent) Type() EventType {
	return EventBandGainChanged
}

// NewBandGainChangedEvent creates a new BandGainChangedEvent.
func NewBandGainChangedEvent(band int, gain float64) BandGainChangedEvent {
	return BandGainChangedEvent{
		baseEvent: newBaseEvent(),
		Band:      band,
		Gain:      gain,
	}
}

// PresetAppliedEvent is published when a named preset is applied.
type PresetAppliedEvent struct {
	baseEvent
	Name  string
	Gains [BandCount]float64
}

// Type returns the event type.
func (e PresetAppliedEvent) Type() EventType {
	return EventPresetApplied
}

// NewPresetAppliedEvent creates a new PresetAppliedEvent.
func NewPresetAppliedEvent(name string, gains [BandCount]float64) PresetAppliedEvent {
	return PresetAppliedEvent{
		baseEvent: newBaseEvent(),
		Name:      name,
		Gains:     gains,
	}
}

// VibeLoadingEvent is published when a vibe lookup starts for a track.
type VibeLoadingEvent struct {
	baseEvent
	TrackID string
}

// Type returns the event type.
func (e VibeLoadingEvent) Type() EventType {
	return EventVibeLoading
}

// NewVibeLoadingEvent creates a new VibeLoadingEvent.
func NewVibeLoadingEvent(trackID string) VibeLoadingEvent {
	return VibeLoadingEvent{
		baseEvent: newBaseEvent(),
		TrackID:   trackID,
	}
}

// VibeUpdatedEvent is published when a vibe lookup resolves for the track
// that is still current. Stale lookups are dropped, never published.
type VibeUpdatedEvent struct {
	baseEvent
	TrackID string
	Vibe    string
}

// Type returns the event type.
func (e VibeUpdatedEvent) Type() EventType {
	return EventVibeUpdated
}

// NewVibeUpdatedEvent creates a new VibeUpdatedEvent.
func NewVibeUpdatedEvent(trackID, vibe string) VibeUpdatedEvent {
	return VibeUpdatedEvent{
		baseEvent: newBaseEvent(),
		TrackID:   trackID,
		Vibe:      vibe,
	}
}

// AuthChangedEvent is published whenever the signed-in identity changes.
// Identity is nil when signed out.
type AuthChangedEvent struct {
	baseEvent
	Identity *Identity
}

// Type returns the event type.
func (e AuthChangedEvent) Type() EventType {
	return EventAuthChanged
}

// NewAuthChangedEvent creates a new AuthChangedEvent.
func NewAuthChangedEvent(identity *Identity) AuthChangedEvent {
	return AuthChangedEvent{
		baseEvent: newBaseEvent(),
		Identity:  identity,
	}
}
