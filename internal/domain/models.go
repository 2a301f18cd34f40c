// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the Aura audio player.
package domain

import (
	"io"
	"time"
)

// Track represents a single playable audio track.
// Tracks are created on ingest and are immutable afterwards; when a new
// playlist replaces them, their media sources are released.
type Track struct {
	// ID is a unique identifier for the track (UUID), stable for the session
	ID string

	// Title is the track title (from tags or the filename)
	Title string

	// Artist is the performing artist name
	Artist string

	// ArtworkURL is a reference to the cover artwork
	ArtworkURL string

	// Source is the playable media source for this track
	Source MediaSource
}

// MediaSource is an opaque handle to playable audio data.
// The transport controller opens it for decoding; Release frees the
// underlying data and invalidates the source.
type MediaSource interface {
	// Open returns a reader over the encoded audio data.
	// Returns an error if the source has been released.
	Open() (io.ReadSeekCloser, error)

	// MIMEType returns the media type of the encoded data (e.g. "audio/mpeg").
	MIMEType() string

	// Release frees the underlying data. Open fails afterwards.
	// Releasing twice is a no-op.
	Release() error
}

// TrackHandle identifies a track loaded into the audio engine.
type TrackHandle int64

// InvalidTrackHandle represents an invalid or uninitialized track handle.
const InvalidTrackHandle TrackHandle = 0

// TransportState is the transport controller's state machine state.
type TransportState int

const (
	// TransportIdle means no track is loaded
	TransportIdle TransportState = iota

	// TransportPaused means a track is loaded but not playing
	TransportPaused

	// TransportPlaying means a track is loaded and playing
	TransportPlaying

	// TransportEnded means the loaded track finished playing
	TransportEnded
)

// String returns a human-readable representation of the transport state.
func (s TransportState) String() string {
	switch s {
	case TransportIdle:
		return "idle"
	case TransportPaused:
		return "paused"
	case TransportPlaying:
		return "playing"
	case TransportEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// PlaybackStatus is the audio engine's view of a loaded track.
type PlaybackStatus int

const (
	// StatusStopped indicates the engine is not producing audio for the track
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates the engine is producing audio
	StatusPlaying

	// StatusPaused indicates playback is suspended with position preserved
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// RepeatMode controls the track-advance policy when a track ends.
type RepeatMode int

const (
	// RepeatNone plays through the playlist once
	RepeatNone RepeatMode = iota

	// RepeatAll wraps to the first track after the last
	RepeatAll

	// RepeatOne replays the current track when it ends
	RepeatOne
)

// Cycle returns the next repeat mode in the UI toggle order.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// PlaylistView selects which projection of the playlist is displayed.
type PlaylistView string

const (
	// ViewAll shows the canonical playlist order
	ViewAll PlaylistView = "all"

	// ViewLiked shows only liked tracks, in canonical order
	ViewLiked PlaylistView = "liked"
)

// PlaybackState is a snapshot of the transport controller's state.
type PlaybackState struct {
	// CurrentTrack is the currently loaded track (nil if none)
	CurrentTrack *Track

	// CurrentIndex is the index into the canonical playlist (-1 if none)
	CurrentIndex int

	// State is the transport state machine state
	State TransportState

	// Position is the elapsed position within the current track
	Position time.Duration

	// Duration is the total length of the current track
	Duration time.Duration

	// Volume is the master volume (0.0 to 1.0)
	Volume float64

	// Repeat is the active repeat mode
	Repeat RepeatMode
}

// EffectKind identifies which processing unit an effect routes through.
type EffectKind int

const (
	// EffectNone routes the equalizer output straight to the analyser
	EffectNone EffectKind = iota

	// EffectReverb routes through the convolution reverb unit
	EffectReverb

	// EffectTone routes through the tone-shaping lowpass filter
	EffectTone
)

// String returns a human-readable representation of the effect kind.
func (k EffectKind) String() string {
	switch k {
	case EffectNone:
		return "none"
	case EffectReverb:
		return "reverb"
	case EffectTone:
		return "tone"
	default:
		return "unknown"
	}
}

// Effect is a named entry in the effect rack.
type Effect struct {
	// Name is the display name (e.g. "ClarityVerb.vst3")
	Name string

	// Kind is the processing unit the effect routes through
	Kind EffectKind
}

// BandCount is the number of graphic equalizer bands.
const BandCount = 6

// BandFrequencies are the center frequencies of the equalizer bands in Hz.
var BandFrequencies = [BandCount]float64{60, 310, 1000, 3000, 6000, 12000}

// Equalizer band gain limits in dB.
const (
	MinBandGain = -12.0
	MaxBandGain = 12.0
)

// ClampBandGain clamps a band gain to the valid [-12, +12] dB range.
// Out-of-range input is clamped, never an error.
func ClampBandGain(db float64) float64 {
	if db < MinBandGain {
		return MinBandGain
	}
	if db > MaxBandGain {
		return MaxBandGain
	}
	return db
}

// PresetCustom is the preset name reported when band gains match no table entry.
const PresetCustom = "Custom"

// Presets is the fixed table of named equalizer presets.
var Presets = map[string][BandCount]float64{
	"Flat": {0, 0, 0, 0, 0, 0},
	"Rock": {5, 3, -4, -3, 3, 5},
	"Pop":  {2, 4, 3, 0, -2, -3},
	"Jazz": {-2, 3, 5, 2, -1, -2},
}

// PresetNames lists the preset table keys in display order.
var PresetNames = []string{"Flat", "Rock", "Pop", "Jazz"}

// MatchPreset returns the name of the preset whose table exactly equals the
// given band gains, or PresetCustom if none matches.
func MatchPreset(bands [BandCount]float64) string {
	for _, name := range PresetNames {
		if Presets[name] == bands {
			return name
		}
	}
	return PresetCustom
}

// Identity is a signed-in user identity from the auth gateway.
type Identity struct {
	// Subject is the provider's stable user identifier
	Subject string

	// DisplayName is the user's display name
	DisplayName string

	// AvatarURL is an optional avatar image URL
	AvatarURL string
}

// FallbackVibe is displayed when vibe generation fails or is unavailable.
const FallbackVibe = "A vibe that transcends words."
