package service

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/ports"
)

// EqualizerService owns the equalizer band state, the preset table, and the
// effect rack. All parameter changes go through the graph controller; the
// service never touches processing nodes directly.
//
// All operations are thread-safe via sync.RWMutex.
type EqualizerService struct {
	// Dependencies (injected)
	logger *slog.Logger
	graph  ports.GraphController
	bus    ports.EventBus

	// State
	bands        [domain.BandCount]float64
	presetName   string
	effects      []domain.Effect
	activeEffect string

	// Concurrency control
	mu sync.RWMutex
}

// NewEqualizerService creates an equalizer service starting flat with no
// active effect.
func NewEqualizerService(
	logger *slog.Logger,
	graph ports.GraphController,
	bus ports.EventBus,
) *EqualizerService {
	return &EqualizerService{
		logger:     logger,
		graph:      graph,
		bus:        bus,
		presetName: "Flat",
	}
}

// SetBand sets one band's gain in dB, clamped to the valid range. The
// reported preset becomes Custom unless the resulting values exactly match
// a preset table entry.
func (s *EqualizerService) SetBand(band int, gainDB float64) error {
	if band < 0 || band >= domain.BandCount {
		return domain.ErrInvalidIndex
	}

	clamped := domain.ClampBandGain(gainDB)
	if err := s.graph.SetBandGain(band, clamped); err != nil {
		return err
	}

	s.mu.Lock()
	s.bands[band] = clamped
	s.presetName = domain.MatchPreset(s.bands)
	s.mu.Unlock()

	s.bus.Publish(domain.NewBandGainChangedEvent(band, clamped))
	return nil
}

// ApplyPreset sets all bands from a named preset table entry. An unknown
// name is ignored.
func (s *EqualizerService) ApplyPreset(name string) error {
	gains, ok := domain.Presets[name]
	if !ok {
		s.logger.Warn("unknown preset ignored", slog.String("preset", name))
		return nil
	}

	for band, gain := range gains {
		if err := s.graph.SetBandGain(band, gain); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.bands = gains
	s.presetName = name
	s.mu.Unlock()

	s.logger.Debug("preset applied", slog.String("preset", name))
	s.bus.Publish(domain.NewPresetAppliedEvent(name, gains))
	return nil
}

// BandGains returns the current band gains in dB.
func (s *EqualizerService) BandGains() [domain.BandCount]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bands
}

// PresetName returns the active preset name, or Custom when the band values
// match no table entry.
func (s *EqualizerService) PresetName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presetName
}

// RegisterEffect adds a named effect to the rack, inferring its processing
// unit from the name: anything containing "verb" routes through the reverb,
// "bass" or "filter" through the tone filter. Unrecognized names are
// rejected silently.
func (s *EqualizerService) RegisterEffect(name string) {
	kind := effectKindForName(name)
	if kind == domain.EffectNone {
		s.logger.Warn("unrecognized effect name", slog.String("name", name))
		return
	}

	s.mu.Lock()
	for _, e := range s.effects {
		if e.Name == name {
			s.mu.Unlock()
			return
		}
	}
	effect := domain.Effect{Name: name, Kind: kind}
	s.effects = append(s.effects, effect)
	s.mu.Unlock()

	s.bus.Publish(domain.NewEffectRegisteredEvent(effect))
}

// RegisterBuiltins registers the two stock effects.
func (s *EqualizerService) RegisterBuiltins() {
	s.RegisterEffect("ClarityVerb.vst3")
	s.RegisterEffect("BassShaper.vst3")
}

// ToggleEffect activates a registered effect, or deactivates it if it is
// already active. At most one effect is active at a time.
func (s *EqualizerService) ToggleEffect(name string) error {
	s.mu.Lock()
	var effect *domain.Effect
	for i := range s.effects {
		if s.effects[i].Name == name {
			effect = &s.effects[i]
			break
		}
	}
	if effect == nil {
		s.mu.Unlock()
		return domain.NewServiceError("EqualizerService", "ToggleEffect", "effect not registered", nil)
	}

	targetName := name
	targetKind := effect.Kind
	if s.activeEffect == name {
		targetName = ""
		targetKind = domain.EffectNone
	}
	s.mu.Unlock()

	if err := s.graph.SetActiveEffect(targetKind); err != nil {
		return err
	}

	s.mu.Lock()
	s.activeEffect = targetName
	s.mu.Unlock()

	s.bus.Publish(domain.NewEffectToggledEvent(targetName, targetKind))
	return nil
}

// Effects returns the registered effect rack.
func (s *EqualizerService) Effects() []domain.Effect {
	s.mu.RLock()
	defer s.mu.RUnlock()

	effects := make([]domain.Effect, len(s.effects))
	copy(effects, s.effects)
	return effects
}

// ActiveEffect returns the active effect's name, or empty when none is.
func (s *EqualizerService) ActiveEffect() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeEffect
}

// effectKindForName maps an effect display name to its processing unit.
func effectKindForName(name string) domain.EffectKind {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "verb"):
		return domain.EffectReverb
	case strings.Contains(lower, "bass"), strings.Contains(lower, "filter"):
		return domain.EffectTone
	default:
		return domain.EffectNone
	}
}
