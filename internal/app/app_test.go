package app

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auraplay/auraplay/internal/domain"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Runtime.UseMockAudio = true
	cfg.TestFyneApp = test.NewApp()
	return cfg
}

func TestNewApplication(t *testing.T) {
	application, err := NewApplication(testConfig())
	require.NoError(t, err)
	require.NotNil(t, application)

	transport, playlist, equalizer, vibe := application.GetServices()
	assert.NotNil(t, transport)
	assert.NotNil(t, playlist)
	assert.NotNil(t, equalizer)
	assert.NotNil(t, vibe)

	assert.NotNil(t, application.GetEventBus())
	assert.NotNil(t, application.GetFyneApp())

	application.Shutdown()
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "com.auraplay.app", cfg.AppID)
	assert.Equal(t, 44100, cfg.Runtime.SampleRate)
}

func TestApplicationLifecycle(t *testing.T) {
	application, err := NewApplication(testConfig())
	require.NoError(t, err)

	// Run would normally block, but we're not calling it in test

	application.Shutdown()

	// Shutdown again should not panic
	application.Shutdown()
}

func TestApplicationWiring(t *testing.T) {
	application, err := NewApplication(testConfig())
	require.NoError(t, err)
	defer application.Shutdown()

	transport, _, equalizer, _ := application.GetServices()

	// Volume flows through to the transport state
	require.NoError(t, transport.SetVolume(0.6))
	assert.InDelta(t, 0.6, transport.Volume(), 0.001)

	// Built-in effects were registered during wiring
	effects := equalizer.Effects()
	require.Len(t, effects, 2)
	assert.Equal(t, domain.EffectReverb, effects[0].Kind)
	assert.Equal(t, domain.EffectTone, effects[1].Kind)

	// Presets apply end to end through the graph
	require.NoError(t, equalizer.ApplyPreset("Rock"))
	assert.Equal(t, "Rock", equalizer.PresetName())
}
