package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, "gemini-2.5-flash", cfg.VibeModel)
	assert.False(t, cfg.UseMockAudio)
	assert.Empty(t, cfg.VibeAPIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AURA_SAMPLE_RATE", "48000")
	t.Setenv("AURA_USE_MOCK_AUDIO", "true")
	t.Setenv("AURA_VIBE_API_KEY", "test-key")

	cfg := Load()

	assert.Equal(t, 48000, cfg.SampleRate)
	assert.True(t, cfg.UseMockAudio)
	assert.Equal(t, "test-key", cfg.VibeAPIKey)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("AURA_SAMPLE_RATE", "not-a-number")
	t.Setenv("AURA_USE_MOCK_AUDIO", "maybe")

	cfg := Load()

	assert.Equal(t, 44100, cfg.SampleRate)
	assert.False(t, cfg.UseMockAudio)
}
