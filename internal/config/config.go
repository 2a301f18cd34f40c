// Package config loads runtime configuration from environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Audio
	SampleRate          int    // output sample rate in Hz
	ImpulseResponsePath string // WAV file for the reverb convolver
	UseMockAudio        bool   // replace the output device with the mock engine

	// Vibe annotation
	VibeAPIURL string
	VibeAPIKey string
	VibeModel  string

	// Auth gateway
	AuthTokenURL string
	AuthClientID string
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is honored but never overrides
// variables already present in the environment.
func Load() Config {
	// Ignore the error: a missing .env file just means env vars and defaults.
	_ = godotenv.Load()

	return Config{
		SampleRate:          envInt("AURA_SAMPLE_RATE", 44100),
		ImpulseResponsePath: envStr("AURA_IMPULSE_RESPONSE", "assets/impulse-response.wav"),
		UseMockAudio:        envBool("AURA_USE_MOCK_AUDIO", false),

		VibeAPIURL: envStr("AURA_VIBE_API_URL", "https://generativelanguage.googleapis.com"),
		VibeAPIKey: envStr("AURA_VIBE_API_KEY", ""),
		VibeModel:  envStr("AURA_VIBE_MODEL", "gemini-2.5-flash"),

		AuthTokenURL: envStr("AURA_AUTH_TOKEN_URL", ""),
		AuthClientID: envStr("AURA_AUTH_CLIENT_ID", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
