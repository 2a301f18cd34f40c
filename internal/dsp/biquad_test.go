package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sine generates a stereo sine buffer at the given frequency.
func sine(freq, sampleRate float64, n int) [][2]float64 {
	buf := make([][2]float64, n)
	for i := range buf {
		v := math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
		buf[i] = [2]float64{v, v}
	}
	return buf
}

// rms measures the left-channel RMS level of a buffer, skipping the first
// quarter to let the filter settle.
func rms(buf [][2]float64) float64 {
	start := len(buf) / 4
	var sum float64
	for _, s := range buf[start:] {
		sum += s[0] * s[0]
	}
	return math.Sqrt(sum / float64(len(buf)-start))
}

func TestBiquad_PeakingBoostsCenterFrequency(t *testing.T) {
	const sampleRate = 44100

	boosted := NewPeaking(sampleRate, 1000, 1.4, 12)
	buf := sine(1000, sampleRate, 8192)
	before := rms(buf)
	boosted.Process(buf)
	after := rms(buf)

	// +12 dB is a factor of ~3.98 in amplitude
	gain := after / before
	assert.InDelta(t, math.Pow(10, 12.0/20.0), gain, 0.5)
}

func TestBiquad_PeakingZeroGainIsTransparent(t *testing.T) {
	const sampleRate = 44100

	flat := NewPeaking(sampleRate, 1000, 1.4, 0)
	buf := sine(1000, sampleRate, 4096)
	before := rms(buf)
	flat.Process(buf)
	after := rms(buf)

	assert.InDelta(t, 1.0, after/before, 0.01)
}

func TestBiquad_PeakingCutReducesLevel(t *testing.T) {
	const sampleRate = 44100

	cut := NewPeaking(sampleRate, 1000, 1.4, -12)
	buf := sine(1000, sampleRate, 8192)
	before := rms(buf)
	cut.Process(buf)
	after := rms(buf)

	assert.Less(t, after/before, 0.5)
}

func TestBiquad_LowPassAttenuatesAboveCutoff(t *testing.T) {
	const sampleRate = 44100

	lp := NewLowPass(sampleRate, 800, 1)

	high := sine(8000, sampleRate, 8192)
	before := rms(high)
	lp.Process(high)
	highGain := rms(high) / before

	lp.Reset()

	low := sine(100, sampleRate, 8192)
	before = rms(low)
	lp.Process(low)
	lowGain := rms(low) / before

	assert.Less(t, highGain, 0.1, "8 kHz should be strongly attenuated")
	assert.InDelta(t, 1.0, lowGain, 0.1, "100 Hz should pass")
}

func TestBiquad_SetGainDB(t *testing.T) {
	band := NewPeaking(44100, 60, 1.4, 0)
	require.Equal(t, 0.0, band.GainDB())

	band.SetGainDB(5)
	assert.Equal(t, 5.0, band.GainDB())

	// Lowpass ignores gain updates
	lp := NewLowPass(44100, 800, 1)
	lp.SetGainDB(5)
	assert.Equal(t, 0.0, lp.GainDB())
}
