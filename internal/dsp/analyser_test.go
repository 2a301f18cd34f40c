package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyser_SpectrumPeaksAtSignalFrequency(t *testing.T) {
	const (
		fftSize    = 128
		sampleRate = 44100.0
	)

	a := NewAnalyser(fftSize)

	// Feed a sine that lands exactly on bin 8.
	bin := 8
	freq := float64(bin) * sampleRate / fftSize
	a.Process(sine(freq, sampleRate, fftSize))

	spectrum := a.Spectrum()
	require.Len(t, spectrum, fftSize/2)

	peak := 0
	for i, v := range spectrum {
		if v > spectrum[peak] {
			peak = i
		}
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.Equal(t, bin, peak)
}

func TestAnalyser_SilenceYieldsZeroSpectrum(t *testing.T) {
	a := NewAnalyser(128)
	a.Process(make([][2]float64, 256))

	for _, v := range a.Spectrum() {
		assert.InDelta(t, 0.0, v, 1e-9)
	}
}

func TestAnalyser_ProcessLeavesBufferUntouched(t *testing.T) {
	a := NewAnalyser(128)

	buf := sine(440, 44100, 64)
	want := append([][2]float64(nil), buf...)
	a.Process(buf)

	assert.Equal(t, want, buf)
}

func TestGain_ScalesAndClamps(t *testing.T) {
	g := NewGain(0.5)
	buf := [][2]float64{{1, -1}, {0.5, 0.5}}
	g.Process(buf)
	assert.InDelta(t, 0.5, buf[0][0], 1e-12)
	assert.InDelta(t, -0.5, buf[0][1], 1e-12)

	g.SetLevel(2.5)
	assert.Equal(t, 1.0, g.Level())
	g.SetLevel(-1)
	assert.Equal(t, 0.0, g.Level())
}
