package dsp

import (
	"math"
	"sync"
)

// Biquad is a second-order IIR filter (direct form I, per-channel state).
// It implements the peaking filters of the graphic equalizer bands and the
// lowpass tone-shaping filter, with coefficients from the Audio EQ Cookbook.
type Biquad struct {
	mu sync.Mutex

	sampleRate float64
	freq       float64
	q          float64
	gainDB     float64
	lowpass    bool

	// Normalized coefficients
	b0, b1, b2, a1, a2 float64

	// Filter state, one set per stereo channel
	x1, x2, y1, y2 [2]float64
}

// NewPeaking creates a peaking equalizer band centered on freq Hz.
func NewPeaking(sampleRate, freq, q, gainDB float64) *Biquad {
	f := &Biquad{
		sampleRate: sampleRate,
		freq:       freq,
		q:          q,
		gainDB:     gainDB,
	}
	f.recalc()
	return f
}

// NewLowPass creates a lowpass filter with the given cutoff in Hz.
func NewLowPass(sampleRate, freq, q float64) *Biquad {
	f := &Biquad{
		sampleRate: sampleRate,
		freq:       freq,
		q:          q,
		lowpass:    true,
	}
	f.recalc()
	return f
}

// SetGainDB updates a peaking band's gain and recomputes coefficients.
// No-op for lowpass filters.
func (f *Biquad) SetGainDB(gainDB float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lowpass || f.gainDB == gainDB {
		return
	}
	f.gainDB = gainDB
	f.recalc()
}

// GainDB returns the band's current gain in dB.
func (f *Biquad) GainDB() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gainDB
}

// Frequency returns the band's center (or cutoff) frequency in Hz.
func (f *Biquad) Frequency() float64 {
	return f.freq
}

// recalc recomputes normalized coefficients. Caller must hold the lock
// (or be the constructor).
func (f *Biquad) recalc() {
	w0 := 2 * math.Pi * f.freq / f.sampleRate
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2 * f.q)

	var b0, b1, b2, a0, a1, a2 float64
	if f.lowpass {
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	} else {
		a := math.Pow(10, f.gainDB/40)
		b0 = 1 + alpha*a
		b1 = -2 * cosW0
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosW0
		a2 = 1 - alpha/a
	}

	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = a1 / a0
	f.a2 = a2 / a0
}

// Process filters the buffer in place.
func (f *Biquad) Process(samples [][2]float64) {
	f.mu.Lock()
	b0, b1, b2, a1, a2 := f.b0, f.b1, f.b2, f.a1, f.a2
	x1, x2, y1, y2 := f.x1, f.x2, f.y1, f.y2
	f.mu.Unlock()

	for i := range samples {
		for ch := 0; ch < 2; ch++ {
			x := samples[i][ch]
			y := b0*x + b1*x1[ch] + b2*x2[ch] - a1*y1[ch] - a2*y2[ch]
			x2[ch], x1[ch] = x1[ch], x
			y2[ch], y1[ch] = y1[ch], y
			samples[i][ch] = y
		}
	}

	f.mu.Lock()
	f.x1, f.x2, f.y1, f.y2 = x1, x2, y1, y2
	f.mu.Unlock()
}

// Reset clears the filter state, e.g. between tracks.
func (f *Biquad) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.x1, f.x2, f.y1, f.y2 = [2]float64{}, [2]float64{}, [2]float64{}, [2]float64{}
}
