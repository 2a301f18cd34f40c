package dsp

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Analyser taps the end of the signal chain for spectrum visualization.
// It keeps a ring buffer of recent mono samples and computes FFT magnitudes
// on demand; the audio path itself is untouched.
type Analyser struct {
	mu sync.Mutex

	fftSize int
	ring    []float64
	pos     int
}

// NewAnalyser creates an analyser with the given FFT window size.
// The size must be a power of two.
func NewAnalyser(fftSize int) *Analyser {
	return &Analyser{
		fftSize: fftSize,
		ring:    make([]float64, fftSize),
	}
}

// FFTSize returns the analyser's window size.
func (a *Analyser) FFTSize() int {
	return a.fftSize
}

// Process records samples into the ring buffer. The buffer passes through
// unmodified.
func (a *Analyser) Process(samples [][2]float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range samples {
		a.ring[a.pos] = (samples[i][0] + samples[i][1]) / 2
		a.pos++
		if a.pos >= a.fftSize {
			a.pos = 0
		}
	}
}

// Spectrum returns fftSize/2 magnitude bins over the most recent window,
// normalized to roughly [0, 1] for display.
func (a *Analyser) Spectrum() []float64 {
	a.mu.Lock()
	buf := make([]float64, a.fftSize)
	// Unroll the ring so the oldest sample comes first.
	for i := 0; i < a.fftSize; i++ {
		buf[i] = a.ring[(a.pos+i)%a.fftSize]
	}
	a.mu.Unlock()

	window.Apply(buf, window.Hann)
	spectrum := fft.FFTReal(buf)

	bins := make([]float64, a.fftSize/2)
	scale := 2.0 / float64(a.fftSize)
	for i := range bins {
		bins[i] = math.Min(1, cmplx.Abs(spectrum[i])*scale)
	}
	return bins
}
