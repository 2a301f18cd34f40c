package dsp

import (
	"sync"
)

// maxImpulseTaps bounds the impulse response length so the direct-form
// convolution stays inside the audio callback's time budget.
const maxImpulseTaps = 8192

// Convolver is the reverb unit: it convolves the signal with a room impulse
// response. Until SetImpulse delivers one, the convolver passes audio through
// dry, which is what makes a failed impulse fetch silently inert.
type Convolver struct {
	mu sync.Mutex

	impulse []float64 // mono IR applied to both channels
	history [2][]float64
	pos     int

	wet float64
	dry float64
}

// NewConvolver creates a convolver with no impulse response loaded.
func NewConvolver() *Convolver {
	return &Convolver{
		wet: 0.5,
		dry: 0.5,
	}
}

// SetImpulse installs the impulse response, truncated to the tap budget.
// An empty impulse returns the convolver to pass-through.
func (c *Convolver) SetImpulse(impulse []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(impulse) > maxImpulseTaps {
		impulse = impulse[:maxImpulseTaps]
	}
	c.impulse = append([]float64(nil), impulse...)
	for ch := 0; ch < 2; ch++ {
		c.history[ch] = make([]float64, len(c.impulse))
	}
	c.pos = 0
}

// Loaded reports whether an impulse response is installed.
func (c *Convolver) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.impulse) > 0
}

// Process convolves the buffer in place, mixing wet and dry signals.
// With no impulse loaded the buffer is untouched.
func (c *Convolver) Process(samples [][2]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.impulse)
	if n == 0 {
		return
	}

	for i := range samples {
		for ch := 0; ch < 2; ch++ {
			c.history[ch][c.pos] = samples[i][ch]

			var acc float64
			idx := c.pos
			for t := 0; t < n; t++ {
				acc += c.impulse[t] * c.history[ch][idx]
				idx--
				if idx < 0 {
					idx = n - 1
				}
			}
			samples[i][ch] = c.dry*samples[i][ch] + c.wet*acc
		}
		c.pos++
		if c.pos >= n {
			c.pos = 0
		}
	}
}
