package dsp

import (
	"math"
	"sync/atomic"
)

// Gain scales the signal by a linear level. The master volume node.
type Gain struct {
	level atomic.Uint64 // math.Float64bits of the linear level
}

// NewGain creates a gain processor at the given level (0.0 to 1.0).
func NewGain(level float64) *Gain {
	g := &Gain{}
	g.SetLevel(level)
	return g
}

// SetLevel sets the linear gain level. Values are clamped to [0, 1].
func (g *Gain) SetLevel(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	g.level.Store(math.Float64bits(level))
}

// Level returns the current linear gain level.
func (g *Gain) Level() float64 {
	return math.Float64frombits(g.level.Load())
}

// Process scales the buffer in place.
func (g *Gain) Process(samples [][2]float64) {
	level := g.Level()
	if level == 1 {
		return
	}
	for i := range samples {
		samples[i][0] *= level
		samples[i][1] *= level
	}
}
