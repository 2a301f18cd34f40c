package graph

import (
	"log/slog"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/auraplay/auraplay/internal/domain"
)

// loadImpulseResponse decodes the reverb impulse-response WAV in the
// background. Any failure leaves the reverb unit inert (a selection of it
// then has no audible effect); it never blocks the graph.
func (b *Builder) loadImpulseResponse() {
	defer b.loaderWg.Done()

	path := b.cfg.ImpulseResponsePath
	if path == "" {
		b.setReverbError(domain.NewAudioEngineError("impulse", "", "no impulse response configured", nil))
		return
	}

	f, err := os.Open(path)
	if err != nil {
		b.setReverbError(domain.NewAudioEngineError("impulse", path, "open failed", err))
		return
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		b.setReverbError(domain.NewAudioEngineError("impulse", path, "decode failed", err))
		return
	}
	if buf == nil || len(buf.Data) == 0 {
		b.setReverbError(domain.NewAudioEngineError("impulse", path, "empty impulse response", nil))
		return
	}

	ir := monoImpulse(buf, int(dec.BitDepth))
	b.reverb.SetImpulse(ir)

	b.logger.Debug("impulse response loaded",
		slog.String("path", path),
		slog.Int("taps", len(ir)))
}

func (b *Builder) setReverbError(err error) {
	b.mu.Lock()
	b.reverbErr = err
	b.mu.Unlock()
	b.logger.Warn("reverb unavailable", slog.Any("error", err))
}

// monoImpulse downmixes the PCM buffer to mono float64 and normalizes the
// peak to 1 so convolution gain stays predictable.
func monoImpulse(buf *audio.IntBuffer, bitDepth int) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := 1 / float64(int(1)<<(bitDepth-1))

	frames := len(buf.Data) / channels
	ir := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch]) * scale
		}
		ir[i] = sum / float64(channels)
	}

	var peak float64
	for _, v := range ir {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak > 0 {
		for i := range ir {
			ir[i] /= peak
		}
	}
	return ir
}
