// Package dsp implements the audio processing units that populate the node
// graph: gain, peaking/lowpass biquad filters, convolution reverb, and the
// spectrum analyser. All processors work in place on interleaved stereo
// float64 samples in [-1, 1], the format the playback engine streams.
package dsp

// Processor is a single processing unit in the signal chain.
//
// Process is called from the playback goroutine only; implementations keep
// their filter state unsynchronized and rely on parameter setters being
// cheap atomic swaps.
type Processor interface {
	Process(samples [][2]float64)
}
