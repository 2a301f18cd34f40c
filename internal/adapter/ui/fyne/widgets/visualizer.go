// Package widgets provides custom Fyne widgets for the AuraPlay application.
package widgets

import (
	"image"
	"image/color"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// SpectrumBars is a widget that displays analyser magnitude bins as
// vertical bars with falling peak caps.
type SpectrumBars struct {
	widget.BaseWidget

	raster  *canvas.Raster
	mu      sync.RWMutex
	bins    []float64
	caps    []float64 // Falling cap heights, in pixels
	numBars int

	// Visual configuration
	capFalloff float64 // Pixels per update the cap falls
	barGap     int
}

// NewSpectrumBars creates a spectrum widget with the given bar count.
func NewSpectrumBars(numBars int) *SpectrumBars {
	s := &SpectrumBars{
		numBars:    numBars,
		caps:       make([]float64, numBars),
		capFalloff: 2.0,
		barGap:     2,
	}

	s.raster = canvas.NewRaster(s.draw)
	s.ExtendBaseWidget(s)
	return s
}

// CreateRenderer implements fyne.Widget.
func (s *SpectrumBars) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.raster)
}

// MinSize keeps the widget flexible so the layout decides its size.
func (s *SpectrumBars) MinSize() fyne.Size {
	return fyne.NewSize(0, 48)
}

// Update feeds a fresh set of magnitude bins (0.0 to 1.0) and redraws.
func (s *SpectrumBars) Update(bins []float64) {
	s.mu.Lock()
	s.bins = bins
	s.mu.Unlock()

	s.raster.Refresh()
}

// Reset clears the bars and caps.
func (s *SpectrumBars) Reset() {
	s.mu.Lock()
	s.bins = nil
	for i := range s.caps {
		s.caps[i] = 0
	}
	s.mu.Unlock()

	s.raster.Refresh()
}

func (s *SpectrumBars) draw(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return img
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	heights := s.barHeights(h)

	barWidth := (w - (s.numBars-1)*s.barGap) / s.numBars
	if barWidth < 1 {
		barWidth = 1
	}

	for i := 0; i < s.numBars; i++ {
		barH := heights[i]

		// Cap jumps with the bar, falls slowly on its own.
		if barH > s.caps[i] {
			s.caps[i] = barH
		} else {
			s.caps[i] = math.Max(0, s.caps[i]-s.capFalloff)
		}

		x0 := i * (barWidth + s.barGap)
		s.drawBar(img, x0, barWidth, int(barH), h)
		s.drawCap(img, x0, barWidth, int(s.caps[i]), h)
	}

	return img
}

// barHeights maps the magnitude bins onto the bar count by taking the
// peak of each bin group, scaled to pixels.
func (s *SpectrumBars) barHeights(h int) []float64 {
	heights := make([]float64, s.numBars)
	if len(s.bins) == 0 {
		return heights
	}

	perBar := len(s.bins) / s.numBars
	if perBar < 1 {
		perBar = 1
	}

	for i := 0; i < s.numBars; i++ {
		var peak float64
		for b := i * perBar; b < (i+1)*perBar && b < len(s.bins); b++ {
			if s.bins[b] > peak {
				peak = s.bins[b]
			}
		}
		// Square root scaling lifts quiet content into view.
		heights[i] = math.Min(math.Sqrt(peak)*float64(h), float64(h))
	}
	return heights
}

func (s *SpectrumBars) drawBar(img *image.RGBA, x0, barWidth, barH, h int) {
	for y := 0; y < barH && y < h; y++ {
		col := s.gradientColor(float64(y) / float64(h))
		for x := x0; x < x0+barWidth && x < img.Bounds().Max.X; x++ {
			img.Set(x, h-1-y, col)
		}
	}
}

func (s *SpectrumBars) drawCap(img *image.RGBA, x0, barWidth, capY, h int) {
	if capY <= 0 || capY >= h {
		return
	}
	for x := x0; x < x0+barWidth && x < img.Bounds().Max.X; x++ {
		img.Set(x, h-1-capY, color.White)
	}
}

// gradientColor shades from green at the base through yellow to red at
// the top of the bar.
func (s *SpectrumBars) gradientColor(pos float64) color.RGBA {
	pos = math.Max(0, math.Min(1, pos))

	var r, g uint8
	if pos < 0.5 {
		g = 255
		r = uint8(pos * 2 * 255)
	} else {
		r = 255
		g = uint8((1 - (pos-0.5)*2) * 255)
	}
	return color.RGBA{R: r, G: g, A: 255}
}
