// Package geometry computes the legal pan range of an image behind a circular
// crop mask and clamps pan offsets into it.
//
// At scale 1 the image is sized so that its short side exactly fills the mask
// diameter. The long side overshoots the mask, and that overshoot grows with
// zoom, so the two axes have different pan ranges.
package geometry

import (
	"math"

	"github.com/menta2k/avatarcrop/pkg/types"
)

const (
	// MinMargin is the inset of the mask from the container edges, in display pixels
	MinMargin = 20
	// MinScale is the smallest committed zoom
	MinScale = 1
	// MaxScale is the largest committed zoom
	MaxScale = 5
	// OutputSize is the edge of the square output canvas
	OutputSize = 900

	// liveRangeFloor replaces 1 in (scale - 1) for live feedback so the range
	// never collapses to zero while normalizing.
	liveRangeFloor = 0.999
)

// Limits holds the zoom bounds and the mask margin
type Limits struct {
	MinMargin float64 `json:"min_margin" yaml:"min_margin"`
	MinScale  float64 `json:"min_scale" yaml:"min_scale"`
	MaxScale  float64 `json:"max_scale" yaml:"max_scale"`
}

// DefaultLimits returns the standard mask margin and zoom bounds
func DefaultLimits() Limits {
	return Limits{
		MinMargin: MinMargin,
		MinScale:  MinScale,
		MaxScale:  MaxScale,
	}
}

// Range is the maximum legal pan distance per axis
type Range struct {
	Width  float64
	Height float64
}

// Bounds ties the measured viewport to the source image dimensions
type Bounds struct {
	Viewport types.Size
	Image    types.Size
	Limits   Limits
}

// NewBounds creates Bounds with default limits and an unmeasured viewport
func NewBounds(imgWidth, imgHeight float64) Bounds {
	return Bounds{
		Image:  types.Size{Width: imgWidth, Height: imgHeight},
		Limits: DefaultLimits(),
	}
}

// Diameter returns the mask diameter in display pixels
func (b Bounds) Diameter() float64 {
	return math.Min(b.Viewport.Width, b.Viewport.Height) - b.Limits.MinMargin
}

// Ready reports whether the viewport has been measured and the image has
// usable dimensions. Diameter-dependent math is skipped until then.
func (b Bounds) Ready() bool {
	return b.Viewport.Positive() && b.Image.Positive() && b.Diameter() > 0
}

// Wide reports whether the image is wider than tall
func (b Bounds) Wide() bool {
	return b.Image.Width > b.Image.Height
}

// ClampScale clamps s into [MinScale, MaxScale]
func (b Bounds) ClampScale(s float64) float64 {
	return clamp(s, b.Limits.MinScale, b.Limits.MaxScale)
}

// PanRange returns the legal pan range for a committed scale
func (b Bounds) PanRange(scale float64) Range {
	if !b.Ready() {
		return Range{}
	}
	return b.rangeFor(scale, scale-1)
}

// liveRange is PanRange with the floored zoom slack used for live feedback
func (b Bounds) liveRange(scale float64) Range {
	return b.rangeFor(scale, scale-liveRangeFloor)
}

func (b Bounds) rangeFor(scale, slack float64) Range {
	d := b.Diameter()
	// Below scale 1 the image no longer covers the mask; no pan is legal
	common := (d / 2) * math.Max(slack, 0)

	if b.Wide() {
		delta := (b.Image.Width/b.Image.Height*d - d) / 2
		return Range{Width: delta*scale + common, Height: common}
	}
	delta := (b.Image.Height/b.Image.Width*d - d) / 2
	return Range{Width: common, Height: delta*scale + common}
}

// Clamp adds delta to current and clamps the result into the pan range for
// scale. When the geometry is not ready, current is returned unchanged.
func (b Bounds) Clamp(current, delta types.Point, scale float64) types.Point {
	if !b.Ready() {
		return current
	}
	r := b.PanRange(scale)
	return types.Point{
		X: clamp(current.X+delta.X, -r.Width, r.Width),
		Y: clamp(current.Y+delta.Y, -r.Height, r.Height),
	}
}

// LiveTranslate maps a total translation (committed offset plus live delta)
// into the range for an in-flight effective scale. It saturates at the range
// edges instead of rejecting. Used only for display.
func (b Bounds) LiveTranslate(translation types.Point, scale float64) types.Point {
	if !b.Ready() {
		return types.Point{}
	}
	r := b.liveRange(scale)
	return types.Point{
		X: saturate(translation.X, r.Width),
		Y: saturate(translation.Y, r.Height),
	}
}

// ImageSize returns the on-screen image size at scale 1
func (b Bounds) ImageSize() types.Size {
	if !b.Ready() {
		return types.Size{}
	}
	d := b.Diameter()
	if b.Wide() {
		return types.Size{Width: b.Image.Width / b.Image.Height * d, Height: d}
	}
	return types.Size{Width: d, Height: b.Image.Height / b.Image.Width * d}
}

// saturate normalizes v from [-r, r] to [0, 1], clamps, and maps it back
func saturate(v, r float64) float64 {
	if r <= 0 {
		return 0
	}
	n := clamp((v+r)/(2*r), 0, 1)
	return n*2*r - r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
