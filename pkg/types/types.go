package types

// Size is a width/height pair. Viewport sizes are in display pixels, image
// sizes and crop sizes in source pixels.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Positive reports whether both dimensions are strictly positive
func (s Size) Positive() bool {
	return s.Width > 0 && s.Height > 0
}

// Point is a 2D vector. Pan offsets are measured from the mask center.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p+q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// CropData describes a crop request in source-image pixel space
type CropData struct {
	Offset      Point `json:"offset"`
	Size        Size  `json:"size"`
	DisplaySize Size  `json:"displaySize"`
}

// Committed is the gesture state fixed after the last gesture ended
type Committed struct {
	Scale  float64 `json:"scale"`
	Offset Point   `json:"offset"`
}

// Frame is the per-frame transform a renderer applies to the image: scale
// first, then translate.
type Frame struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
}
