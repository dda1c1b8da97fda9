package geometry

import (
	"math"
	"testing"

	"github.com/menta2k/avatarcrop/pkg/types"
)

func newTestBounds(imgW, imgH, viewW, viewH float64) Bounds {
	b := NewBounds(imgW, imgH)
	b.Viewport = types.Size{Width: viewW, Height: viewH}
	return b
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDiameter(t *testing.T) {
	b := newTestBounds(1000, 1000, 320, 480)
	if d := b.Diameter(); d != 300 {
		t.Errorf("Expected diameter 300, got %f", d)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name  string
		b     Bounds
		ready bool
	}{
		{"measured", newTestBounds(100, 100, 320, 320), true},
		{"unmeasured viewport", NewBounds(100, 100), false},
		{"zero image", newTestBounds(0, 100, 320, 320), false},
		{"negative image", newTestBounds(100, -1, 320, 320), false},
		{"viewport smaller than margin", newTestBounds(100, 100, 15, 320), false},
	}

	for _, tt := range tests {
		if got := tt.b.Ready(); got != tt.ready {
			t.Errorf("%s: expected ready=%v, got %v", tt.name, tt.ready, got)
		}
	}
}

func TestPanRangeWideImage(t *testing.T) {
	b := newTestBounds(2000, 1000, 320, 320)

	r := b.PanRange(2)
	if !almostEqual(r.Width, 450) {
		t.Errorf("Expected width range 450, got %f", r.Width)
	}
	if !almostEqual(r.Height, 150) {
		t.Errorf("Expected height range 150, got %f", r.Height)
	}
}

func TestPanRangeTallImage(t *testing.T) {
	b := newTestBounds(1000, 2000, 320, 320)

	r := b.PanRange(2)
	if !almostEqual(r.Width, 150) {
		t.Errorf("Expected width range 150, got %f", r.Width)
	}
	if !almostEqual(r.Height, 450) {
		t.Errorf("Expected height range 450, got %f", r.Height)
	}
}

func TestPanRangeNotReady(t *testing.T) {
	b := NewBounds(2000, 1000)
	if r := b.PanRange(3); r != (Range{}) {
		t.Errorf("Expected zero range before layout, got %+v", r)
	}
}

func TestClampNeverExceedsRange(t *testing.T) {
	shapes := [][2]float64{{2000, 1000}, {1000, 2000}, {1200, 1200}, {3000, 1001}}
	proposals := []types.Point{
		{X: 0, Y: 0}, {X: 1e6, Y: -1e6}, {X: -37.5, Y: 12}, {X: 400, Y: 400}, {X: -2000, Y: 3},
	}

	for _, shape := range shapes {
		b := newTestBounds(shape[0], shape[1], 375, 667)
		for scale := float64(MinScale); scale <= MaxScale; scale += 0.25 {
			r := b.PanRange(scale)
			for _, p := range proposals {
				got := b.Clamp(types.Point{}, p, scale)
				if math.Abs(got.X) > r.Width || math.Abs(got.Y) > r.Height {
					t.Errorf("%vx%v scale %.2f: clamp(%+v) = %+v exceeds range %+v",
						shape[0], shape[1], scale, p, got, r)
				}

				again := b.Clamp(got, types.Point{}, scale)
				if again != got {
					t.Errorf("Clamp is not idempotent: %+v then %+v", got, again)
				}
			}
		}
	}
}

func TestClampAtMinScaleSquareImage(t *testing.T) {
	b := newTestBounds(800, 800, 320, 320)

	got := b.Clamp(types.Point{}, types.Point{X: 55, Y: -12}, MinScale)
	if got != (types.Point{}) {
		t.Errorf("Expected {0,0} at minimum scale, got %+v", got)
	}
}

func TestClampAtMinScaleConstrainedAxis(t *testing.T) {
	b := newTestBounds(2000, 1000, 320, 320)

	got := b.Clamp(types.Point{}, types.Point{X: 10, Y: 80}, MinScale)
	if got.Y != 0 {
		t.Errorf("Expected constrained axis to clamp to 0, got %f", got.Y)
	}
	if got.X != 10 {
		t.Errorf("Expected free axis to keep 10, got %f", got.X)
	}
}

func TestClampBelowUnitScaleIsIdempotent(t *testing.T) {
	b := newTestBounds(1000, 1000, 320, 320)
	b.Limits.MinScale = 0.5

	r := b.PanRange(0.5)
	if r.Width < 0 || r.Height < 0 {
		t.Fatalf("Expected non-negative range, got %+v", r)
	}
	got := b.Clamp(types.Point{}, types.Point{}, 0.5)
	if got != (types.Point{}) {
		t.Errorf("Expected zero offset to stay put, got %+v", got)
	}
	if again := b.Clamp(got, types.Point{}, 0.5); again != got {
		t.Errorf("Expected idempotent clamp, got %+v then %+v", got, again)
	}
	if live := b.LiveTranslate(types.Point{X: 30, Y: -30}, 0.5); live != (types.Point{}) {
		t.Errorf("Expected no live pan below scale 1, got %+v", live)
	}
}

func TestClampNotReadyKeepsCurrent(t *testing.T) {
	b := NewBounds(2000, 1000)
	current := types.Point{X: 4, Y: 5}

	if got := b.Clamp(current, types.Point{X: 100, Y: 100}, 2); got != current {
		t.Errorf("Expected %+v to be kept before layout, got %+v", current, got)
	}
}

func TestClampScale(t *testing.T) {
	b := NewBounds(1, 1)
	tests := map[float64]float64{0.2: 1, 1: 1, 3.3: 3.3, 5: 5, 8: 5}
	for in, want := range tests {
		if got := b.ClampScale(in); got != want {
			t.Errorf("ClampScale(%f): expected %f, got %f", in, want, got)
		}
	}
}

func TestLiveTranslateSaturates(t *testing.T) {
	b := newTestBounds(1000, 1000, 320, 320)
	r := b.liveRange(2)

	inside := b.LiveTranslate(types.Point{X: 20, Y: -30}, 2)
	if !almostEqual(inside.X, 20) || !almostEqual(inside.Y, -30) {
		t.Errorf("Expected translation inside range to pass through, got %+v", inside)
	}

	outside := b.LiveTranslate(types.Point{X: 1e4, Y: -1e4}, 2)
	if !almostEqual(outside.X, r.Width) || !almostEqual(outside.Y, -r.Height) {
		t.Errorf("Expected saturation at %+v, got %+v", r, outside)
	}
}

func TestLiveTranslateAtMinScaleStaysFinite(t *testing.T) {
	b := newTestBounds(1000, 1000, 320, 320)

	got := b.LiveTranslate(types.Point{X: 500, Y: 500}, 1)
	if math.IsNaN(got.X) || math.IsNaN(got.Y) {
		t.Fatalf("Expected finite translation, got %+v", got)
	}
	if math.Abs(got.X) > 1 || math.Abs(got.Y) > 1 {
		t.Errorf("Expected near-zero translation at minimum scale, got %+v", got)
	}
}

func TestImageSize(t *testing.T) {
	wide := newTestBounds(2000, 1000, 320, 320).ImageSize()
	if wide.Width != 600 || wide.Height != 300 {
		t.Errorf("Expected 600x300, got %vx%v", wide.Width, wide.Height)
	}

	tall := newTestBounds(1000, 2000, 320, 320).ImageSize()
	if tall.Width != 300 || tall.Height != 600 {
		t.Errorf("Expected 300x600, got %vx%v", tall.Width, tall.Height)
	}
}

func BenchmarkLiveTranslate(b *testing.B) {
	bounds := newTestBounds(4032, 3024, 390, 844)
	p := types.Point{X: 120, Y: -40}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bounds.LiveTranslate(p, 2.5)
	}
}
