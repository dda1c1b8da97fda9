// Package gesture tracks pan and pinch gestures over the crop mask.
package gesture

import (
	"math"

	"github.com/menta2k/avatarcrop/pkg/geometry"
	"github.com/menta2k/avatarcrop/pkg/types"
)

// Phase describes which gestures are currently in flight
type Phase int

const (
	Idle Phase = iota
	PanActive
	PinchActive
	PanAndPinchActive
)

func (p Phase) String() string {
	switch p {
	case PanActive:
		return "pan"
	case PinchActive:
		return "pinch"
	case PanAndPinchActive:
		return "pan+pinch"
	default:
		return "idle"
	}
}

// State is the mutable gesture state owned by one crop screen.
// The effective scale is BaseScale*PinchScale and the effective translation is
// Offset+Translation while a gesture is active.
type State struct {
	BaseScale   float64
	PinchScale  float64
	Offset      types.Point
	Translation types.Point

	panActive   bool
	pinchActive bool
}

// NewState returns neutral state: scale 1, no offset
func NewState() *State {
	return &State{BaseScale: 1, PinchScale: 1}
}

// Tracker applies gesture events to a State, clamping on commit
type Tracker struct {
	state  *State
	bounds geometry.Bounds
}

// NewTracker creates a tracker for the given bounds and state.
// A nil state is replaced with NewState().
func NewTracker(bounds geometry.Bounds, state *State) *Tracker {
	if state == nil {
		state = NewState()
	}
	return &Tracker{state: state, bounds: bounds}
}

// Bounds returns the current geometry
func (t *Tracker) Bounds() geometry.Bounds {
	return t.bounds
}

// SetViewport records a new layout measurement. The committed offset is
// re-clamped since a smaller viewport shrinks the legal range.
func (t *Tracker) SetViewport(size types.Size) {
	t.bounds.Viewport = size
	t.state.Offset = t.bounds.Clamp(t.state.Offset, types.Point{}, t.state.BaseScale)
}

// Phase reports the active gestures
func (t *Tracker) Phase() Phase {
	switch {
	case t.state.panActive && t.state.pinchActive:
		return PanAndPinchActive
	case t.state.panActive:
		return PanActive
	case t.state.pinchActive:
		return PinchActive
	default:
		return Idle
	}
}

// PanMove updates the live translation relative to the committed offset
func (t *Tracker) PanMove(x, y float64) {
	if !finite(x) || !finite(y) {
		return
	}
	t.state.panActive = true
	t.state.Translation = types.Point{X: x, Y: y}
}

// PanEnd commits the final translation through the clamper and resets the
// live translation.
func (t *Tracker) PanEnd(x, y float64) {
	if finite(x) && finite(y) {
		t.state.Offset = t.bounds.Clamp(t.state.Offset, types.Point{X: x, Y: y}, t.state.BaseScale)
	}
	t.state.Translation = types.Point{}
	t.state.panActive = false
}

// PinchMove updates the live scale multiplier
func (t *Tracker) PinchMove(multiplier float64) {
	if !finite(multiplier) || multiplier <= 0 {
		return
	}
	t.state.pinchActive = true
	t.state.PinchScale = multiplier
}

// PinchEnd commits clamp(base*multiplier), resets the live multiplier and
// re-clamps the committed offset against the new scale.
func (t *Tracker) PinchEnd(multiplier float64) {
	if finite(multiplier) && multiplier > 0 {
		t.state.BaseScale = t.bounds.ClampScale(t.state.BaseScale * multiplier)
	}
	t.state.PinchScale = 1
	t.state.pinchActive = false
	t.state.Offset = t.bounds.Clamp(t.state.Offset, types.Point{}, t.state.BaseScale)
}

// Committed returns the committed scale and offset
func (t *Tracker) Committed() types.Committed {
	return types.Committed{Scale: t.state.BaseScale, Offset: t.state.Offset}
}

// Frame computes the display transform for the current live state. It is
// pure arithmetic so it can be evaluated on every input frame.
func (t *Tracker) Frame() types.Frame {
	scale := t.bounds.ClampScale(t.state.BaseScale * t.state.PinchScale)
	limit := t.bounds.LiveTranslate(t.state.Offset.Add(t.state.Translation), scale)
	return types.Frame{
		Scale:      scale,
		TranslateX: limit.X / scale,
		TranslateY: limit.Y / scale,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
