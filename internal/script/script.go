// Package script replays recorded gesture sequences against a crop screen.
package script

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/avatarcrop/pkg/types"
)

// Event types
const (
	EventLayout   = "layout"
	EventPan      = "pan"
	EventPanEnd   = "pan_end"
	EventPinch    = "pinch"
	EventPinchEnd = "pinch_end"
)

// Event is one gesture step. X and Y are pan translations, Scale a pinch
// multiplier, Width and Height a layout measurement.
type Event struct {
	Type   string  `yaml:"type"`
	X      float64 `yaml:"x,omitempty"`
	Y      float64 `yaml:"y,omitempty"`
	Scale  float64 `yaml:"scale,omitempty"`
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
}

// Script is a viewport plus a list of gesture events
type Script struct {
	Viewport types.Size `yaml:"viewport"`
	Events   []Event    `yaml:"events"`
}

// Target receives replayed events
type Target interface {
	OnLayout(width, height float64)
	PanMove(x, y float64)
	PanEnd(x, y float64)
	PinchMove(multiplier float64)
	PinchEnd(multiplier float64)
}

// Load reads a script from a YAML file
func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a YAML script
func Parse(r io.Reader) (*Script, error) {
	var s Script
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		if err == io.EOF {
			return &s, nil
		}
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i, ev := range s.Events {
		if err := ev.validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return &s, nil
}

func (e Event) validate() error {
	switch e.Type {
	case EventPan, EventPanEnd:
		return nil
	case EventPinch, EventPinchEnd:
		if e.Scale <= 0 {
			return fmt.Errorf("%s needs a positive scale", e.Type)
		}
		return nil
	case EventLayout:
		if e.Width <= 0 || e.Height <= 0 {
			return fmt.Errorf("layout needs positive width and height")
		}
		return nil
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
}

// Replay applies the viewport, if set, and then every event in order
func (s *Script) Replay(t Target) {
	if s.Viewport.Positive() {
		t.OnLayout(s.Viewport.Width, s.Viewport.Height)
	}
	for _, ev := range s.Events {
		switch ev.Type {
		case EventLayout:
			t.OnLayout(ev.Width, ev.Height)
		case EventPan:
			t.PanMove(ev.X, ev.Y)
		case EventPanEnd:
			t.PanEnd(ev.X, ev.Y)
		case EventPinch:
			t.PinchMove(ev.Scale)
		case EventPinchEnd:
			t.PinchEnd(ev.Scale)
		}
	}
}
