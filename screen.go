package avatarcrop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/menta2k/avatarcrop/pkg/cropper"
	"github.com/menta2k/avatarcrop/pkg/geometry"
	"github.com/menta2k/avatarcrop/pkg/gesture"
	"github.com/menta2k/avatarcrop/pkg/types"
)

var (
	// ErrNotReady is returned by Confirm before the layout has been measured
	ErrNotReady = cropper.ErrNotReady
	// ErrCropInProgress is returned by Confirm while a previous confirm is running
	ErrCropInProgress = errors.New("avatarcrop: crop already in progress")
	// ErrClosed is returned by Confirm after Close
	ErrClosed = errors.New("avatarcrop: screen closed")
)

// Props are supplied by the owner of the screen
type Props struct {
	// Image is the source handed to the editor, a file path or URL
	Image     string
	ImgWidth  float64
	ImgHeight float64
	// RetakePicture abandons the crop and restarts capture
	RetakePicture func()
	// Save receives the base64 encoded crop
	Save func(encoded string)
	// OnError receives terminal crop or encode failures
	OnError func(err error)
}

// Status is the confirm state of a screen
type Status int

const (
	StatusIdle Status = iota
	StatusCropping
)

func (s Status) String() string {
	if s == StatusCropping {
		return "cropping"
	}
	return "idle"
}

// Screen is one crop screen instance. Gesture handlers are expected to be
// called from a single event loop; Confirm runs the crop in the background.
type Screen struct {
	mu       sync.Mutex
	props    Props
	tracker  *gesture.Tracker
	resolver *cropper.Resolver
	status   Status
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     *conc.WaitGroup
}

// New creates a screen with the default limits
func New(ctx context.Context, props Props, resolver *cropper.Resolver) *Screen {
	return NewWithLimits(ctx, props, resolver, geometry.DefaultLimits())
}

// NewWithLimits creates a screen with custom zoom limits and margin
func NewWithLimits(ctx context.Context, props Props, resolver *cropper.Resolver, limits geometry.Limits) *Screen {
	bounds := geometry.NewBounds(props.ImgWidth, props.ImgHeight)
	bounds.Limits = limits

	ctx, cancel := context.WithCancel(ctx)
	return &Screen{
		props:    props,
		tracker:  gesture.NewTracker(bounds, gesture.NewState()),
		resolver: resolver,
		ctx:      ctx,
		cancel:   cancel,
		wg:       conc.NewWaitGroup(),
	}
}

// OnLayout records the measured container size
func (s *Screen) OnLayout(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.SetViewport(types.Size{Width: width, Height: height})
}

// PanMove forwards a live pan translation
func (s *Screen) PanMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.PanMove(x, y)
}

// PanEnd commits a pan gesture
func (s *Screen) PanEnd(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.PanEnd(x, y)
	log.Ctx(s.ctx).Debug().
		Float64("x", s.tracker.Committed().Offset.X).
		Float64("y", s.tracker.Committed().Offset.Y).
		Msg("pan committed")
}

// PinchMove forwards a live pinch multiplier
func (s *Screen) PinchMove(multiplier float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.PinchMove(multiplier)
}

// PinchEnd commits a pinch gesture
func (s *Screen) PinchEnd(multiplier float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.PinchEnd(multiplier)
	log.Ctx(s.ctx).Debug().Float64("scale", s.tracker.Committed().Scale).Msg("pinch committed")
}

// Frame returns the transform to render for the current live state
func (s *Screen) Frame() types.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Frame()
}

// Committed returns the committed scale and offset
func (s *Screen) Committed() types.Committed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Committed()
}

// Phase returns the active gestures
func (s *Screen) Phase() gesture.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Phase()
}

// Bounds returns the current geometry
func (s *Screen) Bounds() geometry.Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Bounds()
}

// Status reports whether a crop is running
func (s *Screen) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Props returns the props the screen was created with
func (s *Screen) Props() Props {
	return s.props
}

// Confirm starts cropping at the committed position. It returns immediately;
// the result is delivered to Props.Save or Props.OnError.
func (s *Screen) Confirm() error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.status == StatusCropping:
		s.mu.Unlock()
		return ErrCropInProgress
	case !s.tracker.Bounds().Ready():
		s.mu.Unlock()
		return ErrNotReady
	}
	bounds := s.tracker.Bounds()
	committed := s.tracker.Committed()
	s.status = StatusCropping
	s.mu.Unlock()

	s.wg.Go(func() {
		s.crop(bounds, committed)
	})
	return nil
}

func (s *Screen) crop(bounds geometry.Bounds, committed types.Committed) {
	settled := false
	defer func() {
		if !settled {
			s.settle()
		}
	}()

	encoded, err := s.resolver.Crop(s.ctx, s.props.Image, bounds, committed)

	// Back to idle before delivery so a continuation may confirm again
	settled = true
	if !s.settle() {
		log.Ctx(s.ctx).Debug().Msg("screen closed, dropping crop result")
		return
	}
	if err != nil {
		if s.props.OnError != nil {
			s.props.OnError(err)
		}
		return
	}
	if s.props.Save != nil {
		s.props.Save(encoded)
	}
}

// settle returns the screen to idle and reports whether it is still open
func (s *Screen) settle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusIdle
	return s.ctx.Err() == nil
}

// Retake abandons the crop
func (s *Screen) Retake() {
	if s.props.RetakePicture != nil {
		s.props.RetakePicture()
	}
}

// Wait blocks until the running crop, if any, has delivered its result
func (s *Screen) Wait() error {
	if r := s.wg.WaitAndRecover(); r != nil {
		log.Ctx(s.ctx).Error().Interface("panic", r.Value).Msg("crop panicked")
		return fmt.Errorf("crop panicked: %v", r.Value)
	}
	return nil
}

// Close tears the screen down. A crop finishing afterwards is dropped.
// Close must not be called from Save or OnError.
func (s *Screen) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return s.Wait()
}
