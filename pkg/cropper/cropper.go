// Package cropper turns a committed pan/zoom position into a crop of the
// source image and an encoded result.
package cropper

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/avatarcrop/pkg/geometry"
	"github.com/menta2k/avatarcrop/pkg/imagestore"
	"github.com/menta2k/avatarcrop/pkg/processing"
	"github.com/menta2k/avatarcrop/pkg/types"
)

var (
	// ErrNotReady is returned when the viewport or image dimensions are not positive
	ErrNotReady = errors.New("cropper: geometry not ready")
	// ErrCropFailed wraps failures of the crop step
	ErrCropFailed = errors.New("cropper: crop failed")
	// ErrEncodeFailed wraps failures of the encode step
	ErrEncodeFailed = errors.New("cropper: encode failed")
)

// DefaultDisplaySize is the output canvas for avatar crops
var DefaultDisplaySize = types.Size{Width: geometry.OutputSize, Height: geometry.OutputSize}

// Resolve converts a committed scale and offset (display pixels, centered)
// into a square crop rectangle in source pixels.
func Resolve(b geometry.Bounds, committed types.Committed, display types.Size) (types.CropData, error) {
	if !b.Ready() || committed.Scale <= 0 {
		return types.CropData{}, ErrNotReady
	}

	d := b.Diameter()
	scale := committed.Scale
	r := b.PanRange(scale)

	// Source length of the side that fills the mask at scale 1
	reference := b.Image.Width
	if b.Wide() {
		reference = b.Image.Height
	}

	side := reference / scale
	return types.CropData{
		Offset: types.Point{
			X: (r.Width - committed.Offset.X) / scale / d * reference,
			Y: (r.Height - committed.Offset.Y) / scale / d * reference,
		},
		Size:        types.Size{Width: side, Height: side},
		DisplaySize: display,
	}, nil
}

// Editor performs the pixel crop of a source image and returns a handle to
// the result.
type Editor interface {
	CropImage(ctx context.Context, source string, crop types.CropData) (string, error)
}

// ImagingEditor crops with the imaging library and keeps results in a store
type ImagingEditor struct {
	processor *processing.Processor
	store     imagestore.Store
}

// NewImagingEditor creates an editor that loads through p and stores into s
func NewImagingEditor(p *processing.Processor, s imagestore.Store) *ImagingEditor {
	return &ImagingEditor{processor: p, store: s}
}

// CropImage loads source, crops it to crop.Offset/Size and scales the result
// into crop.DisplaySize.
func (e *ImagingEditor) CropImage(ctx context.Context, source string, crop types.CropData) (string, error) {
	src, err := e.processor.LoadImageSmart(ctx, source)
	if err != nil {
		return "", fmt.Errorf("failed to load source image: %w", err)
	}

	cropped, err := CropToData(src, crop)
	if err != nil {
		return "", err
	}

	return e.store.Put(ctx, cropped)
}

// CropToData applies crop to img. The rectangle is rounded to whole pixels
// and clipped to the image bounds.
func CropToData(img image.Image, crop types.CropData) (image.Image, error) {
	bounds := img.Bounds()

	x0 := bounds.Min.X + int(math.Round(crop.Offset.X))
	y0 := bounds.Min.Y + int(math.Round(crop.Offset.Y))
	x1 := bounds.Min.X + int(math.Round(crop.Offset.X+crop.Size.Width))
	y1 := bounds.Min.Y + int(math.Round(crop.Offset.Y+crop.Size.Height))

	rect := image.Rect(x0, y0, x1, y1).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("crop rectangle %v is outside image bounds %v", image.Rect(x0, y0, x1, y1), bounds)
	}

	cropped := imaging.Crop(img, rect)

	w, h := int(math.Round(crop.DisplaySize.Width)), int(math.Round(crop.DisplaySize.Height))
	if w > 0 && h > 0 {
		return imaging.Fill(cropped, w, h, imaging.Center, imaging.Lanczos), nil
	}
	return cropped, nil
}

// Resolver runs the confirm pipeline: resolve, crop, encode, dispose
type Resolver struct {
	editor      Editor
	store       imagestore.Store
	displaySize types.Size
}

// NewResolver creates a resolver. The store must be the one the editor puts
// results into.
func NewResolver(editor Editor, store imagestore.Store) *Resolver {
	return &Resolver{
		editor:      editor,
		store:       store,
		displaySize: DefaultDisplaySize,
	}
}

// SetDisplaySize overrides the output canvas size
func (r *Resolver) SetDisplaySize(size types.Size) {
	if size.Positive() {
		r.displaySize = size
	}
}

// Crop crops source at the committed position and returns the base64
// encoded result. The temporary crop is disposed whether encoding succeeds
// or not. Failures are terminal.
func (r *Resolver) Crop(ctx context.Context, source string, b geometry.Bounds, committed types.Committed) (string, error) {
	data, err := Resolve(b, committed, r.displaySize)
	if err != nil {
		return "", err
	}

	logger := log.Ctx(ctx).With().
		Float64("scale", committed.Scale).
		Float64("x", data.Offset.X).
		Float64("y", data.Offset.Y).
		Float64("size", data.Size.Width).
		Logger()
	logger.Debug().Msg("cropping")

	handle, err := r.editor.CropImage(ctx, source, data)
	if err != nil {
		logger.Error().Err(err).Msg("crop failed")
		return "", fmt.Errorf("%w: %w", ErrCropFailed, err)
	}
	defer func() {
		if err := r.store.Dispose(ctx, handle); err != nil {
			logger.Warn().Err(err).Str("handle", handle).Msg("failed to dispose cropped image")
		}
	}()

	encoded, err := r.store.Base64(ctx, handle)
	if err != nil {
		logger.Error().Err(err).Str("handle", handle).Msg("encode failed")
		return "", fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}
	return encoded, nil
}
