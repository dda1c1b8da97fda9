package analyzer

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ImageAnalyzer inspects source images before they are shown for cropping
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{
		config: Config{
			SupportedFormats: []string{"jpeg", "png", "webp"},
			MinImageSize:     100,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Format      string  `json:"format"`
	AspectRatio float64 `json:"aspect_ratio"`
}

// Wide reports whether the image is wider than tall
func (i ImageInfo) Wide() bool {
	return i.Width > i.Height
}

// Inspect reads the displayed dimensions of the image at path
func (a *ImageAnalyzer) Inspect(path string) (ImageInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	return a.InspectReader(file)
}

// InspectReader reads image dimensions from r. JPEG dimensions are reported
// after EXIF orientation, matching the pixels the crop pipeline loads.
func (a *ImageAnalyzer) InspectReader(r io.Reader) (ImageInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to decode image header: %w", err)
	}

	if !a.isFormatSupported(format) {
		return ImageInfo{}, fmt.Errorf("unsupported image format: %s", format)
	}

	width, height := cfg.Width, cfg.Height
	if format == "jpeg" {
		// Orientations 5-8 swap the axes
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return ImageInfo{}, fmt.Errorf("failed to decode image: %w", err)
		}
		width, height = img.Bounds().Dx(), img.Bounds().Dy()
	}

	info := ImageInfo{
		Width:  width,
		Height: height,
		Format: format,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info, nil
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateInfo checks if an image meets minimum requirements
func (a *ImageAnalyzer) ValidateInfo(info ImageInfo) error {
	if info.Width < a.config.MinImageSize || info.Height < a.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			info.Width, info.Height, a.config.MinImageSize)
	}
	return nil
}
