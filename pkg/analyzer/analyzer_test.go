package analyzer

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/avatarcrop/pkg/processing"
)

// encodePNG creates a gradient image and encodes it
func encodePNG(t *testing.T, width, height int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradientImage(width, height)); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return &buf
}

// encodeRotatedJPEG encodes a width x height JPEG carrying an EXIF
// orientation tag, as phone cameras write portrait shots.
func encodeRotatedJPEG(t *testing.T, width, height int, orientation uint16) []byte {
	t.Helper()
	var raw bytes.Buffer
	if err := jpeg.Encode(&raw, gradientImage(width, height), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}

	// Big-endian TIFF header with a single IFD0 entry: Orientation (0x0112), SHORT
	var tiff bytes.Buffer
	tiff.WriteString("MM")
	binary.Write(&tiff, binary.BigEndian, uint16(0x002A))
	binary.Write(&tiff, binary.BigEndian, uint32(8))
	binary.Write(&tiff, binary.BigEndian, uint16(1))
	binary.Write(&tiff, binary.BigEndian, uint16(0x0112))
	binary.Write(&tiff, binary.BigEndian, uint16(3))
	binary.Write(&tiff, binary.BigEndian, uint32(1))
	binary.Write(&tiff, binary.BigEndian, orientation)
	binary.Write(&tiff, binary.BigEndian, uint16(0))
	binary.Write(&tiff, binary.BigEndian, uint32(0))

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var out bytes.Buffer
	out.Write(raw.Bytes()[:2]) // SOI
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(raw.Bytes()[2:])
	return out.Bytes()
}

// gradientImage fills a test image with a two-axis gradient
func gradientImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / width), uint8(y * 255 / height), 128, 255})
		}
	}
	return img
}

func TestNew(t *testing.T) {
	analyzer := New()
	if analyzer == nil {
		t.Fatal("New() returned nil")
	}

	if analyzer.config.MinImageSize != 100 {
		t.Errorf("Expected min size 100, got %d", analyzer.config.MinImageSize)
	}
}

func TestInspectReader(t *testing.T) {
	analyzer := New()

	info, err := analyzer.InspectReader(encodePNG(t, 400, 300))
	if err != nil {
		t.Fatalf("InspectReader failed: %v", err)
	}

	if info.Width != 400 || info.Height != 300 {
		t.Errorf("Expected 400x300, got %dx%d", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Expected png, got %s", info.Format)
	}
	if !info.Wide() {
		t.Error("400x300 should be wide")
	}
	if info.AspectRatio != float64(400)/float64(300) {
		t.Errorf("Expected aspect ratio %f, got %f", float64(400)/float64(300), info.AspectRatio)
	}
}

func TestInspectAppliesExifOrientation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portrait.jpg")
	if err := os.WriteFile(path, encodeRotatedJPEG(t, 400, 200, 6), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := New().Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Width != 200 || info.Height != 400 {
		t.Errorf("Expected oriented 200x400, got %dx%d", info.Width, info.Height)
	}
	if info.Wide() {
		t.Error("Orientation 6 capture should be tall")
	}

	// Must agree with what the crop pipeline decodes
	img, err := processing.NewProcessor().LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if img.Bounds().Dx() != info.Width || img.Bounds().Dy() != info.Height {
		t.Errorf("Inspect reported %dx%d, loaded pixels are %dx%d",
			info.Width, info.Height, img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestInspectUnrotatedJPEG(t *testing.T) {
	info, err := New().InspectReader(bytes.NewReader(encodeRotatedJPEG(t, 400, 200, 1)))
	if err != nil {
		t.Fatalf("InspectReader failed: %v", err)
	}
	if info.Width != 400 || info.Height != 200 || info.Format != "jpeg" {
		t.Errorf("Expected 400x200 jpeg, got %dx%d %s", info.Width, info.Height, info.Format)
	}
}

func TestInspectReaderUnsupported(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewPaletted(image.Rect(0, 0, 10, 10), color.Palette{color.Black, color.White})
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}

	if _, err := New().InspectReader(&buf); err == nil {
		t.Error("gif should not be supported")
	}
}

func TestInspectMissingFile(t *testing.T) {
	if _, err := New().Inspect("/nonexistent/photo.jpg"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidateInfo(t *testing.T) {
	analyzer := NewWithConfig(Config{SupportedFormats: []string{"png"}, MinImageSize: 200})

	if err := analyzer.ValidateInfo(ImageInfo{Width: 200, Height: 900}); err != nil {
		t.Errorf("Valid image should pass validation: %v", err)
	}
	if err := analyzer.ValidateInfo(ImageInfo{Width: 199, Height: 900}); err == nil {
		t.Error("Small image should fail validation")
	}
}
