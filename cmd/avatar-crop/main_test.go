package main

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/avatarcrop/pkg/processing"
)

func encodedCrop(t *testing.T, enc processing.Encoder) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 8), uint8(y * 8), 90, 255})
		}
	}
	encoded, err := enc.EncodeBase64(img)
	if err != nil {
		t.Fatalf("EncodeBase64 failed: %v", err)
	}
	return encoded
}

func TestWriteCropKeepsEncodedBytes(t *testing.T) {
	enc := processing.DefaultEncoder()
	encoded := encodedCrop(t, enc)
	want, _ := base64.StdEncoding.DecodeString(encoded)

	for _, name := range []string{"avatar.jpg", "avatar.JPEG"} {
		path := filepath.Join(t.TempDir(), name)
		if err := writeCrop(enc, encoded, path); err != nil {
			t.Fatalf("writeCrop(%s) failed: %v", name, err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("%s: expected the encoded bytes unchanged (%d bytes), got %d bytes", name, len(want), len(got))
		}
	}
}

func TestWriteCropConvertsOtherFormats(t *testing.T) {
	enc := processing.DefaultEncoder()
	path := filepath.Join(t.TempDir(), "avatar.png")

	if err := writeCrop(enc, encodedCrop(t, enc), path); err != nil {
		t.Fatalf("writeCrop failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Expected a PNG file: %v", err)
	}
	if img.Bounds().Dx() != 32 {
		t.Errorf("Expected 32px wide, got %d", img.Bounds().Dx())
	}
}

func TestWriteCropInvalidPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avatar.jpg")
	if err := writeCrop(processing.DefaultEncoder(), "not base64!", path); err == nil {
		t.Error("Expected error for an invalid payload")
	}
}
