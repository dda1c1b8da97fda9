// Package avatarcrop implements the state and geometry behind a circular
// avatar crop screen.
//
// A captured photo is displayed behind a circular mask. The user pans it with
// one finger and pinch-zooms it with two; when a gesture ends the new position
// is committed and clamped so the image always covers the mask. On confirm
// the committed position is turned into a square crop of the source image,
// which is cropped, scaled onto a 900x900 canvas, and delivered base64
// encoded.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/menta2k/avatarcrop"
//		"github.com/menta2k/avatarcrop/pkg/cropper"
//		"github.com/menta2k/avatarcrop/pkg/imagestore"
//		"github.com/menta2k/avatarcrop/pkg/processing"
//	)
//
//	func main() {
//		store := imagestore.NewMemoryStore(processing.DefaultEncoder())
//		resolver := cropper.NewResolver(cropper.NewImagingEditor(processing.NewProcessor(), store), store)
//
//		screen := avatarcrop.New(context.Background(), avatarcrop.Props{
//			Image:     "photo.jpg",
//			ImgWidth:  4032,
//			ImgHeight: 3024,
//			Save:      func(b64 string) { fmt.Println(len(b64)) },
//		}, resolver)
//		defer screen.Close()
//
//		screen.OnLayout(390, 844)
//		screen.PinchEnd(2)
//		screen.PanEnd(40, 0)
//		if err := screen.Confirm(); err != nil {
//			panic(err)
//		}
//		screen.Wait()
//	}
//
// The package consists of these components:
//
// 1. Geometry (pkg/geometry): mask diameter, legal pan range and clamping
// 2. Gesture (pkg/gesture): pan and pinch state, commit and per-frame transform
// 3. Cropper (pkg/cropper): crop rectangle resolution and the crop pipeline
// 4. Image store (pkg/imagestore): temporary crops in memory or on disk
package avatarcrop

// Version of the avatarcrop library
const Version = "1.0.0"

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
