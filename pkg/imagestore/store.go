// Package imagestore holds cropped images between the crop and encode steps.
//
// Two disposal strategies exist: MemoryStore keeps decoded images under an
// opaque tag, FileStore writes encoded temporary files. Both hand out string
// handles and must be told to Dispose them once the result has been read.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/menta2k/avatarcrop/pkg/processing"
)

// ErrUnknownHandle is returned for handles the store never issued or already disposed
var ErrUnknownHandle = errors.New("imagestore: unknown handle")

// Store kinds accepted by New
const (
	KindMemory = "memory"
	KindFile   = "file"
)

// TemporaryImageStore releases the backing resource of a handle
type TemporaryImageStore interface {
	Dispose(ctx context.Context, handle string) error
}

// Store is a TemporaryImageStore that can also hold and encode images
type Store interface {
	TemporaryImageStore
	Put(ctx context.Context, img image.Image) (string, error)
	Base64(ctx context.Context, handle string) (string, error)
}

// New creates a store of the given kind. dir is only used by file stores;
// an empty dir selects the system temp directory.
func New(kind, dir string, enc processing.Encoder) (Store, error) {
	switch kind {
	case KindMemory, "":
		return NewMemoryStore(enc), nil
	case KindFile:
		return NewFileStore(dir, enc)
	default:
		return nil, fmt.Errorf("unknown image store kind %q", kind)
	}
}
