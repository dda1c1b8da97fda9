package imagestore

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/avatarcrop/pkg/processing"
)

const memoryScheme = "mem://"

// MemoryStore keeps cropped images in memory under mem:// tags
type MemoryStore struct {
	mu     sync.Mutex
	images map[string]image.Image
	enc    processing.Encoder
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(enc processing.Encoder) *MemoryStore {
	return &MemoryStore{
		images: make(map[string]image.Image),
		enc:    enc,
	}
}

// Put stores img and returns its tag
func (s *MemoryStore) Put(ctx context.Context, img image.Image) (string, error) {
	tag := memoryScheme + uuid.NewString()

	s.mu.Lock()
	s.images[tag] = img
	s.mu.Unlock()

	log.Ctx(ctx).Debug().Str("handle", tag).Msg("stored cropped image")
	return tag, nil
}

// Base64 encodes the image behind tag
func (s *MemoryStore) Base64(ctx context.Context, tag string) (string, error) {
	s.mu.Lock()
	img, ok := s.images[tag]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownHandle, tag)
	}
	return s.enc.EncodeBase64(img)
}

// Dispose drops the image behind tag
func (s *MemoryStore) Dispose(ctx context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[tag]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, tag)
	}
	delete(s.images, tag)
	log.Ctx(ctx).Debug().Str("handle", tag).Msg("disposed cropped image")
	return nil
}

// Len returns the number of images currently held
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}
