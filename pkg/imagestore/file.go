package imagestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/avatarcrop/internal/utils"
	"github.com/menta2k/avatarcrop/pkg/processing"
)

// FileStore writes cropped images as encoded temporary files. Handles are
// absolute file paths inside dir.
type FileStore struct {
	dir string
	enc processing.Encoder
}

// NewFileStore creates a file store rooted at dir, creating it if needed
func NewFileStore(dir string, enc processing.Encoder) (*FileStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "avatarcrop")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store directory: %w", err)
	}
	if err := utils.EnsureDir(abs); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", abs, err)
	}
	return &FileStore{dir: abs, enc: enc}, nil
}

// Dir returns the directory holding temporary files
func (s *FileStore) Dir() string {
	return s.dir
}

// Put encodes img into a new temporary file and returns its path
func (s *FileStore) Put(ctx context.Context, img image.Image) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("crop-%s.%s", uuid.NewString(), s.enc.Extension()))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if err := s.enc.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to encode temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if info, err := os.Stat(path); err == nil {
		log.Ctx(ctx).Debug().
			Str("handle", path).
			Str("size", utils.FormatFileSize(info.Size())).
			Msg("wrote cropped image")
	}
	return path, nil
}

// Base64 reads the file behind path and returns its bytes as base64
func (s *FileStore) Base64(ctx context.Context, path string) (string, error) {
	if err := s.owns(path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrUnknownHandle, path)
		}
		return "", fmt.Errorf("failed to read temp file: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Dispose removes the file behind path
func (s *FileStore) Dispose(ctx context.Context, path string) error {
	if err := s.owns(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrUnknownHandle, path)
		}
		return fmt.Errorf("failed to remove temp file: %w", err)
	}
	log.Ctx(ctx).Debug().Str("handle", path).Msg("removed cropped image")
	return nil
}

// owns rejects paths outside the store directory
func (s *FileStore) owns(path string) error {
	if filepath.Dir(filepath.Clean(path)) != s.dir || !strings.HasPrefix(filepath.Base(path), "crop-") {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, path)
	}
	return nil
}
