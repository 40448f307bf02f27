// Package files stores uploaded documents on local disk.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireroom-server/internal/utils"
)

var (
	// ErrTooLarge is returned when an upload exceeds the size cap.
	ErrTooLarge = errors.New("file too large")
	// ErrNotFound is returned for unknown or unsafe filenames.
	ErrNotFound = errors.New("file not found")
)

// Storage keeps document files under a single directory.
type Storage struct {
	dir      string
	maxBytes int64
	log      *zerolog.Logger
}

// New creates the directory if needed.
func New(dir string, maxBytes int64, logger *zerolog.Logger) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return &Storage{dir: dir, maxBytes: maxBytes, log: logger}, nil
}

// MaxBytes returns the upload size cap.
func (s *Storage) MaxBytes() int64 { return s.maxBytes }

// Save writes r to a freshly named file and returns that name.
// A partially written file is removed when the cap is exceeded.
func (s *Storage) Save(r io.Reader) (string, error) {
	name := utils.DocumentFilename(time.Now())
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return name, nil
}

// Path resolves a stored filename. Names that try to escape the directory are rejected.
func (s *Storage) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrNotFound
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// Release deletes a stored file. Missing files are ignored.
func (s *Storage) Release(_ context.Context, name string) error {
	if name == "" || name != filepath.Base(name) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	s.log.Debug().Str("file", name).Msg("document released")
	return nil
}
