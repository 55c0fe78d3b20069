package images

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for stored file access
var (
	// ErrNotFound indicates the requested file does not exist in storage
	ErrNotFound = errors.New("image file not found")
	// ErrInvalidFilename indicates the filename is empty or attempts path traversal
	ErrInvalidFilename = errors.New("invalid image filename")
)

// Storage persists normalized images to a flat directory on local disk.
// Files in this directory are also served statically by the API.
type Storage struct {
	dir string
}

// NewStorage creates a storage rooted at dir, creating the directory if needed
func NewStorage(dir string) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory cannot be empty")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Storage{dir: dir}, nil
}

// Dir returns the directory files are stored in
func (s *Storage) Dir() string {
	return s.dir
}

// Save writes a file into storage. The write goes through a temp file and a
// rename so a crash never leaves a half-written image behind.
func (s *Storage) Save(filename string, data []byte) error {
	if err := validateFilename(filename); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	path := filepath.Join(s.dir, filename)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to commit image file: %w", err)
	}

	return nil
}

// Read returns the contents of a stored file, or ErrNotFound
func (s *Storage) Read(filename string) ([]byte, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return data, nil
}

// Exists reports whether a stored file is present
func (s *Storage) Exists(filename string) bool {
	if err := validateFilename(filename); err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(s.dir, filename))
	return err == nil && !info.IsDir()
}

// validateFilename rejects names that could escape the storage directory
func validateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		return fmt.Errorf("%w: %s", ErrInvalidFilename, filename)
	}
	return nil
}
