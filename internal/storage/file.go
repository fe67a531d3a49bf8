package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// FileStorage writes run exports into a local directory
type FileStorage struct {
	dir string
}

// Ensure FileStorage implements StorageInterface
var _ StorageInterface = (*FileStorage)(nil)

// NewFileStorage creates a storage rooted at dir; "" means the working directory
func NewFileStorage(dir string) *FileStorage {
	if dir == "" {
		dir = "."
	}
	return &FileStorage{dir: dir}
}

func (f *FileStorage) path(filename string) (string, error) {
	if filename == "" || filepath.Base(filename) != filename {
		return "", fmt.Errorf("invalid file name %q", filename)
	}
	return filepath.Join(f.dir, filename), nil
}

// Store writes data to dir/filename, creating dir when needed
func (f *FileStorage) Store(filename string, data []byte) error {
	target, err := f.path(filename)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", f.dir, err)
	}

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	logrus.Debugf("Wrote %d bytes to %s", len(data), target)
	return nil
}

func (f *FileStorage) Retrieve(filename string) ([]byte, error) {
	target, err := f.path(filename)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(target)
}

// List returns the sorted names in dir that start with prefix
func (f *FileStorage) List(prefix string) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", f.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return names, nil
}

func (f *FileStorage) Delete(filename string) error {
	target, err := f.path(filename)
	if err != nil {
		return err
	}
	return os.Remove(target)
}

func (f *FileStorage) Location(filename string) string {
	return filepath.Join(f.dir, filename)
}
