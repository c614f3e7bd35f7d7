package credstore

import (
	"fmt"
	"sync"

	"github.com/tonimelisma/zentty-go/internal/tokenfile"
)

// File persists credentials in a JSON file written atomically with
// owner-only permissions.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a File store at path. The file is created lazily on the
// first Set.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Get returns the value for key, or "" if the file or key does not exist.
func (f *File) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	val, err := tokenfile.Get(f.path, key)
	if err != nil {
		return "", fmt.Errorf("credstore: %w", err)
	}

	return val, nil
}

// Set stores value under key.
func (f *File) Set(key, value string) error {
	if value == "" {
		return f.Delete(key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := tokenfile.Put(f.path, key, value); err != nil {
		return fmt.Errorf("credstore: %w", err)
	}

	return nil
}

// Delete removes key from the file.
func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := tokenfile.Put(f.path, key, ""); err != nil {
		return fmt.Errorf("credstore: %w", err)
	}

	return nil
}
