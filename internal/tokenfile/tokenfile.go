// Package tokenfile reads and writes the credential file: a small JSON
// document holding named credential strings (the session token under
// "auth_token") plus the time each entry was last written. It is a leaf
// package used by the file-backed credential store.
package tokenfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FilePerms restricts credential files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the credential directory.
const DirPerms = 0o700

// Entry is a single named credential.
type Entry struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// File is the on-disk format for credential files.
type File struct {
	Entries map[string]Entry `json:"entries"`
}

// Load reads a credential file from disk. Returns an empty File if the file
// does not exist.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &File{Entries: make(map[string]Entry)}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("tokenfile: reading %s: %w", path, err)
	}

	var tf File
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("tokenfile: decoding %s: %w", path, err)
	}

	if tf.Entries == nil {
		tf.Entries = make(map[string]Entry)
	}

	return &tf, nil
}

// Get returns the value stored under key, or "" if unset.
func Get(path, key string) (string, error) {
	tf, err := Load(path)
	if err != nil {
		return "", err
	}

	return tf.Entries[key].Value, nil
}

// Put stores value under key and saves the file. An empty value removes the
// key instead of storing an empty string.
func Put(path, key, value string) error {
	tf, err := Load(path)
	if err != nil {
		return err
	}

	if value == "" {
		if _, ok := tf.Entries[key]; !ok {
			return nil
		}

		delete(tf.Entries, key)
	} else {
		tf.Entries[key] = Entry{Value: value, UpdatedAt: time.Now().UTC()}
	}

	// Last entry gone: remove the file rather than leave an empty shell.
	if len(tf.Entries) == 0 {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("tokenfile: removing %s: %w", path, rmErr)
		}

		return nil
	}

	return Save(path, tf)
}

// Save writes a credential file to disk atomically (write-to-temp + rename)
// with 0600 permissions. Never logs credential values.
func Save(path string, tf *File) error {
	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenfile: encoding: %w", err)
	}

	dir := filepath.Dir(path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("tokenfile: creating directory %s: %w", dir, mkErr)
	}

	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("tokenfile: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: writing: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenfile: closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("tokenfile: renaming: %w", err)
	}

	success = true

	return nil
}
