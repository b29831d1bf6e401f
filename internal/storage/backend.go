// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"polychat/internal/util"
)

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is the durable key-value surface the history store writes through.
// The store uses a single fixed key; backends only need per-key get/put.
type Backend interface {
	// Get returns the stored value for key. The second result is false
	// when the key has never been written.
	Get(key string) (string, bool, error)

	// Put stores value under key, replacing any previous value.
	Put(key, value string) error
}

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileBackend stores each key as a JSON file in a directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend rooted at dir, creating it if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Get reads the value for key. A missing file is not an error.
func (b *FileBackend) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(b.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Put writes the value for key.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func (b *FileBackend) Put(key, value string) error {
	return util.AtomicWriteFile(b.filePath(key), []byte(value), 0600)
}

func (b *FileBackend) filePath(key string) string {
	return filepath.Join(b.dir, key+".json")
}
