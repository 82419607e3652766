// Package storage provides local durable storage and order log
// implementations.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.KeyValueStore = (*MemoryKV)(nil)
	_ domain.KeyValueStore = (*FileKV)(nil)
)

// MemoryKV is an in-memory key-value store. Safe for concurrent access.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]string
	log     *logger.Logger
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV(log *logger.Logger) *MemoryKV {
	return &MemoryKV{
		entries: make(map[string]string),
		log:     log,
	}
}

// Get returns the value for key.
func (s *MemoryKV) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

// Set stores value under key, overwriting any previous value.
func (s *MemoryKV) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	s.log.Debug("kv set %s (%d bytes)", key, len(value))
	return nil
}

// Remove deletes key. Missing keys are not an error.
func (s *MemoryKV) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// FileKV keeps one file per key under dir, so values survive restarts the
// way browser local storage survives a reload. File names are
// sha256(key) so any key is a safe path component.
//
// Writes go to a temp file first and are renamed into place; a crash
// mid-write leaves the previous value readable.
type FileKV struct {
	mu  sync.Mutex
	dir string
	log *logger.Logger
}

// NewFileKV creates a file-backed store rooted at dir, creating it if
// needed.
func NewFileKV(dir string, log *logger.Logger) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &domain.StorageError{Op: "init", Key: dir, Err: err}
	}
	return &FileKV{dir: dir, log: log}, nil
}

// Get reads the value for key.
func (s *FileKV) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &domain.StorageError{Op: "get", Key: key, Err: err}
	}
	return string(data), true, nil
}

// Set writes value for key.
func (s *FileKV) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".kv-*")
	if err != nil {
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	s.log.Debug("kv store (disk): %s (%d bytes)", key, len(value))
	return nil
}

// Remove deletes key. Missing keys are not an error.
func (s *FileKV) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &domain.StorageError{Op: "remove", Key: key, Err: err}
	}
	return nil
}

func (s *FileKV) path(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(h[:])+".json")
}
