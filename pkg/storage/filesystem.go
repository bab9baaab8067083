package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage persists submitted files on disk under a base directory.
// Callers only ever see the opaque handle returned by Store.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Store writes the blob to disk and returns an opaque handle. The original
// file name only contributes its extension so handles stay unguessable.
func (s *LocalStorage) Store(originalName string, data []byte) (string, error) {
	handle := uuid.NewString() + sanitizeExt(originalName)
	path := filepath.Join(s.baseDir, handle)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return handle, nil
}

// Retrieve reads a previously stored blob back.
func (s *LocalStorage) Retrieve(handle string) ([]byte, error) {
	path, err := s.resolve(handle)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

// Delete removes a stored blob if present.
func (s *LocalStorage) Delete(handle string) error {
	path, err := s.resolve(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *LocalStorage) Path(handle string) string {
	return filepath.Join(s.baseDir, handle)
}

func (s *LocalStorage) resolve(handle string) (string, error) {
	cleaned := filepath.Base(filepath.Clean(handle))
	if cleaned != handle || handle == "" || handle == "." {
		return "", fmt.Errorf("invalid upload handle %q", handle)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}

func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
