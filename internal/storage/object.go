package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileObjectStore persists image payloads onto the local filesystem and serves
// them under a base URL. It stands in for a remote blob store in development
// and test environments.
type FileObjectStore struct {
	basePath string
	baseURL  string
}

// NewFileObjectStore initializes a FileObjectStore rooted at basePath. URLs
// returned by Put are baseURL + "/" + key.
func NewFileObjectStore(basePath, baseURL string) (*FileObjectStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("object store: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("object store: ensure base path: %w", err)
	}
	return &FileObjectStore{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// BasePath returns the configured root directory.
func (s *FileObjectStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Put writes the payload under a sanitized key and returns its URL. Keys are
// cleaned to prevent directory traversal.
func (s *FileObjectStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if s == nil {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := sanitizeKey(name)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("object store: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("object store: write file: %w", err)
	}
	if s.baseURL == "" {
		return key, nil
	}
	return s.baseURL + "/" + key, nil
}

// Read loads the payload previously stored under name. Used by the export
// handler to rebuild archives from storage keys.
func (s *FileObjectStore) Read(name string) ([]byte, error) {
	key, err := sanitizeKey(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.basePath, filepath.FromSlash(key)))
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("object store: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("object store: invalid key")
	}
	return cleaned, nil
}

var _ ObjectStore = (*FileObjectStore)(nil)
