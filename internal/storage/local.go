package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore implements ObjectStore on a local directory. Keys map to file
// paths under the base directory; keys that would escape it are rejected.
type LocalStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalStore creates a LocalStore rooted at baseDir.
func NewLocalStore(baseDir string, logger *zap.Logger) *LocalStore {
	return &LocalStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Get reads the object stored under key.
func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	return content, nil
}

// Put writes content under key, replacing any existing object.
func (s *LocalStore) Put(_ context.Context, key string, content []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		s.logger.Error("Failed to create object directory",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		s.logger.Error("Failed to write object",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}

	s.logger.Debug("Object saved",
		zap.String("key", key),
		zap.Int("size", len(content)))

	return nil
}

// resolve maps a key to an absolute path and checks it stays inside baseDir.
func (s *LocalStore) resolve(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("object key is empty")
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(absBase, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return "", fmt.Errorf("key escapes base directory: %s", key)
	}

	return absPath, nil
}
