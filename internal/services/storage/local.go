package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// SaveOutput writes a processed result into the outputs dir and returns the
// full path.
func (s *StorageService) SaveOutput(filename string, data []byte) (string, error) {
	path := filepath.Join(s.outputsDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save output: %w", err)
	}
	return path, nil
}

// OutputPath maps an output filename to its on-disk path. Callers reject
// path separators and dot-dot segments before resolving.
func (s *StorageService) OutputPath(filename string) string {
	return filepath.Join(s.outputsDir, filename)
}

// SaveUpload stages an incoming file on disk so it can outlive the request
// while its job waits in the queue.
func (s *StorageService) SaveUpload(filename string, data []byte) (string, error) {
	path := filepath.Join(s.uploadsDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to stage upload: %w", err)
	}
	return path, nil
}

func (s *StorageService) ReadUpload(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// RemoveUpload deletes a staged file once its job item is finished. Best
// effort; the retention sweep catches leftovers.
func (s *StorageService) RemoveUpload(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove staged upload", zap.String("path", path), zap.Error(err))
	}
}
