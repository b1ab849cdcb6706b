package storage

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Sweep deletes files older than maxAge from the uploads and outputs dirs,
// plus the mirrored copies of expired outputs. Per-file failures are logged
// and the sweep keeps going. Returns the number of files removed.
func (s *StorageService) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, dir := range []string{s.uploadsDir, s.outputsDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Warn("cleanup: failed to read dir", zap.String("dir", dir), zap.Error(err))
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Warn("cleanup: failed to remove file", zap.String("path", path), zap.Error(err))
				continue
			}
			removed++

			if dir == s.outputsDir {
				if err := s.removeMirror(entry.Name()); err != nil {
					s.logger.Warn("cleanup: failed to remove mirrored copy",
						zap.String("file", entry.Name()), zap.Error(err))
				}
			}
		}
	}

	return removed
}
