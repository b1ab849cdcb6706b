package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/eleblu/bluswipe/pkg/utils"
)

// MirrorEnabled reports whether a public bucket is configured.
func (s *StorageService) MirrorEnabled() bool {
	return s.sbClient != nil
}

// MirrorOutput copies a processed result into the public bucket and returns
// its public URL. With no bucket configured it is a no-op.
func (s *StorageService) MirrorOutput(ctx context.Context, filename string, data []byte) (string, error) {
	if s.sbClient == nil {
		return "", nil
	}

	key := utils.StorageKey(filename)
	if _, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}

// DownloadMirror fetches a mirrored object, used when a download request
// arrives after the local copy was swept.
func (s *StorageService) DownloadMirror(ctx context.Context, filename string) ([]byte, error) {
	if s.sbClient == nil {
		return nil, fmt.Errorf("mirror not configured")
	}
	return s.sbClient.DownloadFile(s.bucket, utils.StorageKey(filename))
}

func (s *StorageService) removeMirror(filename string) error {
	if s.sbClient == nil {
		return nil
	}
	_, err := s.sbClient.RemoveFile(s.bucket, []string{utils.StorageKey(filename)})
	return err
}
