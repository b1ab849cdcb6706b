package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eleblu/bluswipe/pkg/imgutil"
)

// IsImageContentType reports whether a declared content type names an image.
// This is the upload gate; actual decodability is checked later.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// DownloadImage fetches a remote image used as a replacement background. The
// response must declare an image content type and the body must start with a
// known image signature; reads are capped at maxSize bytes.
func DownloadImage(ctx context.Context, imageURL string, maxSize int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !IsImageContentType(contentType) {
		return nil, "", fmt.Errorf("url did not return an image: %q", contentType)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	if len(imageData) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}
	if imgutil.Detect(imageData) == imgutil.KindUnknown {
		return nil, "", fmt.Errorf("downloaded data is not a recognized image")
	}

	return imageData, contentType, nil
}

// BatchFilename generates the server-side name for a processed batch output.
func BatchFilename() string {
	return fmt.Sprintf("batch_%s.png", uuid.New().String())
}

// StagedFilename generates a unique name for an upload staged to disk while
// an async job waits in the queue. The original name travels in the job
// payload, so only the extension is kept here.
func StagedFilename(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return fmt.Sprintf("upload_%s%s", uuid.New().String(), ext)
}

// StorageKey maps an output filename to its object key in the public bucket.
func StorageKey(filename string) string {
	return fmt.Sprintf("processed/%s", filename)
}
