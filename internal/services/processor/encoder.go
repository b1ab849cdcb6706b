package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// EncodePNG renders img as PNG bytes, the default output format. PNG keeps
// the alpha channel produced by segmentation.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG renders img as JPEG bytes. Transparency is flattened first
// since JPEG has no alpha channel. quality <= 0 selects the default.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = 85
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Flatten(img), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode picks a codec by format name, defaulting to PNG for anything
// unrecognized.
func Encode(img image.Image, format string) ([]byte, error) {
	switch format {
	case "jpeg", "jpg":
		return EncodeJPEG(img, 0)
	default:
		return EncodePNG(img)
	}
}
