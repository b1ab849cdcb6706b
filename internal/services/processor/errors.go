package processor

import "errors"

var (
	// ErrEmptyImage marks a zero-byte payload.
	ErrEmptyImage = errors.New("empty image data")

	// ErrDecode marks data no registered codec could decode.
	ErrDecode = errors.New("could not decode image")

	// ErrTooLarge marks an image exceeding the dimension cap.
	ErrTooLarge = errors.New("image dimensions exceed limit")
)
