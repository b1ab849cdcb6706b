package imgutil

import (
	"bytes"
	"io"
)

// Kind identifies an image payload by its leading bytes.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindRIFF
	KindGIF
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindRIFF:
		return "riff"
	case KindGIF:
		return "gif"
	default:
		return "unknown"
	}
}

var (
	jpegSig = []byte{0xff, 0xd8, 0xff}
	pngSig  = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	riffSig = []byte("RIFF")
	gifSig  = []byte("GIF8")
)

// Detect matches data against known image signatures. Payloads shorter than
// a signature are simply not that kind; there is no error case.
func Detect(data []byte) Kind {
	switch {
	case bytes.HasPrefix(data, jpegSig):
		return KindJPEG
	case bytes.HasPrefix(data, pngSig):
		return KindPNG
	case bytes.HasPrefix(data, riffSig):
		return KindRIFF
	case bytes.HasPrefix(data, gifSig):
		return KindGIF
	default:
		return KindUnknown
	}
}

// Sniff reads up to 8 bytes from r and matches them against known
// signatures. Shorter streams are fine as long as a signature fits.
func Sniff(r io.Reader) (Kind, error) {
	header := make([]byte, 8)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return KindUnknown, err
	}
	return Detect(header[:n]), nil
}
