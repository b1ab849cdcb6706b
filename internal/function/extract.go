package function

import (
	"bytes"
	"fmt"
	"mime"
	"strings"

	"github.com/eleblu/bluswipe/pkg/imgutil"
)

// NoImageDataError reports that nothing in the request body could be
// interpreted as an image, with enough context to debug the client side.
type NoImageDataError struct {
	ContentType   string
	BodyLength    int
	Base64Decoded bool
}

func (e *NoImageDataError) Error() string {
	return fmt.Sprintf("no valid image data found (content type %q, %d bytes, base64=%t)",
		e.ContentType, e.BodyLength, e.Base64Decoded)
}

// ExtractImage digs the uploaded image bytes out of a raw request body.
//
// With a declared multipart content type it requires a boundary token,
// tries boundary-delimited part extraction, falls back to the legacy
// header-marker scan and finally to a raw signature sniff. Without one it
// sniffs the body signature first, then tries the header-marker scan for
// clients that post multipart bodies without declaring them.
func ExtractImage(body []byte, contentType string, base64Decoded bool) ([]byte, error) {
	fail := func() error {
		return &NoImageDataError{
			ContentType:   contentType,
			BodyLength:    len(body),
			Base64Decoded: base64Decoded,
		}
	}

	if len(body) == 0 {
		return nil, fail()
	}

	if !strings.Contains(strings.ToLower(contentType), "multipart/") {
		if rawImage(body) {
			return body, nil
		}
		if data := extractHeaderMarker(body); len(data) > 0 {
			return data, nil
		}
		return nil, fail()
	}

	boundary := boundaryToken(contentType)
	if boundary == "" {
		return nil, fail()
	}
	if data := extractBoundaryPart(body, boundary); len(data) > 0 {
		return data, nil
	}
	if data := extractHeaderMarker(body); len(data) > 0 {
		return data, nil
	}
	if rawImage(body) {
		return body, nil
	}
	return nil, fail()
}

// rawImage reports whether the body itself starts with a known image
// signature. GIF uploads are not accepted on this surface.
func rawImage(body []byte) bool {
	switch imgutil.Detect(body) {
	case imgutil.KindJPEG, imgutil.KindPNG, imgutil.KindRIFF:
		return true
	}
	return false
}

func boundaryToken(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["boundary"]
}

// extractBoundaryPart splits the body on the boundary delimiter and takes
// the first part that looks like a file part, meaning it carries both a
// Content-Type header and a filename parameter. The payload is everything
// after the header separator with one trailing CRLF stripped.
func extractBoundaryPart(body []byte, boundary string) []byte {
	delim := []byte("--" + boundary)

	for _, part := range bytes.Split(body, delim) {
		if !bytes.Contains(part, []byte("Content-Type:")) || !bytes.Contains(part, []byte("filename=")) {
			continue
		}
		sep := bytes.Index(part, []byte("\r\n\r\n"))
		if sep == -1 {
			return nil
		}
		return bytes.TrimSuffix(part[sep+4:], []byte("\r\n"))
	}
	return nil
}

// extractHeaderMarker is the legacy scan: it keys off a literal
// "Content-Type: image/" anywhere in the body, takes everything between
// the following blank line and the next boundary prefix. It assumes a
// single-part body and misbehaves on multi-file uploads, so it only runs
// after boundary extraction has come up empty.
func extractHeaderMarker(body []byte) []byte {
	marker := bytes.Index(body, []byte("Content-Type: image/"))
	if marker == -1 {
		return nil
	}

	start := bytes.Index(body[marker:], []byte("\r\n\r\n"))
	if start == -1 {
		return nil
	}
	start += marker + 4

	end := bytes.Index(body[start:], []byte("\r\n--"))
	if end == -1 {
		return nil
	}

	return body[start : start+end]
}
