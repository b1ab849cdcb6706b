package function

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eleblu/bluswipe/internal/rembg"
	"github.com/eleblu/bluswipe/internal/services/processor"
)

type erroringRemover struct{ err error }

func (r erroringRemover) Remove(context.Context, image.Image) (image.Image, error) {
	return nil, r.err
}

type panickingRemover struct{}

func (panickingRemover) Remove(context.Context, image.Image) (image.Image, error) {
	panic("runtime on fire")
}

func newTestHandler(remover rembg.Remover) *Handler {
	return NewHandler(remover, processor.New(processor.DefaultMaxDimension), zap.NewNop())
}

func errorMessage(t *testing.T, body string) string {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	msg, _ := payload["error"].(string)
	return msg
}

func TestHandlePreflight(t *testing.T) {
	h := newTestHandler(rembg.Passthrough{})

	resp := h.Handle(context.Background(), Event{HTTPMethod: http.MethodOptions})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Body)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "Content-Type", resp.Headers["Access-Control-Allow-Headers"])
	assert.Equal(t, "POST, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
}

func TestHandleRejectsNonPost(t *testing.T) {
	h := newTestHandler(rembg.Passthrough{})

	resp := h.Handle(context.Background(), Event{HTTPMethod: http.MethodGet})
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method not allowed", errorMessage(t, resp.Body))
}

func TestHandleInvalidBase64(t *testing.T) {
	h := newTestHandler(rembg.Passthrough{})

	resp := h.Handle(context.Background(), Event{
		HTTPMethod:      http.MethodPost,
		Body:            "not!!valid@@base64",
		IsBase64Encoded: true,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid base64 body", errorMessage(t, resp.Body))
}

func TestHandleProcessesRawImage(t *testing.T) {
	h := newTestHandler(rembg.Passthrough{})

	src := smallPNG(t)
	resp := h.Handle(context.Background(), Event{
		HTTPMethod:      http.MethodPost,
		Headers:         map[string]string{"Content-Type": "application/octet-stream"},
		Body:            base64.StdEncoding.EncodeToString(src),
		IsBase64Encoded: true,
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.IsBase64Encoded)
	assert.Equal(t, "image/png", resp.Headers["Content-Type"])

	out, err := base64.StdEncoding.DecodeString(resp.Body)
	require.NoError(t, err)
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("response body is not a PNG: %v", err)
	}
}

func TestHandleProcessesMultipart(t *testing.T) {
	h := newTestHandler(rembg.Passthrough{})

	body := multipartBody("WebKitBoundary7", smallPNG(t))
	resp := h.Handle(context.Background(), Event{
		HTTPMethod: http.MethodPost,
		// Proxy events arrive with arbitrary header casing.
		Headers:         map[string]string{"content-TYPE": "multipart/form-data; boundary=WebKitBoundary7"},
		Body:            base64.StdEncoding.EncodeToString(body),
		IsBase64Encoded: true,
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, resp.IsBase64Encoded)

	out, err := base64.StdEncoding.DecodeString(resp.Body)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.Bounds().Dx())
	assert.Equal(t, "image/png", resp.Headers["Content-Type"])
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
}

func TestHandleNoImageData(t *testing.T) {
	h := newTestHandler(rembg.Passthrough{})

	resp := h.Handle(context.Background(), Event{
		HTTPMethod: http.MethodPost,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       "nothing image shaped here",
	})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &payload))
	assert.Equal(t, "No valid image data found", payload["error"])
	assert.Equal(t, "text/plain", payload["content_type"])
	assert.Equal(t, float64(len("nothing image shaped here")), payload["body_length"])
	assert.Equal(t, false, payload["base64_decoded"])
}

func TestHandleProcessingFailure(t *testing.T) {
	h := newTestHandler(erroringRemover{err: errors.New("model melted")})

	resp := h.Handle(context.Background(), Event{
		HTTPMethod:      http.MethodPost,
		Headers:         map[string]string{"Content-Type": "application/octet-stream"},
		Body:            base64.StdEncoding.EncodeToString(smallPNG(t)),
		IsBase64Encoded: true,
	})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Image processing failed: model melted", errorMessage(t, resp.Body))
}

func TestHandleRecoversFromPanic(t *testing.T) {
	h := newTestHandler(panickingRemover{})

	resp := h.Handle(context.Background(), Event{
		HTTPMethod:      http.MethodPost,
		Headers:         map[string]string{"Content-Type": "application/octet-stream"},
		Body:            base64.StdEncoding.EncodeToString(smallPNG(t)),
		IsBase64Encoded: true,
	})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Server error: runtime on fire", errorMessage(t, resp.Body))

	// The recovery path carries a reduced header set.
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.NotContains(t, resp.Headers, "Access-Control-Allow-Methods")
}

func TestHandleContentLength(t *testing.T) {
	h := newTestHandler(rembg.Passthrough{})

	resp := h.Handle(context.Background(), Event{
		HTTPMethod:      http.MethodPost,
		Headers:         map[string]string{"Content-Type": "application/octet-stream"},
		Body:            base64.StdEncoding.EncodeToString(smallPNG(t)),
		IsBase64Encoded: true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out, err := base64.StdEncoding.DecodeString(resp.Body)
	require.NoError(t, err)

	n, err := strconv.Atoi(resp.Headers["Content-Length"])
	require.NoError(t, err)
	assert.Equal(t, len(out), n)
}
