package function

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/eleblu/bluswipe/internal/rembg"
	"github.com/eleblu/bluswipe/internal/services/processor"
	"go.uber.org/zap"
)

type Handler struct {
	remover   rembg.Remover
	processor *processor.Processor
	logger    *zap.Logger
}

func NewHandler(remover rembg.Remover, proc *processor.Processor, logger *zap.Logger) *Handler {
	return &Handler{
		remover:   remover,
		processor: proc,
		logger:    logger,
	}
}

func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type",
		"Access-Control-Allow-Methods": "POST, OPTIONS",
	}
}

// Handle serves one event. Preflights are answered empty, non-POST methods
// rejected, and anything that panics comes back as a server error response
// rather than killing the runtime.
func (h *Handler) Handle(ctx context.Context, event Event) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Function panicked", zap.Any("panic", r))
			resp = Response{
				StatusCode: http.StatusInternalServerError,
				Headers: map[string]string{
					"Access-Control-Allow-Origin": "*",
					"Content-Type":                "application/json",
				},
				Body: errorBody(fmt.Sprintf("Server error: %v", r)),
			}
		}
	}()

	headers := corsHeaders()

	if event.HTTPMethod == http.MethodOptions {
		return Response{StatusCode: http.StatusOK, Headers: headers, Body: ""}
	}
	if event.HTTPMethod != http.MethodPost {
		return Response{
			StatusCode: http.StatusMethodNotAllowed,
			Headers:    headers,
			Body:       errorBody("Method not allowed"),
		}
	}

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return Response{
				StatusCode: http.StatusBadRequest,
				Headers:    headers,
				Body:       errorBody("Invalid base64 body"),
			}
		}
		body = decoded
	}

	imageData, err := ExtractImage(body, headerValue(event.Headers, "content-type"), event.IsBase64Encoded)
	if err != nil {
		var noImg *NoImageDataError
		if errors.As(err, &noImg) {
			h.logger.Warn("No image data in request",
				zap.String("content_type", noImg.ContentType),
				zap.Int("body_length", noImg.BodyLength),
				zap.Bool("base64_decoded", noImg.Base64Decoded))
			return noImageResponse(headers, noImg)
		}
		return Response{
			StatusCode: http.StatusBadRequest,
			Headers:    headers,
			Body:       errorBody("No valid image data found"),
		}
	}

	result, err := h.process(ctx, imageData)
	if err != nil {
		h.logger.Error("Image processing failed", zap.Error(err))
		return Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers,
			Body:       errorBody("Image processing failed: " + err.Error()),
		}
	}

	out := make(map[string]string, len(headers)+2)
	for k, v := range headers {
		out[k] = v
	}
	out["Content-Type"] = "image/png"
	out["Content-Length"] = strconv.Itoa(len(result))

	return Response{
		StatusCode:      http.StatusOK,
		Headers:         out,
		Body:            base64.StdEncoding.EncodeToString(result),
		IsBase64Encoded: true,
	}
}

func (h *Handler) process(ctx context.Context, data []byte) ([]byte, error) {
	img, err := h.processor.Normalize(processor.FromBytes(data))
	if err != nil {
		return nil, err
	}

	cut, err := h.remover.Remove(ctx, img)
	if err != nil {
		return nil, err
	}

	return processor.EncodePNG(cut)
}

func noImageResponse(headers map[string]string, e *NoImageDataError) Response {
	b, _ := json.Marshal(map[string]interface{}{
		"error":          "No valid image data found",
		"content_type":   e.ContentType,
		"body_length":    e.BodyLength,
		"base64_decoded": e.Base64Decoded,
	})
	return Response{
		StatusCode: http.StatusBadRequest,
		Headers:    headers,
		Body:       string(b),
	}
}

// headerValue looks a header up case-insensitively; proxy events do not
// normalize header casing.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
