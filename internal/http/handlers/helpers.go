package handlers

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/eleblu/bluswipe/internal/models"
	"github.com/eleblu/bluswipe/internal/rembg"
	"github.com/eleblu/bluswipe/internal/services/processor"
	"github.com/eleblu/bluswipe/internal/services/remover"
	"github.com/eleblu/bluswipe/pkg/utils"
	"github.com/gin-gonic/gin"
)

// === LIMITS ===

func (h *Handler) maxFileSize() int64 {
	return h.settings.GetInt64("web.max_file_size", 10*1024*1024)
}

func (h *Handler) maxBatchFiles() int {
	return h.settings.GetInt("web.max_batch_files", 10)
}

// === REQUEST PARSING ===

// readImageUpload pulls one uploaded file out of the form and applies the
// upload gates in order: present, declared image content type, size cap,
// non-empty. It writes the error response itself and reports ok=false.
func (h *Handler) readImageUpload(c *gin.Context, paramKey string) ([]byte, *multipart.FileHeader, bool) {
	file, header, err := c.Request.FormFile(paramKey)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "No file provided")
		return nil, nil, false
	}
	defer file.Close()

	if !utils.IsImageContentType(header.Header.Get("Content-Type")) {
		h.respondError(c, http.StatusBadRequest, "File must be an image")
		return nil, nil, false
	}

	maxSize := h.maxFileSize()
	tooLarge := fmt.Sprintf("File too large (max %dMB)", maxSize/(1024*1024))
	if header.Size > maxSize {
		h.respondError(c, http.StatusRequestEntityTooLarge, tooLarge)
		return nil, nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Failed to read file")
		return nil, nil, false
	}
	if int64(len(data)) > maxSize {
		h.respondError(c, http.StatusRequestEntityTooLarge, tooLarge)
		return nil, nil, false
	}
	if len(data) == 0 {
		h.respondError(c, http.StatusBadRequest, "Empty file")
		return nil, nil, false
	}

	return data, header, true
}

// parseOptions reads the model and enhancement form fields. The model
// defaults to u2net rather than the active one, so a client that omits it
// gets the stock model even after someone else switched. Enhancement other
// than 1.0 is clamped to [0.5, 2.0] here; the enhancer itself applies any
// strength it is given.
func (h *Handler) parseOptions(c *gin.Context) (remover.Options, error) {
	model := c.DefaultPostForm("model", rembg.DefaultModel)

	enhancement := 1.0
	if raw := c.PostForm("enhancement"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return remover.Options{}, fmt.Errorf("invalid enhancement value: %q", raw)
		}
		enhancement = parsed
	}
	if enhancement != 1.0 {
		enhancement = math.Max(0.5, math.Min(2.0, enhancement))
	}

	return remover.Options{Model: model, Enhancement: enhancement}, nil
}

// parseBackground resolves the replacement background, preferring an
// uploaded file over a solid color over a remote URL.
func (h *Handler) parseBackground(c *gin.Context) (processor.BackgroundSpec, error) {
	if file, _, err := c.Request.FormFile(bgParamKey); err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize()+1))
		if err != nil {
			return processor.BackgroundSpec{}, fmt.Errorf("failed to read background file")
		}
		if len(data) == 0 {
			return processor.BackgroundSpec{}, fmt.Errorf("empty background file")
		}
		return processor.BackgroundBytes(data), nil
	}

	if hex := c.PostForm("bg_color"); hex != "" {
		col, err := parseHexColor(hex)
		if err != nil {
			return processor.BackgroundSpec{}, err
		}
		return processor.BackgroundColor(col), nil
	}

	if bgURL := c.PostForm("bg_url"); bgURL != "" {
		data, _, err := utils.DownloadImage(c.Request.Context(), bgURL, h.maxFileSize())
		if err != nil {
			return processor.BackgroundSpec{}, fmt.Errorf("failed to fetch background: %v", err)
		}
		return processor.BackgroundBytes(data), nil
	}

	return processor.BackgroundSpec{}, fmt.Errorf("no background provided (use bg, bg_color or bg_url)")
}

func parseHexColor(s string) (color.NRGBA, error) {
	trimmed := strings.TrimPrefix(s, "#")
	if len(trimmed) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q (expected RRGGBB)", s)
	}
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q (expected RRGGBB)", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// === RESPONSE HANDLING ===

func (h *Handler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// respondProcessingError maps pipeline failures onto the API contract.
// Mistakes a client can fix come back as 400s; everything else reports a
// processing failure.
func (h *Handler) respondProcessingError(c *gin.Context, requestedModel string, err error) {
	switch {
	case errors.Is(err, processor.ErrTooLarge):
		h.respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Image too large (max %dx%d)", processor.DefaultMaxDimension, processor.DefaultMaxDimension))
	case errors.Is(err, processor.ErrEmptyImage), errors.Is(err, processor.ErrDecode):
		h.respondError(c, http.StatusBadRequest, "Invalid image file")
	case errors.Is(err, rembg.ErrUnknownModel):
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("Model %s not available", requestedModel))
	default:
		h.respondError(c, http.StatusInternalServerError, "Processing failed: "+err.Error())
	}
}

// attachment streams image bytes back as a download.
func (h *Handler) attachment(c *gin.Context, data []byte, contentType, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, contentType, data)
}
