package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/eleblu/bluswipe/internal/models"
	"github.com/eleblu/bluswipe/internal/services/remover"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RemoveBackground handles the single-image endpoint. The response is a PNG
// attachment regardless of the input format.
func (h *Handler) RemoveBackground(c *gin.Context) {
	if !h.remover.Ready() {
		h.respondError(c, http.StatusServiceUnavailable, "Service not ready")
		return
	}

	data, header, ok := h.readImageUpload(c, fileParamKey)
	if !ok {
		return
	}

	opts, err := h.parseOptions(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.remover.Remove(c.Request.Context(), data, opts)
	if err != nil {
		h.logger.Error("Background removal failed",
			zap.String("filename", header.Filename),
			zap.String("model", opts.Model),
			zap.Error(err))
		h.respondProcessingError(c, opts.Model, err)
		return
	}

	h.attachment(c, result, "image/png", "processed_"+header.Filename)
}

// AddBackground removes the background and composites the cutout onto a
// replacement supplied as an uploaded file, a solid color or a URL.
func (h *Handler) AddBackground(c *gin.Context) {
	if !h.remover.Ready() {
		h.respondError(c, http.StatusServiceUnavailable, "Service not ready")
		return
	}

	data, header, ok := h.readImageUpload(c, fileParamKey)
	if !ok {
		return
	}

	opts, err := h.parseOptions(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	bg, err := h.parseBackground(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	format := c.DefaultPostForm("format", "png")

	result, contentType, err := h.remover.ReplaceBackground(c.Request.Context(), data, bg, format, opts)
	if err != nil {
		h.logger.Error("Background replacement failed",
			zap.String("filename", header.Filename),
			zap.Error(err))
		h.respondProcessingError(c, opts.Model, err)
		return
	}

	h.attachment(c, result, contentType, "processed_"+header.Filename)
}

// Batch processes up to web.max_batch_files images in one request and
// reports a per-item result list in submission order.
func (h *Handler) Batch(c *gin.Context) {
	if !h.remover.Ready() {
		h.respondError(c, http.StatusServiceUnavailable, "Service not ready")
		return
	}

	files, err := h.batchFiles(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	opts, err := h.parseOptions(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	inputs := h.batchInputs(files)

	results, err := h.remover.ProcessBatch(c.Request.Context(), inputs, opts, nil)
	if err != nil {
		if errors.Is(err, remover.ErrBatchTooLarge) {
			h.respondError(c, http.StatusBadRequest,
				fmt.Sprintf("Maximum %d files allowed", h.maxBatchFiles()))
			return
		}
		h.logger.Error("Batch processing failed", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Processing failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, models.BatchResponse{Results: results})
}

func (h *Handler) batchFiles(c *gin.Context) ([]*multipart.FileHeader, error) {
	memLimit := h.maxFileSize() * int64(h.maxBatchFiles())
	if err := c.Request.ParseMultipartForm(memLimit); err != nil {
		return nil, fmt.Errorf("failed to parse form data: %v", err)
	}

	files := c.Request.MultipartForm.File[filesParamKey]
	if len(files) == 0 {
		return nil, fmt.Errorf("no files provided")
	}

	return files, nil
}

// batchInputs reads every part into memory. A part that cannot be read
// still yields an input so the result list keeps one entry per file; the
// empty payload surfaces as that item's error downstream.
func (h *Handler) batchInputs(files []*multipart.FileHeader) []remover.BatchInput {
	inputs := make([]remover.BatchInput, 0, len(files))

	for _, fh := range files {
		input := remover.BatchInput{
			OriginalFilename: fh.Filename,
			ContentType:      fh.Header.Get("Content-Type"),
		}

		f, err := fh.Open()
		if err != nil {
			h.logger.Warn("Failed to open uploaded file",
				zap.String("filename", fh.Filename),
				zap.Error(err))
			inputs = append(inputs, input)
			continue
		}

		data, err := io.ReadAll(io.LimitReader(f, h.maxFileSize()+1))
		f.Close()
		if err != nil {
			h.logger.Warn("Failed to read uploaded file",
				zap.String("filename", fh.Filename),
				zap.Error(err))
			inputs = append(inputs, input)
			continue
		}

		input.Data = data
		inputs = append(inputs, input)
	}

	return inputs
}
