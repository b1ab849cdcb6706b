package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/eleblu/bluswipe/internal/models"
	"github.com/eleblu/bluswipe/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchAsync stages the uploads to disk and hands the batch to the queue.
// Clients poll GET /api/jobs/:id for progress and results.
func (h *Handler) BatchAsync(c *gin.Context) {
	if h.queue == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Queue not available")
		return
	}
	if !h.remover.Ready() {
		h.respondError(c, http.StatusServiceUnavailable, "Service not ready")
		return
	}

	files, err := h.batchFiles(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(files) > h.maxBatchFiles() {
		h.respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Maximum %d files allowed", h.maxBatchFiles()))
		return
	}

	opts, err := h.parseOptions(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	job := &models.BatchJob{
		ID:          uuid.New().String(),
		Model:       opts.Model,
		Enhancement: opts.Enhancement,
		CreatedAt:   time.Now(),
	}

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.unstage(job)
			h.respondError(c, http.StatusInternalServerError, "Failed to read files")
			return
		}

		data, err := io.ReadAll(io.LimitReader(f, h.maxFileSize()+1))
		f.Close()
		if err != nil {
			h.unstage(job)
			h.respondError(c, http.StatusInternalServerError, "Failed to read files")
			return
		}

		path, err := h.storage.SaveUpload(utils.StagedFilename(fh.Filename), data)
		if err != nil {
			h.logger.Error("Failed to stage upload",
				zap.String("filename", fh.Filename),
				zap.Error(err))
			h.unstage(job)
			h.respondError(c, http.StatusInternalServerError, "Failed to stage files")
			return
		}

		job.Items = append(job.Items, models.JobItem{
			OriginalFilename: fh.Filename,
			UploadPath:       path,
			ContentType:      fh.Header.Get("Content-Type"),
		})
	}

	if err := h.queue.PublishJob(c.Request.Context(), job); err != nil {
		h.logger.Error("Failed to enqueue job",
			zap.String("job_id", job.ID),
			zap.Error(err))
		h.unstage(job)
		h.respondError(c, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	c.JSON(http.StatusAccepted, models.EnqueueResponse{
		JobID:     job.ID,
		Status:    models.StatusPending,
		StatusURL: "/api/jobs/" + job.ID,
	})
}

func (h *Handler) unstage(job *models.BatchJob) {
	for _, item := range job.Items {
		h.storage.RemoveUpload(item.UploadPath)
	}
}

// JobStatus reports the redis progress record for an async batch.
func (h *Handler) JobStatus(c *gin.Context) {
	id := c.Param("id")

	job, err := h.storage.GetJob(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load job",
			zap.String("job_id", id),
			zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to load job")
		return
	}
	if job == nil {
		h.respondError(c, http.StatusNotFound, "Job not found")
		return
	}

	c.JSON(http.StatusOK, job)
}

// Download serves a processed output by filename. Local disk is the source
// of truth; the supabase mirror covers files the cleanup sweep already
// removed locally.
func (h *Handler) Download(c *gin.Context) {
	filename := c.Param("filename")

	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		h.respondError(c, http.StatusBadRequest, "Invalid filename")
		return
	}

	path := h.storage.OutputPath(filename)
	if _, err := os.Stat(path); err == nil {
		c.FileAttachment(path, filename)
		return
	}

	if h.storage.MirrorEnabled() {
		data, err := h.storage.DownloadMirror(c.Request.Context(), filename)
		if err == nil && len(data) > 0 {
			h.attachment(c, data, "image/png", filename)
			return
		}
	}

	h.respondError(c, http.StatusNotFound, "File not found")
}
