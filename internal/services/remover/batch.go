package remover

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eleblu/bluswipe/internal/models"
	"github.com/eleblu/bluswipe/internal/services/processor"
	"github.com/eleblu/bluswipe/pkg/utils"
)

var (
	// ErrNotAnImageFile rejects a batch item whose declared content type is
	// not an image. The text is the per-item error message clients see.
	ErrNotAnImageFile = errors.New("Not an image file")

	// ErrBatchTooLarge rejects a whole batch before any item is touched.
	ErrBatchTooLarge = errors.New("batch exceeds the file limit")
)

// BatchInput is one named image in a batch submission.
type BatchInput struct {
	OriginalFilename string
	ContentType      string
	Data             []byte
}

// ProgressFunc observes batch progress: completed counts items finished so
// far (success or error), total is the batch size, name the item just
// handled.
type ProgressFunc func(completed, total int, name string)

// ProcessBatch runs the pipeline over items in submission order. A batch
// above the configured limit is rejected whole, before any item is
// processed. After that gate, one item's failure never affects another and
// the result list has exactly one entry per input, in input order.
// onProgress (optional) fires after every item regardless of its outcome.
func (s *Service) ProcessBatch(ctx context.Context, items []BatchInput, opts Options, onProgress ProgressFunc) ([]models.BatchItem, error) {
	if s.maxBatch > 0 && len(items) > s.maxBatch {
		return nil, fmt.Errorf("%w: maximum %d files allowed", ErrBatchTooLarge, s.maxBatch)
	}

	opts = opts.normalized(s.session.Model())

	results := make([]models.BatchItem, 0, len(items))
	for i, item := range items {
		results = append(results, s.processBatchItem(ctx, item, opts))

		if onProgress != nil {
			onProgress(i+1, len(items), item.OriginalFilename)
		}
	}

	return results, nil
}

func (s *Service) processBatchItem(ctx context.Context, item BatchInput, opts Options) (result models.BatchItem) {
	result.OriginalFilename = item.OriginalFilename
	defer func() {
		s.metrics.ObserveBatchItem(result.Status)
	}()

	if !utils.IsImageContentType(item.ContentType) {
		result.Status = models.ItemStatusError
		result.Error = ErrNotAnImageFile.Error()
		return result
	}

	if s.itemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.itemTimeout)
		defer cancel()
	}

	cut, err := s.removeImage(ctx, processor.FromBytes(item.Data), opts)
	if err != nil {
		result.Status = models.ItemStatusError
		result.Error = err.Error()
		s.logger.Warn("batch item failed",
			zap.String("file", item.OriginalFilename), zap.Error(err))
		return result
	}

	encoded, err := processor.EncodePNG(cut)
	if err != nil {
		result.Status = models.ItemStatusError
		result.Error = err.Error()
		return result
	}

	filename := utils.BatchFilename()
	if _, err := s.storage.SaveOutput(filename, encoded); err != nil {
		result.Status = models.ItemStatusError
		result.Error = err.Error()
		return result
	}

	result.Status = models.ItemStatusSuccess
	result.OutputFilename = filename
	result.DownloadURL = "/api/download/" + filename

	if s.storage.MirrorEnabled() {
		if publicURL, err := s.storage.MirrorOutput(ctx, filename, encoded); err != nil {
			s.logger.Warn("failed to mirror output",
				zap.String("file", filename), zap.Error(err))
		} else {
			result.PublicURL = publicURL
		}
	}

	return result
}
