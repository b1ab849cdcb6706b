package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/eleblu/bluswipe/internal/models"
	"github.com/eleblu/bluswipe/internal/services/remover"
)

// runJob reads the staged uploads back off disk and runs them through
// the remover, pushing progress into redis after every item so status
// polls see movement. Staged files are removed when the job finishes,
// whatever the outcome.
func (q *QueueService) runJob(ctx context.Context, job *models.BatchJob) ([]models.BatchItem, error) {
	inputs := make([]remover.BatchInput, 0, len(job.Items))
	for _, item := range job.Items {
		data, err := q.storage.ReadUpload(item.UploadPath)
		if err != nil {
			q.removeStaged(job)
			return nil, fmt.Errorf("failed to read staged upload %s: %w", item.OriginalFilename, err)
		}
		inputs = append(inputs, remover.BatchInput{
			OriginalFilename: item.OriginalFilename,
			ContentType:      item.ContentType,
			Data:             data,
		})
	}

	opts := remover.Options{
		Model:       job.Model,
		Enhancement: job.Enhancement,
	}

	results, err := q.remover.ProcessBatch(ctx, inputs, opts, func(completed, total int, name string) {
		q.updateStatus(ctx, &models.JobStatus{
			ID:        job.ID,
			Status:    models.StatusProcessing,
			Total:     total,
			Completed: completed,
			Current:   name,
			CreatedAt: job.CreatedAt,
			UpdatedAt: time.Now(),
		})
	})

	q.removeStaged(job)

	return results, err
}

func (q *QueueService) removeStaged(job *models.BatchJob) {
	for _, item := range job.Items {
		q.storage.RemoveUpload(item.UploadPath)
	}
}
