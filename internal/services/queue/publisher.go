package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eleblu/bluswipe/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// PublishJob records the job as pending in redis, then puts it on the
// queue. Inputs must already be staged on disk; the message only carries
// filenames and paths.
func (q *QueueService) PublishJob(ctx context.Context, job *models.BatchJob) error {
	status := &models.JobStatus{
		ID:        job.ID,
		Status:    models.StatusPending,
		Total:     len(job.Items),
		CreatedAt: job.CreatedAt,
		UpdatedAt: time.Now(),
	}
	if err := q.storage.SaveJob(ctx, status); err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         jobBytes,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	q.logger.Info("Job published to queue",
		zap.String("job_id", job.ID),
		zap.Int("items", len(job.Items)))
	return nil
}
