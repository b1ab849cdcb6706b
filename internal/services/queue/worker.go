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

func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.logger.Info("Worker started", zap.Int("worker_id", workerID))

	go func() {
		for {
			select {
			case <-ctx.Done():
				q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case msg, ok := <-msgs:
				if !ok {
					q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
					return
				}

				q.processMessage(ctx, msg, workerID)
			}
		}
	}()

	return nil
}

func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	var job models.BatchJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		q.logger.Error("Failed to unmarshal job",
			zap.Error(err),
			zap.Int("worker_id", workerID))
		msg.Nack(false, false) // Don't requeue malformed messages
		return
	}

	q.logger.Info("Processing job",
		zap.String("job_id", job.ID),
		zap.Int("worker_id", workerID),
		zap.Int("items", len(job.Items)))

	q.updateStatus(ctx, &models.JobStatus{
		ID:        job.ID,
		Status:    models.StatusProcessing,
		Total:     len(job.Items),
		CreatedAt: job.CreatedAt,
		UpdatedAt: time.Now(),
	})

	results, err := q.runJob(ctx, &job)

	final := &models.JobStatus{
		ID:        job.ID,
		Total:     len(job.Items),
		Completed: len(results),
		Results:   results,
		CreatedAt: job.CreatedAt,
		UpdatedAt: time.Now(),
	}
	if err != nil {
		final.Status = models.StatusFailed
		final.Error = err.Error()
		q.logger.Error("Job processing failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
	} else {
		final.Status = models.StatusCompleted
		q.logger.Info("Job completed successfully",
			zap.String("job_id", job.ID))
	}
	q.updateStatus(ctx, final)

	if err := msg.Ack(false); err != nil {
		q.logger.Error("Failed to ack message",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}
}

func (q *QueueService) updateStatus(ctx context.Context, status *models.JobStatus) {
	if err := q.storage.SaveJob(ctx, status); err != nil {
		q.logger.Warn("Failed to save job status",
			zap.String("job_id", status.ID),
			zap.Error(err))
	}
}
