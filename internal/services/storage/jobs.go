package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/eleblu/bluswipe/internal/models"
)

func jobKey(id string) string {
	return "job:" + id
}

// SaveJob upserts the progress record for an async batch job.
func (s *StorageService) SaveJob(ctx context.Context, job *models.JobStatus) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return s.redisClient.Set(ctx, jobKey(job.ID), raw, jobDuration).Err()
}

// GetJob returns nil with no error when the job is unknown or expired.
func (s *StorageService) GetJob(ctx context.Context, id string) (*models.JobStatus, error) {
	raw, err := s.redisClient.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("job get error: %w", err)
	}

	var job models.JobStatus
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}
