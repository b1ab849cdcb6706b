package storage

import (
	"context"
	"os"

	storage_go "github.com/supabase-community/storage-go"
)

// HealthCheck probes each storage dependency and reports per-component
// status strings for the health endpoint.
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy: " + err.Error()
	} else {
		status["redis"] = "healthy"
	}

	if _, err := os.Stat(s.outputsDir); err != nil {
		status["disk"] = "unhealthy: " + err.Error()
	} else {
		status["disk"] = "healthy"
	}

	if s.sbClient == nil {
		status["supabase"] = "disabled"
	} else if _, err := s.sbClient.ListFiles(s.bucket, "", storage_go.FileSearchOptions{}); err != nil {
		status["supabase"] = "unhealthy: " + err.Error()
	} else {
		status["supabase"] = "healthy"
	}

	return status
}
