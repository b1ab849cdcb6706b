package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"

	"github.com/eleblu/bluswipe/internal/config"
)

const (
	cacheDuration = 24 * time.Hour
	jobDuration   = 24 * time.Hour
)

// StorageService owns everything the pipeline persists: processed outputs
// and staged uploads on local disk, the result cache and job records in
// redis, and an optional public mirror in supabase storage.
type StorageService struct {
	redisClient *redis.Client
	sbClient    *storage_go.Client
	bucket      string
	uploadsDir  string
	outputsDir  string
	logger      *zap.Logger
}

func NewStorageService(cfg *config.Config, settings *config.Settings, logger *zap.Logger) (*StorageService, error) {
	uploadsDir := settings.GetString("paths.uploads", "uploads")
	outputsDir := settings.GetString("paths.outputs", "outputs")
	for _, dir := range []string{uploadsDir, outputsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// The mirror is optional; everything works from local disk without it.
	var sbClient *storage_go.Client
	if cfg.Supabase.URL != "" && cfg.Supabase.Bucket != "" {
		sbClient = storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.Key, nil)
	}

	return &StorageService{
		redisClient: redisClient,
		sbClient:    sbClient,
		bucket:      cfg.Supabase.Bucket,
		uploadsDir:  uploadsDir,
		outputsDir:  outputsDir,
		logger:      logger,
	}, nil
}

func (s *StorageService) Close() error {
	return s.redisClient.Close()
}
