package storage

import (
	"context"
	"crypto/md5"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func (s *StorageService) GetFromCache(ctx context.Context, cacheKey string) ([]byte, error) {
	data, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	return data, nil
}

func (s *StorageService) SetCache(ctx context.Context, cacheKey string, data []byte) error {
	return s.redisClient.Set(ctx, cacheKey, data, cacheDuration).Err()
}

// GenerateCacheKey derives the cache key for a removal request from the
// image bytes and every parameter that changes the output.
func (s *StorageService) GenerateCacheKey(imageData []byte, model string, enhancement float64) string {
	hash := md5.New()
	hash.Write(imageData)
	fmt.Fprintf(hash, "model_%s_enh_%.2f", model, enhancement)
	return fmt.Sprintf("img_cache:%x", hash.Sum(nil))
}

// GetCacheStats surfaces redis memory info for the health endpoint.
func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	info, err := s.redisClient.Info(ctx, "memory").Result()
	if err != nil {
		return nil, err
	}

	dbSize, err := s.redisClient.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"db_keys": dbSize,
		"info":    info,
	}

	return stats, nil
}
