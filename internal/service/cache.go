package service

import (
	"context"
	"encoding/json"
	"exam_prep_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	cacheKeyPYQStats       = "exam_prep:pyq:stats"
	cacheKeyQuestionCounts = "exam_prep:questions:counts"
)

// cacheGet decodes key into dst. A nil client, a miss or a bad payload all report false.
func cacheGet(ctx context.Context, rdb *redis.Client, key string, dst interface{}) bool {
	if rdb == nil {
		return false
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Log.Warn("cache payload invalid", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func cacheSet(ctx context.Context, rdb *redis.Client, key string, v interface{}, ttl time.Duration) {
	if rdb == nil || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.Log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
