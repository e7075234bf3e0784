package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"insightai_backend/config"
	"insightai_backend/pkg/logging"
	"time"

	"github.com/redis/go-redis/v9"
)

type Service struct {
	Rdb *redis.Client
	Ctx context.Context
}

func InitRedis(cfg *config.Config) (*Service, error) {
	redisUrl := cfg.RedisURL
	if redisUrl == "" {
		return nil, fmt.Errorf("empty redis url")
	}
	opt, err := redis.ParseURL(redisUrl)
	if err != nil {
		return nil, fmt.Errorf("could not parse Redis URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opt.Password = cfg.RedisPassword
	}
	rdb := redis.NewClient(opt)

	testCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(testCtx).Err(); err != nil {
		return nil, fmt.Errorf("could not connect to Redis: %w", err)
	}
	logging.Logger.Info("Connected to Redis")
	return &Service{
		Rdb: rdb,
		Ctx: context.Background(),
	}, nil
}

func (s *Service) SetCache(key string, value interface{}, expiration time.Duration) error {
	prefixedKey := "cache:" + key

	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.Rdb.Set(s.Ctx, prefixedKey, jsonData, expiration).Err()
}

func (s *Service) GetCache(key string) (interface{}, bool) {
	prefixedKey := "cache:" + key
	val, err := s.Rdb.Get(s.Ctx, prefixedKey).Result()
	if err != nil {
		return nil, false
	}
	// JSON string; the caller decides how to unmarshal.
	return val, true
}

func (s *Service) DelCache(key string) error {
	prefixedKey := "cache:" + key
	return s.Rdb.Del(s.Ctx, prefixedKey).Err()
}

func (s *Service) PushToQueue(queueName string, value interface{}) error {
	prefixedQueueName := "queue:" + queueName
	jsonValue, err := json.Marshal(value)
	if err != nil {
		logging.Logger.Error("fail PushToQueue", "queue", queueName, "error", err)
		return err
	}
	return s.Rdb.LPush(s.Ctx, prefixedQueueName, string(jsonValue)).Err()
}

// PopFromQueue returns the oldest queued value as its JSON string, or
// redis.Nil when the queue is empty.
func (s *Service) PopFromQueue(queueName string) (interface{}, error) {
	prefixedQueueName := "queue:" + queueName
	return s.Rdb.RPop(s.Ctx, prefixedQueueName).Result()
}
