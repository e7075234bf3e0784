package cache

import "time"

// CacheService is the two-level (L1 memory, L2 redis) cache surface.
type CacheService interface {
	GetCache(key string) (interface{}, bool)
	SetCache(key string, value interface{}, expiration time.Duration) error
	DelCache(key string) error
}

// MessageQueue is the redis-backed task queue surface.
type MessageQueue interface {
	PushToQueue(queueName string, value interface{}) error
	PopFromQueue(queueName string) (interface{}, error)
}
