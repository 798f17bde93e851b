package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the cache layer with an external Redis instance. Every
// backend error is logged and degraded to a miss so callers never fail on
// cache unavailability.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at addr and verifies the connection
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("Connected to Redis cache")
	return &RedisStore{client: client}, nil
}

// Get returns the value for key, treating any backend error as a miss
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("Redis get failed for %s: %v", key, err)
		return nil, false
	}
	return data, true
}

// Set stores value under key for ttl; failures are logged and dropped
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("Redis set failed for %s: %v", key, err)
	}
}

// Delete removes the given keys
func (r *RedisStore) Delete(ctx context.Context, keys ...string) int {
	if len(keys) == 0 {
		return 0
	}
	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		log.Printf("Redis delete failed: %v", err)
		return 0
	}
	return int(deleted)
}

// DeleteByPrefix scans for keys matching prefix* and removes them
func (r *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) int {
	deleted := 0
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("Redis delete failed for %s: %v", iter.Val(), err)
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		log.Printf("Redis scan failed for prefix %s: %v", prefix, err)
	}
	return deleted
}

// Stats reports Redis server statistics
func (r *RedisStore) Stats(ctx context.Context) map[string]interface{} {
	size, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return map[string]interface{}{
			"backend":   "redis",
			"connected": false,
			"error":     err.Error(),
		}
	}
	return map[string]interface{}{
		"backend":    "redis",
		"connected":  true,
		"total_keys": size,
	}
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
