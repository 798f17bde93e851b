// Package cache memoizes recommendation results, tag lists and trending joke
// lists with TTL expiry and explicit per-user invalidation. The backing store
// is pluggable; when it is unavailable every lookup is a miss, never an error.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default TTLs per cached concern
const (
	RecommendationsTTL = 5 * time.Minute
	TagsTTL            = 2 * time.Hour
	HotJokesTTL        = 30 * time.Minute
	DefaultSessionTTL  = time.Hour
)

// DefaultKeyPrefix namespaces all cache keys
const DefaultKeyPrefix = "giggleglide:"

// Cache is the application cache layer over a pluggable Store
type Cache struct {
	store  Store
	prefix string
}

// New creates a cache layer over the given store
func New(store Store, prefix string) *Cache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Cache{store: store, prefix: prefix}
}

// NewFromEnv builds a cache backed by Redis when REDIS_ADDR is set and
// reachable, falling back to the in-memory store otherwise
func NewFromEnv() *Cache {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return New(NewMemoryStore(), DefaultKeyPrefix)
	}

	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			db = parsed
		}
	}

	store, err := NewRedisStore(addr, os.Getenv("REDIS_PASSWORD"), db)
	if err != nil {
		log.Printf("Failed to connect to Redis at %s, using in-memory cache: %v", addr, err)
		return New(NewMemoryStore(), DefaultKeyPrefix)
	}
	return New(store, DefaultKeyPrefix)
}

// ContextHash produces a stable hash of the request context so that
// recommendation results are keyed per (user, parameters) pair
func ContextHash(context map[string]interface{}) string {
	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		encoded, _ := json.Marshal(context[k])
		b.WriteString(k)
		b.WriteByte('=')
		b.Write(encoded)
		b.WriteByte(';')
	}

	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) key(parts ...string) string {
	return c.prefix + strings.Join(parts, ":")
}

func (c *Cache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("Failed to encode cache entry %s: %v", key, err)
		return false
	}
	c.store.Set(ctx, key, data, ttl)
	return true
}

func (c *Cache) getJSON(ctx context.Context, key string, dest interface{}) bool {
	data, ok := c.store.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("Failed to decode cache entry %s: %v", key, err)
		c.store.Delete(ctx, key)
		return false
	}
	return true
}

// SetRecommendations caches a recommendation result for a user and context
func (c *Cache) SetRecommendations(ctx context.Context, userID uuid.UUID, contextHash string, result interface{}) bool {
	return c.setJSON(ctx, c.key("recommendations", userID.String(), contextHash), result, RecommendationsTTL)
}

// GetRecommendations loads a cached recommendation result into dest
func (c *Cache) GetRecommendations(ctx context.Context, userID uuid.UUID, contextHash string, dest interface{}) bool {
	return c.getJSON(ctx, c.key("recommendations", userID.String(), contextHash), dest)
}

// SetTags caches the tag list for a category ("all" when empty)
func (c *Cache) SetTags(ctx context.Context, category string, tags interface{}) bool {
	if category == "" {
		category = "all"
	}
	return c.setJSON(ctx, c.key("tags", category), tags, TagsTTL)
}

// GetTags loads the cached tag list for a category into dest
func (c *Cache) GetTags(ctx context.Context, category string, dest interface{}) bool {
	if category == "" {
		category = "all"
	}
	return c.getJSON(ctx, c.key("tags", category), dest)
}

// SetHotJokes caches a trending joke id list under a label
func (c *Cache) SetHotJokes(ctx context.Context, label string, jokeIDs []uuid.UUID) bool {
	return c.setJSON(ctx, c.key("hot_jokes", label), jokeIDs, HotJokesTTL)
}

// GetHotJokes returns the cached trending joke ids for a label
func (c *Cache) GetHotJokes(ctx context.Context, label string) ([]uuid.UUID, bool) {
	var ids []uuid.UUID
	if !c.getJSON(ctx, c.key("hot_jokes", label), &ids) {
		return nil, false
	}
	return ids, true
}

// SetSession caches arbitrary per-user session data
func (c *Cache) SetSession(ctx context.Context, userID uuid.UUID, data map[string]interface{}, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return c.setJSON(ctx, c.key("session", userID.String()), data, ttl)
}

// GetSession returns cached session data for a user
func (c *Cache) GetSession(ctx context.Context, userID uuid.UUID) (map[string]interface{}, bool) {
	var data map[string]interface{}
	if !c.getJSON(ctx, c.key("session", userID.String()), &data) {
		return nil, false
	}
	return data, true
}

// InvalidateUser removes every cache entry tied to a user. Called whenever
// the user submits feedback so stale recommendations are never served.
func (c *Cache) InvalidateUser(ctx context.Context, userID uuid.UUID) int {
	deleted := c.store.Delete(ctx,
		c.key("session", userID.String()),
		c.key("user_prefs", userID.String()),
	)
	deleted += c.store.DeleteByPrefix(ctx, c.key("recommendations", userID.String())+":")
	return deleted
}

// ClearExpired sweeps expired entries on stores that need manual expiry
func (c *Cache) ClearExpired() int {
	if mem, ok := c.store.(*MemoryStore); ok {
		return mem.Sweep()
	}
	return 0
}

// Stats reports backend statistics
func (c *Cache) Stats(ctx context.Context) map[string]interface{} {
	stats := c.store.Stats(ctx)
	stats["key_prefix"] = c.prefix
	return stats
}

// Close releases the backing store
func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("failed to close cache store: %w", err)
	}
	return nil
}
