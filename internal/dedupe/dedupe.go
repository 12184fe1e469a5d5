package dedupe

import (
	"context"
	"time"

	"github.com/nimasrn/webhook-gateway/pkg/logger"
	"github.com/nimasrn/webhook-gateway/pkg/redis"
)

// Cache is an advisory recent-message-id cache in front of the store.
// A hit lets the pipeline answer a retried delivery without touching
// postgres. It is only ever a fast path: the unique constraint on
// messages.message_id remains the sole correctness mechanism, so every
// redis failure degrades to "ask the database".

type Config struct {
	KeyPrefix string
	TTL       time.Duration
}

func DefaultConfig() Config {
	return Config{
		KeyPrefix: "seen:",
		TTL:       24 * time.Hour,
	}
}

type Cache struct {
	redis  redis.RedisAdapter
	config Config
}

func NewCache(redisAdapter redis.RedisAdapter, config Config) *Cache {
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultConfig().KeyPrefix
	}
	if config.TTL <= 0 {
		config.TTL = DefaultConfig().TTL
	}
	return &Cache{
		redis:  redisAdapter,
		config: config,
	}
}

// Seen reports whether messageID was marked recently. Errors count as
// not seen.
func (c *Cache) Seen(ctx context.Context, messageID string) bool {
	exists, err := c.redis.Exist(c.config.KeyPrefix + messageID)
	if err != nil {
		logger.Warn("dedupe cache probe failed", "message_id", messageID, "error", err)
		return false
	}
	return exists > 0
}

// MarkSeen records messageID for the configured TTL. Best effort; an
// existing marker is left with its original TTL.
func (c *Cache) MarkSeen(ctx context.Context, messageID string) {
	if _, err := c.redis.SetNX(c.config.KeyPrefix+messageID, []byte("1"), c.config.TTL); err != nil {
		logger.Warn("dedupe cache mark failed", "message_id", messageID, "error", err)
	}
}
