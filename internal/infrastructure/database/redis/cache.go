// Package redis provides the precomputed-response cache: full pipeline
// responses keyed by request content hash.  A cache hit short-circuits the
// entire pipeline; a cache failure is never fatal.
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/RxMatch-Intelligence/internal/config"
	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger logging.Logger) (*goredis.Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "redis ping failed")
	}

	logger.Info("connected to redis", logging.String("addr", cfg.Addr))
	return client, nil
}

// ResponseCache stores serialized responses keyed by content hash.
type ResponseCache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	logger logging.Logger
}

// NewResponseCache builds a cache over an established client.
func NewResponseCache(client *goredis.Client, cfg config.RedisConfig, logger logging.Logger) *ResponseCache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ResponseCache{
		client: client,
		prefix: cfg.KeyPrefix + "response:",
		ttl:    cfg.DefaultTTL,
		logger: logger,
	}
}

// Lookup returns the cached payload for contentHash.  Both a miss and a
// transport failure report ok=false; the caller falls through to the full
// pipeline either way.
func (c *ResponseCache) Lookup(ctx context.Context, contentHash string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, c.prefix+contentHash).Bytes()
	if err == goredis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("response cache lookup failed", logging.Err(err))
		return nil, false
	}
	return payload, true
}

// Store writes the payload under contentHash with the configured TTL.
func (c *ResponseCache) Store(ctx context.Context, contentHash string, payload []byte) error {
	if err := c.client.Set(ctx, c.prefix+contentHash, payload, c.ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "response cache store failed")
	}
	return nil
}
