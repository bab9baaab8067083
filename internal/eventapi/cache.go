package eventapi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kaizendev/post-registration-api/internal/models"
)

// MetadataSource fetches event metadata from the provider.
type MetadataSource interface {
	GetEvent(ctx context.Context, token, externalID string) (*models.EventMetadata, error)
}

// CachedClient memoizes event metadata in redis so provider outages degrade
// to the last known copy on read paths instead of failing the page.
type CachedClient struct {
	source MetadataSource
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedClient wraps a provider client with a redis metadata cache.
func NewCachedClient(source MetadataSource, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedClient{source: source, redis: rdb, ttl: ttl, logger: logger}
}

// GetEvent returns cached metadata when fresh, falling back to the provider.
// A provider failure returns stale cache if any copy exists.
func (c *CachedClient) GetEvent(ctx context.Context, token, externalID string) (*models.EventMetadata, error) {
	key := "eventapi:metadata:" + externalID

	if cached := c.load(ctx, key); cached != nil {
		return cached, nil
	}

	meta, err := c.source.GetEvent(ctx, token, externalID)
	if err != nil {
		if stale := c.loadIgnoringTTL(ctx, key); stale != nil {
			c.logger.Warn("provider unavailable, serving stale metadata",
				zap.String("external_id", externalID), zap.Error(err))
			return stale, nil
		}
		return nil, err
	}

	c.store(ctx, key, meta)
	return meta, nil
}

func (c *CachedClient) load(ctx context.Context, key string) *models.EventMetadata {
	if c.redis == nil {
		return nil
	}
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var meta models.EventMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil
	}
	return &meta
}

// loadIgnoringTTL reads the stale backup key kept alongside the TTL'd entry.
func (c *CachedClient) loadIgnoringTTL(ctx context.Context, key string) *models.EventMetadata {
	if c.redis == nil {
		return nil
	}
	raw, err := c.redis.Get(ctx, key+":stale").Bytes()
	if err != nil {
		return nil
	}
	var meta models.EventMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil
	}
	return &meta
}

func (c *CachedClient) store(ctx context.Context, key string, meta *models.EventMetadata) {
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("metadata cache write failed", zap.Error(err))
	}
	// stale backup has no TTL; it only serves when the provider is down
	if err := c.redis.Set(ctx, key+":stale", raw, 0).Err(); err != nil {
		c.logger.Debug("stale metadata write failed", zap.Error(err))
	}
}
