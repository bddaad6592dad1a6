// Package cache holds the Redis-backed cache for dashboard aggregates.
//
// The per-genre averages are the only expensive read in the system (a full
// GROUP BY over the tenant's catalog) and the interactive dashboards refresh
// them constantly, so they get a short-TTL cache-aside layer. Keys embed a
// per-tenant version counter that song inserts bump — invalidation is one
// INCR, no SCAN, and stale entries age out on TTL.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lalith-99/tunevault/internal/models"
)

type RedisAggregates struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisAggregates connects to Redis at the given URL. ttl bounds how long
// a cached dashboard can lag behind the catalog.
func NewRedisAggregates(url string, ttl time.Duration, logger *zap.Logger) (*RedisAggregates, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisAggregates{
		rdb:    redis.NewClient(opts),
		ttl:    ttl,
		logger: logger,
	}, nil
}

func (c *RedisAggregates) Close() error { return c.rdb.Close() }

// version returns the tenant's current catalog version. A missing counter
// reads as 0, which is fine — all readers agree until the first insert.
func (c *RedisAggregates) version(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	v, err := c.rdb.Get(ctx, "catalog_ver:"+tenantID.String()).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func (c *RedisAggregates) ratingsKey(ver int64, filterKey string) string {
	return fmt.Sprintf("genre_avg:%d:%s", ver, filterKey)
}

// GetRatings returns the cached dashboard rows for the filter, if present.
// Cache errors degrade to a miss: the dashboard still works without Redis.
func (c *RedisAggregates) GetRatings(ctx context.Context, tenantID uuid.UUID, filterKey string) ([]models.GenreRating, bool) {
	ver, err := c.version(ctx, tenantID)
	if err != nil {
		c.logger.Warn("aggregate cache read failed", zap.Error(err))
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, c.ratingsKey(ver, filterKey)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("aggregate cache read failed", zap.Error(err))
		return nil, false
	}

	var rows []models.GenreRating
	if err := json.Unmarshal(raw, &rows); err != nil {
		c.logger.Warn("aggregate cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return rows, true
}

// SetRatings stores the dashboard rows under the tenant's current version.
func (c *RedisAggregates) SetRatings(ctx context.Context, tenantID uuid.UUID, filterKey string, rows []models.GenreRating) {
	ver, err := c.version(ctx, tenantID)
	if err != nil {
		c.logger.Warn("aggregate cache write failed", zap.Error(err))
		return
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.ratingsKey(ver, filterKey), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("aggregate cache write failed", zap.Error(err))
	}
}

// Invalidate bumps the tenant's catalog version so every cached aggregate
// for the tenant is orphaned at once. Old keys expire on their TTL.
func (c *RedisAggregates) Invalidate(ctx context.Context, tenantID uuid.UUID) {
	if err := c.rdb.Incr(ctx, "catalog_ver:"+tenantID.String()).Err(); err != nil {
		c.logger.Warn("aggregate cache invalidation failed", zap.Error(err))
	}
}
