// Package cache keeps read-mostly directory data (employee names and form
// dropdown lists) in Redis in front of PostgreSQL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/amv-gms/grievance-service/internal/config"
	"github.com/amv-gms/grievance-service/internal/domain"
)

// DirectoryCache is safe to use when nil or disabled; every read then misses
// and every write is dropped.
type DirectoryCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewDirectoryCache returns a disabled cache when client is nil or caching is switched off.
func NewDirectoryCache(client *redis.Client, cfg config.CacheConfig, logger *zap.Logger) *DirectoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &DirectoryCache{ttl: cfg.TTL(), prefix: cfg.KeyPrefix, logger: logger}
	if cfg.Enabled && client != nil {
		c.client = client
	}
	if c.prefix == "" {
		c.prefix = "gms"
	}
	return c
}

// Enabled reports whether reads can hit Redis.
func (c *DirectoryCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Employee returns a cached employee, if any.
func (c *DirectoryCache) Employee(ctx context.Context, hrmsID string) (*domain.Employee, bool) {
	if !c.Enabled() {
		return nil, false
	}
	var emp domain.Employee
	if !c.get(ctx, c.employeeKey(hrmsID), &emp) {
		return nil, false
	}
	return &emp, true
}

// StoreEmployee caches a successful lookup.
func (c *DirectoryCache) StoreEmployee(ctx context.Context, emp *domain.Employee) {
	if emp == nil || !c.Enabled() {
		return
	}
	c.set(ctx, c.employeeKey(emp.HRMSID), emp)
}

// Options returns the cached values of a dropdown category.
func (c *DirectoryCache) Options(ctx context.Context, category domain.DropdownCategory) ([]string, bool) {
	if !c.Enabled() {
		return nil, false
	}
	var values []string
	if !c.get(ctx, c.optionsKey(category), &values) {
		return nil, false
	}
	return values, true
}

// StoreOptions caches the de-duplicated values of a dropdown category.
func (c *DirectoryCache) StoreOptions(ctx context.Context, category domain.DropdownCategory, values []string) {
	if !c.Enabled() {
		return
	}
	if values == nil {
		values = []string{}
	}
	c.set(ctx, c.optionsKey(category), values)
}

// Invalidate drops every directory key, used after a table is reloaded.
func (c *DirectoryCache) Invalidate(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	iter := c.client.Scan(ctx, 0, c.prefix+":dir:*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *DirectoryCache) employeeKey(hrmsID string) string {
	return c.prefix + ":dir:employee:" + hrmsID
}

func (c *DirectoryCache) optionsKey(category domain.DropdownCategory) string {
	return c.prefix + ":dir:options:" + string(category)
}

func (c *DirectoryCache) get(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("directory cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("directory cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *DirectoryCache) set(ctx context.Context, key string, value any) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("directory cache write failed", zap.String("key", key), zap.Error(err))
	}
}
