package cache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amv-gms/grievance-service/internal/cache/cachetest"
	"github.com/amv-gms/grievance-service/internal/config"
	"github.com/amv-gms/grievance-service/internal/domain"
)

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := NewDirectoryCache(nil, config.CacheConfig{Enabled: true, TTLSeconds: 60}, nil)
	require.False(t, c.Enabled())

	c.StoreEmployee(ctx, &domain.Employee{HRMSID: "ABCDEF", Name: "Maitri Singh"})
	_, ok := c.Employee(ctx, "ABCDEF")
	assert.False(t, ok)

	c.StoreOptions(ctx, domain.DropdownTrade, []string{"Fitter"})
	_, ok = c.Options(ctx, domain.DropdownTrade)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx))
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *DirectoryCache
	_, ok := c.Employee(context.Background(), "ABCDEF")
	assert.False(t, ok)
	assert.False(t, c.Enabled())
}

func TestSwitchedOffCacheIgnoresClient(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	c := NewDirectoryCache(client, config.CacheConfig{Enabled: false}, nil)
	assert.False(t, c.Enabled())
}

func TestKeysAreNamespaced(t *testing.T) {
	c := NewDirectoryCache(nil, config.CacheConfig{KeyPrefix: "test"}, nil)
	assert.Equal(t, "test:dir:employee:ABCDEF", c.employeeKey("ABCDEF"))
	assert.Equal(t, "test:dir:options:TRADE", c.optionsKey(domain.DropdownTrade))
}

func TestEmployeeRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, server := cachetest.NewClient()
	defer client.Close()
	c := NewDirectoryCache(client, config.CacheConfig{Enabled: true, TTLSeconds: 60, KeyPrefix: "t"}, nil)
	require.True(t, c.Enabled())

	_, ok := c.Employee(ctx, "ABCDEF")
	assert.False(t, ok, "empty cache misses")

	c.StoreEmployee(ctx, &domain.Employee{HRMSID: "ABCDEF", Name: "Maitri Singh"})
	emp, ok := c.Employee(ctx, "ABCDEF")
	require.True(t, ok)
	assert.Equal(t, domain.Employee{HRMSID: "ABCDEF", Name: "Maitri Singh"}, *emp)

	c.StoreOptions(ctx, domain.DropdownTrade, nil)
	values, ok := c.Options(ctx, domain.DropdownTrade)
	require.True(t, ok, "an empty list is cached too")
	assert.Empty(t, values)
	assert.Equal(t, []string{"t:dir:employee:ABCDEF", "t:dir:options:TRADE"}, server.Keys())
}

func TestCorruptEntryMisses(t *testing.T) {
	client, server := cachetest.NewClient()
	defer client.Close()
	c := NewDirectoryCache(client, config.CacheConfig{Enabled: true, KeyPrefix: "t"}, nil)

	server.Put("t:dir:employee:ABCDEF", "{not json")
	_, ok := c.Employee(context.Background(), "ABCDEF")
	assert.False(t, ok)
}

func TestInvalidateKeepsForeignKeys(t *testing.T) {
	ctx := context.Background()
	client, server := cachetest.NewClient()
	defer client.Close()
	c := NewDirectoryCache(client, config.CacheConfig{Enabled: true, KeyPrefix: "t"}, nil)

	server.Put("t:session:1", "x")
	c.StoreEmployee(ctx, &domain.Employee{HRMSID: "ABCDEF", Name: "Maitri Singh"})
	c.StoreOptions(ctx, domain.DropdownTrade, []string{"Fitter"})

	require.NoError(t, c.Invalidate(ctx))
	assert.Equal(t, []string{"t:session:1"}, server.Keys())
	assert.Equal(t, 1, server.Calls("del"))
}
