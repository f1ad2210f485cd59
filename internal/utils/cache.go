package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON cache encoding
	"time"          // Cache TTLs

	"github.com/redis/go-redis/v9" // Redis client
)

// CatalogCacheKey holds the seeded applet catalog. The catalog is
// immutable after seeding, so readers share one key.
const CatalogCacheKey = "applets:all"

// ExecutionCacheKey is the cached execution history key for a wallet.
// Invalidated on create, on clear and when a settlement lands.
func ExecutionCacheKey(walletAddress string) string {
	return "executions:wallet:" + walletAddress
}

// GetCache reads a cached JSON value into dest; found reports a hit
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Read the raw cached value
	if err == redis.Nil {
		return false, nil // Cache miss
	} else if err != nil {
		return false, err // Redis failure
	}
	return true, json.Unmarshal([]byte(val), dest) // Decode into dest
}

// SetCache stores a value as JSON under key for the given TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Encode the value
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Store with expiry
}

// DeleteCache invalidates a cached key
func DeleteCache(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err() // Remove the key
}
