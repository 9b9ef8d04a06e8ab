// Package cache provides a small byte-oriented cache used to memoize
// symbolic-helper replies between render jobs.
//
// Helper invocations (wolframscript) are slow relative to everything else in
// a render request, and the same (expression, bounds) query shows up
// repeatedly while a user iterates on axis ranges or quality. Backends:
//   - FileCache: per-user directory cache for CLI/TUI usage
//   - RedisCache: shared cache for server deployments
//   - NullCache: caching disabled
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// TTLHelper is how long a symbolic-helper reply stays valid. The reply is a
// pure function of its inputs, so the TTL exists only to bound disk usage.
const TTLHelper = 7 * 24 * time.Hour

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// HelperKey builds the cache key for a symbolic-helper query. The key is a
// hash of the expression text and both bounds, so unrelated queries can
// never collide.
func HelperKey(exprText string, a, b float64) string {
	return hashKey("helper", exprText, a, b)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
