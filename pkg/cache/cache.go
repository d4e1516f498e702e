// Package cache stores derived per-instance data, such as lower bounds, so
// repeated batches over the same instance set skip recomputing it.
//
// Keys are built by a [Keyer] from the SHA-256 of the instance content, so a
// renamed instance still hits and an edited one misses. [FileCache] is the
// CLI backend; [NullCache] disables caching.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/ocrbench/pkg/observability"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired key is a miss
	// (hit == false) rather than an error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// LowerBoundKey names the lower bound of the instance whose content hash
	// is instanceHash.
	LowerBoundKey(instanceHash string, opts BoundKeyOpts) string
}

// BoundKeyOpts holds the parse options that change a lower bound.
type BoundKeyOpts struct {
	MergeDuplicates bool `json:"merge_duplicates"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LowerBoundKey implements [Keyer].
func (DefaultKeyer) LowerBoundKey(instanceHash string, opts BoundKeyOpts) string {
	return hashKey("lower_bound", instanceHash, opts)
}

// Fetch returns the JSON value stored under key, computing and storing it on
// a miss. Cache read and write failures fall back to compute; only compute
// errors are returned. keyType labels the observability events.
func Fetch[T any](ctx context.Context, c Cache, key, keyType string, ttl time.Duration, compute func() (T, error)) (T, error) {
	if data, hit, err := c.Get(ctx, key); err == nil && hit {
		var v T
		if json.Unmarshal(data, &v) == nil {
			observability.Cache().OnCacheHit(ctx, keyType)
			return v, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, keyType)

	v, err := compute()
	if err != nil {
		return v, err
	}
	if data, err := json.Marshal(v); err == nil {
		if c.Set(ctx, key, data, ttl) == nil {
			observability.Cache().OnCacheSet(ctx, keyType, len(data))
		}
	}
	return v, nil
}
