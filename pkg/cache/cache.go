// Package cache stores packing results between runs.
//
// Two kinds of entries are cached, each under its own key family:
//
//   - layouts: the packed [atlas.Layout] for a set of sprite hashes and
//     packing options
//   - artifacts: rendered outputs (PNG, JSON, header, ...) for a layout
//     hash and format options
//
// Backends implement the byte-oriented [Cache] interface: [FileCache] for
// the CLI, [RedisCache] for shared deployments, and [NullCache] when
// caching is disabled. Key construction lives behind [Keyer] so callers can
// namespace keys with [ScopedKeyer].
//
// [atlas.Layout]: github.com/matzehuels/atlaspack/pkg/atlas.Layout
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Entry lifetimes.
const (
	// TTLLayout is how long a packed layout stays cached. Layouts are keyed
	// by content hashes, so they only expire to bound disk use.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact is how long rendered outputs stay cached.
	TTLArtifact = 24 * time.Hour
)
