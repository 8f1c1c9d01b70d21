package memory

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/Sentinel-Gate/intentresolver/internal/ctxkey"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/timenorm"
)

// DefaultCacheSize is the default number of cached resolutions.
const DefaultCacheSize = 1000

// DefaultCacheTTL is how long a cached resolution stays valid.
const DefaultCacheTTL = 10 * time.Minute

// CachingResolver memoizes a timenorm.Resolver. Only replies that carry a
// valid strict timestamp are cached. Relative expressions depend on the
// reference instant, so the key includes it truncated to the minute.
type CachingResolver struct {
	next   timenorm.Resolver
	cache  *lruCache
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Compile-time check that CachingResolver implements timenorm.Resolver.
var _ timenorm.Resolver = (*CachingResolver)(nil)

// CacheOption configures a CachingResolver.
type CacheOption func(*CachingResolver)

// WithCacheSize sets the maximum number of entries.
func WithCacheSize(size int) CacheOption {
	return func(r *CachingResolver) {
		if size > 0 {
			r.cache = newLRUCache(size)
		}
	}
}

// WithCacheTTL sets the entry lifetime. Zero or negative disables expiry.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(r *CachingResolver) {
		r.ttl = ttl
	}
}

// WithCacheClock sets the clock used for expiry.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(r *CachingResolver) {
		r.now = now
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(r *CachingResolver) {
		r.logger = logger
	}
}

// NewCachingResolver wraps next with an LRU cache.
func NewCachingResolver(next timenorm.Resolver, opts ...CacheOption) *CachingResolver {
	r := &CachingResolver{
		next:   next,
		cache:  newLRUCache(DefaultCacheSize),
		ttl:    DefaultCacheTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveTime implements timenorm.Resolver.
func (r *CachingResolver) ResolveTime(ctx context.Context, expression string, reference time.Time, timezone string) (string, error) {
	key := cacheKey(expression, reference, timezone)
	now := r.now()

	if v, ok := r.cache.Get(key, now); ok {
		r.hits.Add(1)
		ctxkey.Logger(ctx, r.logger).Debug("time cache hit", "expression", expression, "timezone", timezone)
		return v, nil
	}
	r.misses.Add(1)

	raw, err := r.next.ResolveTime(ctx, expression, reference, timezone)
	if err != nil {
		return raw, err
	}
	if ts, err := timenorm.Extract(raw); err == nil {
		var expires time.Time
		if r.ttl > 0 {
			expires = now.Add(r.ttl)
		}
		r.cache.Put(key, ts, expires)
	}
	return raw, nil
}

// Stats returns the hit and miss counts.
func (r *CachingResolver) Stats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}

// Len returns the number of cached entries.
func (r *CachingResolver) Len() int {
	return r.cache.Size()
}

// Clear drops every cached entry.
func (r *CachingResolver) Clear() {
	r.cache.Clear()
}

// cacheKey hashes the normalized expression, timezone and reference minute.
func cacheKey(expression string, reference time.Time, timezone string) uint64 {
	h := xxhash.New()

	_, _ = h.WriteString(strings.ToLower(strings.Join(strings.Fields(expression), " ")))
	_, _ = h.Write([]byte{0}) // separator

	_, _ = h.WriteString(timezone)
	_, _ = h.Write([]byte{0})

	_, _ = h.WriteString(reference.UTC().Truncate(time.Minute).Format(time.RFC3339))

	return h.Sum64()
}
