// Package cache memoizes calls to slow or rate-limited upstream sources.
//
// A Proxy serves a value from its Store while it is younger than the TTL
// given on each call, and otherwise fetches it again. Failed fetches are
// never stored. Concurrent misses on one key share a single fetch.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultFetchTimeout = 8 * time.Second

// Entry is a memoized upstream result.
type Entry[V any] struct {
	Value     V         `json:"value"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Store holds entries. Implementations may drop entries at any time; the
// Proxy decides freshness from FetchedAt, not from the store.
type Store[V any] interface {
	Get(ctx context.Context, key string) (Entry[V], bool, error)
	Set(ctx context.Context, key string, entry Entry[V], ttl time.Duration) error
}

// FetchFunc loads a value from the upstream source.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Options tunes a Proxy. Zero values select defaults.
type Options struct {
	FetchTimeout time.Duration
	Now          func() time.Time
	Metrics      *Metrics
}

// Proxy is a TTL memoizing wrapper around upstream fetches.
type Proxy[V any] struct {
	name    string
	store   Store[V]
	group   singleflight.Group
	timeout time.Duration
	now     func() time.Time
	metrics *Metrics
}

// NewProxy creates a Proxy named name (used in logs and metrics).
func NewProxy[V any](name string, store Store[V], opts Options) *Proxy[V] {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Proxy[V]{
		name:    name,
		store:   store,
		timeout: opts.FetchTimeout,
		now:     opts.Now,
		metrics: opts.Metrics,
	}
}

// GetOrFetch returns the cached value for key if it was fetched less than
// ttl ago. Otherwise it calls fetch, bounded by the proxy's fetch timeout,
// and stores the result on success. Fetch errors are returned unchanged
// and leave the cache untouched.
func (p *Proxy[V]) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc[V]) (V, error) {
	if entry, ok := p.lookup(ctx, key); ok && p.now().Sub(entry.FetchedAt) < ttl {
		p.metrics.hit(p.name)
		return entry.Value, nil
	}
	p.metrics.miss(p.name)

	result, err, _ := p.group.Do(key, func() (any, error) {
		// The shared fetch must not die with whichever caller started it.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()

		value, err := fetch(fetchCtx)
		if err != nil {
			p.metrics.fetchError(p.name)
			return value, err
		}

		entry := Entry[V]{Value: value, FetchedAt: p.now()}
		if err := p.store.Set(fetchCtx, key, entry, ttl); err != nil {
			slog.Warn("cache store write failed", "cache", p.name, "key", key, "error", err)
		}
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	value, ok := result.(V)
	if !ok {
		var zero V
		return zero, fmt.Errorf("cache %s: unexpected value type %T", p.name, result)
	}
	return value, nil
}

// lookup treats store failures as misses so a broken backend degrades to
// fetching upstream instead of failing the request.
func (p *Proxy[V]) lookup(ctx context.Context, key string) (Entry[V], bool) {
	entry, ok, err := p.store.Get(ctx, key)
	if err != nil {
		slog.Warn("cache store read failed", "cache", p.name, "key", key, "error", err)
		return Entry[V]{}, false
	}
	return entry, ok
}
