// Package pageio implements the external-page adapter's read-through
// cache (C10): a bounded, time-limited cache of recently-read page-store
// blocks sitting in front of pagestore.Store.ReadBlock, so that repeated
// reads of the same paged-dataset page (dataset.OpenPagedCached) don't
// re-pay the disk read. The B+-tree tables of the external indexes read
// their page stores directly and do not go through this cache.
package pageio

import (
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/rpcpool/afn-search/internal/pagestore"
)

const (
	// DefaultTTL bounds how long a cached page survives without being
	// re-read; query lifetimes are milliseconds, so this mostly exists
	// to cap memory for long-running benchmark processes that reuse one
	// cache across many queries.
	DefaultTTL = 30 * time.Second

	// DefaultCapacity is the maximum number of pages held at once.
	DefaultCapacity = 4096
)

// CachedStore wraps a pagestore.Store with a read-through block cache.
// It presents the same ReadBlock/PageSize/Close surface as
// pagestore.Store, so dataset.Paged can use either interchangeably;
// qabtree holds a concrete *pagestore.Store and does not use it.
type CachedStore struct {
	inner   *pagestore.Store
	cache   *ttlcache.Cache[int64, []byte]
	ioReads int
}

// NewCachedStore wraps store with a capacity-bounded, TTL-expiring cache.
func NewCachedStore(store *pagestore.Store, ttl time.Duration, capacity int) *CachedStore {
	cache := ttlcache.New[int64, []byte](
		ttlcache.WithTTL[int64, []byte](ttl),
		ttlcache.WithCapacity[int64, []byte](uint64(capacity)),
	)
	return &CachedStore{inner: store, cache: cache}
}

// PageSize delegates to the wrapped store.
func (c *CachedStore) PageSize() uint32 { return c.inner.PageSize() }

// IOReads returns the number of blocks actually fetched from the
// underlying store (cache misses); cache hits are not counted, since
// from the caller's I/O-accounting perspective they cost nothing.
func (c *CachedStore) IOReads() int { return c.ioReads }

// ResetIOReads zeroes the miss counter, for reuse across queries that
// should each report their own I/O cost against a long-lived cache.
func (c *CachedStore) ResetIOReads() { c.ioReads = 0 }

// ReadBlock serves idx from cache if present, else reads through to the
// wrapped store and populates the cache.
func (c *CachedStore) ReadBlock(idx int64, buf []byte) error {
	if item := c.cache.Get(idx); item != nil {
		copy(buf, item.Value())
		return nil
	}
	if err := c.inner.ReadBlock(idx, buf); err != nil {
		return fmt.Errorf("pageio: cache miss fetch failed: %w", err)
	}
	c.ioReads++
	cached := append([]byte(nil), buf...)
	c.cache.Set(idx, cached, ttlcache.DefaultTTL)
	return nil
}

// WriteBlock invalidates the cached copy (if any) and writes through to
// the wrapped store. The B+-tree bulk load does not call it; it writes
// to its own page store directly.
func (c *CachedStore) WriteBlock(idx int64, buf []byte) error {
	c.cache.Delete(idx)
	return c.inner.WriteBlock(idx, buf)
}

// Close releases the wrapped store.
func (c *CachedStore) Close() error { return c.inner.Close() }
