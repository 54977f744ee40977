package discovery

import (
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/localscout/discovery/internal/types"
)

// TTL classes. Entries expire lazily on read; there is no sweeper.
const (
	detailsTTL  = 24 * time.Hour
	dynamicTTL  = 15 * time.Minute
	searchTTL   = 5 * time.Minute
	viewportTTL = 2 * time.Minute
)

// Cache wraps the in-memory store with per-class TTLs and an in-flight
// request group so concurrent callers for the same key share one fetch.
type Cache struct {
	store *gocache.Cache
	group singleflight.Group
}

// NewCache creates a process-local cache. Cleanup interval is zero so
// expiry happens lazily on Get rather than via a background janitor.
func NewCache() *Cache {
	return &Cache{
		store: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns a fresh entry or (nil, false).
func (c *Cache) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

// Set stores payload under the given TTL class duration.
func (c *Cache) Set(key string, payload interface{}, ttl time.Duration) {
	c.store.Set(key, payload, ttl)
}

// Do runs fn once per key among concurrent callers. The in-flight
// marker is released after completion whether fn succeeded or failed,
// so deduplication cannot deadlock on error. shared reports whether
// this caller joined another caller's fetch.
func (c *Cache) Do(key string, fn func() (interface{}, error)) (v interface{}, shared bool, err error) {
	v, err, shared = c.group.Do(key, fn)
	return v, shared, err
}

// Clear drops every entry. Intended for tests and explicit cache-clear
// operations.
func (c *Cache) Clear() {
	c.store.Flush()
}

// viewportKey canonicalizes bounds and options into a cache key.
// Categories are sorted so equivalent requests collide.
func viewportKey(bounds types.Viewport, opts types.ViewportOptions) string {
	categories := append([]string(nil), opts.Categories...)
	sort.Strings(categories)
	return fmt.Sprintf("viewport:%.6f:%.6f:%.6f:%.6f:%s:%.1f:%t",
		bounds.North, bounds.South, bounds.East, bounds.West,
		strings.Join(categories, ","), opts.MinRating, opts.OpenNow)
}

func detailsKey(id string) string {
	return "details:" + id
}

func liveStatusKey(id string) string {
	return "live:" + id
}

func searchKey(query string) string {
	return "search:" + strings.ToLower(strings.TrimSpace(query))
}
