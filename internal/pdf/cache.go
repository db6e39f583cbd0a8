package pdf

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"

	"github.com/a3tai/pdf-field-extractor/internal/pdf/extraction"
)

// CacheStats reports result cache usage
type CacheStats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Size     int   `json:"size"`
	Capacity int   `json:"capacity"`
}

// ResultCache keeps recent extraction results keyed by file identity.
// Concurrent requests for the same key share one extraction. Cached
// results are shared between callers and must not be modified.
type ResultCache struct {
	mu       sync.Mutex
	entries  *lru.Cache
	capacity int
	group    singleflight.Group
	hits     int64
	misses   int64
}

// NewResultCache creates a cache holding up to capacity results. A zero
// capacity disables caching but still collapses concurrent requests.
func NewResultCache(capacity int) *ResultCache {
	c := &ResultCache{capacity: capacity}
	if capacity > 0 {
		c.entries = lru.New(capacity)
	}
	return c
}

// cacheKey changes whenever the file is replaced or rewritten
func cacheKey(path string, info os.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
}

// Do returns the cached result for key or runs fn to produce it. The
// boolean reports a cache hit. Errors are never cached.
//
// fn runs on a context detached from ctx, shared by every caller of the
// same key. A caller whose ctx ends stops waiting and gets ctx.Err(); the
// others still receive the result.
func (c *ResultCache) Do(ctx context.Context, key string, fn func(context.Context) (*extraction.ExtractionResult, error)) (*extraction.ExtractionResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if res, ok := c.get(key); ok {
		return res, true, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		res, err := fn(shared)
		if err != nil {
			return nil, err
		}
		c.put(key, res)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		return r.Val.(*extraction.ExtractionResult), false, nil
	}
}

func (c *ResultCache) get(key string) (*extraction.ExtractionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries != nil {
		if v, ok := c.entries.Get(key); ok {
			c.hits++
			return v.(*extraction.ExtractionResult), true
		}
	}
	c.misses++
	return nil, false
}

func (c *ResultCache) put(key string, res *extraction.ExtractionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries != nil {
		c.entries.Add(key, res)
	}
}

// Stats returns cache statistics
func (c *ResultCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := 0
	if c.entries != nil {
		size = c.entries.Len()
	}
	return CacheStats{
		Hits:     c.hits,
		Misses:   c.misses,
		Size:     size,
		Capacity: c.capacity,
	}
}
