package memory

import (
	"strings"
	"time"

	"fusion-agent-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// ContextCache keeps per-stream catalog listings for a short TTL.
type ContextCache struct {
	cache *cache.Cache
}

func NewContextCache(ttl time.Duration) *ContextCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ContextCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func key(stream string) string {
	return "contexts:" + strings.ToLower(strings.TrimSpace(stream))
}

func (c *ContextCache) Save(stream string, contexts []*entity.QueryContext) {
	c.cache.Set(key(stream), contexts, cache.DefaultExpiration)
}

func (c *ContextCache) Get(stream string) ([]*entity.QueryContext, bool) {
	if x, found := c.cache.Get(key(stream)); found {
		return x.([]*entity.QueryContext), true
	}
	return nil, false
}

func (c *ContextCache) Invalidate(stream string) {
	c.cache.Delete(key(stream))
}

func (c *ContextCache) Flush() {
	c.cache.Flush()
}
