package recall

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/synapsehq/synapse/internal/domain"
)

// cacheKey identifies one recall query for caching purposes. Identical
// queries within the TTL window are served from cache rather than
// re-running the fan-out.
func cacheKey(q Query) string {
	typ := "any"
	if q.Type != nil {
		typ = string(*q.Type)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%d", q.UserID, q.AgentID, typ, q.Text, q.Limit)
}

// resultCache is a size-1000 LRU keyed by query, each entry expiring after
// the configured TTL.
type resultCache struct {
	lru *expirable.LRU[string, []ScoredMemory]
}

func newResultCache(ttl time.Duration) *resultCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &resultCache{lru: expirable.NewLRU[string, []ScoredMemory](1000, nil, ttl)}
}

func (c *resultCache) get(q Query) ([]ScoredMemory, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(cacheKey(q))
}

func (c *resultCache) put(q Query, results []ScoredMemory) {
	if c == nil {
		return
	}
	c.lru.Add(cacheKey(q), results)
}

// cacheTTLFromConfig converts the millisecond TTL in IntelligenceConfig into
// a time.Duration for the cache constructor.
func cacheTTLFromConfig(cfg domain.RecallConfig) time.Duration {
	if cfg.CacheTTLMillis <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(cfg.CacheTTLMillis) * time.Millisecond
}
