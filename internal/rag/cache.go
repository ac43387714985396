// Package rag implements retrieval-augmented answering: knowledge-base
// retrieval, context assembly, model prompting and answer caching.
package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/pkg/ctxlog"
	"github.com/opsdeck/opsdeck/internal/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "model_context:"

// AnswerCache stores completed query results in Redis keyed by a hash of
// the normalized query. Cache failures are degraded to misses; answering
// never fails because the cache is down.
type AnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAnswerCache creates an answer cache with the given TTL.
func NewAnswerCache(rdb *redis.Client, ttl time.Duration) *AnswerCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AnswerCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached result for a query, or nil on a miss.
func (c *AnswerCache) Get(ctx context.Context, query string) *domain.QueryResult {
	if c == nil || c.rdb == nil {
		return nil
	}

	raw, err := c.rdb.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.AnswerCacheRequests.WithLabelValues("miss").Inc()
		} else {
			metrics.AnswerCacheRequests.WithLabelValues("error").Inc()
			ctxlog.FromContext(ctx).Warn("answer cache get failed", "error", err)
		}
		return nil
	}

	var result domain.QueryResult
	if err := json.Unmarshal(raw, &result); err != nil {
		metrics.AnswerCacheRequests.WithLabelValues("error").Inc()
		ctxlog.FromContext(ctx).Warn("answer cache entry corrupt", "error", err)
		return nil
	}

	metrics.AnswerCacheRequests.WithLabelValues("hit").Inc()
	result.Cached = true
	return &result
}

// Set stores a result. Errors are logged, not returned.
func (c *AnswerCache) Set(ctx context.Context, query string, result *domain.QueryResult) {
	if c == nil || c.rdb == nil || result == nil {
		return
	}

	// The Cached flag describes the read path, never the stored value.
	stored := *result
	stored.Cached = false

	raw, err := json.Marshal(&stored)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("answer cache marshal failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(query), raw, c.ttl).Err(); err != nil {
		ctxlog.FromContext(ctx).Warn("answer cache set failed", "error", err)
	}
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%s%s", cacheKeyPrefix, hex.EncodeToString(sum[:]))
}
