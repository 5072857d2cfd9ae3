package screening

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/redis"
)

const cacheKeyPrefix = "screen:"

// ResultCache stores completed runs in Redis. Keys include the corpus
// snapshot key, so any ingestion makes earlier entries unreachable and a hit
// is always identical to a recomputation. Concurrent misses on one key are
// collapsed into a single computation.
type ResultCache struct {
	client  *pkgredis.Client
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewResultCache caches runs for ttl; m may be nil.
func NewResultCache(client *pkgredis.Client, ttl time.Duration, m *metrics.Metrics) *ResultCache {
	return &ResultCache{
		client:  client,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "result-cache"),
	}
}

// RunKey derives the cache key of screening jobID against candidateIDs on
// the corpus state identified by corpusKey. Candidate order is irrelevant.
func RunKey(jobID string, candidateIDs []string, corpusKey string) string {
	ids := append([]string(nil), candidateIDs...)
	sort.Strings(ids)
	raw := fmt.Sprintf("%s|%s|%s", jobID, corpusKey, strings.Join(ids, ","))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", cacheKeyPrefix, hash[:16])
}

// Get returns the cached run at key, marked as Cached.
func (c *ResultCache) Get(ctx context.Context, key string) (*Run, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	for i := range run.Failures {
		f := &run.Failures[i]
		f.Err = apperrors.FromKind(f.Kind, f.Message)
	}
	c.hit()
	run.Cached = true
	c.logger.Debug("cache hit", "key", key, "run_id", run.ID)
	return &run, true
}

// Set stores run at key. Cancelled runs are partial and never stored.
func (c *ResultCache) Set(ctx context.Context, key string, run *Run) {
	if run.Cancelled {
		return
	}
	data, err := json.Marshal(run)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached run at key or computes, stores and returns
// it. The boolean reports a cache hit. compute belongs to the calling request
// and must honour its ctx.
//
// Concurrent misses on one key share the first caller's computation and each
// receive their own copy. A shared run that was cancelled by its owner is
// recomputed with compute for every caller whose ctx is still live.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, compute func() (*Run, error)) (*Run, bool, error) {
	if run, ok := c.Get(ctx, key); ok {
		return run, true, nil
	}
	val, err, shared := c.group.Do(key, func() (any, error) {
		run, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, run)
		return run, nil
	})
	if err != nil {
		return nil, false, err
	}
	run := val.(*Run)
	if !shared {
		return run, false, nil
	}
	if run.Cancelled && ctx.Err() == nil {
		c.logger.Debug("shared run was cancelled, recomputing", "key", key)
		run, err = compute()
		if err != nil {
			return nil, false, err
		}
		c.Set(ctx, key, run)
		return run, false, nil
	}
	return run.clone(), false, nil
}

// Invalidate drops every cached run and returns how many were removed.
func (c *ResultCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.client.DeleteByPrefix(ctx, cacheKeyPrefix)
	if err != nil {
		return deleted, fmt.Errorf("invalidating result cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *ResultCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *ResultCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}
