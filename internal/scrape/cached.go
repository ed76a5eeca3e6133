package scrape

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobfinder-engine/internal/cache"
	"jobfinder-engine/internal/scrape/types"
)

// CachedSearcher memoizes non-empty interactive results. The poller must
// not use it: dedup needs a fresh fetch every cycle.
type CachedSearcher struct {
	next  Searcher
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedSearcher wraps next. A nil cache disables caching.
func NewCachedSearcher(next Searcher, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedSearcher {
	return &CachedSearcher{next: next, cache: c, ttl: ttl, log: logger.Named("search-cache")}
}

func (s *CachedSearcher) Search(ctx context.Context, sel Selector, q types.Query) Result {
	if s.cache == nil || s.ttl <= 0 {
		return s.next.Search(ctx, sel, q)
	}
	q = q.WithDefaults()
	key := cacheKey(sel, q)

	var cached Result
	err := s.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		s.log.Debug("hit", zap.String("key", key))
		return cached
	case !errors.Is(err, cache.ErrNotFound):
		s.log.Warn("cache get failed, dropping entry", zap.String("key", key), zap.Error(err))
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log.Warn("cache delete failed", zap.Error(err))
		}
	}

	res := s.next.Search(ctx, sel, q)
	if res.Found() {
		if err := s.cache.Set(ctx, key, res, s.ttl); err != nil {
			s.log.Warn("cache set failed", zap.Error(err))
		}
	}
	return res
}

func cacheKey(sel Selector, q types.Query) string {
	raw := fmt.Sprintf("%s|%s|%d|%s|%t|%d",
		sel.String(), strings.ToLower(q.Text), q.Limit, strings.ToLower(q.Location), q.RemoteOnly, q.Tier)
	sum := sha1.Sum([]byte(raw))
	return "search:" + hex.EncodeToString(sum[:])
}
