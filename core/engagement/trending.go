package engagement

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"echofm/config"
	"echofm/logger"
	"echofm/model"
	"echofm/repository"

	"github.com/go-redis/redis/v8"
)

// TrendingRanker derives the top-N track list from total engagement
// counters: score = playsWeight*plays_count + downloadsWeight*downloads_count.
// The score is total-count-based, not time-decayed; weights are tunable at
// runtime. Results are cached briefly in Redis, never authoritative there.
type TrendingRanker struct {
	tracks repository.TrackRepository
	cache  *redis.Client // nil disables caching
	ttl    time.Duration

	mu      sync.RWMutex
	weights config.TrendingWeights
}

// NewTrendingRanker creates a ranker with the given initial weights.
func NewTrendingRanker(tracks repository.TrackRepository, cache *redis.Client, weights config.TrendingWeights, ttl time.Duration) *TrendingRanker {
	return &TrendingRanker{
		tracks:  tracks,
		cache:   cache,
		ttl:     ttl,
		weights: weights,
	}
}

// SetWeights swaps the scoring weights. Called by the config watcher.
func (t *TrendingRanker) SetWeights(w config.TrendingWeights) {
	t.mu.Lock()
	t.weights = w
	t.mu.Unlock()
}

// Weights returns the current scoring weights.
func (t *TrendingRanker) Weights() config.TrendingWeights {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.weights
}

// Trending returns at most limit tracks in rank order. A non-positive limit
// or an empty catalog yields an empty slice, never an error.
func (t *TrendingRanker) Trending(ctx context.Context, limit int) ([]*model.Track, error) {
	if limit <= 0 {
		return []*model.Track{}, nil
	}
	w := t.Weights()

	cacheKey := fmt.Sprintf("trending:%d:%d:%d", limit, w.Plays, w.Downloads)
	if cached, ok := t.cacheGet(ctx, cacheKey); ok {
		return cached, nil
	}

	tracks, err := t.tracks.TrendingTracks(ctx, limit, w.Plays, w.Downloads)
	if err != nil {
		return nil, err
	}

	t.cacheSet(ctx, cacheKey, tracks)
	return tracks, nil
}

func (t *TrendingRanker) cacheGet(ctx context.Context, key string) ([]*model.Track, bool) {
	if t.cache == nil {
		return nil, false
	}
	payload, err := t.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Trending cache read failed", logger.ErrorField(err))
		}
		return nil, false
	}
	var tracks []*model.Track
	if err := json.Unmarshal(payload, &tracks); err != nil {
		logger.Warn("Trending cache entry corrupt, ignoring", logger.ErrorField(err))
		return nil, false
	}
	return tracks, true
}

func (t *TrendingRanker) cacheSet(ctx context.Context, key string, tracks []*model.Track) {
	if t.cache == nil {
		return
	}
	payload, err := json.Marshal(tracks)
	if err != nil {
		return
	}
	if err := t.cache.Set(ctx, key, payload, t.ttl).Err(); err != nil {
		logger.Warn("Trending cache write failed", logger.ErrorField(err))
	}
}
