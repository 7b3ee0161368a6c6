package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"clinical-scribe-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type MetricsRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMetricsRepository(ttl time.Duration) contract.MetricsRepository {
	return &MetricsRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *MetricsRepository) counters(sessionID string) map[string]float64 {
	if x, found := r.cache.Get(sessionID); found {
		return x.(map[string]float64)
	}
	m := make(map[string]float64)
	r.cache.Set(sessionID, m, cache.DefaultExpiration)
	return m
}

func (r *MetricsRepository) IncrBy(_ context.Context, sessionID, field string, delta int64) error {
	r.incr(sessionID, field, float64(delta))
	return nil
}

func (r *MetricsRepository) IncrByFloat(_ context.Context, sessionID, field string, delta float64) error {
	r.incr(sessionID, field, delta)
	return nil
}

func (r *MetricsRepository) incr(sessionID, field string, delta float64) {
	if delta == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.counters(sessionID)[field] += delta
}

func (r *MetricsRepository) GetAll(_ context.Context, sessionID string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counters := r.counters(sessionID)
	out := make(map[string]string, len(counters))
	for field, value := range counters {
		out[field] = strconv.FormatFloat(value, 'f', -1, 64)
	}
	return out, nil
}
