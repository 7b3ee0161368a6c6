package implementation

import (
	"context"
	"time"

	"clinical-scribe-be/internal/pkg/failure"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

// metricsRepository aggregates session counters with HINCRBY so
// concurrent writers never lose updates.
type metricsRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewMetricsRepository(rdb *redis.Client, ttl time.Duration) contract.MetricsRepository {
	return &metricsRepository{rdb: rdb, ttl: ttl}
}

func (r *metricsRepository) IncrBy(ctx context.Context, sessionID, field string, delta int64) error {
	if delta == 0 {
		return nil
	}

	key := sessionKey(sessionID, suffixMetrics)

	if err := r.rdb.HIncrBy(ctx, key, field, delta).Err(); err != nil {
		return failure.Transient(err)
	}
	if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
		return failure.Transient(err)
	}

	return nil
}

func (r *metricsRepository) IncrByFloat(ctx context.Context, sessionID, field string, delta float64) error {
	if delta == 0 {
		return nil
	}

	key := sessionKey(sessionID, suffixMetrics)

	if err := r.rdb.HIncrByFloat(ctx, key, field, delta).Err(); err != nil {
		return failure.Transient(err)
	}
	if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
		return failure.Transient(err)
	}

	return nil
}

func (r *metricsRepository) GetAll(ctx context.Context, sessionID string) (map[string]string, error) {
	key := sessionKey(sessionID, suffixMetrics)

	data, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, failure.Transient(err)
	}

	return data, nil
}
