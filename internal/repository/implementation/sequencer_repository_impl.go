package implementation

import (
	"context"
	"errors"
	"time"

	"clinical-scribe-be/internal/pkg/failure"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

type sequencerRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSequencerRepository(rdb *redis.Client, ttl time.Duration) contract.SequencerRepository {
	return &sequencerRepository{rdb: rdb, ttl: ttl}
}

// AssignTicket increments the ingest counter. INCR returns the new
// 1-based count; tickets are 0-based.
func (r *sequencerRepository) AssignTicket(ctx context.Context, sessionID string) (int, error) {
	key := sessionKey(sessionID, suffixChunkCount)

	count, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, failure.Transient(err)
	}
	if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
		return 0, failure.Transient(err)
	}

	return int(count) - 1, nil
}

// CurrentExpected reads the next index allowed to commit. A missing key
// means no chunk has committed yet: expected is 0.
func (r *sequencerRepository) CurrentExpected(ctx context.Context, sessionID string) (int, error) {
	key := sessionKey(sessionID, suffixNextChunk)

	val, err := r.rdb.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, failure.Transient(err)
	}

	return val, nil
}

func (r *sequencerRepository) Advance(ctx context.Context, sessionID string) (int, error) {
	key := sessionKey(sessionID, suffixNextChunk)

	next, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, failure.Transient(err)
	}
	if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
		return 0, failure.Transient(err)
	}

	return int(next), nil
}
