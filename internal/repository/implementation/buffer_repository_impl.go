package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/failure"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

// bufferRepository keeps out-of-turn jobs in a hash keyed by chunk index,
// one hash per session. Exact lookups are O(1).
type bufferRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBufferRepository(rdb *redis.Client, ttl time.Duration) contract.BufferRepository {
	return &bufferRepository{rdb: rdb, ttl: ttl}
}

func (r *bufferRepository) Save(ctx context.Context, job *entity.ChunkJob) error {
	key := sessionKey(job.SessionID, suffixBuffer)

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err := r.rdb.HSet(ctx, key, strconv.Itoa(job.ChunkIndex), data).Err(); err != nil {
		return failure.Transient(err)
	}
	if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
		return failure.Transient(err)
	}

	return nil
}

func (r *bufferRepository) Get(ctx context.Context, sessionID string, chunkIndex int) (*entity.ChunkJob, error) {
	key := sessionKey(sessionID, suffixBuffer)

	raw, err := r.rdb.HGet(ctx, key, strconv.Itoa(chunkIndex)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, failure.Transient(err)
	}

	var job entity.ChunkJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, err
	}

	return &job, nil
}

func (r *bufferRepository) Delete(ctx context.Context, sessionID string, chunkIndex int) error {
	key := sessionKey(sessionID, suffixBuffer)

	if err := r.rdb.HDel(ctx, key, strconv.Itoa(chunkIndex)).Err(); err != nil {
		return failure.Transient(err)
	}
	return nil
}
