package implementation

import (
	"context"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/failure"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

type sessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) contract.SessionRepository {
	return &sessionRepository{rdb: rdb, ttl: ttl}
}

func (r *sessionRepository) Create(ctx context.Context, sessionID string, meta entity.SessionMetadata) error {
	key := sessionKey(sessionID, suffixMetadata)

	fields := map[string]interface{}{
		"doctor_id":     meta.DoctorID,
		"patient_ref":   meta.PatientRef,
		"session_start": meta.StartedAt.Format(time.RFC3339),
	}

	exists, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return failure.Transient(err)
	}

	// Re-ingesting into a live session only refreshes the TTL, so a later
	// chunk cannot rewrite who the session belongs to.
	if exists == 0 {
		if err := r.rdb.HSet(ctx, key, fields).Err(); err != nil {
			return failure.Transient(err)
		}
	}

	if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
		return failure.Transient(err)
	}

	return nil
}

func (r *sessionRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	key := sessionKey(sessionID, suffixMetadata)

	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, failure.Transient(err)
	}

	return n > 0, nil
}

func (r *sessionRepository) Metadata(ctx context.Context, sessionID string) (*entity.SessionMetadata, error) {
	key := sessionKey(sessionID, suffixMetadata)

	raw, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, failure.Transient(err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	meta := &entity.SessionMetadata{
		DoctorID:   raw["doctor_id"],
		PatientRef: raw["patient_ref"],
	}
	if ts, err := time.Parse(time.RFC3339, raw["session_start"]); err == nil {
		meta.StartedAt = ts
	}

	return meta, nil
}

// Clear wipes ALL data related to a session. SCAN finds every key under
// the session prefix instead of maintaining a hardcoded list.
func (r *sessionRepository) Clear(ctx context.Context, sessionID string) error {
	pattern := sessionKey(sessionID, "*")

	var keys []string
	iter := r.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return failure.Transient(err)
	}

	if len(keys) > 0 {
		if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
			return failure.Transient(err)
		}
	}

	return nil
}
