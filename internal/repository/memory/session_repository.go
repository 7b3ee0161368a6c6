package memory

import (
	"context"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) contract.SessionRepository {
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Create(_ context.Context, sessionID string, meta entity.SessionMetadata) error {
	if _, found := r.cache.Get(sessionID); found {
		return nil
	}
	r.cache.Set(sessionID, &meta, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Exists(_ context.Context, sessionID string) (bool, error) {
	_, found := r.cache.Get(sessionID)
	return found, nil
}

func (r *SessionRepository) Metadata(_ context.Context, sessionID string) (*entity.SessionMetadata, error) {
	if x, found := r.cache.Get(sessionID); found {
		meta := *x.(*entity.SessionMetadata)
		return &meta, nil
	}
	return nil, nil
}

func (r *SessionRepository) Clear(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}
