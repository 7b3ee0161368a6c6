package memory

import (
	"context"
	"fmt"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type BufferRepository struct {
	cache *cache.Cache
}

func NewBufferRepository(ttl time.Duration) contract.BufferRepository {
	return &BufferRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func bufferKey(sessionID string, chunkIndex int) string {
	return fmt.Sprintf("%s:%d", sessionID, chunkIndex)
}

func (r *BufferRepository) Save(_ context.Context, job *entity.ChunkJob) error {
	r.cache.Set(bufferKey(job.SessionID, job.ChunkIndex), job, cache.DefaultExpiration)
	return nil
}

func (r *BufferRepository) Get(_ context.Context, sessionID string, chunkIndex int) (*entity.ChunkJob, error) {
	if x, found := r.cache.Get(bufferKey(sessionID, chunkIndex)); found {
		return x.(*entity.ChunkJob), nil
	}
	return nil, nil
}

func (r *BufferRepository) Delete(_ context.Context, sessionID string, chunkIndex int) error {
	r.cache.Delete(bufferKey(sessionID, chunkIndex))
	return nil
}
