package memory

import (
	"context"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type DocumentRepository struct {
	cache *cache.Cache
}

func NewDocumentRepository(ttl time.Duration) contract.DocumentRepository {
	return &DocumentRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *DocumentRepository) Get(_ context.Context, sessionID string) (*entity.SOAPNote, error) {
	if x, found := r.cache.Get(sessionID); found {
		// Clone so callers cannot mutate the stored note in place.
		return x.(*entity.SOAPNote).Clone(), nil
	}
	return nil, nil
}

func (r *DocumentRepository) Save(_ context.Context, sessionID string, note *entity.SOAPNote) error {
	r.cache.Set(sessionID, note.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *DocumentRepository) SaveDraft(_ context.Context, sessionID, docType, text string) error {
	r.cache.Set(sessionID+":"+docType+":draft", text, cache.DefaultExpiration)
	return nil
}

func (r *DocumentRepository) GetDraft(_ context.Context, sessionID, docType string) (string, error) {
	if x, found := r.cache.Get(sessionID + ":" + docType + ":draft"); found {
		return x.(string), nil
	}
	return "", nil
}
