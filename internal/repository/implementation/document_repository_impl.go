package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/failure"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

type documentRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDocumentRepository(rdb *redis.Client, ttl time.Duration) contract.DocumentRepository {
	return &documentRepository{rdb: rdb, ttl: ttl}
}

func (r *documentRepository) Get(ctx context.Context, sessionID string) (*entity.SOAPNote, error) {
	key := sessionKey(sessionID, suffixSoap)

	data, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, failure.Transient(err)
	}

	var note entity.SOAPNote
	if err := json.Unmarshal([]byte(data), &note); err != nil {
		return nil, err
	}

	return &note, nil
}

func (r *documentRepository) Save(ctx context.Context, sessionID string, note *entity.SOAPNote) error {
	key := sessionKey(sessionID, suffixSoap)

	data, err := json.Marshal(note)
	if err != nil {
		return err
	}

	if err := r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return failure.Transient(err)
	}

	return nil
}

func (r *documentRepository) SaveDraft(ctx context.Context, sessionID, docType, text string) error {
	key := sessionKey(sessionID, draftSuffix(docType))

	if err := r.rdb.Set(ctx, key, text, r.ttl).Err(); err != nil {
		return failure.Transient(err)
	}

	return nil
}

func (r *documentRepository) GetDraft(ctx context.Context, sessionID, docType string) (string, error) {
	key := sessionKey(sessionID, draftSuffix(docType))

	text, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", failure.Transient(err)
	}

	return text, nil
}
