package memory

import (
	"context"
	"sync"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type ConversationRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

type conversationState struct {
	turns     []entity.DialogueTurn
	segments  []entity.SegmentInfo
	lastChunk int
}

func NewConversationRepository(ttl time.Duration) contract.ConversationRepository {
	return &ConversationRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *ConversationRepository) state(sessionID string) *conversationState {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*conversationState)
	}
	s := &conversationState{lastChunk: -1}
	r.cache.Set(sessionID, s, cache.DefaultExpiration)
	return s
}

func (r *ConversationRepository) AppendChunk(_ context.Context, sessionID string, chunkIndex int, turns []entity.DialogueTurn, segments []entity.SegmentInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state(sessionID)
	if s.lastChunk == chunkIndex {
		// A retried attempt already appended this chunk.
		return nil
	}

	s.turns = append(s.turns, turns...)
	s.segments = append(s.segments, segments...)
	s.lastChunk = chunkIndex
	r.cache.Set(sessionID, s, cache.DefaultExpiration)
	return nil
}

func (r *ConversationRepository) History(_ context.Context, sessionID string) ([]entity.DialogueTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state(sessionID)
	out := make([]entity.DialogueTurn, len(s.turns))
	copy(out, s.turns)
	return out, nil
}

func (r *ConversationRepository) Segments(_ context.Context, sessionID string) ([]entity.SegmentInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state(sessionID)
	out := make([]entity.SegmentInfo, len(s.segments))
	copy(out, s.segments)
	return out, nil
}
