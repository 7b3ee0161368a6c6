package memory

import (
	"context"
	"sync"
	"time"

	"clinical-scribe-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// SequencerRepository is the in-process counterpart of the Redis
// sequencer. A single mutex guards both counters so AssignTicket and
// Advance stay atomic under concurrent callers, same as INCR.
type SequencerRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

type sequencerState struct {
	assigned int // total tickets handed out
	expected int // next ticket allowed to commit
}

func NewSequencerRepository(ttl time.Duration) contract.SequencerRepository {
	return &SequencerRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SequencerRepository) state(sessionID string) *sequencerState {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*sequencerState)
	}
	s := &sequencerState{}
	r.cache.Set(sessionID, s, cache.DefaultExpiration)
	return s
}

func (r *SequencerRepository) AssignTicket(_ context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state(sessionID)
	ticket := s.assigned
	s.assigned++
	r.cache.Set(sessionID, s, cache.DefaultExpiration)
	return ticket, nil
}

func (r *SequencerRepository) CurrentExpected(_ context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state(sessionID).expected, nil
}

func (r *SequencerRepository) Advance(_ context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state(sessionID)
	s.expected++
	r.cache.Set(sessionID, s, cache.DefaultExpiration)
	return s.expected, nil
}
