package memory

import (
	"context"
	"sync"

	"clinical-scribe-be/internal/entity"
)

// TrainingDataRepository collects feedback records in memory.
type TrainingDataRepository struct {
	mu  sync.Mutex
	sft []*entity.TrainingRecord
	dpo []*entity.TrainingRecord
}

func NewTrainingDataRepository() *TrainingDataRepository {
	return &TrainingDataRepository{}
}

func (r *TrainingDataRepository) AppendSFT(_ context.Context, record *entity.TrainingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sft = append(r.sft, record)
	return nil
}

func (r *TrainingDataRepository) AppendDPO(_ context.Context, record *entity.TrainingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dpo = append(r.dpo, record)
	return nil
}

func (r *TrainingDataRepository) SFT() []*entity.TrainingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.TrainingRecord, len(r.sft))
	copy(out, r.sft)
	return out
}

func (r *TrainingDataRepository) DPO() []*entity.TrainingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.TrainingRecord, len(r.dpo))
	copy(out, r.dpo)
	return out
}
