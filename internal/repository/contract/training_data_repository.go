package contract

import (
	"context"

	"clinical-scribe-be/internal/entity"
)

// TrainingDataRepository persists human-feedback samples for later
// fine-tuning runs. SFT records are direct supervision targets; DPO
// records are preference pairs where the edit distance puts the sample
// in the preference zone.
type TrainingDataRepository interface {
	AppendSFT(ctx context.Context, record *entity.TrainingRecord) error
	AppendDPO(ctx context.Context, record *entity.TrainingRecord) error
}
