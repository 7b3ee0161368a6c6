package contract

import (
	"context"

	"clinical-scribe-be/internal/model"
)

// ArchiveRepository persists finished sessions to long-term storage.
type ArchiveRepository interface {
	Save(ctx context.Context, archive *model.SessionArchive) error
	FindBySessionID(ctx context.Context, sessionID string) (*model.SessionArchive, error)
}
