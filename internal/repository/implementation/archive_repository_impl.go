package implementation

import (
	"context"
	"errors"

	"clinical-scribe-be/internal/model"
	"clinical-scribe-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ArchiveRepositoryImpl struct {
	db *gorm.DB
}

func NewArchiveRepository(db *gorm.DB) contract.ArchiveRepository {
	return &ArchiveRepositoryImpl{db: db}
}

// Save upserts on session ID so a redelivered finalize message overwrites
// the earlier row instead of failing on the primary key.
func (r *ArchiveRepositoryImpl) Save(ctx context.Context, archive *model.SessionArchive) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			UpdateAll: true,
		}).
		Create(archive).Error
}

func (r *ArchiveRepositoryImpl) FindBySessionID(ctx context.Context, sessionID string) (*model.SessionArchive, error) {
	var archive model.SessionArchive
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&archive).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &archive, nil
}
