package model

import (
	"time"

	"gorm.io/datatypes"
)

// SessionArchive is the long-term record written to Postgres when a
// consultation is stopped. The live Redis state is cleared afterwards;
// this row is what the offline jobs (export, QA review) consume.
type SessionArchive struct {
	SessionID        string `gorm:"primaryKey"`
	DoctorID         string `gorm:"index"`
	PatientRef       string `gorm:"index"` // hashed MRN, never raw
	Note             datatypes.JSON
	Metrics          datatypes.JSON
	TurnCount        int
	WarningCount     int
	SafetyAlertCount int
	FailedChunkCount int
	StartedAt        time.Time
	StoppedAt        time.Time
	CreatedAt        time.Time
}
