package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SessionMetadata identifies one consultation. PatientRef stores only a
// truncated SHA-256 of the medical record number, never the raw value.
type SessionMetadata struct {
	DoctorID   string    `json:"doctor_id"`
	PatientRef string    `json:"patient_ref"`
	StartedAt  time.Time `json:"session_start"`
}

// HashPatientRef hashes an MRN for storage. 32 hex chars is plenty for a
// lookup key and keeps the raw identifier out of every store.
func HashPatientRef(mrn string) string {
	sum := sha256.Sum256([]byte(mrn))
	return hex.EncodeToString(sum[:])[:32]
}
