package dto

import (
	"time"

	"clinical-scribe-be/internal/entity"
)

type NoteResponse struct {
	SessionID string           `json:"session_id"`
	Note      *entity.SOAPNote `json:"note"`
}

type TranscriptResponse struct {
	SessionID string               `json:"session_id"`
	Segments  []entity.SegmentInfo `json:"segments"`
}

type NotificationsResponse struct {
	SessionID    string                `json:"session_id"`
	Warnings     []entity.Notification `json:"warnings"`
	SafetyAlerts []entity.Notification `json:"safety_alerts"`
}

type MetricsResponse struct {
	SessionID string            `json:"session_id"`
	Metrics   map[string]string `json:"metrics"`
}

type StopSessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// SessionFinalizeMessage travels over the in-process event bus from the
// stop endpoint to the archive consumer.
type SessionFinalizeMessage struct {
	SessionID string    `json:"session_id"`
	StoppedAt time.Time `json:"stopped_at"`
}
