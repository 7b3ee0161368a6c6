package entity

import "time"

// NotificationKind separates routine quality warnings (yellow/toast in the
// UI) from clinical safety alerts (red/modal).
type NotificationKind string

const (
	KindWarning     NotificationKind = "warning"
	KindSafetyAlert NotificationKind = "safety_alert"
)

// Notification is the quality-check output attached to one chunk. Stored
// per kind in a per-session map keyed by chunk index; reads never consume.
type Notification struct {
	ChunkIndex int       `json:"chunk_index"`
	Timestamp  time.Time `json:"timestamp"`
	Messages   []string  `json:"messages"`
}
