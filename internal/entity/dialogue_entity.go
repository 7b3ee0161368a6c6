package entity

import "time"

// Role values a turn can carry. Transcription emits RoleUnassigned; the
// role tagger replaces it with a semantic label.
const (
	RoleUnassigned = "unassigned"
	RoleDoctor     = "doctor"
	RolePatient    = "patient"
	RoleUnknown    = "unknown"
)

// DialogueTurn is one utterance of the consultation. Turns are immutable
// once appended to the session history; history order equals chunk order.
type DialogueTurn struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	ChunkIndex int       `json:"chunk_index"`
	Timestamp  time.Time `json:"timestamp"`
}

// WordInfo carries per-word ASR confidence for UI highlighting.
type WordInfo struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// SegmentInfo is the rich transcript segment shown in the UI (red
// underlines for low-confidence words). Kept separate from DialogueTurn:
// turns feed the LLM, segments feed the frontend.
type SegmentInfo struct {
	ID            int        `json:"id"`
	Start         float64    `json:"start"`
	End           float64    `json:"end"`
	Text          string     `json:"text"`
	Speaker       string     `json:"speaker"`
	AvgConfidence float64    `json:"avg_confidence"`
	Words         []WordInfo `json:"words"`
}
