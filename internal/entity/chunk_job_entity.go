package entity

import "time"

// ChunkJob is one unit of pipeline work: an uploaded audio chunk together
// with the ticket it was assigned at ingest time. Job identity is
// (SessionID, ChunkIndex); the sequencer guarantees at most one job per
// index ever commits.
type ChunkJob struct {
	SessionID   string    `json:"session_id"`
	ChunkIndex  int       `json:"chunk_index"`
	AudioPath   string    `json:"audio_path"`
	IsLastChunk bool      `json:"is_last_chunk"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// ChunkStatus is the outcome of one pipeline attempt.
type ChunkStatus string

const (
	// StatusCommitted: the chunk was on-turn and its effects are persisted.
	StatusCommitted ChunkStatus = "committed"
	// StatusBuffered: the chunk arrived ahead of its turn and was parked.
	StatusBuffered ChunkStatus = "buffered"
	// StatusSkipped: duplicate or stale delivery, no effects applied.
	StatusSkipped ChunkStatus = "skipped"
	// StatusFailed: retries exhausted, the chunk's contribution is lost.
	StatusFailed ChunkStatus = "failed"
)

// ChunkResult is what a pipeline run reports back to the queue handler.
// Note is populated only for committed runs.
type ChunkResult struct {
	Status     ChunkStatus `json:"status"`
	Reason     string      `json:"reason,omitempty"`
	SessionID  string      `json:"session_id"`
	ChunkIndex int         `json:"chunk_index"`
	Note       *SOAPNote   `json:"note,omitempty"`
}
