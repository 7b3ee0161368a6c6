package contract

import (
	"context"

	"clinical-scribe-be/internal/entity"
)

// ConversationRepository stores the session's dialogue state. Turns feed
// the delta generator; segments feed the frontend transcript view. Append
// order equals chunk order because only the on-turn worker appends.
type ConversationRepository interface {
	// AppendChunk appends one chunk's turns and segments to the session
	// history. Idempotent per chunk index: the queue redelivers jobs, and
	// a retried attempt whose first try already appended must not write
	// the same utterances twice.
	AppendChunk(ctx context.Context, sessionID string, chunkIndex int, turns []entity.DialogueTurn, segments []entity.SegmentInfo) error

	History(ctx context.Context, sessionID string) ([]entity.DialogueTurn, error)

	Segments(ctx context.Context, sessionID string) ([]entity.SegmentInfo, error)
}
