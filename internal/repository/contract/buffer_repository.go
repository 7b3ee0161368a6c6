package contract

import (
	"context"

	"clinical-scribe-be/internal/entity"
)

// BufferRepository parks jobs that arrived ahead of their turn so workers
// are never blocked waiting. Entries share the session TTL: a chunk whose
// predecessor permanently failed expires with the session instead of
// leaking.
type BufferRepository interface {
	// Save upserts the job under (session, chunk index) and refreshes TTL.
	Save(ctx context.Context, job *entity.ChunkJob) error

	// Get returns the buffered job, or nil when absent. O(1).
	Get(ctx context.Context, sessionID string, chunkIndex int) (*entity.ChunkJob, error)

	// Delete removes the entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, sessionID string, chunkIndex int) error
}
