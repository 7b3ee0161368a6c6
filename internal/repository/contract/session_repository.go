package contract

import (
	"context"

	"clinical-scribe-be/internal/entity"
)

// SessionRepository manages session metadata and teardown. All session
// state shares one TTL and is swept together on expiry or explicit close.
type SessionRepository interface {
	// Create writes metadata for a new session. Idempotent: re-creating
	// an existing session only refreshes its TTL.
	Create(ctx context.Context, sessionID string, meta entity.SessionMetadata) error

	// Exists reports whether the session is live. Jobs whose session is
	// gone degrade to skips.
	Exists(ctx context.Context, sessionID string) (bool, error)

	Metadata(ctx context.Context, sessionID string) (*entity.SessionMetadata, error)

	// Clear wipes every key belonging to the session.
	Clear(ctx context.Context, sessionID string) error
}
