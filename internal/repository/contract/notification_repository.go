package contract

import (
	"context"

	"clinical-scribe-be/internal/entity"
)

// NotificationRepository is the per-session, per-chunk warning ledger.
// Reads are repeatable and non-destructive: polling clients can re-fetch
// after a refresh without losing previously surfaced warnings.
type NotificationRepository interface {
	// Add writes the chunk's notification for the given kind. Writing the
	// same chunk twice overwrites (should not happen in correct operation,
	// the store just allows it).
	Add(ctx context.Context, sessionID string, kind entity.NotificationKind, n entity.Notification) error

	// Get returns notifications for one chunk when chunkIndex is non-nil
	// (single O(1) lookup), or all of the session's entries for the kind
	// in one bulk read otherwise, sorted by chunk index.
	Get(ctx context.Context, sessionID string, kind entity.NotificationKind, chunkIndex *int) ([]entity.Notification, error)
}
