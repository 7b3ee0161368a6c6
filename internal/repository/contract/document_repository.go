package contract

import (
	"context"

	"clinical-scribe-be/internal/entity"
)

// DocumentRepository persists the cumulative SOAP note. Save replaces the
// whole value; turn-taking guarantees a single writer per session, so no
// store-level locking is needed.
type DocumentRepository interface {
	// Get returns the current note, or nil when the session has none yet.
	Get(ctx context.Context, sessionID string) (*entity.SOAPNote, error)

	// Save overwrites the persisted note and refreshes the session TTL.
	Save(ctx context.Context, sessionID string, note *entity.SOAPNote) error

	// SaveDraft stores a plain-text derived document (referral letter,
	// certificate) under the session, keyed by type. Drafts share the
	// session TTL and are kept so feedback can recover what the model
	// originally produced.
	SaveDraft(ctx context.Context, sessionID, docType, text string) error

	// GetDraft returns the stored draft, or "" when none exists.
	GetDraft(ctx context.Context, sessionID, docType string) (string, error)
}
