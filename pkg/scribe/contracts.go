// Package scribe holds the external collaborators of the chunk pipeline:
// speech-to-text, role tagging, PII masking, note delta generation and the
// post-merge quality checkers. The pipeline depends only on the interfaces
// here; tests swap in fakes.
package scribe

import (
	"context"

	"clinical-scribe-be/internal/entity"
)

// Transcription is the dual output of speech-to-text: turns feed the LLM
// stages, segments carry word-level confidence for the transcript UI.
type Transcription struct {
	Turns    []entity.DialogueTurn
	Segments []entity.SegmentInfo
}

// Transcriber converts one audio chunk into dialogue. A silent chunk
// yields an empty Transcription and a nil error.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, chunkIndex int) (*Transcription, error)
}

// RoleTagger replaces unassigned speaker labels with semantic roles.
// Output is 1:1 and order-preserving with the input; turns the tagger
// cannot place get RoleUnknown, never an error.
type RoleTagger interface {
	AssignRoles(ctx context.Context, turns []entity.DialogueTurn) ([]entity.DialogueTurn, error)
}

// Masker redacts identifying information from turn content before it
// reaches any model or store. Count and order preserving.
type Masker interface {
	MaskTurns(turns []entity.DialogueTurn) []entity.DialogueTurn
}

// DeltaGenerator produces the new SOAP statements implied by the latest
// chunk, given the full masked history and the current note. Items in the
// delta are stamped with chunkIndex. An unparseable model response yields
// an empty delta, not an error: a bad generation must not wedge the
// session.
type DeltaGenerator interface {
	GenerateDelta(ctx context.Context, history []entity.DialogueTurn, current *entity.SOAPNote, chunkIndex int) (*entity.SOAPNote, error)
}

// HallucinationChecker flags delta content not grounded in what was
// actually said. Returns human-readable warnings, empty when clean.
type HallucinationChecker interface {
	Check(turns []entity.DialogueTurn, delta *entity.SOAPNote) []string
}

// SafetyChecker scans the delta's plan for clinically dangerous content,
// such as dosages over the daily limit. Returns alert messages.
type SafetyChecker interface {
	Check(delta *entity.SOAPNote) []string
}
