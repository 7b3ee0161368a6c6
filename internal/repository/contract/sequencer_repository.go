package contract

import "context"

// SequencerRepository is the ticketing protocol that serializes chunk
// effects without serializing chunk work. Counters live in the shared
// store as single-key atomic operations, so the same protocol is correct
// for one worker process or a fleet. Comparison is strict integer
// ordering on the ticket; no clocks are involved.
type SequencerRepository interface {
	// AssignTicket atomically increments the session's ingest counter and
	// returns the 0-based ticket. Called once per uploaded chunk, at
	// ingest time. Refreshes the session TTL.
	AssignTicket(ctx context.Context, sessionID string) (int, error)

	// CurrentExpected returns the next ticket allowed to commit its
	// effects. A session with no counter yet reads as 0.
	CurrentExpected(ctx context.Context, sessionID string) (int, error)

	// Advance atomically increments the expected index and returns the
	// new value. Called exactly once by the job that committed (or
	// terminally abandoned) the chunk at the old expected index.
	Advance(ctx context.Context, sessionID string) (int, error)
}
