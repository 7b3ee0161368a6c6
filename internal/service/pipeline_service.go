package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/repository/contract"
	"clinical-scribe-be/pkg/scribe"
)

type IPipelineService interface {
	// ProcessChunk runs one delivery of a chunk job through the state
	// machine: buffer if early, skip if stale, otherwise transcribe,
	// merge and advance. An error return means the attempt failed and
	// the queue decides between retry and abandonment.
	ProcessChunk(ctx context.Context, job *entity.ChunkJob) (*entity.ChunkResult, error)

	// AbandonChunk gives up on a chunk whose retry budget is spent. The
	// timeline advances past it so buffered successors are not wedged;
	// its contribution to the note is lost and counted.
	AbandonChunk(ctx context.Context, job *entity.ChunkJob, cause error) error
}

type pipelineService struct {
	sessionRepo      contract.SessionRepository
	sequencerRepo    contract.SequencerRepository
	bufferRepo       contract.BufferRepository
	conversationRepo contract.ConversationRepository
	documentRepo     contract.DocumentRepository
	notificationRepo contract.NotificationRepository
	metricsRepo      contract.MetricsRepository

	transcriber  scribe.Transcriber
	roleTagger   scribe.RoleTagger
	masker       scribe.Masker
	deltaGen     scribe.DeltaGenerator
	hallucinator scribe.HallucinationChecker
	safety       scribe.SafetyChecker

	enqueuer ChunkEnqueuer
}

type PipelineDeps struct {
	SessionRepo      contract.SessionRepository
	SequencerRepo    contract.SequencerRepository
	BufferRepo       contract.BufferRepository
	ConversationRepo contract.ConversationRepository
	DocumentRepo     contract.DocumentRepository
	NotificationRepo contract.NotificationRepository
	MetricsRepo      contract.MetricsRepository

	Transcriber          scribe.Transcriber
	RoleTagger           scribe.RoleTagger
	Masker               scribe.Masker
	DeltaGenerator       scribe.DeltaGenerator
	HallucinationChecker scribe.HallucinationChecker
	SafetyChecker        scribe.SafetyChecker

	Enqueuer ChunkEnqueuer
}

func NewPipelineService(deps PipelineDeps) IPipelineService {
	return &pipelineService{
		sessionRepo:      deps.SessionRepo,
		sequencerRepo:    deps.SequencerRepo,
		bufferRepo:       deps.BufferRepo,
		conversationRepo: deps.ConversationRepo,
		documentRepo:     deps.DocumentRepo,
		notificationRepo: deps.NotificationRepo,
		metricsRepo:      deps.MetricsRepo,
		transcriber:      deps.Transcriber,
		roleTagger:       deps.RoleTagger,
		masker:           deps.Masker,
		deltaGen:         deps.DeltaGenerator,
		hallucinator:     deps.HallucinationChecker,
		safety:           deps.SafetyChecker,
		enqueuer:         deps.Enqueuer,
	}
}

func (s *pipelineService) ProcessChunk(ctx context.Context, job *entity.ChunkJob) (*entity.ChunkResult, error) {
	exists, err := s.sessionRepo.Exists(ctx, job.SessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		// TTL expiry raced the job. Nothing left to contribute to.
		log.Printf("[WARN] Session %s is gone, skipping chunk %d", job.SessionID, job.ChunkIndex)
		s.removeAudio(job)
		return s.result(job, entity.StatusSkipped, "session expired", nil), nil
	}

	expected, err := s.sequencerRepo.CurrentExpected(ctx, job.SessionID)
	if err != nil {
		return nil, err
	}

	if job.ChunkIndex > expected {
		if err := s.bufferRepo.Save(ctx, job); err != nil {
			return nil, err
		}
		log.Printf("[INFO] Chunk %d of session %s ahead of expected %d, buffered", job.ChunkIndex, job.SessionID, expected)
		return s.result(job, entity.StatusBuffered, fmt.Sprintf("waiting for chunk %d", expected), nil), nil
	}

	if job.ChunkIndex < expected {
		// Duplicate delivery or a chunk the timeline already moved past.
		log.Printf("[INFO] Chunk %d of session %s is stale (expected %d), skipping", job.ChunkIndex, job.SessionID, expected)
		s.removeAudio(job)
		return s.result(job, entity.StatusSkipped, "stale or duplicate", nil), nil
	}

	return s.commit(ctx, job)
}

// commit runs the on-turn path. Any error before Advance leaves the
// expected index untouched, so a retry of the same chunk is still
// on-turn.
func (s *pipelineService) commit(ctx context.Context, job *entity.ChunkJob) (*entity.ChunkResult, error) {
	transcription, err := s.transcriber.Transcribe(ctx, job.AudioPath, job.ChunkIndex)
	if err != nil {
		return nil, fmt.Errorf("transcribe chunk %d: %w", job.ChunkIndex, err)
	}

	// Silence still occupies its slot in the timeline: advance and drain
	// so successors are not stuck behind an empty chunk.
	if len(transcription.Turns) == 0 {
		log.Printf("[INFO] Chunk %d of session %s is silent, advancing without merge", job.ChunkIndex, job.SessionID)
		return s.finish(ctx, job, nil)
	}

	turns, err := s.roleTagger.AssignRoles(ctx, transcription.Turns)
	if err != nil {
		return nil, fmt.Errorf("assign roles for chunk %d: %w", job.ChunkIndex, err)
	}
	turns = s.masker.MaskTurns(turns)

	if err := s.conversationRepo.AppendChunk(ctx, job.SessionID, job.ChunkIndex, turns, transcription.Segments); err != nil {
		return nil, err
	}

	// Both are re-read from the store on every turn. Only the expected
	// chunk's worker runs this path, so the reads see every earlier
	// chunk's writes.
	history, err := s.conversationRepo.History(ctx, job.SessionID)
	if err != nil {
		return nil, err
	}
	current, err := s.documentRepo.Get(ctx, job.SessionID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = entity.NewSOAPNote()
	}

	delta, err := s.deltaGen.GenerateDelta(ctx, history, current, job.ChunkIndex)
	if err != nil {
		return nil, fmt.Errorf("generate delta for chunk %d: %w", job.ChunkIndex, err)
	}

	merged := current.Clone()
	merged.Merge(delta)
	if err := s.documentRepo.Save(ctx, job.SessionID, merged); err != nil {
		return nil, err
	}

	s.runQualityChecks(ctx, job, turns, delta)

	return s.finish(ctx, job, merged)
}

// runQualityChecks is best-effort: the merge is already persisted, and a
// failed ledger write must not fail the chunk and cause a re-merge.
func (s *pipelineService) runQualityChecks(ctx context.Context, job *entity.ChunkJob, turns []entity.DialogueTurn, delta *entity.SOAPNote) {
	now := time.Now().UTC()

	if warnings := s.hallucinator.Check(turns, delta); len(warnings) > 0 {
		n := entity.Notification{ChunkIndex: job.ChunkIndex, Timestamp: now, Messages: warnings}
		if err := s.notificationRepo.Add(ctx, job.SessionID, entity.KindWarning, n); err != nil {
			log.Printf("[ERROR] Failed to record warnings for chunk %d: %v", job.ChunkIndex, err)
		}
		if err := s.metricsRepo.IncrBy(ctx, job.SessionID, contract.MetricWarningCount, int64(len(warnings))); err != nil {
			log.Printf("[ERROR] Failed to count warnings for chunk %d: %v", job.ChunkIndex, err)
		}
	}

	if alerts := s.safety.Check(delta); len(alerts) > 0 {
		n := entity.Notification{ChunkIndex: job.ChunkIndex, Timestamp: now, Messages: alerts}
		if err := s.notificationRepo.Add(ctx, job.SessionID, entity.KindSafetyAlert, n); err != nil {
			log.Printf("[ERROR] Failed to record safety alerts for chunk %d: %v", job.ChunkIndex, err)
		}
		if err := s.metricsRepo.IncrBy(ctx, job.SessionID, contract.MetricSafetyAlertCount, int64(len(alerts))); err != nil {
			log.Printf("[ERROR] Failed to count safety alerts for chunk %d: %v", job.ChunkIndex, err)
		}
	}
}

// finish advances the timeline past the committed chunk, records metrics
// and unblocks a buffered successor. note is nil for silent chunks; the
// current document is returned so callers always see the live note.
func (s *pipelineService) finish(ctx context.Context, job *entity.ChunkJob, note *entity.SOAPNote) (*entity.ChunkResult, error) {
	if err := s.metricsRepo.IncrBy(ctx, job.SessionID, contract.MetricChunksProcessed, 1); err != nil {
		log.Printf("[ERROR] Failed to count processed chunk %d: %v", job.ChunkIndex, err)
	}

	if job.IsLastChunk {
		latency := float64(time.Since(job.EnqueuedAt).Milliseconds())
		if err := s.metricsRepo.IncrByFloat(ctx, job.SessionID, contract.MetricFinalLatencyMs, latency); err != nil {
			log.Printf("[ERROR] Failed to record final latency: %v", err)
		}
	}

	if err := s.advanceAndDrain(ctx, job.SessionID); err != nil {
		return nil, err
	}

	// The chunk is committed; its audio has no further use.
	s.removeAudio(job)

	if note == nil {
		current, err := s.documentRepo.Get(ctx, job.SessionID)
		if err == nil && current != nil {
			note = current
		} else {
			note = entity.NewSOAPNote()
		}
	}

	log.Printf("[INFO] Chunk %d of session %s committed", job.ChunkIndex, job.SessionID)
	return s.result(job, entity.StatusCommitted, "", note), nil
}

func (s *pipelineService) AbandonChunk(ctx context.Context, job *entity.ChunkJob, cause error) error {
	expected, err := s.sequencerRepo.CurrentExpected(ctx, job.SessionID)
	if err != nil {
		return err
	}
	if expected != job.ChunkIndex {
		// Another delivery of this chunk already advanced, or the chunk
		// was never on-turn. Advancing here would skip a live chunk.
		log.Printf("[WARN] Not abandoning chunk %d of session %s: expected index is %d", job.ChunkIndex, job.SessionID, expected)
		return nil
	}

	log.Printf("[ERROR] Abandoning chunk %d of session %s, its content is lost: %v", job.ChunkIndex, job.SessionID, cause)

	s.removeAudio(job)

	if err := s.metricsRepo.IncrBy(ctx, job.SessionID, contract.MetricFailedChunks, 1); err != nil {
		log.Printf("[ERROR] Failed to count failed chunk %d: %v", job.ChunkIndex, err)
	}

	// Successors buffered behind the dead chunk must still run.
	return s.advanceAndDrain(ctx, job.SessionID)
}

// advanceAndDrain moves the expected index forward and re-enqueues the
// buffered chunk now at the front, if any. Draining one at a time is
// enough: the re-enqueued chunk drains the next when it commits.
func (s *pipelineService) advanceAndDrain(ctx context.Context, sessionID string) error {
	next, err := s.sequencerRepo.Advance(ctx, sessionID)
	if err != nil {
		return err
	}

	buffered, err := s.bufferRepo.Get(ctx, sessionID, next)
	if err != nil {
		return err
	}
	if buffered == nil {
		return nil
	}

	if err := s.bufferRepo.Delete(ctx, sessionID, next); err != nil {
		return err
	}
	if err := s.enqueuer.EnqueueChunk(ctx, buffered); err != nil {
		return fmt.Errorf("re-enqueue buffered chunk %d: %w", next, err)
	}

	log.Printf("[INFO] Unblocked buffered chunk %d of session %s", next, sessionID)
	return nil
}

// removeAudio deletes the chunk's audio file once the chunk can never be
// processed again. Buffered jobs keep their file until replay.
func (s *pipelineService) removeAudio(job *entity.ChunkJob) {
	if job.AudioPath == "" {
		return
	}
	if err := os.Remove(job.AudioPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[WARN] Failed to remove audio for chunk %d of session %s: %v", job.ChunkIndex, job.SessionID, err)
	}
}

func (s *pipelineService) result(job *entity.ChunkJob, status entity.ChunkStatus, reason string, note *entity.SOAPNote) *entity.ChunkResult {
	return &entity.ChunkResult{
		Status:     status,
		Reason:     reason,
		SessionID:  job.SessionID,
		ChunkIndex: job.ChunkIndex,
		Note:       note,
	}
}
