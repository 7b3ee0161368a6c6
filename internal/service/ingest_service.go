package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/repository/contract"
)

// ChunkEnqueuer hands a job to the work queue. Satisfied by
// pkg/queue.Publisher; tests use an in-memory fake.
type ChunkEnqueuer interface {
	EnqueueChunk(ctx context.Context, job *entity.ChunkJob) error
}

type IIngestService interface {
	// IngestChunk persists the uploaded audio, assigns the chunk its
	// ticket and enqueues the pipeline job. The returned chunk index is
	// the ticket; processing outcomes are never reflected here.
	IngestChunk(ctx context.Context, req *dto.IngestChunkRequest, audio io.Reader, filename string) (*dto.IngestChunkResponse, error)
}

type ingestService struct {
	sessionRepo   contract.SessionRepository
	sequencerRepo contract.SequencerRepository
	enqueuer      ChunkEnqueuer
	audioDir      string
}

func NewIngestService(
	sessionRepo contract.SessionRepository,
	sequencerRepo contract.SequencerRepository,
	enqueuer ChunkEnqueuer,
	audioDir string,
) IIngestService {
	return &ingestService{
		sessionRepo:   sessionRepo,
		sequencerRepo: sequencerRepo,
		enqueuer:      enqueuer,
		audioDir:      audioDir,
	}
}

func (s *ingestService) IngestChunk(ctx context.Context, req *dto.IngestChunkRequest, audio io.Reader, filename string) (*dto.IngestChunkResponse, error) {
	// Idempotent: only the first upload writes metadata, later ones
	// refresh the TTL.
	meta := entity.SessionMetadata{
		DoctorID:  req.DoctorID,
		StartedAt: time.Now().UTC(),
	}
	if req.PatientMRN != "" {
		// Only the hash is ever stored.
		meta.PatientRef = entity.HashPatientRef(req.PatientMRN)
	}
	if err := s.sessionRepo.Create(ctx, req.SessionID, meta); err != nil {
		return nil, fmt.Errorf("ensure session: %w", err)
	}

	// The ticket is assigned at upload time, before any processing, so
	// arrival order at this endpoint defines the timeline.
	ticket, err := s.sequencerRepo.AssignTicket(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("assign ticket: %w", err)
	}

	audioPath, err := s.saveAudio(req.SessionID, ticket, filename, audio)
	if err != nil {
		return nil, fmt.Errorf("save audio: %w", err)
	}

	job := &entity.ChunkJob{
		SessionID:   req.SessionID,
		ChunkIndex:  ticket,
		AudioPath:   audioPath,
		IsLastChunk: req.IsLastChunk,
		EnqueuedAt:  time.Now().UTC(),
	}
	if err := s.enqueuer.EnqueueChunk(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue chunk: %w", err)
	}

	log.Printf("[INFO] Ingested chunk %d for session %s (last: %v)", ticket, req.SessionID, req.IsLastChunk)

	return &dto.IngestChunkResponse{
		SessionID:  req.SessionID,
		ChunkIndex: ticket,
		Status:     "queued",
	}, nil
}

func (s *ingestService) saveAudio(sessionID string, chunkIndex int, filename string, audio io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".wav"
	}

	dir := filepath.Join(s.audioDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("chunk_%04d%s", chunkIndex, ext))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, audio); err != nil {
		return "", err
	}

	return path, nil
}
