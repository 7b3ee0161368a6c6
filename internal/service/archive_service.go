package service

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/model"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/datatypes"
)

type IArchiveService interface {
	Consume(ctx context.Context) error
}

// archiveService consumes session.finalize events: it flushes the live
// session state to the Postgres archive, then clears the Redis keys.
// Clearing only happens after a successful archive write, so a crash in
// between redelivers the event rather than losing the session.
type archiveService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	archiveRepo  contract.ArchiveRepository
	sessionRepo  contract.SessionRepository
	documentRepo contract.DocumentRepository
	convoRepo    contract.ConversationRepository
	metricsRepo  contract.MetricsRepository
}

func NewArchiveService(
	pubSub *gochannel.GoChannel,
	topicName string,
	archiveRepo contract.ArchiveRepository,
	sessionRepo contract.SessionRepository,
	documentRepo contract.DocumentRepository,
	convoRepo contract.ConversationRepository,
	metricsRepo contract.MetricsRepository,
) IArchiveService {
	return &archiveService{
		pubSub:       pubSub,
		topicName:    topicName,
		archiveRepo:  archiveRepo,
		sessionRepo:  sessionRepo,
		documentRepo: documentRepo,
		convoRepo:    convoRepo,
		metricsRepo:  metricsRepo,
	}
}

func (s *archiveService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *archiveService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SessionFinalizeMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal finalize message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Archiving session %s", payload.SessionID)

	meta, err := s.sessionRepo.Metadata(ctx, payload.SessionID)
	if err != nil {
		log.Printf("[ERROR] Failed to read metadata for session %s: %v", payload.SessionID, err)
		msg.Nack()
		return
	}
	if meta == nil {
		// Already archived or expired; nothing to flush.
		log.Printf("[WARN] Session %s has no metadata, skipping archive", payload.SessionID)
		msg.Ack()
		return
	}

	archive, err := s.buildArchive(ctx, payload, meta)
	if err != nil {
		log.Printf("[ERROR] Failed to assemble archive for session %s: %v", payload.SessionID, err)
		msg.Nack()
		return
	}

	if err := s.archiveRepo.Save(ctx, archive); err != nil {
		log.Printf("[ERROR] Failed to persist archive for session %s: %v", payload.SessionID, err)
		msg.Nack()
		return
	}

	if err := s.sessionRepo.Clear(ctx, payload.SessionID); err != nil {
		// The archive row exists; redelivery will retry the teardown and
		// the upsert makes the second Save harmless.
		log.Printf("[ERROR] Failed to clear session %s: %v", payload.SessionID, err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Session %s archived and cleared", payload.SessionID)
	msg.Ack()
}

func (s *archiveService) buildArchive(ctx context.Context, payload dto.SessionFinalizeMessage, meta *entity.SessionMetadata) (*model.SessionArchive, error) {
	note, err := s.documentRepo.Get(ctx, payload.SessionID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		note = entity.NewSOAPNote()
	}
	noteJSON, err := json.Marshal(note)
	if err != nil {
		return nil, err
	}

	metrics, err := s.metricsRepo.GetAll(ctx, payload.SessionID)
	if err != nil {
		return nil, err
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return nil, err
	}

	history, err := s.convoRepo.History(ctx, payload.SessionID)
	if err != nil {
		return nil, err
	}

	return &model.SessionArchive{
		SessionID:        payload.SessionID,
		DoctorID:         meta.DoctorID,
		PatientRef:       meta.PatientRef,
		Note:             datatypes.JSON(noteJSON),
		Metrics:          datatypes.JSON(metricsJSON),
		TurnCount:        len(history),
		WarningCount:     metricInt(metrics, contract.MetricWarningCount),
		SafetyAlertCount: metricInt(metrics, contract.MetricSafetyAlertCount),
		FailedChunkCount: metricInt(metrics, contract.MetricFailedChunks),
		StartedAt:        meta.StartedAt,
		StoppedAt:        payload.StoppedAt,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

func metricInt(metrics map[string]string, field string) int {
	n, err := strconv.Atoi(metrics[field])
	if err != nil {
		return 0
	}
	return n
}
