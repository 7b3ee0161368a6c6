package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/serverutils"
	"clinical-scribe-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
)

type ISessionService interface {
	GetNote(ctx context.Context, sessionID string) (*dto.NoteResponse, error)
	GetTranscript(ctx context.Context, sessionID string) (*dto.TranscriptResponse, error)
	// GetNotifications returns warnings and safety alerts, for one chunk
	// when chunkIndex is non-nil or the whole session otherwise. Reads
	// are non-destructive; polling twice returns the same entries.
	GetNotifications(ctx context.Context, sessionID string, chunkIndex *int) (*dto.NotificationsResponse, error)
	GetMetrics(ctx context.Context, sessionID string) (*dto.MetricsResponse, error)
	// StopSession publishes the finalize event. Archiving and teardown
	// happen asynchronously in the archive consumer.
	StopSession(ctx context.Context, sessionID string) (*dto.StopSessionResponse, error)
}

type sessionService struct {
	sessionRepo      contract.SessionRepository
	documentRepo     contract.DocumentRepository
	conversationRepo contract.ConversationRepository
	notificationRepo contract.NotificationRepository
	metricsRepo      contract.MetricsRepository

	pubSub        *gochannel.GoChannel
	finalizeTopic string
}

func NewSessionService(
	sessionRepo contract.SessionRepository,
	documentRepo contract.DocumentRepository,
	conversationRepo contract.ConversationRepository,
	notificationRepo contract.NotificationRepository,
	metricsRepo contract.MetricsRepository,
	pubSub *gochannel.GoChannel,
	finalizeTopic string,
) ISessionService {
	return &sessionService{
		sessionRepo:      sessionRepo,
		documentRepo:     documentRepo,
		conversationRepo: conversationRepo,
		notificationRepo: notificationRepo,
		metricsRepo:      metricsRepo,
		pubSub:           pubSub,
		finalizeTopic:    finalizeTopic,
	}
}

func (s *sessionService) GetNote(ctx context.Context, sessionID string) (*dto.NoteResponse, error) {
	note, err := s.documentRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		// A session with no committed chunks has an empty note, not a 404:
		// the frontend polls this endpoint from the first upload.
		note = entity.NewSOAPNote()
	}

	return &dto.NoteResponse{SessionID: sessionID, Note: note}, nil
}

func (s *sessionService) GetTranscript(ctx context.Context, sessionID string) (*dto.TranscriptResponse, error) {
	segments, err := s.conversationRepo.Segments(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &dto.TranscriptResponse{SessionID: sessionID, Segments: segments}, nil
}

func (s *sessionService) GetNotifications(ctx context.Context, sessionID string, chunkIndex *int) (*dto.NotificationsResponse, error) {
	warnings, err := s.notificationRepo.Get(ctx, sessionID, entity.KindWarning, chunkIndex)
	if err != nil {
		return nil, err
	}
	alerts, err := s.notificationRepo.Get(ctx, sessionID, entity.KindSafetyAlert, chunkIndex)
	if err != nil {
		return nil, err
	}

	return &dto.NotificationsResponse{
		SessionID:    sessionID,
		Warnings:     warnings,
		SafetyAlerts: alerts,
	}, nil
}

func (s *sessionService) GetMetrics(ctx context.Context, sessionID string) (*dto.MetricsResponse, error) {
	metrics, err := s.metricsRepo.GetAll(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &dto.MetricsResponse{SessionID: sessionID, Metrics: metrics}, nil
}

func (s *sessionService) StopSession(ctx context.Context, sessionID string) (*dto.StopSessionResponse, error) {
	exists, err := s.sessionRepo.Exists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, serverutils.NewHttpError(fiber.StatusNotFound, fmt.Sprintf("session %s not found", sessionID))
	}

	payload, err := json.Marshal(dto.SessionFinalizeMessage{
		SessionID: sessionID,
		StoppedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(s.finalizeTopic, msg); err != nil {
		return nil, fmt.Errorf("publish finalize event: %w", err)
	}

	log.Printf("[INFO] Session %s stop requested, finalize event published", sessionID)

	return &dto.StopSessionResponse{SessionID: sessionID, Status: "finalizing"}, nil
}
