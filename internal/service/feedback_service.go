package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/serverutils"
	"clinical-scribe-be/internal/repository/contract"
	"clinical-scribe-be/pkg/scribe"

	"github.com/agnivade/levenshtein"
	"github.com/gofiber/fiber/v2"
)

// Edits at least this similar to the model output are clean enough for
// direct supervision; anything between this and dpoFloor is a preference
// pair. Below the floor the edit is a rewrite and becomes supervision again.
const (
	sftSimilarityFloor = 0.9
	dpoSimilarityFloor = 0.7
)

type IFeedbackService interface {
	// SubmitFeedback records a clinician's verdict on a generated output,
	// updates the session's quality counters and routes edits into the
	// fine-tuning datasets. The stored note and drafts are never changed.
	SubmitFeedback(ctx context.Context, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error)
}

type feedbackService struct {
	documentRepo     contract.DocumentRepository
	conversationRepo contract.ConversationRepository
	metricsRepo      contract.MetricsRepository
	trainingRepo     contract.TrainingDataRepository
	modelID          string
}

func NewFeedbackService(
	documentRepo contract.DocumentRepository,
	conversationRepo contract.ConversationRepository,
	metricsRepo contract.MetricsRepository,
	trainingRepo contract.TrainingDataRepository,
	modelID string,
) IFeedbackService {
	return &feedbackService{
		documentRepo:     documentRepo,
		conversationRepo: conversationRepo,
		metricsRepo:      metricsRepo,
		trainingRepo:     trainingRepo,
		modelID:          modelID,
	}
}

func (s *feedbackService) SubmitFeedback(ctx context.Context, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error) {
	taskType := req.TaskType
	if taskType == "" {
		taskType = "soap"
	}

	original, noteJSON, err := s.originalOutput(ctx, req.SessionID, taskType)
	if err != nil {
		return nil, err
	}

	var metrics *entity.EditMetrics
	if req.Action == entity.FeedbackEdit {
		metrics = editMetrics(original, req.EditedContent)
	}

	if err := s.recordStats(ctx, req.SessionID, req.Action, metrics); err != nil {
		return nil, err
	}

	if req.Action == entity.FeedbackReject {
		log.Printf("[WARN] Output rejected for session %s (task %s)", req.SessionID, taskType)
		return &dto.FeedbackResponse{SessionID: req.SessionID, Action: req.Action}, nil
	}

	chosen := original
	if req.Action == entity.FeedbackEdit && req.EditedContent != "" {
		chosen = req.EditedContent
	}

	record := &entity.TrainingRecord{
		SessionID:    req.SessionID,
		ModelID:      s.modelID,
		TaskType:     taskType,
		Action:       req.Action,
		Timestamp:    time.Now().UTC(),
		InputContext: s.trainingContext(ctx, req.SessionID, taskType, noteJSON),
		Metrics:      metrics,
		Chosen:       chosen,
		Rejected:     original,
	}

	if err := s.routeRecord(ctx, record); err != nil {
		return nil, err
	}

	return &dto.FeedbackResponse{
		SessionID: req.SessionID,
		Action:    req.Action,
		Metrics:   metrics,
	}, nil
}

// originalOutput recovers what the model produced for the task, plus the
// note JSON when the task built on a finished note.
func (s *feedbackService) originalOutput(ctx context.Context, sessionID, taskType string) (string, string, error) {
	note, err := s.documentRepo.Get(ctx, sessionID)
	if err != nil {
		return "", "", err
	}

	if taskType == "soap" {
		if note == nil {
			return "", "", serverutils.NewHttpError(fiber.StatusNotFound, fmt.Sprintf("no SOAP note for session %s", sessionID))
		}
		raw, err := json.Marshal(note)
		if err != nil {
			return "", "", err
		}
		return string(raw), "None", nil
	}

	draft, err := s.documentRepo.GetDraft(ctx, sessionID, taskType)
	if err != nil {
		return "", "", err
	}
	if draft == "" {
		return "", "", serverutils.NewHttpError(fiber.StatusNotFound, fmt.Sprintf("no %s draft for session %s", taskType, sessionID))
	}

	noteJSON := "None"
	if note != nil {
		if raw, err := json.Marshal(note); err == nil {
			noteJSON = string(raw)
		}
	}
	return draft, noteJSON, nil
}

func (s *feedbackService) trainingContext(ctx context.Context, sessionID, taskType, noteJSON string) entity.TrainingContext {
	var lines []string
	history, err := s.conversationRepo.History(ctx, sessionID)
	if err != nil {
		log.Printf("[WARN] Could not load history for feedback on session %s: %v", sessionID, err)
	}
	for _, turn := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
	}

	return entity.TrainingContext{
		SystemPrompt: scribe.SystemPromptFor(taskType),
		History:      strings.Join(lines, "\n"),
		PreviousNote: noteJSON,
	}
}

func (s *feedbackService) recordStats(ctx context.Context, sessionID, action string, metrics *entity.EditMetrics) error {
	if err := s.metricsRepo.IncrBy(ctx, sessionID, contract.MetricFeedbackCount, 1); err != nil {
		return err
	}

	switch action {
	case entity.FeedbackAccept:
		return s.metricsRepo.IncrBy(ctx, sessionID, contract.MetricAcceptCount, 1)
	case entity.FeedbackReject:
		return s.metricsRepo.IncrBy(ctx, sessionID, contract.MetricRejectCount, 1)
	case entity.FeedbackEdit:
		if err := s.metricsRepo.IncrBy(ctx, sessionID, contract.MetricEditCount, 1); err != nil {
			return err
		}
		if metrics == nil {
			return nil
		}
		if err := s.metricsRepo.IncrByFloat(ctx, sessionID, contract.MetricTotalSimilarity, metrics.Similarity); err != nil {
			return err
		}
		return s.metricsRepo.IncrBy(ctx, sessionID, contract.MetricTotalEditDistance, int64(metrics.Distance))
	default:
		return serverutils.NewHttpError(fiber.StatusBadRequest, fmt.Sprintf("unknown feedback action %q", action))
	}
}

func (s *feedbackService) routeRecord(ctx context.Context, record *entity.TrainingRecord) error {
	if record.Action == entity.FeedbackAccept {
		log.Printf("[INFO] Feedback for session %s routed to SFT (accepted)", record.SessionID)
		return s.trainingRepo.AppendSFT(ctx, record)
	}

	sim := 0.0
	if record.Metrics != nil {
		sim = record.Metrics.Similarity
	}
	if sim >= sftSimilarityFloor || sim < dpoSimilarityFloor {
		log.Printf("[INFO] Feedback for session %s routed to SFT (similarity %.4f)", record.SessionID, sim)
		return s.trainingRepo.AppendSFT(ctx, record)
	}
	log.Printf("[INFO] Feedback for session %s routed to DPO (similarity %.4f)", record.SessionID, sim)
	return s.trainingRepo.AppendDPO(ctx, record)
}

// editMetrics measures how far the edit strays from the model output.
// Distance counts rune-level operations; similarity normalizes it against
// the longer side and rounds to four decimals.
func editMetrics(original, edited string) *entity.EditMetrics {
	if original == "" || edited == "" {
		return &entity.EditMetrics{}
	}

	distance := levenshtein.ComputeDistance(original, edited)
	maxLen := len([]rune(original))
	if l := len([]rune(edited)); l > maxLen {
		maxLen = l
	}
	similarity := 1 - float64(distance)/float64(maxLen)
	similarity = math.Round(similarity*10000) / 10000

	return &entity.EditMetrics{Distance: distance, Similarity: similarity}
}
