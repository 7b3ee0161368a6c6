package service

import (
	"context"
	"fmt"
	"log"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/pkg/serverutils"
	"clinical-scribe-be/internal/repository/contract"
	"clinical-scribe-be/pkg/scribe"

	"github.com/gofiber/fiber/v2"
)

type IDraftService interface {
	// GenerateDocument writes a derived document (referral letter or
	// medical certificate) from the session's dialogue and SOAP note,
	// stores the draft and returns it. The SOAP note itself is never
	// modified.
	GenerateDocument(ctx context.Context, sessionID, docType string) (*dto.DraftResponse, error)

	// GetDocument returns the stored draft for the type.
	GetDocument(ctx context.Context, sessionID, docType string) (*dto.DraftResponse, error)
}

type draftService struct {
	documentRepo     contract.DocumentRepository
	conversationRepo contract.ConversationRepository
	drafter          scribe.DocumentDrafter
}

func NewDraftService(
	documentRepo contract.DocumentRepository,
	conversationRepo contract.ConversationRepository,
	drafter scribe.DocumentDrafter,
) IDraftService {
	return &draftService{
		documentRepo:     documentRepo,
		conversationRepo: conversationRepo,
		drafter:          drafter,
	}
}

func (s *draftService) GenerateDocument(ctx context.Context, sessionID, docType string) (*dto.DraftResponse, error) {
	parsed, err := scribe.ParseDocumentType(docType)
	if err != nil {
		return nil, serverutils.NewHttpError(fiber.StatusBadRequest, err.Error())
	}

	note, err := s.documentRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if note == nil || note.IsEmpty() {
		return nil, serverutils.NewHttpError(fiber.StatusBadRequest, "no SOAP note found, complete the consultation first")
	}

	history, err := s.conversationRepo.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] Generating %s for session %s", parsed, sessionID)

	content, err := s.drafter.Draft(ctx, parsed, history, note)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", parsed, err)
	}

	// Kept so feedback can recover what the model originally produced.
	if err := s.documentRepo.SaveDraft(ctx, sessionID, string(parsed), content); err != nil {
		return nil, err
	}

	return &dto.DraftResponse{
		SessionID:    sessionID,
		DocumentType: string(parsed),
		Content:      content,
	}, nil
}

func (s *draftService) GetDocument(ctx context.Context, sessionID, docType string) (*dto.DraftResponse, error) {
	parsed, err := scribe.ParseDocumentType(docType)
	if err != nil {
		return nil, serverutils.NewHttpError(fiber.StatusBadRequest, err.Error())
	}

	content, err := s.documentRepo.GetDraft(ctx, sessionID, string(parsed))
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, serverutils.NewHttpError(fiber.StatusNotFound, fmt.Sprintf("no %s draft for session %s", parsed, sessionID))
	}

	return &dto.DraftResponse{
		SessionID:    sessionID,
		DocumentType: string(parsed),
		Content:      content,
	}, nil
}
