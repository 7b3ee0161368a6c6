package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/repository/memory"
	"clinical-scribe-be/pkg/scribe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDrafter struct {
	lastHistory []entity.DialogueTurn
	err         error
}

func (f *fakeDrafter) Draft(_ context.Context, docType scribe.DocumentType, history []entity.DialogueTurn, _ *entity.SOAPNote) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastHistory = history
	return fmt.Sprintf("DRAFT %s", docType), nil
}

func newDraftFixture(t *testing.T) (IDraftService, *fakeDrafter, string) {
	t.Helper()

	documents := memory.NewDocumentRepository(time.Hour)
	conversations := memory.NewConversationRepository(time.Hour)
	drafter := &fakeDrafter{}

	sessionID := "session-draft"
	ctx := context.Background()

	note := entity.NewSOAPNote()
	note.Subjective = append(note.Subjective, entity.NewSOAPItem("Persistent cough for two weeks", 0))
	require.NoError(t, documents.Save(ctx, sessionID, note))

	turns := []entity.DialogueTurn{
		{Role: "patient", Content: "I have had this cough for two weeks.", ChunkIndex: 0},
	}
	require.NoError(t, conversations.AppendChunk(ctx, sessionID, 0, turns, nil))

	return NewDraftService(documents, conversations, drafter), drafter, sessionID
}

func TestGenerateDocumentStoresRetrievableDraft(t *testing.T) {
	svc, drafter, sessionID := newDraftFixture(t)
	ctx := context.Background()

	res, err := svc.GenerateDocument(ctx, sessionID, "referral")
	require.NoError(t, err)
	assert.Equal(t, "referral", res.DocumentType)
	assert.Equal(t, "DRAFT referral", res.Content)
	assert.Len(t, drafter.lastHistory, 1)

	stored, err := svc.GetDocument(ctx, sessionID, "referral")
	require.NoError(t, err)
	assert.Equal(t, res.Content, stored.Content)
}

func TestGenerateDocumentRequiresFinishedNote(t *testing.T) {
	documents := memory.NewDocumentRepository(time.Hour)
	conversations := memory.NewConversationRepository(time.Hour)
	svc := NewDraftService(documents, conversations, &fakeDrafter{})

	_, err := svc.GenerateDocument(context.Background(), "session-empty", "certificate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SOAP note")
}

func TestGenerateDocumentRejectsUnknownType(t *testing.T) {
	svc, _, sessionID := newDraftFixture(t)

	_, err := svc.GenerateDocument(context.Background(), sessionID, "invoice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown document type")
}

func TestGetDocumentMissingDraft(t *testing.T) {
	svc, _, sessionID := newDraftFixture(t)

	_, err := svc.GetDocument(context.Background(), sessionID, "certificate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no certificate draft")
}
