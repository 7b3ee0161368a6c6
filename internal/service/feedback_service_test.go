package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/repository/contract"
	"clinical-scribe-be/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedbackFixture struct {
	service   IFeedbackService
	documents contract.DocumentRepository
	metrics   contract.MetricsRepository
	training  *memory.TrainingDataRepository
	sessionID string
}

func newFeedbackFixture(t *testing.T) *feedbackFixture {
	t.Helper()

	documents := memory.NewDocumentRepository(time.Hour)
	conversations := memory.NewConversationRepository(time.Hour)
	metrics := memory.NewMetricsRepository(time.Hour)
	training := memory.NewTrainingDataRepository()

	sessionID := "session-feedback"
	ctx := context.Background()

	note := entity.NewSOAPNote()
	note.Assessment = append(note.Assessment, entity.NewSOAPItem("Viral upper respiratory infection", 0))
	require.NoError(t, documents.Save(ctx, sessionID, note))

	turns := []entity.DialogueTurn{
		{Role: "doctor", Content: "How long has the cough lasted?", ChunkIndex: 0},
	}
	require.NoError(t, conversations.AppendChunk(ctx, sessionID, 0, turns, nil))

	return &feedbackFixture{
		service:   NewFeedbackService(documents, conversations, metrics, training, "llama3"),
		documents: documents,
		metrics:   metrics,
		training:  training,
		sessionID: sessionID,
	}
}

func (f *feedbackFixture) saveDraft(t *testing.T, docType, content string) {
	t.Helper()
	require.NoError(t, f.documents.SaveDraft(context.Background(), f.sessionID, docType, content))
}

func TestAcceptFeedbackRoutesToSFT(t *testing.T) {
	f := newFeedbackFixture(t)
	ctx := context.Background()

	res, err := f.service.SubmitFeedback(ctx, &dto.FeedbackRequest{
		SessionID: f.sessionID,
		Action:    entity.FeedbackAccept,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Metrics)

	records := f.training.SFT()
	require.Len(t, records, 1)
	assert.Equal(t, "soap", records[0].TaskType)

	note, err := f.documents.Get(ctx, f.sessionID)
	require.NoError(t, err)
	raw, err := json.Marshal(note)
	require.NoError(t, err)
	assert.Equal(t, string(raw), records[0].Chosen)

	stats, err := f.metrics.GetAll(ctx, f.sessionID)
	require.NoError(t, err)
	assert.Equal(t, "1", stats[contract.MetricFeedbackCount])
	assert.Equal(t, "1", stats[contract.MetricAcceptCount])
}

func TestRejectFeedbackOnlyCountsStats(t *testing.T) {
	f := newFeedbackFixture(t)
	ctx := context.Background()

	res, err := f.service.SubmitFeedback(ctx, &dto.FeedbackRequest{
		SessionID: f.sessionID,
		Action:    entity.FeedbackReject,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.FeedbackReject, res.Action)

	assert.Empty(t, f.training.SFT())
	assert.Empty(t, f.training.DPO())

	stats, err := f.metrics.GetAll(ctx, f.sessionID)
	require.NoError(t, err)
	assert.Equal(t, "1", stats[contract.MetricRejectCount])
}

func TestLightEditRoutesToSFT(t *testing.T) {
	f := newFeedbackFixture(t)
	f.saveDraft(t, "referral", "aaaaaaaaaa")

	res, err := f.service.SubmitFeedback(context.Background(), &dto.FeedbackRequest{
		SessionID:     f.sessionID,
		TaskType:      "referral",
		Action:        entity.FeedbackEdit,
		EditedContent: "aaaaaaaaab",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Metrics)
	assert.Equal(t, 1, res.Metrics.Distance)
	assert.InDelta(t, 0.9, res.Metrics.Similarity, 1e-9)

	records := f.training.SFT()
	require.Len(t, records, 1)
	assert.Equal(t, "aaaaaaaaab", records[0].Chosen)
	assert.Equal(t, "aaaaaaaaaa", records[0].Rejected)
	assert.Empty(t, f.training.DPO())
}

func TestMediumEditRoutesToDPO(t *testing.T) {
	f := newFeedbackFixture(t)
	f.saveDraft(t, "referral", "aaaaaaaaaa")

	res, err := f.service.SubmitFeedback(context.Background(), &dto.FeedbackRequest{
		SessionID:     f.sessionID,
		TaskType:      "referral",
		Action:        entity.FeedbackEdit,
		EditedContent: "aaaaaaaabb",
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, res.Metrics.Similarity, 1e-9)

	require.Len(t, f.training.DPO(), 1)
	assert.Empty(t, f.training.SFT())
}

func TestRewriteEditRoutesToSFT(t *testing.T) {
	f := newFeedbackFixture(t)
	f.saveDraft(t, "referral", "aaaaaaaaaa")

	res, err := f.service.SubmitFeedback(context.Background(), &dto.FeedbackRequest{
		SessionID:     f.sessionID,
		TaskType:      "referral",
		Action:        entity.FeedbackEdit,
		EditedContent: "zzzzzzzzzz",
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.Metrics.Similarity, 1e-9)

	require.Len(t, f.training.SFT(), 1)
	assert.Empty(t, f.training.DPO())
}

func TestFeedbackMissingDraftFails(t *testing.T) {
	f := newFeedbackFixture(t)

	_, err := f.service.SubmitFeedback(context.Background(), &dto.FeedbackRequest{
		SessionID: f.sessionID,
		TaskType:  "certificate",
		Action:    entity.FeedbackAccept,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no certificate draft")
}
