package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/failure"
	"clinical-scribe-be/internal/repository/contract"
	"clinical-scribe-be/internal/repository/memory"
	"clinical-scribe-be/pkg/scribe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fake collaborators ---

type fakeTranscriber struct {
	silent map[int]bool
	err    error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, chunkIndex int) (*scribe.Transcription, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.silent[chunkIndex] {
		return &scribe.Transcription{Turns: []entity.DialogueTurn{}, Segments: []entity.SegmentInfo{}}, nil
	}
	return &scribe.Transcription{
		Turns: []entity.DialogueTurn{{
			Role:       entity.RoleUnassigned,
			Content:    fmt.Sprintf("utterance from chunk %d", chunkIndex),
			ChunkIndex: chunkIndex,
			Timestamp:  time.Now(),
		}},
		Segments: []entity.SegmentInfo{{
			ID:   0,
			Text: fmt.Sprintf("utterance from chunk %d", chunkIndex),
		}},
	}, nil
}

type fakeRoleTagger struct{}

func (f *fakeRoleTagger) AssignRoles(_ context.Context, turns []entity.DialogueTurn) ([]entity.DialogueTurn, error) {
	out := make([]entity.DialogueTurn, len(turns))
	for i, turn := range turns {
		turn.Role = entity.RoleDoctor
		out[i] = turn
	}
	return out, nil
}

type fakeMasker struct{}

func (f *fakeMasker) MaskTurns(turns []entity.DialogueTurn) []entity.DialogueTurn {
	return turns
}

// fakeDeltaGen emits one subjective statement naming the last turn, so
// tests can trace which chunk produced which note item. failOnce makes
// exactly the next call fail, simulating a transient backend outage.
type fakeDeltaGen struct {
	err      error
	failOnce error
}

func (f *fakeDeltaGen) GenerateDelta(_ context.Context, history []entity.DialogueTurn, _ *entity.SOAPNote, chunkIndex int) (*entity.SOAPNote, error) {
	if f.failOnce != nil {
		err := f.failOnce
		f.failOnce = nil
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	delta := entity.NewSOAPNote()
	last := history[len(history)-1]
	delta.Subjective = append(delta.Subjective, entity.NewSOAPItem(last.Content, chunkIndex))
	return delta, nil
}

type fakeChecker struct {
	messages []string
}

func (f *fakeChecker) Check(_ []entity.DialogueTurn, _ *entity.SOAPNote) []string {
	return f.messages
}

type fakeSafetyChecker struct {
	messages []string
}

func (f *fakeSafetyChecker) Check(_ *entity.SOAPNote) []string {
	return f.messages
}

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []*entity.ChunkJob
}

func (f *fakeEnqueuer) EnqueueChunk(_ context.Context, job *entity.ChunkJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeEnqueuer) pop() *entity.ChunkJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.jobs) == 0 {
		return nil
	}
	job := f.jobs[0]
	f.jobs = f.jobs[1:]
	return job
}

// --- Test harness ---

type pipelineFixture struct {
	svc          IPipelineService
	sessions     contract.SessionRepository
	sequencer    contract.SequencerRepository
	buffer       contract.BufferRepository
	conversation contract.ConversationRepository
	documents    contract.DocumentRepository
	notifs       contract.NotificationRepository
	metrics      contract.MetricsRepository

	transcriber *fakeTranscriber
	deltaGen    *fakeDeltaGen
	checker     *fakeChecker
	safety      *fakeSafetyChecker
	enqueuer    *fakeEnqueuer
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	ttl := time.Hour

	f := &pipelineFixture{
		sessions:     memory.NewSessionRepository(ttl),
		sequencer:    memory.NewSequencerRepository(ttl),
		buffer:       memory.NewBufferRepository(ttl),
		conversation: memory.NewConversationRepository(ttl),
		documents:    memory.NewDocumentRepository(ttl),
		notifs:       memory.NewNotificationRepository(ttl),
		metrics:      memory.NewMetricsRepository(ttl),
		transcriber:  &fakeTranscriber{silent: map[int]bool{}},
		deltaGen:     &fakeDeltaGen{},
		checker:      &fakeChecker{},
		safety:       &fakeSafetyChecker{},
		enqueuer:     &fakeEnqueuer{},
	}

	f.svc = NewPipelineService(PipelineDeps{
		SessionRepo:      f.sessions,
		SequencerRepo:    f.sequencer,
		BufferRepo:       f.buffer,
		ConversationRepo: f.conversation,
		DocumentRepo:     f.documents,
		NotificationRepo: f.notifs,
		MetricsRepo:      f.metrics,

		Transcriber:          f.transcriber,
		RoleTagger:           &fakeRoleTagger{},
		Masker:               &fakeMasker{},
		DeltaGenerator:       f.deltaGen,
		HallucinationChecker: f.checker,
		SafetyChecker:        f.safety,

		Enqueuer: f.enqueuer,
	})

	return f
}

func (f *pipelineFixture) startSession(t *testing.T, sessionID string) {
	t.Helper()
	err := f.sessions.Create(context.Background(), sessionID, entity.SessionMetadata{
		DoctorID:  "doc-1",
		StartedAt: time.Now(),
	})
	require.NoError(t, err)
}

func job(sessionID string, chunkIndex int) *entity.ChunkJob {
	return &entity.ChunkJob{
		SessionID:  sessionID,
		ChunkIndex: chunkIndex,
		AudioPath:  fmt.Sprintf("/tmp/%s/chunk_%04d.wav", sessionID, chunkIndex),
		EnqueuedAt: time.Now(),
	}
}

// --- Tests ---

func TestInOrderChunksCommitAndGrowNote(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	for i := 0; i < 3; i++ {
		res, err := f.svc.ProcessChunk(ctx, job("s1", i))
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCommitted, res.Status)
	}

	note, err := f.documents.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, note)
	require.Len(t, note.Subjective, 3)
	for i, item := range note.Subjective {
		assert.Equal(t, i, item.SourceChunkIndex)
		assert.Equal(t, fmt.Sprintf("utterance from chunk %d", i), item.Text)
	}

	expected, err := f.sequencer.CurrentExpected(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, expected)

	metrics, err := f.metrics.GetAll(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "3", metrics[contract.MetricChunksProcessed])
}

func TestEarlyChunkIsBufferedWithoutSideEffects(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	res, err := f.svc.ProcessChunk(ctx, job("s1", 2))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusBuffered, res.Status)

	buffered, err := f.buffer.Get(ctx, "s1", 2)
	require.NoError(t, err)
	require.NotNil(t, buffered)

	note, err := f.documents.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, note)

	expected, err := f.sequencer.CurrentExpected(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, expected)
}

func TestDuplicateDeliveryIsSkipped(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	res, err := f.svc.ProcessChunk(ctx, job("s1", 0))
	require.NoError(t, err)
	require.Equal(t, entity.StatusCommitted, res.Status)

	// Same job delivered again (at-least-once queue).
	res, err = f.svc.ProcessChunk(ctx, job("s1", 0))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSkipped, res.Status)

	note, err := f.documents.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Len(t, note.Subjective, 1)
}

func TestReverseArrivalDrainsInOrder(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	// Chunks arrive 2, 1, 0.
	res, err := f.svc.ProcessChunk(ctx, job("s1", 2))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusBuffered, res.Status)

	res, err = f.svc.ProcessChunk(ctx, job("s1", 1))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusBuffered, res.Status)

	res, err = f.svc.ProcessChunk(ctx, job("s1", 0))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCommitted, res.Status)

	// Committing 0 re-enqueues 1; the queue would redeliver it, which
	// commits and re-enqueues 2, and so on.
	for next := f.enqueuer.pop(); next != nil; next = f.enqueuer.pop() {
		res, err = f.svc.ProcessChunk(ctx, next)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCommitted, res.Status)
	}

	note, err := f.documents.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, note)
	require.Len(t, note.Subjective, 3)
	for i, item := range note.Subjective {
		assert.Equal(t, i, item.SourceChunkIndex)
	}

	// Buffer fully drained.
	for i := 0; i < 3; i++ {
		buffered, err := f.buffer.Get(ctx, "s1", i)
		require.NoError(t, err)
		assert.Nil(t, buffered)
	}
}

func TestSilentChunkAdvancesWithoutMerge(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")
	f.transcriber.silent[0] = true

	res, err := f.svc.ProcessChunk(ctx, job("s1", 0))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCommitted, res.Status)
	require.NotNil(t, res.Note)
	assert.True(t, res.Note.IsEmpty())

	expected, err := f.sequencer.CurrentExpected(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, expected)
}

func TestFailedAttemptLeavesTurnRetriable(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	f.transcriber.err = failure.Transient(errors.New("asr unavailable"))
	_, err := f.svc.ProcessChunk(ctx, job("s1", 0))
	require.Error(t, err)
	assert.True(t, failure.IsTransient(err))

	// The expected index did not move: the retry is still on-turn.
	expected, err := f.sequencer.CurrentExpected(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, expected)

	f.transcriber.err = nil
	res, err := f.svc.ProcessChunk(ctx, job("s1", 0))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCommitted, res.Status)
}

func TestAbandonChunkAdvancesAndDrains(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	// Chunk 1 arrived early and waits for chunk 0.
	res, err := f.svc.ProcessChunk(ctx, job("s1", 1))
	require.NoError(t, err)
	require.Equal(t, entity.StatusBuffered, res.Status)

	// Chunk 0 exhausts its retries and is abandoned.
	err = f.svc.AbandonChunk(ctx, job("s1", 0), errors.New("asr permanently down"))
	require.NoError(t, err)

	expected, err := f.sequencer.CurrentExpected(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, expected)

	// The buffered successor was re-enqueued, not wedged.
	require.Len(t, f.enqueuer.jobs, 1)
	assert.Equal(t, 1, f.enqueuer.jobs[0].ChunkIndex)

	metrics, err := f.metrics.GetAll(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "1", metrics[contract.MetricFailedChunks])
}

func TestAbandonIsNoopWhenNotOnTurn(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	res, err := f.svc.ProcessChunk(ctx, job("s1", 0))
	require.NoError(t, err)
	require.Equal(t, entity.StatusCommitted, res.Status)

	// A duplicate delivery of chunk 0 failing later must not advance
	// past chunk 1.
	err = f.svc.AbandonChunk(ctx, job("s1", 0), errors.New("late failure"))
	require.NoError(t, err)

	expected, err := f.sequencer.CurrentExpected(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, expected)

	metrics, err := f.metrics.GetAll(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, metrics[contract.MetricFailedChunks])
}

func TestQualityFindingsAreRecorded(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	f.checker.messages = []string{"statement not grounded in transcript"}
	f.safety.messages = []string{"SAFETY ALERT: paracetamol dosage (5000mg) exceeds standard daily limit (4000mg)"}

	_, err := f.svc.ProcessChunk(ctx, job("s1", 0))
	require.NoError(t, err)

	warnings, err := f.notifs.Get(ctx, "s1", entity.KindWarning, nil)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, 0, warnings[0].ChunkIndex)

	alerts, err := f.notifs.Get(ctx, "s1", entity.KindSafetyAlert, nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	metrics, err := f.metrics.GetAll(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "1", metrics[contract.MetricWarningCount])
	assert.Equal(t, "1", metrics[contract.MetricSafetyAlertCount])
}

func TestExpiredSessionSkipsJob(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	// No session created: simulates TTL expiry racing a late delivery.
	res, err := f.svc.ProcessChunk(ctx, job("gone", 0))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSkipped, res.Status)
}

func TestRetryAfterTransientFailureDoesNotDuplicateHistory(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	// First attempt appends the chunk's turns, then dies in delta
	// generation. The queue redelivers.
	f.deltaGen.failOnce = failure.Transient(errors.New("llm backend down"))
	_, err := f.svc.ProcessChunk(ctx, job("s1", 0))
	require.Error(t, err)

	res, err := f.svc.ProcessChunk(ctx, job("s1", 0))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCommitted, res.Status)

	history, err := f.conversation.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "utterance from chunk 0", history[0].Content)

	note, err := f.documents.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Len(t, note.Subjective, 1)
}

// jobWithAudio backs the job with a real file so audio-cleanup behavior
// is observable.
func jobWithAudio(t *testing.T, sessionID string, chunkIndex int) *entity.ChunkJob {
	t.Helper()
	path := filepath.Join(t.TempDir(), fmt.Sprintf("chunk_%04d.wav", chunkIndex))
	require.NoError(t, os.WriteFile(path, []byte("pcm"), 0o644))
	j := job(sessionID, chunkIndex)
	j.AudioPath = path
	return j
}

func TestCommittedChunkAudioIsRemoved(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	first := jobWithAudio(t, "s1", 0)
	res, err := f.svc.ProcessChunk(ctx, first)
	require.NoError(t, err)
	require.Equal(t, entity.StatusCommitted, res.Status)

	_, err = os.Stat(first.AudioPath)
	assert.True(t, os.IsNotExist(err), "committed chunk's audio should be deleted")

	// A stale duplicate carrying its own file is cleaned up as well.
	dup := jobWithAudio(t, "s1", 0)
	res, err = f.svc.ProcessChunk(ctx, dup)
	require.NoError(t, err)
	require.Equal(t, entity.StatusSkipped, res.Status)

	_, err = os.Stat(dup.AudioPath)
	assert.True(t, os.IsNotExist(err), "stale chunk's audio should be deleted")
}

func TestBufferedChunkKeepsAudio(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	early := jobWithAudio(t, "s1", 2)
	res, err := f.svc.ProcessChunk(ctx, early)
	require.NoError(t, err)
	require.Equal(t, entity.StatusBuffered, res.Status)

	// The buffered job still needs its audio for the replay.
	_, err = os.Stat(early.AudioPath)
	assert.NoError(t, err)
}

func TestAbandonedChunkAudioIsRemoved(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	dead := jobWithAudio(t, "s1", 0)
	require.NoError(t, f.svc.AbandonChunk(ctx, dead, errors.New("asr permanently down")))

	_, err := os.Stat(dead.AudioPath)
	assert.True(t, os.IsNotExist(err), "abandoned chunk's audio should be deleted")
}

func TestLastChunkRecordsFinalLatency(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1")

	last := job("s1", 0)
	last.IsLastChunk = true
	last.EnqueuedAt = time.Now().Add(-50 * time.Millisecond)

	_, err := f.svc.ProcessChunk(ctx, last)
	require.NoError(t, err)

	metrics, err := f.metrics.GetAll(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, metrics[contract.MetricFinalLatencyMs])
}
