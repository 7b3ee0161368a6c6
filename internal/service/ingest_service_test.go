package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/repository/contract"
	"clinical-scribe-be/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIngestFixture(t *testing.T) (IIngestService, contract.SessionRepository, contract.SequencerRepository, *fakeEnqueuer) {
	t.Helper()
	ttl := time.Hour
	sessions := memory.NewSessionRepository(ttl)
	sequencer := memory.NewSequencerRepository(ttl)
	enqueuer := &fakeEnqueuer{}
	svc := NewIngestService(sessions, sequencer, enqueuer, t.TempDir())
	return svc, sessions, sequencer, enqueuer
}

func TestIngestAssignsMonotonicTickets(t *testing.T) {
	svc, _, _, enqueuer := newIngestFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := svc.IngestChunk(ctx, &dto.IngestChunkRequest{SessionID: "s1"}, strings.NewReader("audio"), "chunk.wav")
		require.NoError(t, err)
		assert.Equal(t, i, res.ChunkIndex)
		assert.Equal(t, "queued", res.Status)
	}

	require.Len(t, enqueuer.jobs, 5)
	for i, job := range enqueuer.jobs {
		assert.Equal(t, i, job.ChunkIndex)
		assert.Equal(t, "s1", job.SessionID)
	}
}

func TestIngestTicketsAreIndependentPerSession(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t)
	ctx := context.Background()

	resA, err := svc.IngestChunk(ctx, &dto.IngestChunkRequest{SessionID: "a"}, strings.NewReader("audio"), "c.wav")
	require.NoError(t, err)
	resB, err := svc.IngestChunk(ctx, &dto.IngestChunkRequest{SessionID: "b"}, strings.NewReader("audio"), "c.wav")
	require.NoError(t, err)

	assert.Equal(t, 0, resA.ChunkIndex)
	assert.Equal(t, 0, resB.ChunkIndex)
}

func TestIngestStoresHashedPatientRefOnly(t *testing.T) {
	svc, sessions, _, _ := newIngestFixture(t)
	ctx := context.Background()

	_, err := svc.IngestChunk(ctx, &dto.IngestChunkRequest{
		SessionID:  "s1",
		DoctorID:   "doc-7",
		PatientMRN: "MRN-12345678",
	}, strings.NewReader("audio"), "c.wav")
	require.NoError(t, err)

	meta, err := sessions.Metadata(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "doc-7", meta.DoctorID)
	assert.NotEmpty(t, meta.PatientRef)
	assert.NotContains(t, meta.PatientRef, "12345678")
}

func TestIngestPersistsAudioFile(t *testing.T) {
	svc, _, _, enqueuer := newIngestFixture(t)
	ctx := context.Background()

	_, err := svc.IngestChunk(ctx, &dto.IngestChunkRequest{SessionID: "s1"}, strings.NewReader("fake-pcm-bytes"), "upload.wav")
	require.NoError(t, err)

	require.Len(t, enqueuer.jobs, 1)
	data, err := os.ReadFile(enqueuer.jobs[0].AudioPath)
	require.NoError(t, err)
	assert.Equal(t, "fake-pcm-bytes", string(data))
}

func TestConcurrentIngestTicketsAreUnique(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t)
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	tickets := make(chan int, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.IngestChunk(ctx, &dto.IngestChunkRequest{SessionID: "s1"}, strings.NewReader(fmt.Sprintf("audio-%d", i)), "c.wav")
			if err == nil {
				tickets <- res.ChunkIndex
			}
		}(i)
	}
	wg.Wait()
	close(tickets)

	seen := map[int]bool{}
	for ticket := range tickets {
		assert.False(t, seen[ticket], "ticket %d assigned twice", ticket)
		seen[ticket] = true
	}
	assert.Len(t, seen, n)
}
