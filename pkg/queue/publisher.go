package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/failure"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamConfig describes the chunk work queue.
type StreamConfig struct {
	StreamName string
	Subject    string
}

// Publisher enqueues chunk jobs onto the NATS work queue.
type Publisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewPublisher connects to NATS and ensures the chunk stream exists.
func NewPublisher(url string, cfg StreamConfig) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  []string{cfg.Subject},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		log.Printf("Warn: Failed to ensure stream %q: %v", cfg.StreamName, err)
		// Don't fail hard here, maybe it already exists or NATS isn't ready
	}

	return &Publisher{nc: nc, js: js, subject: cfg.Subject}, nil
}

// EnqueueChunk publishes the job. Delivery is at-least-once; the pipeline
// handles duplicates by checking the expected index before committing.
func (p *Publisher) EnqueueChunk(ctx context.Context, job *entity.ChunkJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk job: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return failure.Transient(fmt.Errorf("failed to publish chunk job: %w", err))
	}

	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
