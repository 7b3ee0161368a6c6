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

// ChunkProcessor is what the subscriber drives. ProcessChunk runs the
// pipeline once for a delivery; AbandonChunk marks a chunk permanently
// failed after its retry budget is spent, so the session can move on.
type ChunkProcessor interface {
	ProcessChunk(ctx context.Context, job *entity.ChunkJob) (*entity.ChunkResult, error)
	AbandonChunk(ctx context.Context, job *entity.ChunkJob, cause error) error
}

// ConsumerConfig describes the durable chunk consumer.
type ConsumerConfig struct {
	StreamName  string
	Subject     string
	Durable     string
	MaxAttempts int
	RetryDelay  time.Duration
}

// Subscriber pulls chunk jobs off the work queue and runs them through
// the processor. At-least-once delivery: a job is acked only after the
// processor returns, and transient failures are redelivered with a delay
// until the attempt budget runs out.
type Subscriber struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	cfg ConsumerConfig

	consumeCtx jetstream.ConsumeContext
}

func NewSubscriber(url string, cfg ConsumerConfig) (*Subscriber, error) {
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

	return &Subscriber{nc: nc, js: js, cfg: cfg}, nil
}

// Start creates the durable consumer and begins dispatching deliveries to
// the processor. MaxDeliver is the attempt budget: JetStream stops
// redelivering after it, so terminal abandonment must happen on the last
// attempt, not after it.
func (s *Subscriber) Start(processor ChunkProcessor) error {
	ctx := context.Background()

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, s.cfg.StreamName, jetstream.ConsumerConfig{
		Durable:       s.cfg.Durable,
		FilterSubject: s.cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    s.cfg.MaxAttempts,
		AckWait:       5 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		s.handle(processor, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.consumeCtx = consumeCtx
	log.Printf("[INFO] Consuming %s with durable %s (max attempts: %d)", s.cfg.Subject, s.cfg.Durable, s.cfg.MaxAttempts)
	return nil
}

func (s *Subscriber) handle(processor ChunkProcessor, msg jetstream.Msg) {
	ctx := context.Background()

	var job entity.ChunkJob
	if err := json.Unmarshal(msg.Data(), &job); err != nil {
		// Malformed payloads never get better on redelivery.
		log.Printf("[ERROR] Dropping undecodable chunk job: %v", err)
		_ = msg.Term()
		return
	}

	result, err := processor.ProcessChunk(ctx, &job)
	if err == nil {
		if result != nil && result.Status == entity.StatusBuffered {
			log.Printf("[INFO] Chunk %d of session %s buffered (out of order)", job.ChunkIndex, job.SessionID)
		}
		_ = msg.Ack()
		return
	}

	attempt := 1
	if meta, metaErr := msg.Metadata(); metaErr == nil {
		attempt = int(meta.NumDelivered)
	}

	if failure.IsTransient(err) && attempt < s.cfg.MaxAttempts {
		log.Printf("[WARN] Chunk %d of session %s failed (attempt %d/%d), retrying: %v",
			job.ChunkIndex, job.SessionID, attempt, s.cfg.MaxAttempts, err)
		_ = msg.NakWithDelay(s.cfg.RetryDelay)
		return
	}

	// Fatal error or budget exhausted: abandon so the session is not
	// wedged behind this chunk, then stop redelivery.
	log.Printf("[ERROR] Chunk %d of session %s permanently failed after %d attempt(s): %v",
		job.ChunkIndex, job.SessionID, attempt, err)
	if abandonErr := processor.AbandonChunk(ctx, &job, err); abandonErr != nil {
		log.Printf("[ERROR] Failed to abandon chunk %d of session %s: %v", job.ChunkIndex, job.SessionID, abandonErr)
		// Let redelivery retry the abandonment if budget remains.
		if attempt < s.cfg.MaxAttempts {
			_ = msg.NakWithDelay(s.cfg.RetryDelay)
			return
		}
	}
	_ = msg.Term()
}

// Close stops consumption and closes the connection.
func (s *Subscriber) Close() {
	if s.consumeCtx != nil {
		s.consumeCtx.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
