package bootstrap

import (
	"log"

	"clinical-scribe-be/internal/config"
	"clinical-scribe-be/internal/service"
	"clinical-scribe-be/pkg/llm/factory"
	"clinical-scribe-be/pkg/queue"
	"clinical-scribe-be/pkg/scribe"
)

// WorkerContainer wires the pipeline binary: the durable queue consumer
// plus everything one chunk needs to be processed.
type WorkerContainer struct {
	PipelineService service.IPipelineService
	Subscriber      *queue.Subscriber
	Publisher       *queue.Publisher
}

func NewWorkerContainer(cfg *config.Config) *WorkerContainer {
	rdb := newRedisClient(cfg)
	repos := newRepositories(rdb, cfg)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Scribe.LLMProvider,
		cfg.Scribe.LLMModel,
		cfg.Scribe.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Scribe.LLMProvider, cfg.Scribe.LLMModel)

	// Publisher re-enqueues buffered chunks when the timeline advances.
	publisher, err := queue.NewPublisher(cfg.App.NatsURL, queue.StreamConfig{
		StreamName: cfg.Pipeline.StreamName,
		Subject:    cfg.Pipeline.Subject,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to NATS publisher: %v", err)
	}

	subscriber, err := queue.NewSubscriber(cfg.App.NatsURL, queue.ConsumerConfig{
		StreamName:  cfg.Pipeline.StreamName,
		Subject:     cfg.Pipeline.Subject,
		Durable:     cfg.Pipeline.Durable,
		MaxAttempts: cfg.Pipeline.MaxAttempts,
		RetryDelay:  cfg.Pipeline.RetryDelay,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to NATS subscriber: %v", err)
	}

	pipelineService := service.NewPipelineService(service.PipelineDeps{
		SessionRepo:      repos.session,
		SequencerRepo:    repos.sequencer,
		BufferRepo:       repos.buffer,
		ConversationRepo: repos.conversation,
		DocumentRepo:     repos.document,
		NotificationRepo: repos.notification,
		MetricsRepo:      repos.metrics,

		Transcriber:          scribe.NewHTTPTranscriber(cfg.Scribe.ASRBaseURL),
		RoleTagger:           scribe.NewLLMRoleTagger(llmProvider),
		Masker:               scribe.NewRegexMasker(),
		DeltaGenerator:       scribe.NewLLMDeltaGenerator(llmProvider),
		HallucinationChecker: scribe.NewLexicalGroundingChecker(),
		SafetyChecker:        scribe.NewDosageSafetyChecker(),

		Enqueuer: publisher,
	})

	return &WorkerContainer{
		PipelineService: pipelineService,
		Subscriber:      subscriber,
		Publisher:       publisher,
	}
}
