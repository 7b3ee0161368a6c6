package bootstrap

import (
	"context"
	"log"

	"clinical-scribe-be/internal/config"
	"clinical-scribe-be/internal/controller"
	"clinical-scribe-be/internal/pkg/logger"
	"clinical-scribe-be/internal/repository/contract"
	"clinical-scribe-be/internal/repository/implementation"
	"clinical-scribe-be/internal/service"
	"clinical-scribe-be/internal/websocket"
	"clinical-scribe-be/pkg/llm/factory"
	"clinical-scribe-be/pkg/queue"
	"clinical-scribe-be/pkg/scribe"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container wires the REST binary: HTTP controllers, the archive
// consumer and the WebSocket hub.
type Container struct {
	// Controllers
	IngestController   controller.IIngestController
	SessionController  controller.ISessionController
	DocumentController controller.IDocumentController
	FeedbackController controller.IFeedbackController

	// Background Services (Exposed for main.go to run)
	ArchiveService service.IArchiveService

	// WebSockets
	WebSocketHub *websocket.Hub

	// Held for shutdown
	QueuePublisher *queue.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	rdb := newRedisClient(cfg)

	repos := newRepositories(rdb, cfg)

	// Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Work queue
	publisher, err := queue.NewPublisher(cfg.App.NatsURL, queue.StreamConfig{
		StreamName: cfg.Pipeline.StreamName,
		Subject:    cfg.Pipeline.Subject,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to NATS: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notifications.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	ingestService := service.NewIngestService(
		repos.session,
		repos.sequencer,
		publisher,
		cfg.Pipeline.AudioDir,
	)
	sessionService := service.NewSessionService(
		repos.session,
		repos.document,
		repos.conversation,
		repos.notification,
		repos.metrics,
		pubSub,
		cfg.Pipeline.FinalizeTopic,
	)
	// Derived documents reuse the worker's LLM stack.
	llmProvider, err := factory.NewLLMProvider(
		cfg.Scribe.LLMProvider,
		cfg.Scribe.LLMModel,
		cfg.Scribe.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}

	draftService := service.NewDraftService(
		repos.document,
		repos.conversation,
		scribe.NewLLMDocumentDrafter(llmProvider),
	)
	feedbackService := service.NewFeedbackService(
		repos.document,
		repos.conversation,
		repos.metrics,
		implementation.NewTrainingDataRepository(
			cfg.Training.DataDir,
			cfg.Training.SFTFile,
			cfg.Training.DPOFile,
		),
		cfg.Scribe.LLMModel,
	)
	archiveService := service.NewArchiveService(
		pubSub,
		cfg.Pipeline.FinalizeTopic,
		implementation.NewArchiveRepository(db),
		repos.session,
		repos.document,
		repos.conversation,
		repos.metrics,
	)

	return &Container{
		IngestController:   controller.NewIngestController(ingestService),
		SessionController:  controller.NewSessionController(sessionService),
		DocumentController: controller.NewDocumentController(draftService),
		FeedbackController: controller.NewFeedbackController(feedbackService),
		ArchiveService:     archiveService,
		WebSocketHub:       wsHub,
		QueuePublisher:     publisher,
	}
}

// repositories groups the Redis-backed session state stores.
type repositories struct {
	session      contract.SessionRepository
	sequencer    contract.SequencerRepository
	buffer       contract.BufferRepository
	conversation contract.ConversationRepository
	document     contract.DocumentRepository
	notification contract.NotificationRepository
	metrics      contract.MetricsRepository
}

func newRepositories(rdb *redis.Client, cfg *config.Config) repositories {
	ttl := cfg.Pipeline.SessionTTL
	return repositories{
		session:      implementation.NewSessionRepository(rdb, ttl),
		sequencer:    implementation.NewSequencerRepository(rdb, ttl),
		buffer:       implementation.NewBufferRepository(rdb, ttl),
		conversation: implementation.NewConversationRepository(rdb, ttl),
		document:     implementation.NewDocumentRepository(rdb, ttl),
		notification: implementation.NewNotificationRepository(rdb, ttl),
		metrics:      implementation.NewMetricsRepository(rdb, ttl),
	}
}

func newRedisClient(cfg *config.Config) *redis.Client {
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	return rdb
}
