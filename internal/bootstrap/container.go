package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"mindstorm-be/internal/config"
	"mindstorm-be/internal/controller"
	"mindstorm-be/internal/handler"
	"mindstorm-be/internal/pkg/logger"
	"mindstorm-be/internal/repository/memory"
	"mindstorm-be/internal/repository/unitofwork"
	"mindstorm-be/internal/service"
	"mindstorm-be/internal/websocket"
	"mindstorm-be/pkg/conceptmap"
	"mindstorm-be/pkg/engagement"
	"mindstorm-be/pkg/llm/factory"
	pktNats "mindstorm-be/pkg/nats"
	"mindstorm-be/pkg/persona"
	"mindstorm-be/pkg/sidechannel"
	"mindstorm-be/pkg/snapshot"
	"mindstorm-be/pkg/summary"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController controller.ISessionController
	ChatController    controller.IChatController
	GraphController   controller.IGraphController
	PrivateController controller.IPrivateController
	SummaryController controller.ISummaryController

	// Background Services (Exposed for main.go to run)
	ConsumerService   service.IConsumerService
	RealtimeService   service.IRealtimeService
	EngagementService service.IEngagementService

	// WebSockets
	SessionSocketHandler *handler.SessionSocketHandler
	WebSocketHub         *websocket.Hub

	Logger  logger.ILogger
	closers []func()
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c := &Container{Logger: sysLogger}

	// 2. Task Queue (concept extraction)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. LLM Provider
	llmProvider, err := factory.NewLLMProvider(ctx, factory.ProviderConfig{
		Provider:    cfg.Ai.LLMProvider,
		Model:       cfg.Ai.LLMModel,
		ImageModel:  cfg.Ai.ImageModel,
		BaseURL:     cfg.Ai.OllamaBaseURL,
		GeminiKey:   cfg.Ai.GoogleGemini,
		HuggingFace: cfg.Ai.HuggingFace,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	// NATS is optional: without it change notifications go straight to this instance's rooms.
	var (
		eventPublisher  service.IEventPublisher
		eventSubscriber service.IEventSubscriber
	)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}
	if natsPub != nil && natsSub != nil {
		eventPublisher, eventSubscriber = natsPub, natsSub
	}
	if natsPub != nil {
		c.closers = append(c.closers, natsPub.Close)
	}
	if natsSub != nil {
		c.closers = append(c.closers, natsSub.Close)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Running as a single instance", err)
		rdb.Close()
		rdb = nil
	} else {
		c.closers = append(c.closers, func() { rdb.Close() })
	}
	eventPublisher, eventSubscriber = realtimeBus(eventPublisher, eventSubscriber, rdb != nil)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.RealtimeLogPath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run(ctx)

	// 5. Services
	realtimeService := service.NewRealtimeService(eventPublisher, eventSubscriber, wsHub, wsLogger)
	extractionPublisher := service.NewExtractionPublisher(pubSub, cfg.App.ExtractionTopic)
	messageLog := service.NewMessageLog(uowFactory, realtimeService, extractionPublisher, sysLogger)
	personaService := service.NewPersonaService(uowFactory, messageLog, llmProvider, sysLogger)

	engagementCfg := engagement.DefaultConfig()
	engagementCfg.Tick = cfg.Engagement.Tick
	engagementCfg.KickoffAfter = cfg.Engagement.KickoffAfter
	engagementCfg.InactivityAfter = cfg.Engagement.InactivityAfter
	engagementCfg.AlignmentAt = cfg.Engagement.AlignmentAt
	engagementCfg.SummarizeAt = cfg.Engagement.SummarizeAt
	engagementCfg.NudgeEvery = cfg.Engagement.NudgeEvery
	engagementCfg.Window = persona.WindowSize
	engagementService := service.NewEngagementService(uowFactory, messageLog, personaService, rdb, engagementCfg, sysLogger)

	sessionCache := memory.NewSessionCache()
	sessionService := service.NewSessionService(uowFactory, messageLog, sessionCache, engagementService, sysLogger)
	chatService := service.NewChatService(uowFactory, messageLog, personaService, sysLogger)
	conceptService := service.NewConceptService(uowFactory, realtimeService, sysLogger)

	bridge := conceptmap.NewBridge(
		service.NewGraphStore(uowFactory, realtimeService),
		conceptmap.NewLLMExtractor(llmProvider),
	)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.ExtractionTopic,
		extractionPublisher,
		uowFactory,
		bridge,
		realtimeService,
		sysLogger,
	)

	coordinator := sidechannel.NewCoordinator(
		service.NewPrivateStore(uowFactory),
		llmProvider,
		service.NewAnonymousPublisher(messageLog),
		extractionPublisher,
		sysLogger,
	)
	privateService := service.NewPrivateService(uowFactory, coordinator, sysLogger)

	var snapshots snapshot.Provider = snapshot.NewSVGRenderer()
	if cfg.Snapshot.ChromeWSURL != "" {
		snapshots = snapshot.NewFallback(snapshot.NewChromeRasterizer(cfg.Snapshot.ChromeWSURL, cfg.Snapshot.Timeout), snapshots)
	}
	summarizer := summary.New(
		llmProvider,
		snapshot.NewFileStore(cfg.App.UploadDir, strings.TrimRight(cfg.App.BaseURL, "/")+"/uploads"),
		sysLogger,
		summary.WithSnapshots(snapshots),
		summary.WithIllustration(cfg.Snapshot.Illustration),
	)
	summaryService := service.NewSummaryService(uowFactory, summarizer, realtimeService, engagementService, sessionCache, sysLogger)

	// 6. Controllers
	c.SessionController = controller.NewSessionController(sessionService)
	c.ChatController = controller.NewChatController(chatService)
	c.GraphController = controller.NewGraphController(conceptService)
	c.PrivateController = controller.NewPrivateController(privateService)
	c.SummaryController = controller.NewSummaryController(summaryService)

	c.ConsumerService = consumerService
	c.RealtimeService = realtimeService
	c.EngagementService = engagementService

	c.SessionSocketHandler = handler.NewSessionSocketHandler(sessionService, wsHub, wsLogger)
	c.WebSocketHub = wsHub

	return c, nil
}

// Close releases the broker and cache connections in reverse order of creation.
func (c *Container) Close() {
	c.EngagementService.Stop()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.Logger.Sync()
}

// realtimeBus drops the bus when Redis cannot relay frames between instances. The stream
// hands each event to a single instance, so without the relay clients connected elsewhere
// would never see it.
func realtimeBus(pub service.IEventPublisher, sub service.IEventSubscriber, relay bool) (service.IEventPublisher, service.IEventSubscriber) {
	if pub == nil || sub == nil {
		return nil, nil
	}
	if !relay {
		log.Printf("[WARN] NATS is up but Redis is not. Change notifications stay on the instance that made them")
		return nil, nil
	}
	return pub, sub
}
