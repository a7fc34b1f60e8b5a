package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appassistant "github.com/shopsync/backend/internal/application/assistant"
	"github.com/shopsync/backend/internal/application/chat"
	"github.com/shopsync/backend/internal/application/export"
	appsync "github.com/shopsync/backend/internal/application/sync"
	assistantdomain "github.com/shopsync/backend/internal/domain/assistant"
	"github.com/shopsync/backend/internal/infrastructure/cache"
	"github.com/shopsync/backend/internal/infrastructure/config"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/infrastructure/openai"
	"github.com/shopsync/backend/internal/infrastructure/persistence"
	"github.com/shopsync/backend/internal/infrastructure/scheduler"
	"github.com/shopsync/backend/internal/infrastructure/shopify"
	"github.com/shopsync/backend/internal/infrastructure/storage"
	"github.com/shopsync/backend/internal/interfaces/http/handler"
	"github.com/shopsync/backend/internal/interfaces/http/middleware"
	"github.com/shopsync/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ShopSync backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Identity cache: Redis when enabled, in-memory otherwise
	cacheFactory := cache.NewIdentityCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	)
	identityCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create identity cache", zap.Error(err))
	}

	// Shopify client
	shopifyClient, err := shopify.NewClient(&shopify.Config{
		Domain:             cfg.Shopify.Domain,
		APIVersion:         cfg.Shopify.APIVersion,
		AccessToken:        cfg.Shopify.AccessToken,
		IgnoredLocationIDs: cfg.Shopify.IgnoredLocationIDs,
		TimeoutSeconds:     cfg.Shopify.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatal("Failed to create Shopify client", zap.Error(err))
	}

	// OpenAI client and resilient uploader
	openaiClient, err := openai.NewClient(&openai.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		UploadBaseURL:  cfg.OpenAI.UploadBaseURL,
		Model:          cfg.OpenAI.Model,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
		UploadAttempts: cfg.OpenAI.UploadAttempts,
	}, log)
	if err != nil {
		log.Fatal("Failed to create OpenAI client", zap.Error(err))
	}
	uploader := openai.NewUploader(openai.DefaultTransports(openaiClient), cfg.OpenAI.UploadAttempts, log)

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRepository(db.DB)
	sessionRepo := persistence.NewAssistantSessionRepository(db.DB)
	conversationRepo := persistence.NewGormConversationRepository(db.DB)

	// Optional S3-compatible archive for export files
	var archive export.ArchiveStorage
	if cfg.Storage.Bucket != "" {
		s3Archive, err := storage.NewS3ArchiveStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create archive storage", zap.Error(err))
		}
		if err := s3Archive.EnsureBucket(context.Background()); err != nil {
			log.Fatal("Failed to ensure archive bucket", zap.Error(err))
		}
		archive = s3Archive
		log.Info("Export archiving enabled", zap.String("bucket", s3Archive.GetBucket()))
	}

	// Application services
	orchestrator := appsync.NewOrchestrator(shopifyClient, db.DB, appsync.NewPersister(log), log)
	writer := export.NewWriter(orderRepo, inventoryRepo, archive, cfg.Export.Dir, log)
	analyst := appassistant.NewAnalyst(context.Background(),
		openaiClient, uploader, sessionRepo, identityCache, assistantdomain.Identity{}, log)
	chatService := chat.NewService(conversationRepo, analyst, log)

	// HTTP interface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.Recovery(log), middleware.RequestLogger(log))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSyncHandler(orchestrator))
	r.Register(handler.NewExportHandler(writer, analyst, log))
	r.Register(handler.NewAssistantHandler(analyst, writer, analyst, log))
	r.Register(handler.NewConversationHandler(chatService, log))
	r.Register(handler.NewOrderHandler(orderRepo, inventoryRepo, log))
	r.Setup()
	r.SetupHealth(handler.NewHealthHandler(db, log).Health)

	// Background jobs
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.NewScheduler(scheduler.Config{
			SyncInterval:     cfg.Scheduler.SyncInterval,
			ExportInterval:   cfg.Scheduler.ExportInterval,
			RecentWindowDays: cfg.Scheduler.RecentWindowDays,
			JobTimeout:       30 * time.Minute,
		}, orchestrator, writer, analyst, log)
		if err != nil {
			log.Fatal("Failed to create scheduler", zap.Error(err))
		}
		if err := sched.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := sched.Stop(stopCtx); err != nil {
				log.Error("Scheduler shutdown error", zap.Error(err))
			}
		}()
	}

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
}
