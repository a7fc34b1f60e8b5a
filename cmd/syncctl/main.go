// syncctl is the operations CLI: it runs syncs, exports and assistant
// maintenance without going through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	appassistant "github.com/shopsync/backend/internal/application/assistant"
	"github.com/shopsync/backend/internal/application/export"
	appsync "github.com/shopsync/backend/internal/application/sync"
	assistantdomain "github.com/shopsync/backend/internal/domain/assistant"
	syncdomain "github.com/shopsync/backend/internal/domain/sync"
	"github.com/shopsync/backend/internal/infrastructure/cache"
	"github.com/shopsync/backend/internal/infrastructure/config"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/infrastructure/openai"
	"github.com/shopsync/backend/internal/infrastructure/persistence"
	"github.com/shopsync/backend/internal/infrastructure/shopify"
)

func main() {
	var (
		days    int
		durable bool
		timeout time.Duration
	)
	flag.IntVar(&days, "days", 1, "Lookback window in days for 'sync recent'")
	flag.BoolVar(&durable, "durable", false, "Also remove the durable assistant session on cleanup")
	flag.DurationVar(&timeout, "timeout", 30*time.Minute, "Overall command timeout")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("Startup failed", zap.Error(err))
	}
	defer app.close()

	if err := run(ctx, app, args, days, durable); err != nil {
		log.Fatal("Command failed", zap.Error(err))
	}
}

// app bundles the wired services the commands need
type app struct {
	db           *persistence.Database
	orchestrator *appsync.Orchestrator
	writer       *export.Writer
	analyst      *appassistant.Analyst
}

func (a *app) close() {
	_ = a.db.Close()
}

func buildApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	shopifyClient, err := shopify.NewClient(&shopify.Config{
		Domain:             cfg.Shopify.Domain,
		APIVersion:         cfg.Shopify.APIVersion,
		AccessToken:        cfg.Shopify.AccessToken,
		IgnoredLocationIDs: cfg.Shopify.IgnoredLocationIDs,
		TimeoutSeconds:     cfg.Shopify.TimeoutSeconds,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create Shopify client: %w", err)
	}

	openaiClient, err := openai.NewClient(&openai.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		UploadBaseURL:  cfg.OpenAI.UploadBaseURL,
		Model:          cfg.OpenAI.Model,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
		UploadAttempts: cfg.OpenAI.UploadAttempts,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create OpenAI client: %w", err)
	}
	uploader := openai.NewUploader(openai.DefaultTransports(openaiClient), cfg.OpenAI.UploadAttempts, log)

	identityCache, err := cache.NewIdentityCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateCache()
	if err != nil {
		return nil, fmt.Errorf("create identity cache: %w", err)
	}

	orderRepo := persistence.NewGormOrderRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRepository(db.DB)
	sessionRepo := persistence.NewAssistantSessionRepository(db.DB)

	return &app{
		db:           db,
		orchestrator: appsync.NewOrchestrator(shopifyClient, db.DB, appsync.NewPersister(log), log),
		writer:       export.NewWriter(orderRepo, inventoryRepo, nil, cfg.Export.Dir, log),
		analyst: appassistant.NewAnalyst(ctx, openaiClient, uploader,
			sessionRepo, identityCache, assistantdomain.Identity{}, log),
	}, nil
}

func run(ctx context.Context, app *app, args []string, days int, durable bool) error {
	switch args[0] {
	case "sync":
		target := "all"
		if len(args) > 1 {
			target = args[1]
		}
		var result syncdomain.Result
		switch target {
		case "all":
			result = app.orchestrator.SyncAll(ctx)
		case "orders":
			result = app.orchestrator.SyncAllOrders(ctx)
		case "inventory":
			result = app.orchestrator.SyncAllInventory(ctx)
		case "recent":
			result = app.orchestrator.SyncRecentOrders(ctx, days)
		default:
			return fmt.Errorf("unknown sync target %q", target)
		}
		if !result.Success {
			return fmt.Errorf("%s", result.Message)
		}
		fmt.Println(result.Message)
		return nil

	case "export":
		paths, err := app.writer.ExportAll(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Exported:", strings.Join(paths, ", "))
		return nil

	case "refresh":
		paths, err := app.writer.ExportAll(ctx)
		if err != nil {
			return err
		}
		if err := app.analyst.UpdateKnowledge(ctx, paths); err != nil {
			return err
		}
		fmt.Println("Assistant knowledge updated from:", strings.Join(paths, ", "))
		return nil

	case "ask":
		if len(args) < 2 {
			return fmt.Errorf("question required. Usage: syncctl ask \"<question>\"")
		}
		answer, err := app.analyst.Ask(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil

	case "cleanup":
		if err := app.analyst.Cleanup(ctx, durable); err != nil {
			return err
		}
		fmt.Println("Assistant resources removed")
		return nil

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Println(`Usage: syncctl [flags] <command> [args]

Commands:
  sync [all|orders|inventory|recent]  Run a synchronization (default: all)
  export                              Write the CSV export files
  refresh                             Export and push fresh data to the assistant
  ask "<question>"                    Ask the assistant a question
  cleanup                             Delete the assistant's provider resources

Flags:
  -days     Lookback window for 'sync recent' (default: 1)
  -durable  Also remove the durable assistant session on cleanup
  -timeout  Overall command timeout (default: 30m)`)
}
