package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"docflow/internal/activities"
	"docflow/internal/cache"
	"docflow/internal/config"
	"docflow/internal/embed"
	"docflow/internal/extract"
	"docflow/internal/graph"
	"docflow/internal/objstore"
	"docflow/internal/providers"
	"docflow/internal/storage"
	"docflow/internal/workflows"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	db, err := storage.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx, cfg.EmbedDim); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	manager, err := providers.NewManager(cfg)
	if err != nil {
		log.Fatalf("providers: %v", err)
	}

	var refineCache cache.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		refineCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), 0)
	}

	chunkRepo := storage.NewChunkRepo(db.Pool)
	acts := &activities.Activities{
		Documents: storage.NewDocumentRepo(db.Pool),
		Chunks:    chunkRepo,
		Graph:     storage.NewGraphRepo(db.Pool),
		Audit:     storage.NewCallAuditRepo(db.Pool),
		Files:     objstore.NewFilesystem(cfg.BlobRoot),
		Artifacts: objstore.NewFilesystem(cfg.ArtifactRoot),
		Extractor: extract.New(manager.OCR(), cfg.MinPageTextChars, logger),
		Embedder: embed.NewGenerator(embed.Config{
			BatchSize:   cfg.EmbedBatchSize,
			Concurrency: cfg.EmbedConcurrency,
			MaxRetries:  cfg.EmbedMaxRetries,
			Backoff:     time.Duration(cfg.EmbedBackoffMs) * time.Millisecond,
			Dimension:   cfg.EmbedDim,
		}, manager.FallbackEmbedder(), chunkRepo, logger),
		GraphBuilder: graph.NewBuilder(cfg.GraphThreshold, cfg.GraphTopK),
		Refiner:      graph.NewRefiner(manager.FallbackLLM(), refineCache, logger),
		Log:          logger,
	}

	temporalClient, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatalf("temporal: %v", err)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	acts.Register(w)

	logger.Info("worker starting", "task_queue", cfg.TemporalTaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
