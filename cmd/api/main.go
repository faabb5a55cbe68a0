package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	"docflow/internal/api"
	"docflow/internal/config"
	"docflow/internal/objstore"
	"docflow/internal/providers"
	"docflow/internal/retrieve"
	"docflow/internal/storage"
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

	temporalClient, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatalf("temporal: %v", err)
	}
	defer temporalClient.Close()

	manager, err := providers.NewManager(cfg)
	if err != nil {
		log.Fatalf("providers: %v", err)
	}

	searcher := retrieve.NewSearcher(db.Pool)
	retriever := retrieve.NewHybridRetriever(
		retrieve.ProviderEmbedder{Provider: manager.FallbackEmbedder(), Dimension: cfg.EmbedDim},
		searcher, cfg.SearchTopK, logger)
	asker := api.NewAsker(retriever, manager)

	server := api.NewServer(
		cfg,
		storage.NewProjectRepo(db.Pool),
		storage.NewDocumentRepo(db.Pool),
		storage.NewGraphRepo(db.Pool),
		storage.NewCallAuditRepo(db.Pool),
		retriever,
		asker,
		objstore.NewFilesystem(cfg.BlobRoot),
		temporalClient,
		logger,
	)

	logger.Info("api listening", "addr", cfg.APIAddr)
	if err := http.ListenAndServe(cfg.APIAddr, server.Routes()); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
