package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/booking"
	"github.com/parleyhq/parley/internal/chunker"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/ingest"
	"github.com/parleyhq/parley/internal/ollama"
	"github.com/parleyhq/parley/internal/openai"
	"github.com/parleyhq/parley/internal/responder"
	"github.com/parleyhq/parley/internal/retriever"
	"github.com/parleyhq/parley/internal/session"
	"github.com/parleyhq/parley/internal/store"
	"github.com/parleyhq/parley/internal/vecindex"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("parley starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database (optional — without it the service runs fully in memory)
	var db *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set — bookings and documents are not persisted")
	}

	// LLM client
	llm := ollama.NewClient(cfg.OllamaURL, cfg.OllamaModel, cfg.EmbedModel, cfg.EmbedDimension, cfg.LLMTimeout)
	slog.Info("ollama client ready", "url", cfg.OllamaURL, "model", cfg.OllamaModel)

	// Embedder
	var embedder retriever.Embedder = llm
	if cfg.EmbedProvider == "openai" {
		if cfg.OpenAIAPIKey == "" {
			slog.Error("OPENAI_API_KEY is required with EMBED_PROVIDER=openai")
			os.Exit(1)
		}
		embedder = openai.NewEmbedder(cfg.OpenAIAPIKey, cfg.EmbedModel, cfg.EmbedDimension)
	}
	slog.Info("embedder ready", "provider", cfg.EmbedProvider, "model", cfg.EmbedModel, "dimension", embedder.Dimension())

	// Vector index: pgvector when a database is available, in-memory otherwise
	var index vecindex.Index = vecindex.NewMemory(embedder.Dimension())
	if db != nil {
		index = vecindex.NewPgvector(db.Pool(), embedder.Dimension())
	}

	ret, err := retriever.New(embedder, index, slog.Default())
	if err != nil {
		slog.Error("failed to build retriever", "error", err)
		os.Exit(1)
	}

	// Chunker
	ck, err := chunker.New(cfg.ChunkWidth, cfg.ChunkOverlap)
	if err != nil {
		slog.Error("invalid chunking configuration", "error", err)
		os.Exit(1)
	}

	// NATS publisher (optional — the service works without a broker)
	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		publisher, err = events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set — running without event publishing")
	}

	// Sessions with idle pruning
	sessions := session.NewStore()
	if cfg.SessionTTL > 0 {
		go pruneLoop(ctx, sessions, cfg.SessionTTL)
	}

	// Booking extraction
	var bookingStore booking.Store
	if db != nil {
		bookingStore = db
	}
	machine := booking.NewMachine(llm, bookingStore, slog.Default())

	// Ingestion pipeline
	var meta ingest.MetadataStore
	if db != nil {
		meta = db
	}
	pipeline := ingest.New(ck, embedder, index, meta, slog.Default())

	// Per-turn orchestration
	resp := responder.New(sessions, ret, machine, llm, publisher, slog.Default(),
		cfg.TopK, cfg.ScoreThreshold, 2048)

	// HTTP API
	var archive api.Archive
	if db != nil {
		archive = db
	}
	var notifier api.DocumentNotifier
	if publisher != nil {
		notifier = publisher
	}
	srv := api.NewServer(cfg.Port, resp, pipeline, sessions, archive, notifier)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("parley ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("parley stopped")
}

// pruneLoop drops idle sessions on a fixed cadence until shutdown.
func pruneLoop(ctx context.Context, sessions *session.Store, ttl time.Duration) {
	interval := ttl / 4
	if interval > time.Hour {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.PruneIdle(ttl); removed > 0 {
				slog.Info("pruned idle sessions", "removed", removed)
			}
		}
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
