// Command server runs the pharmacy chat backend.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eokafor/go-pharmacy-backend/internal/agent"
	"github.com/eokafor/go-pharmacy-backend/internal/config"
	"github.com/eokafor/go-pharmacy-backend/internal/embedding"
	"github.com/eokafor/go-pharmacy-backend/internal/fulfillment"
	httpapi "github.com/eokafor/go-pharmacy-backend/internal/http"
	"github.com/eokafor/go-pharmacy-backend/internal/observability"
	"github.com/eokafor/go-pharmacy-backend/internal/orders"
	"github.com/eokafor/go-pharmacy-backend/internal/repo"
	"github.com/eokafor/go-pharmacy-backend/internal/retrieval"
	"github.com/eokafor/go-pharmacy-backend/internal/services"
	"github.com/eokafor/go-pharmacy-backend/internal/sysutil"
	"github.com/eokafor/go-pharmacy-backend/internal/tools"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Local development convenience; production injects real env.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Msg("starting pharmacy chat backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	db, err := repo.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	provider, err := embedding.NewOpenAIProvider(cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("embedding provider setup failed")
	}
	index := retrieval.NewIndex(provider, func(ctx context.Context, vec []float32, threshold float64, topK int) ([]repo.EmbeddingMatch, error) {
		return repo.MatchEmbeddings(ctx, db, vec, threshold, topK)
	}, cfg.Retrieval.Threshold, cfg.Retrieval.TopK)

	saga := orders.New(&orders.GormStore{DB: db}, fulfillment.NewClient(cfg.Fulfillment), cfg.Fulfillment)

	orch := tools.NewOrchestrator()
	tools.Register(orch, tools.Deps{
		DB:                db,
		Index:             index,
		Saga:              saga,
		PharmacistContact: cfg.PharmacistContact,
	})

	engine, err := agent.NewOpenAIEngine(cfg.Agent)
	if err != nil {
		log.Fatal().Err(err).Msg("reasoning engine setup failed")
	}

	sessions := services.NewSessionService(db)
	conversation := &services.ConversationService{
		DB:           db,
		Sessions:     sessions,
		Index:        index,
		Orch:         orch,
		Engine:       engine,
		HistoryLimit: cfg.Agent.MaxHistory,
	}

	router := httpapi.NewRouter(cfg, conversation, sessions)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
