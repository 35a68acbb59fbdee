package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docaudit/internal/batch"
	batchmetrics "docaudit/internal/batch/metrics"
	"docaudit/internal/documents"
	"docaudit/internal/extract"
	"docaudit/internal/history"
	"docaudit/internal/judge"
	"docaudit/internal/platform/config"
	"docaudit/internal/platform/httpserver"
	"docaudit/internal/platform/logger"
	platformredis "docaudit/internal/platform/redis"
	"docaudit/internal/rules"
	transporthttp "docaudit/internal/transport/http"
	"docaudit/internal/uistate"
)

// main wires the dependencies and keeps the server lifecycle small. Audit
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	docReg := documents.NewRegistry()
	ruleReg := rules.NewRegistry()
	ui := uistate.NewStore()
	extractor := extract.NewOfficeExtractor()

	// Verdict cache: Redis when configured, otherwise in-process.
	var cacheStore judge.CacheStore = judge.NewMemoryCache(cfg.CacheTTL)
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cacheStore = judge.NewRedisCache(redisClient, cfg.CacheTTL)
		log.Info("verdict cache backed by redis")
	}
	judgeClient := judge.NewCached(judge.NewClient(cfg.Judge),
		cacheStore, log.With("component", "judge"))

	// History: Postgres when configured, otherwise in-memory for the session.
	var historyStore history.Store = history.NewMemoryStore()
	if cfg.PostgresDSN != "" {
		pgStore, err := history.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		historyStore = pgStore
		log.Info("history backed by postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	historyWorker := history.NewWorker(historyStore, log.With("component", "history"), 0)
	go historyWorker.Run(ctx)
	historyService := history.NewService(historyWorker, historyStore)

	orchestrator := batch.NewOrchestrator(batch.Deps{
		Documents:   docReg,
		Rules:       ruleReg,
		Extractor:   extractor,
		Judge:       judgeClient,
		Notifier:    ui,
		Recorder:    historyService,
		Metrics:     batchmetrics.New(),
		Logger:      log.With("component", "batch"),
		Concurrency: cfg.Concurrency,
	})

	router := transporthttp.NewRouter(transporthttp.Deps{
		Documents: docReg,
		Rules:     ruleReg,
		Batch:     orchestrator,
		History:   historyService,
		UIState:   ui,
		Logger:    log.With("component", "http"),
	})

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("docaudit listening", "addr", cfg.Addr, "concurrency", cfg.Concurrency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
