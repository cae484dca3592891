package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docintel/internal/analysis"
	"docintel/internal/common"
	"docintel/internal/ingest"
	"docintel/internal/jobs"
	"docintel/internal/processor"
	"docintel/internal/server"
	"docintel/internal/workflow"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	// Env
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Job store: Redis when configured, in-memory otherwise
	var store jobs.Store
	if cfg.Jobs.RedisAddr != "" {
		rs, err := jobs.NewRedisStore(cfg.Jobs.RedisAddr, cfg.Jobs.RedisPassword, cfg.Jobs.RedisDB, cfg.Jobs.RedisTTL)
		if err != nil {
			log.Fatalf("redis store: %v", err)
		}
		store = rs
		log.Infow("job store ready", "backend", "redis", "addr", cfg.Jobs.RedisAddr)
	} else {
		store = jobs.NewInMemoryStore()
		log.Infow("job store ready", "backend", "memory")
	}

	// Completed-job archive
	var history *jobs.History
	if cfg.Jobs.HistoryDB != "" {
		h, err := jobs.OpenHistory(cfg.Jobs.HistoryDB)
		if err != nil {
			log.Fatalf("history db: %v", err)
		}
		defer h.Close()
		history = h
		log.Infow("history archive ready", "path", cfg.Jobs.HistoryDB)
	}

	analyzer, err := analysis.NewClient(cfg.Analysis, slog.Default())
	if err != nil {
		log.Fatalf("analysis client: %v", err)
	}

	manager := jobs.NewManager(store, history, slog.Default())
	proc := processor.New(manager, analyzer, slog.Default())

	engine := gin.New()
	engine.Use(gin.Recovery())
	srv := server.New(manager, proc, history, cfg.Server, logger)
	srv.SetupRoutes(engine)

	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}
	log.Infof("HTTP serving on %s", cfg.Server.Addr)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	// Optional hot folders: watch for PDFs and submit them through the API.
	for _, root := range cfg.Ingest.Roots {
		paths, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
			Root:        root,
			InitialScan: cfg.Ingest.InitialScan,
			Debounce:    cfg.Ingest.Debounce,
		}, slog.Default())
		if err != nil {
			log.Fatalf("watch %s: %v", root, err)
		}
		go func(root string) {
			for err := range errs {
				log.Warnw("watch error", "root", root, "error", err)
			}
		}(root)

		reportDir := cfg.Ingest.ReportDir
		if reportDir == "" {
			reportDir = root
		}
		hot := ingest.NewHotFolder(
			workflow.NewClient("http://localhost"+cfg.Server.Addr, nil, slog.Default()),
			ingest.HotFolderConfig{
				ReportDir: reportDir,
				Poll: workflow.PollConfig{
					Interval:    cfg.Analysis.PollInterval,
					MaxAttempts: cfg.Analysis.PollAttempts,
				},
			},
			slog.Default(),
		)
		go func(root string) {
			log.Infow("hot folder active", "root", root, "reports", reportDir)
			if err := hot.Run(ctx, paths); err != nil && ctx.Err() == nil {
				log.Errorw("hot folder stopped", "root", root, "error", err)
			}
		}(root)
	}

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	fmt.Println("stopped.")
}
