package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/rocktruck/doc-validator/internal/admission"
	"github.com/rocktruck/doc-validator/internal/async"
	"github.com/rocktruck/doc-validator/internal/authenticity"
	"github.com/rocktruck/doc-validator/internal/common"
	"github.com/rocktruck/doc-validator/internal/export"
	"github.com/rocktruck/doc-validator/internal/extract"
	"github.com/rocktruck/doc-validator/internal/fetch"
	"github.com/rocktruck/doc-validator/internal/notify"
	"github.com/rocktruck/doc-validator/internal/pipeline"
	"github.com/rocktruck/doc-validator/internal/profile"
	"github.com/rocktruck/doc-validator/internal/repository"
	"github.com/rocktruck/doc-validator/internal/rules"
	"github.com/rocktruck/doc-validator/internal/server"
	"github.com/rocktruck/doc-validator/internal/verify"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	jobs := repository.NewJobRepository(pool, logger)
	decisions := repository.NewDecisionRepository(pool, logger)

	var admissions admission.Index
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		defer func() {
			if cerr := rdb.Close(); cerr != nil {
				logger.Warn("redis close failed", "error", cerr)
			}
		}()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("redis connection failed", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		admissions = admission.NewRedisIndex(rdb, cfg.Redis.AdmissionTTL)
		logger.Info("using redis admission index", "addr", cfg.Redis.Addr)
	} else {
		admissions = admission.NewMemoryIndex()
		logger.Info("using in-memory admission index")
	}

	registry := profile.NewRegistry()
	fetcher := fetch.NewHTTPFetcher(cfg.Pipeline.FetchTimeout, cfg.Pipeline.MaxFileSizeMB<<20, logger)
	textExtractor := extract.NewPDFTextExtractor(logger)
	fieldExtractor := extract.NewAIClient(extract.AIConfig{
		APIKey:      cfg.Extract.APIKey,
		BaseURL:     cfg.Extract.BaseURL,
		Model:       cfg.Extract.Model,
		Temperature: cfg.Extract.Temperature,
		Timeout:     cfg.Extract.Timeout,
	}, registry, logger)
	scorer := authenticity.NewScorer(logger,
		authenticity.WithSizeBounds(cfg.Pipeline.MinFileSizeKB<<10, cfg.Pipeline.MaxFileSizeMB<<20))
	agent := verify.NewVMClient(verify.VMClientConfig{
		BaseURL: cfg.Verify.AgentURL,
		APIKey:  cfg.Verify.APIKey,
		Timeout: cfg.Verify.Timeout,
	}, logger)
	coordinator := verify.NewCoordinator(agent, registry, cfg.Verify.MaxAttempts, cfg.Verify.RetryDelay, logger)
	reconciler := pipeline.NewReconciler(fetcher, textExtractor, fieldExtractor, registry, logger)
	notifier := notify.NewWebhookNotifier(cfg.Pipeline.CallbackTimeout, logger)

	orch := pipeline.NewOrchestrator(pipeline.Deps{
		Jobs:       jobs,
		Decisions:  decisions,
		Admissions: admissions,
		Fetcher:    fetcher,
		Text:       textExtractor,
		Fields:     fieldExtractor,
		Scorer:     scorer,
		Engine:     rules.NewEngine(logger),
		Verifier:   coordinator,
		Reconciler: reconciler,
		Notifier:   notifier,
		Registry:   registry,
		Logger:     logger,
	})

	queue := async.NewProcessorQueue(orch, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)

	api := server.New(server.Deps{
		Jobs:       jobs,
		Decisions:  decisions,
		Admissions: admissions,
		Queue:      queue,
		Registry:   registry,
		Exporter:   export.NewService(decisions, logger),
		Health: func(ctx context.Context) error {
			return repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout)
		},
		Logger: logger,
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Router(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown incomplete", "error", err)
		}
		queue.Shutdown(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
