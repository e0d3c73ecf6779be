package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formcraft/internal/api"
	"formcraft/internal/config"
	"formcraft/internal/observability"
	"formcraft/internal/pubsub"
	"formcraft/internal/schema"
	"formcraft/internal/service"
	"formcraft/internal/storage"
	"formcraft/internal/templates"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := serve(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case "check-templates":
		if len(os.Args) < 3 {
			log.Fatalf("Usage: formcraft check-templates <dir>")
		}
		if err := checkTemplates(os.Args[2]); err != nil {
			log.Fatalf("Template check failed: %v", err)
		}
	case "version":
		fmt.Println(version)
	default:
		log.Fatalf("Unknown command: %s (use 'serve', 'check-templates' or 'version')", cmd)
	}
}

func checkTemplates(dir string) error {
	tpls, err := templates.LoadDir(dir)
	if err != nil {
		return err
	}
	fmt.Printf("%d templates OK\n", len(tpls))
	return nil
}

func serve() error {
	cfg, err := config.Load(os.Getenv("FORMCRAFT_CONFIG"))
	if err != nil {
		return err
	}

	// Initialize logger
	logger, err := observability.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	kv, closeKV, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.Storage.Driver,
		Dir:         cfg.Storage.Dir,
		RedisAddr:   cfg.Storage.Redis.Addr,
		RedisDB:     cfg.Storage.Redis.DB,
		RedisPrefix: cfg.Storage.Redis.Prefix,
	})
	if err != nil {
		return err
	}
	defer closeKV()
	gateway := storage.NewKVGateway(kv)
	logger.Info("Storage ready", zap.String("driver", cfg.Storage.Driver))

	// Built-in templates
	if cfg.Templates.Dir != "" {
		tpls, err := templates.LoadDir(cfg.Templates.Dir)
		if err != nil {
			return err
		}
		if _, err := templates.Seed(ctx, gateway, tpls, logger); err != nil {
			return err
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var metrics *observability.Metrics
	if cfg.Observability.Metrics.Enabled {
		metrics = observability.InitMetrics(registry)
	}

	// Builder store
	validator := schema.NewValidator(schema.NewPatternCache(cfg.Validation.PatternCacheSize, cfg.Validation.PatternCacheTTL))
	shapes := schema.NewCompilerWithCache(cfg.Validation.PatternCacheSize)
	bus := pubsub.New[service.State](logger)
	builder := service.NewBuilder(gateway, validator, shapes, bus, logger)
	builder.SetMetrics(metrics)
	builder.SetHistoryDepth(cfg.History.MaxDepth)
	if err := builder.RestoreTheme(ctx); err != nil {
		logger.Warn("Failed to restore theme", zap.Error(err))
	}

	var autoSaver *service.AutoSaver
	if cfg.Autosave.Enabled {
		autoSaver = service.NewAutoSaver(builder, cfg.Autosave.Interval, logger)
		autoSaver.SetMetrics(metrics)
		autoSaver.Start(ctx)
		defer autoSaver.Stop()
	}

	// HTTP router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/v1", api.Routes(api.Dependencies{
		Builder:      builder,
		AutoSaver:    autoSaver,
		Metrics:      metrics,
		Log:          logger,
		PublicOrigin: cfg.Server.PublicOrigin,
	}))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if metrics != nil {
		r.Handle(cfg.Observability.Metrics.Path, observability.Handler(registry))
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	logger.Info("Starting server", zap.String("addr", cfg.Server.Addr), zap.String("version", version))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	logger.Info("Shutting down server...")

	// Save pending edits before exiting
	if autoSaver != nil && builder.HasForm() {
		if err := autoSaver.SaveNow(ctx); err != nil {
			logger.Warn("Final save failed", zap.Error(err))
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}
