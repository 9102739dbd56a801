package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/trivia-night/internal/api"
	"github.com/dom/trivia-night/internal/config"
	"github.com/dom/trivia-night/internal/repository/postgres"
	"github.com/dom/trivia-night/internal/service"
	"github.com/dom/trivia-night/internal/timer"
	"github.com/dom/trivia-night/internal/websocket"
	"github.com/dom/trivia-night/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

func main() {
	// A missing .env is fine; the environment wins anyway.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", err)
	}
	logger.Init(cfg.LogLevel, cfg.Environment)
	defer logger.Sync()

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL, postgres.GormLogLevel(cfg.LogLevel))
	if err != nil {
		logger.Fatal("failed to connect to database", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(reg)
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	// Document store and its change feed
	docs := postgres.NewDocumentStore(db,
		postgres.WithMaxRetries(cfg.StoreMaxRetries),
		postgres.WithRetryHook(metrics.Retry),
	)
	go func() {
		if err := docs.Listen(ctx, cfg.DatabaseURL); err != nil {
			logger.Error("document listener stopped", "error", err)
		}
	}()

	repos := postgres.NewRepositories(db)

	opts := []service.EngineOption{
		service.WithMetrics(metrics),
		service.WithTracer(otel.Tracer("github.com/dom/trivia-night/service")),
	}

	// The scheduler reports expiry through the game service, which does not
	// exist yet when the engine is built.
	var games *service.GameService
	var scheduler *timer.Scheduler
	if cfg.ServerTimers() {
		scheduler = timer.NewScheduler(docs, func(ctx context.Context, gameID string, generation int64) error {
			_, err := games.HandleCountdownExpiry(ctx, timer.ServerAuthority, gameID, generation)
			return err
		}, timer.SchedulerConfig{
			Buffer:      cfg.ExpiryBuffer,
			DedupWindow: cfg.ExpiryDedupWindow,
		})
		// TODO: re-watch games whose countdown was running before a restart;
		// today they are picked up by the next command on the game.
		opts = append(opts, service.WithServerTimers(scheduler))
	}

	engine := service.NewEngine(docs, opts...)
	services := service.NewServices(repos, engine, cfg)
	games = services.Game

	// Initialize WebSocket hub
	hub := websocket.NewHub(docs, engine)
	go hub.Run()

	router := api.NewRouter(services, hub, cfg, metricsHandler)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "timer_authority", cfg.TimerAuthority)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	hub.Stop()
	stop()

	logger.Info("server stopped")
}
