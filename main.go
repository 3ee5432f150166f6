package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Milbo-LLC/waybook-sub000/api"
	"github.com/Milbo-LLC/waybook-sub000/config"
	"github.com/Milbo-LLC/waybook-sub000/eventlogger"
	"github.com/Milbo-LLC/waybook-sub000/ledger"
	"github.com/Milbo-LLC/waybook-sub000/migrations"
	"github.com/Milbo-LLC/waybook-sub000/ratelimit"
	"github.com/Milbo-LLC/waybook-sub000/scenario"
	"github.com/Milbo-LLC/waybook-sub000/scheduler"
	"github.com/Milbo-LLC/waybook-sub000/session"
	"github.com/Milbo-LLC/waybook-sub000/trip"
	"github.com/Milbo-LLC/waybook-sub000/user"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load(".")
	if err != nil {
		printErrorAndExit("loading config", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		printErrorAndExit("database connection", err)
	}
	defer db.Close()

	err = db.Ping()
	if err != nil {
		printErrorAndExit("pinging database", err)
	}

	if err := migrations.Up(db); err != nil {
		printErrorAndExit("running migrations", err)
	}

	evtlogger := eventlogger.NewSqlEventLogger(db)
	worker := eventlogger.NewWorker(evtlogger, cfg.EventBufferSize)
	worker.Start()
	defer worker.Shutdown()

	userRepo := user.NewRepository(db)
	sessionRepo := session.NewRepository(db)
	tripRepo := trip.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	scenarios := scenario.NewService(scenario.NewRepository(db))

	store, closeStore := rateLimitStore(cfg, logger)
	defer closeStore()
	limiter := ratelimit.NewLimiter(store, cfg.RegenerateRateLimitPerMinute, time.Minute)

	jobs := scheduler.New(scheduler.NewJobs(sessionRepo, logger), logger)
	if err := jobs.Start(cfg.SessionPurgeSchedule); err != nil {
		printErrorAndExit("starting scheduler", err)
	}

	handlers := api.NewHandlers(api.Dependencies{
		Users:     userRepo,
		Sessions:  sessionRepo,
		Trips:     tripRepo,
		Ledger:    ledgerRepo,
		Scenarios: scenarios,
		Events:    worker,
	})

	router := api.NewRouter(handlers, api.RouterConfig{
		Sessions:       sessionRepo,
		Roles:          tripRepo,
		Limiter:        limiter,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			printErrorAndExit("starting server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	select {
	case <-jobs.Stop().Done():
	case <-ctx.Done():
		logger.Warn("scheduled jobs still running at shutdown")
	}

	logger.Info("server gracefully stopped", "dropped_events", worker.Dropped())
}

// rateLimitStore uses Redis when REDIS_URL is set so limits hold across
// instances, and an in-process store otherwise.
func rateLimitStore(cfg config.Config, logger *slog.Logger) (ratelimit.Store, func()) {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, using in-memory rate limiting")
		return ratelimit.NewMemoryStore(), func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		printErrorAndExit("parsing REDIS_URL", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		printErrorAndExit("pinging redis", err)
	}

	return ratelimit.NewRedisStore(client, cfg.RateLimitPrefix), func() {
		if err := client.Close(); err != nil {
			logger.Error("closing redis client", "error", err)
		}
	}
}

func printErrorAndExit(msg string, e error) {
	slog.Error(msg, "error", e)
	os.Exit(1)
}
