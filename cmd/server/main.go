package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jacob-Cardoso/agent-pay-fe/config"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/health"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/backend"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/google"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/memory"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/method"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/postgres"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/infrastructure/redis"
	ctxlog "github.com/Jacob-Cardoso/agent-pay-fe/internal/log"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/metrics"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/repository"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/session"
	httptransport "github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/cookie"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/handler"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/transport/http/middleware"
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

const (
	upstreamTimeout  = 15 * time.Second
	limiterSweepSpec = "@every 10m"
	limiterIdle      = 30 * time.Minute
	sessionPurgeSpec = "@every 5m"
	shutdownTimeout  = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	housekeeping := cron.New()
	deps := map[string]health.Pinger{}

	// Identity store
	var identities repository.IdentityRepository
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			stop()
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()

		if err := postgres.Migrate(ctx, pool); err != nil {
			stop()
			log.Fatalf("migrate: %v", err)
		}
		identities = postgres.NewIdentityRepository(pool)
		deps["postgres"] = pool
	} else {
		logger.Warn("DATABASE_URL not set, identities are kept in memory")
		identities = memory.NewIdentityRepository()
	}

	// Session state store
	var states repository.SessionStateRepository
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			stop()
			log.Fatalf("redis: %v", err)
		}
		defer func() { _ = client.Close() }()

		states = redis.NewSessionStateRepository(client)
		deps["redis"] = health.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	} else {
		logger.Warn("REDIS_URL not set, session state is kept in memory")
		mem := memory.NewSessionStateRepository()
		if err := memory.SchedulePurge(housekeeping, sessionPurgeSpec, mem, logger); err != nil {
			stop()
			log.Fatalf("schedule purge: %v", err)
		}
		states = mem
	}

	// Upstreams
	backendClient := backend.NewClient(cfg.BackendURL, upstreamTimeout)
	methodClient := method.NewClient(cfg.MethodAPIURL, cfg.MethodAPIKey, upstreamTimeout)

	var externalProvider *google.Provider
	if cfg.GoogleEnabled() {
		externalProvider, err = google.NewProvider(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			stop()
			log.Fatalf("google: %v", err)
		}
	}

	// Session handshake
	issuer := session.NewIssuer([]byte(cfg.SessionSecret), cfg.SessionMaxAge)
	verifier := usecase.NewCredentialVerifier(backendClient, logger)
	provisioner := usecase.NewAccountProvisioner(methodClient, cfg.ProvisionTimeout, logger)
	authUsecase := usecase.NewAuthUsecase(verifier, provisioner, identities, states, issuer, logger)
	phoneGate := usecase.NewPhoneGate(backendClient, identities, states, issuer, logger)
	dashboardUsecase := usecase.NewDashboardUsecase(backendClient, methodClient)

	cookies := cookie.Settings{Secure: cfg.CookieSecure}

	var authHandler *handler.AuthHandler
	if externalProvider != nil {
		authHandler = handler.NewAuthHandler(authUsecase, phoneGate, externalProvider, cookies, logger)
	} else {
		authHandler = handler.NewAuthHandler(authUsecase, phoneGate, nil, cookies, logger)
	}

	limiter := middleware.NewRateLimiter(cfg.AuthRatePerMin)
	if _, err := housekeeping.AddFunc(limiterSweepSpec, func() {
		if n := limiter.Sweep(limiterIdle); n > 0 {
			logger.Debug("swept idle rate limiters", "count", n)
		}
	}); err != nil {
		stop()
		log.Fatalf("schedule limiter sweep: %v", err)
	}

	metrics.Register()
	checker := health.NewChecker(deps, logger, prometheus.DefaultRegisterer)

	router := httptransport.NewRouter(
		logger,
		httptransport.Handlers{
			Auth:      authHandler,
			Phone:     handler.NewPhoneHandler(phoneGate, cookies, logger),
			Dashboard: handler.NewDashboardHandler(dashboardUsecase, logger),
			Health:    handler.NewHealthHandler(checker),
		},
		middleware.SessionConfig{
			Issuer:      issuer,
			States:      states,
			Cookies:     cookies,
			RotateAfter: cfg.SessionRotateAfter,
			Logger:      logger,
		},
		phoneGate,
		limiter,
	)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)

	housekeeping.Start()

	go func() {
		logger.Info("server started", "port", cfg.Port, "google", cfg.GoogleEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	<-housekeeping.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
