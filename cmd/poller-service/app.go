package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"pushrelay/internal/config"
	"pushrelay/internal/constants"
	"pushrelay/internal/github"
	"pushrelay/internal/logger"
	"pushrelay/internal/poller"
	"pushrelay/internal/store"
	"pushrelay/internal/telegram"
	"pushrelay/pkg/health"
	"pushrelay/pkg/metrics"
	"pushrelay/pkg/ratelimit"
	"pushrelay/pkg/retry"
	"pushrelay/pkg/telemetry"
)

type App struct {
	Config *config.Config
	Logger logger.Logger

	redisClient *redis.Client
	service     *poller.Service
	server      *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("poller-service")
	}
	return &App{
		Config: cfg,
		Logger: log,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initRedis(ctx); err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}

	metrics.RegisterPollerMetrics()
	metrics.RegisterStoreMetrics()
	metrics.RegisterOutboundMetrics()
	metrics.RegisterServerMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	a.initHTTPServer(a.initService())

	return nil
}

// initRedis connects with backoff: the store is the only hard dependency, and
// it commonly comes up a few seconds after the service in orchestrated
// deployments.
func (a *App) initRedis(ctx context.Context) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", a.Config.Database.Redis.Host, a.Config.Database.Redis.Port),
		Password: a.Config.Database.Redis.Password,
		DB:       a.Config.Database.Redis.DB,
	})

	err := retry.Retry(ctx, retry.DefaultPolicy(), func() error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	a.Logger.Info("Redis connected successfully")
	a.redisClient = rdb
	return nil
}

func (a *App) initService() *poller.Handler {
	recorder := telemetry.NewRecorder()
	sink := telemetry.MultiSink{telemetry.PromSink{}, recorder}

	repo := store.NewRepository(a.redisClient, sink)
	guarded := store.NewCircuitBreakerRepository(repo, a.Config.CircuitBreaker)

	ghClient := github.NewClient(a.Config.GitHub.BaseURL, a.Config.GitHub.Token, nil, sink, a.Logger)
	collector := github.NewCollector(ghClient)

	tgClient := telegram.NewClient(
		a.Config.Telegram.BaseURL,
		a.Config.Telegram.BotToken,
		a.Config.Telegram.ChatID,
		nil,
		sink,
		a.Logger,
	)

	pipeline := poller.NewPipeline(guarded, ghClient, tgClient, a.Logger)
	a.service = poller.NewService(a.Config.Poller, collector, guarded, pipeline, recorder, a.Logger)

	return poller.NewHandler(a.service, guarded, a.Logger)
}

func (a *App) initHTTPServer(handler *poller.Handler) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ratelimit.Middleware(ratelimit.DefaultConfig()))

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewRedisChecker(a.redisClient))

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(router)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds * time.Second,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds * time.Second,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("Shutting down application...")

	var errs []error

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close error: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.Logger.Info("Application exited successfully")
	return nil
}
