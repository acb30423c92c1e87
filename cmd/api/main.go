// Package main is the entry point for the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/socialstocks/backend/internal/api"
	"github.com/socialstocks/backend/internal/auth"
	"github.com/socialstocks/backend/internal/config"
	"github.com/socialstocks/backend/internal/db"
	"github.com/socialstocks/backend/internal/feed"
	"github.com/socialstocks/backend/internal/health"
	"github.com/socialstocks/backend/internal/insight"
	"github.com/socialstocks/backend/internal/market"
	"github.com/socialstocks/backend/internal/middleware"
	"github.com/socialstocks/backend/internal/post"
	"github.com/socialstocks/backend/internal/ranking"
	"github.com/socialstocks/backend/internal/reputation"
	"github.com/socialstocks/backend/internal/tracing"
	"github.com/socialstocks/backend/internal/trend"
)

const serviceName = "socialstocks-api"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("SocialStocks API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if cfg == nil {
		logger := middleware.NewLogger(config.DefaultEnv)
		for _, err := range errs {
			logger.Error("failed to load configuration", "error", err)
		}
		os.Exit(1)
	}
	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	if len(errs) > 0 {
		for _, err := range errs {
			logger.Error("invalid configuration", "error", err)
		}
		os.Exit(1)
	}
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	ctx := context.Background()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, 25, 5)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid redis url", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	// Tracing is driven by the standard OTLP environment variables so
	// deployments without a collector run untouched.
	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      otlpEndpoint != "",
		Environment:  cfg.Env,
		ExporterType: "otlp-grpc",
		OTLPEndpoint: otlpEndpoint,
		SamplingRate: 0.1,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracing", "error", err)
		}
	}()

	// Repositories
	posts := post.NewPostgresPostRepository(sqlDB)
	insights := insight.NewPostgresRepository(sqlDB)
	reputations := reputation.NewPostgresStore(sqlDB)
	alignments := market.NewPostgresAlignmentStore(sqlDB)
	trends := trend.NewPostgresStore(sqlDB)

	reputation.SetWeightingEnabled(cfg.ReputationWeightingEnabled)

	table, err := ranking.LoadCalibration(cfg.RankingCalibrationPath)
	if err != nil {
		logger.Warn("using default ranking weights", "error", err)
	}

	// Trend detection needs an analyzer backend; without one the feed
	// still works, just without trending-ticker bonuses.
	var trendSvc *trend.Service
	if cfg.AnalyzerEndpoint != "" {
		detector := trend.NewHTTPDetector(
			strings.TrimSuffix(cfg.AnalyzerEndpoint, "/")+"/trends",
			cfg.AnalyzerAPIKey, 0)
		trendSvc = trend.NewService(trend.NewRepositoryPostSource(posts), detector, trends, logger)
	}

	feedCfg := feed.Config{
		Posts:       posts,
		Insights:    insights,
		Reputations: reputations,
		Table:       table,
		Logger:      logger,
	}
	if trendSvc != nil {
		feedCfg.Trends = trendSvc
	}
	feedSvc := feed.NewService(feedCfg)

	var snapshots *market.SnapshotCache
	if redisClient != nil {
		snapshots = market.NewSnapshotCache(redisClient, 0)
	}

	healthCfg := api.HealthHandlersConfig{DBChecker: health.NewDBChecker(sqlDB)}
	if redisClient != nil {
		healthCfg.RedisChecker = health.NewRedisChecker(redisClient)
	}

	mux := api.NewRouter(api.RouterConfig{
		Posts:        api.NewPostHandlers(posts),
		Feed:         api.NewFeedHandlers(feedSvc),
		Trends:       api.NewTrendHandlers(trends, trendSvc),
		Market:       api.NewMarketHandlers(alignments, snapshots, reputations),
		Transparency: api.NewTransparencyHandlers(feedSvc, reputations, insight.NewPostgresAuditLog(sqlDB)),
		Dashboard: api.NewDashboardHandlers(api.DashboardHandlersConfig{
			Posts:       posts,
			Insights:    insights,
			Reputations: reputations,
			Trends:      trends,
			Snapshots:   snapshots,
		}),
		Health: api.NewHealthHandlers(healthCfg),
	})

	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}
	mux.Handle("/metrics", promhttp.Handler())

	jwtService := auth.NewJWTServiceWithRotation(cfg.GetJWTSecrets())

	// Rate limiting shares state through Redis when it is configured, so
	// limits hold across API replicas. Otherwise each process keeps its own
	// in-memory counters.
	var rateLimits middleware.RateLimitStore
	if redisClient != nil {
		rateLimits = middleware.NewRedisRateLimitStore(redisClient).WithMetrics(httpMetrics)
	} else {
		rateLimits = middleware.NewInMemoryRateLimitStore()
	}

	// Middleware chain, outermost first: request ID, tracing, logging,
	// metrics, rate limiting, then authentication.
	var handler http.Handler = mux
	handler = middleware.Auth(jwtService)(handler)
	handler = middleware.RateLimiter(rateLimits, middleware.DefaultGlobalLimit(), middleware.IPKeyFunc(), httpMetrics)(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Tracing(serviceName)(handler)
	handler = middleware.RequestID(handler)

	if os.Getenv("PPROF_ENABLED") == "true" {
		handler = middleware.Profiling(middleware.ProfilingConfig{
			Enabled:     true,
			Environment: cfg.Env,
		})(handler)
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		handler = middleware.CORS(middleware.CORSConfig{
			AllowedOrigins:   strings.Split(origins, ","),
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		})(handler)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
