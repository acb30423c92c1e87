// Package main is the entry point for the background worker. It runs
// the scheduled jobs the API server does not: post analysis sweeps,
// reputation recomputes, market alignment scoring, snapshot refreshes
// and trend detection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/socialstocks/backend/internal/config"
	"github.com/socialstocks/backend/internal/db"
	"github.com/socialstocks/backend/internal/insight"
	"github.com/socialstocks/backend/internal/jobs"
	"github.com/socialstocks/backend/internal/market"
	"github.com/socialstocks/backend/internal/middleware"
	"github.com/socialstocks/backend/internal/post"
	"github.com/socialstocks/backend/internal/reputation"
	"github.com/socialstocks/backend/internal/trend"
)

const defaultMetricsPort = 9091

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("SocialStocks Background Worker")
		fmt.Println()
		fmt.Println("Usage: worker [options]")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, 10, 2)
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

	// Repositories and data sources
	posts := post.NewPostgresPostRepository(sqlDB)
	insights := insight.NewPostgresRepository(sqlDB)
	reputations := reputation.NewPostgresStore(sqlDB)
	repSource := reputation.NewPostgresDataSource(sqlDB)
	alignments := market.NewPostgresAlignmentStore(sqlDB)
	candidates := market.NewPostgresCandidateSource(sqlDB)
	prices := market.NewPostgresPriceSource(sqlDB)
	trends := trend.NewPostgresStore(sqlDB)
	audit := insight.NewPostgresAuditLog(sqlDB)

	reputation.SetWeightingEnabled(cfg.ReputationWeightingEnabled)

	jobMetrics := jobs.NewMetrics()
	repMetrics := reputation.NewMetrics()
	if err := jobMetrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register job metrics", "error", err)
		os.Exit(1)
	}
	if err := repMetrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register reputation metrics", "error", err)
		os.Exit(1)
	}

	dirty := reputation.NewDirtyTracker()

	// Analysis sweeps need a model backend. Without one the worker
	// still runs the market and reputation jobs.
	var sweeper *jobs.Sweeper
	var trendSvc *trend.Service
	if cfg.AnalyzerEndpoint != "" {
		analyzer := insight.NewHTTPAnalyzer(cfg.AnalyzerEndpoint, cfg.AnalyzerAPIKey, 0)
		processor := insight.NewProcessor(insight.ProcessorConfig{
			Posts:             posts,
			Insights:          insights,
			Analyzer:          analyzer,
			Audit:             audit,
			ReputationStore:   reputations,
			ReputationSource:  repSource,
			ReputationTracker: dirty,
			Logger:            logger,
		})
		sweeper = jobs.NewSweeper(jobs.SweeperConfig{
			Posts:     posts,
			Processor: processor,
			Metrics:   jobMetrics,
			Logger:    logger,
		})

		detector := trend.NewHTTPDetector(
			strings.TrimSuffix(cfg.AnalyzerEndpoint, "/")+"/trends",
			cfg.AnalyzerAPIKey, 0)
		trendSvc = trend.NewService(trend.NewRepositoryPostSource(posts), detector, trends, logger)
	} else {
		logger.Warn("analyzer endpoint not configured, analysis and trend jobs disabled")
	}

	scorer := market.NewScorer(prices, candidates, alignments, insights, logger)

	var snapshots *market.SnapshotCache
	if redisClient != nil {
		snapshots = market.NewSnapshotCache(redisClient, 0)
	}

	recompute := reputation.NewRecomputeJob(reputation.RecomputeJobConfig{
		Interval:   time.Hour,
		Logger:     logger,
		Metrics:    repMetrics,
		JobMetrics: jobMetrics,
	}, dirty, repSource, reputations)
	if err := recompute.Start(ctx); err != nil {
		logger.Error("failed to start reputation recompute job", "error", err)
		os.Exit(1)
	}

	c := cron.New()
	if sweeper != nil {
		c.AddFunc("*/5 * * * *", func() { sweeper.ProcessPending(ctx) })
		c.AddFunc("*/10 * * * *", func() { sweeper.RetryFailed(ctx) })
	}
	c.AddFunc("0 2 * * *", func() {
		err := jobMetrics.Track(jobs.JobTypeMarketAlignment, func() error {
			result, err := scorer.RunBatch(ctx, market.DefaultBatchLimit)
			if err != nil {
				return err
			}
			logger.Info("alignment scoring completed",
				"checked", result.Checked,
				"scored", result.Scored,
				"skipped", result.Skipped)
			return nil
		})
		if err != nil {
			logger.Error("alignment scoring failed", "error", err)
		}
	})
	if snapshots != nil {
		c.AddFunc("*/30 * * * *", func() {
			err := jobMetrics.Track(jobs.JobTypeSnapshotRefresh, func() error {
				written, err := market.RefreshSnapshots(ctx, prices, snapshots, 0, logger)
				if err != nil {
					return err
				}
				logger.Info("snapshot cache refreshed", "tickers", written)
				return nil
			})
			if err != nil {
				logger.Error("snapshot refresh failed", "error", err)
			}
		})
	}
	if trendSvc != nil {
		c.AddFunc("0 */6 * * *", func() {
			err := jobMetrics.Track(jobs.JobTypeTrendDetection, func() error {
				result, err := trendSvc.DetectNow(ctx, "24h", 0)
				if err != nil {
					return err
				}
				logger.Info("trend detection completed",
					"analyzed_posts", result.AnalyzedPosts,
					"trends_created", len(result.Created))
				return nil
			})
			if err != nil {
				logger.Error("trend detection failed", "error", err)
			}
		})
	}
	c.Start()

	metricsPort := defaultMetricsPort
	if v := os.Getenv("METRICS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			metricsPort = p
		}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	metricsServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", metricsPort),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting worker metrics server", "port", metricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("worker started", "env", cfg.Env)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")

	cronCtx := c.Stop()
	<-cronCtx.Done()
	recompute.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", "error", err)
	}

	logger.Info("worker stopped")
}
