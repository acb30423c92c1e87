package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/socialstocks/backend/internal/insight"
	"github.com/socialstocks/backend/internal/post"
	"github.com/socialstocks/backend/internal/stats"
)

// DefaultSweepBatch caps how many posts a single sweep pass picks up.
const DefaultSweepBatch = 50

// Sweeper drives the periodic analysis passes over the post backlog:
// first attempts for pending posts and staggered re-attempts for
// failed ones.
type Sweeper struct {
	posts     post.PostRepository
	processor *insight.Processor
	metrics   Reporter
	logger    *slog.Logger
	batch     int
	now       func() time.Time
}

// SweeperConfig carries the Sweeper's dependencies.
type SweeperConfig struct {
	Posts     post.PostRepository
	Processor *insight.Processor
	Metrics   Reporter
	Logger    *slog.Logger
	BatchSize int
}

func NewSweeper(cfg SweeperConfig) *Sweeper {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultSweepBatch
	}
	return &Sweeper{
		posts:     cfg.Posts,
		processor: cfg.Processor,
		metrics:   cfg.Metrics,
		logger:    logger,
		batch:     batch,
		now:       time.Now,
	}
}

// ProcessPending analyzes posts awaiting their first attempt, oldest
// first.
func (s *Sweeper) ProcessPending(ctx context.Context) {
	started := time.Now()

	batch, err := s.posts.ListByStatus(post.StatusPending, s.batch)
	if err != nil {
		s.fail(JobTypePostProcessing, "list", err)
		return
	}

	counts := stats.NewProcessingStats()
	for _, p := range batch {
		if ctx.Err() != nil {
			s.fail(JobTypePostProcessing, "canceled", ctx.Err())
			return
		}
		if err := s.processor.ProcessPost(ctx, p.ID); err != nil {
			counts.RecordFailed()
			s.logger.Error("post analysis failed",
				"post_id", p.ID, "error", err)
			s.metrics.IncJobErrors(JobTypePostProcessing, "analysis")
			continue
		}
		counts.RecordProcessed()
	}

	s.metrics.ObserveJobDuration(JobTypePostProcessing, time.Since(started).Seconds())
	s.metrics.IncJobsTotal(JobTypePostProcessing, StatusSuccess)
	counts.LogSummary(s.logger, "pending")
}

// RetryFailed re-attempts failed posts that are below the retry ceiling
// and whose backoff delay has elapsed.
func (s *Sweeper) RetryFailed(ctx context.Context) {
	started := time.Now()

	batch, err := s.posts.ListFailedRetryable(insight.MaxRetries, s.batch)
	if err != nil {
		s.fail(JobTypeFailedRetry, "list", err)
		return
	}

	counts := stats.NewProcessingStats()
	for _, p := range batch {
		if ctx.Err() != nil {
			s.fail(JobTypeFailedRetry, "canceled", ctx.Err())
			return
		}
		if s.now().Sub(p.UpdatedAt) < retryDelay(p.RetryCount) {
			counts.RecordSkipped()
			continue
		}
		if err := s.processor.ProcessPost(ctx, p.ID); err != nil {
			counts.RecordFailed()
			s.logger.Error("post retry failed",
				"post_id", p.ID, "retry_count", p.RetryCount, "error", err)
			s.metrics.IncJobErrors(JobTypeFailedRetry, "analysis")
			continue
		}
		counts.RecordProcessed()
	}

	s.metrics.ObserveJobDuration(JobTypeFailedRetry, time.Since(started).Seconds())
	s.metrics.IncJobsTotal(JobTypeFailedRetry, StatusSuccess)
	counts.LogSummary(s.logger, "retry")
}

// retryDelay maps a post's failure count to its backoff. Counts past
// the table use the longest delay.
func retryDelay(retryCount int) time.Duration {
	idx := retryCount - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(insight.RetryDelays) {
		idx = len(insight.RetryDelays) - 1
	}
	return insight.RetryDelays[idx]
}

func (s *Sweeper) fail(jobType, errorType string, err error) {
	s.metrics.IncJobsTotal(jobType, StatusFailure)
	s.metrics.IncJobErrors(jobType, errorType)
	s.logger.Error("sweep aborted", "job_type", jobType, "error", err)
}

// Track runs fn and records its duration and outcome under jobType.
// It is the shared wrapper for the single-shot scheduled jobs that do
// not go through the Sweeper.
func (m *Metrics) Track(jobType string, fn func() error) error {
	started := time.Now()
	err := fn()
	m.ObserveJobDuration(jobType, time.Since(started).Seconds())
	if err != nil {
		m.IncJobsTotal(jobType, StatusFailure)
		m.IncJobErrors(jobType, "run")
		return err
	}
	m.IncJobsTotal(jobType, StatusSuccess)
	return nil
}
