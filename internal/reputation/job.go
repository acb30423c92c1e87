package reputation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RecomputeJobConfig configures the reputation recompute job.
type RecomputeJobConfig struct {
	// Interval is the duration between recompute cycles.
	Interval time.Duration
	// Logger for job activity.
	Logger *slog.Logger
	// Metrics for performance tracking.
	Metrics *Metrics
	// JobMetrics for centralized background job tracking.
	JobMetrics JobMetrics
	// Timeout for each recompute cycle.
	Timeout time.Duration
}

// JobMetrics provides centralized background job metrics tracking.
// This interface allows the job to report to the centralized job metrics system.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// DefaultRecomputeInterval is the default interval between recompute cycles.
const DefaultRecomputeInterval = 60 * time.Second

// DefaultRecomputeTimeout is the default timeout for a single recompute cycle.
const DefaultRecomputeTimeout = 30 * time.Second

// jobType labels reputation runs in job metrics.
const jobType = "reputation_recompute"

// RecomputeJob periodically refreshes engagement scores for users whose
// posts received new reactions.
type RecomputeJob struct {
	config       RecomputeJobConfig
	dirtyTracker *DirtyTracker
	dataSource   DataSource
	store        Store

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRecomputeJob creates a new reputation recompute job.
func NewRecomputeJob(
	config RecomputeJobConfig,
	dirtyTracker *DirtyTracker,
	dataSource DataSource,
	store Store,
) *RecomputeJob {
	if config.Interval == 0 {
		config.Interval = DefaultRecomputeInterval
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultRecomputeTimeout
	}

	return &RecomputeJob{
		config:       config,
		dirtyTracker: dirtyTracker,
		dataSource:   dataSource,
		store:        store,
	}
}

// Start begins the periodic recompute job.
// Returns immediately; the job runs in a background goroutine.
func (j *RecomputeJob) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

// Stop signals the recompute job to stop and waits for it to finish.
func (j *RecomputeJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning returns whether the job is currently running.
func (j *RecomputeJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// run is the main loop for the recompute job.
func (j *RecomputeJob) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("reputation recompute job stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("reputation recompute job stopping due to stop signal")
			return
		case <-ticker.C:
			j.recomputeDirtyUsers(ctx)
		}
	}
}

// recomputeDirtyUsers refreshes engagement scores for all dirty users.
func (j *RecomputeJob) recomputeDirtyUsers(parentCtx context.Context) {
	dirtyUsers := j.dirtyTracker.GetDirtyUsers()
	if len(dirtyUsers) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	startTime := time.Now()
	userCount := len(dirtyUsers)
	var successCount int

	j.config.Logger.Info("recomputing reputation scores",
		"dirty_count", userCount)

	for i, userID := range dirtyUsers {
		select {
		case <-ctx.Done():
			j.config.Logger.Error("reputation recompute timeout exceeded",
				"processed", i,
				"total", userCount,
				"timeout", j.config.Timeout)
			if j.config.Metrics != nil {
				j.config.Metrics.IncRecomputeErrors()
			}
			duration := time.Since(startTime).Seconds()
			if j.config.Metrics != nil {
				j.config.Metrics.ObserveRecomputeDuration(duration)
			}
			if j.config.JobMetrics != nil {
				j.config.JobMetrics.IncJobErrors(jobType, "timeout")
				j.config.JobMetrics.IncJobsTotal(jobType, "failure")
				j.config.JobMetrics.ObserveJobDuration(jobType, duration)
			}
			return
		default:
		}

		if err := j.recomputeUser(userID); err != nil {
			j.config.Logger.Error("failed to recompute reputation",
				"user_id", userID,
				"error", err)
			if j.config.Metrics != nil {
				j.config.Metrics.IncRecomputeErrors()
			}
			if j.config.JobMetrics != nil {
				j.config.JobMetrics.IncJobErrors(jobType, "recompute_error")
			}
			continue
		}

		j.dirtyTracker.ClearDirty(userID)
		successCount++

		if (i+1)%10 == 0 {
			j.config.Logger.Debug("recompute progress",
				"processed", i+1,
				"total", userCount)
		}
	}

	duration := time.Since(startTime).Seconds()

	status := "success"
	if successCount < userCount {
		status = "failure"
	}

	if j.config.Metrics != nil {
		j.config.Metrics.IncRecomputeTotal()
		j.config.Metrics.ObserveRecomputeDuration(duration)
		j.config.Metrics.SetLastRecomputeTimestamp(float64(time.Now().Unix()))
		j.config.Metrics.SetLastRecomputeUserCount(float64(successCount))
	}
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.IncJobsTotal(jobType, status)
		j.config.JobMetrics.ObserveJobDuration(jobType, duration)
	}

	j.config.Logger.Info("reputation recompute completed",
		"duration_seconds", duration,
		"users_processed", successCount,
		"users_failed", userCount-successCount)
}

// recomputeUser refreshes the engagement score for a single user.
func (j *RecomputeJob) recomputeUser(userID string) error {
	totals, err := j.dataSource.GetEngagementTotals(userID)
	if err != nil {
		return err
	}

	current, err := j.store.Get(userID)
	if err != nil {
		return err
	}

	var rep Reputation
	if current != nil {
		rep = *current
	} else {
		rep = Reputation{
			UserID:           userID,
			OverallScore:     0.5,
			ConsistencyScore: 0.5,
		}
	}

	rep.EngagementScore = EngagementScore(totals.Likes, totals.Dislikes, totals.Comments, totals.PostCount)
	rep.UpdatedAt = time.Now()

	if err := j.store.Save(rep); err != nil {
		return err
	}

	j.config.Logger.Debug("reputation recomputed",
		"user_id", userID,
		"engagement_score", rep.EngagementScore,
		"post_count", totals.PostCount)

	return nil
}

// RecomputeNow immediately recomputes all dirty users without waiting for
// the ticker. This is useful for testing or forcing immediate updates.
func (j *RecomputeJob) RecomputeNow() {
	j.recomputeDirtyUsers(context.Background())
}
