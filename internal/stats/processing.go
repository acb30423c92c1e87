// Package stats provides utilities for tracking batch processing statistics.
package stats

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// ProcessingStats tracks cumulative statistics for batch processing runs.
// All operations are thread-safe using atomic counters.
type ProcessingStats struct {
	processed int64 // Posts analyzed successfully
	failed    int64 // Posts whose analysis failed
	skipped   int64 // Posts skipped (already processed or missing)
}

// NewProcessingStats creates a new ProcessingStats instance.
func NewProcessingStats() *ProcessingStats {
	return &ProcessingStats{}
}

// RecordProcessed increments the processed counter.
func (s *ProcessingStats) RecordProcessed() {
	atomic.AddInt64(&s.processed, 1)
}

// RecordFailed increments the failed counter.
func (s *ProcessingStats) RecordFailed() {
	atomic.AddInt64(&s.failed, 1)
}

// RecordSkipped increments the skipped counter.
func (s *ProcessingStats) RecordSkipped() {
	atomic.AddInt64(&s.skipped, 1)
}

// Processed returns the total number of successfully processed posts.
func (s *ProcessingStats) Processed() int64 {
	return atomic.LoadInt64(&s.processed)
}

// Failed returns the total number of failed posts.
func (s *ProcessingStats) Failed() int64 {
	return atomic.LoadInt64(&s.failed)
}

// Skipped returns the total number of skipped posts.
func (s *ProcessingStats) Skipped() int64 {
	return atomic.LoadInt64(&s.skipped)
}

// Total returns the total number of posts seen by the sweep.
func (s *ProcessingStats) Total() int64 {
	return s.Processed() + s.Failed() + s.Skipped()
}

// Reset resets all counters to zero.
func (s *ProcessingStats) Reset() {
	atomic.StoreInt64(&s.processed, 0)
	atomic.StoreInt64(&s.failed, 0)
	atomic.StoreInt64(&s.skipped, 0)
}

// String returns a human-readable summary of the statistics.
func (s *ProcessingStats) String() string {
	return fmt.Sprintf("processed=%d failed=%d skipped=%d total=%d",
		s.Processed(), s.Failed(), s.Skipped(), s.Total())
}

// LogSummary logs a summary of processing statistics at INFO level.
// Useful for periodic reporting during sweeps.
func (s *ProcessingStats) LogSummary(logger *slog.Logger, sweep string) {
	logger.Info("processing statistics",
		"sweep", sweep,
		"processed", s.Processed(),
		"failed", s.Failed(),
		"skipped", s.Skipped(),
		"total", s.Total(),
	)
}
