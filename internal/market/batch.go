package market

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Candidate is a processed post eligible for alignment scoring: it has a
// sentiment, at least one ticker, and is old enough for the market to have
// answered.
type Candidate struct {
	PostID    string
	UserID    string
	Ticker    string
	Sentiment string
	CreatedAt time.Time
}

// CandidateSource lists posts awaiting alignment scoring.
type CandidateSource interface {
	// ListScorable returns unscored candidates created inside [start, end].
	ListScorable(ctx context.Context, start, end time.Time, limit int) ([]Candidate, error)
}

// AlignmentStore persists scored alignments.
type AlignmentStore interface {
	Save(ctx context.Context, a Alignment) error
	ListByUser(ctx context.Context, userID string) ([]Alignment, error)
}

// ScoreRecorder propagates an alignment score back onto the post's stored
// analysis so feed ranking picks it up.
type ScoreRecorder interface {
	SetMarketAlignment(ctx context.Context, postID string, score float64) error
}

// Scoring window: posts are scored once they are between 24 and 48 hours
// old, after the market has had a full session to react.
const (
	scoreWindowMin = 24 * time.Hour
	scoreWindowMax = 48 * time.Hour
)

// DefaultBatchLimit bounds one scoring pass.
const DefaultBatchLimit = 50

// BatchResult summarizes one alignment scoring pass.
type BatchResult struct {
	Checked int `json:"total_checked"`
	Scored  int `json:"scored_count"`
	Skipped int `json:"skipped_count"`
}

// Scorer runs batch alignment scoring over eligible posts.
type Scorer struct {
	prices     PriceSource
	candidates CandidateSource
	store      AlignmentStore
	recorder   ScoreRecorder
	logger     *slog.Logger
}

// NewScorer creates a batch alignment scorer. recorder may be nil when no
// analysis writeback is wanted.
func NewScorer(prices PriceSource, candidates CandidateSource, store AlignmentStore, recorder ScoreRecorder, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		prices:     prices,
		candidates: candidates,
		store:      store,
		recorder:   recorder,
		logger:     logger,
	}
}

// RunBatch scores one batch of eligible posts against realized prices.
// Candidates without usable price data are skipped, not failed; the next
// run will not see them again once they age out of the window.
func (s *Scorer) RunBatch(ctx context.Context, limit int) (BatchResult, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	now := time.Now().UTC()
	start := now.Add(-scoreWindowMax)
	end := now.Add(-scoreWindowMin)

	candidates, err := s.candidates.ListScorable(ctx, start, end, limit)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Checked: len(candidates)}
	for _, c := range candidates {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		window, err := s.prices.GetWindow(ctx, c.Ticker, c.CreatedAt)
		if err != nil {
			if errors.Is(err, ErrInsufficientData) {
				result.Skipped++
				s.logger.Debug("skipping alignment, no price data",
					"post_id", c.PostID, "ticker", c.Ticker)
				continue
			}
			return result, err
		}

		alignment, err := ScoreAlignment(c.Sentiment, window.AtPost, window.Later24h)
		if err != nil {
			result.Skipped++
			continue
		}
		alignment.PostID = c.PostID
		alignment.UserID = c.UserID
		alignment.Ticker = c.Ticker
		alignment.CreatedAt = now

		if err := s.store.Save(ctx, alignment); err != nil {
			return result, err
		}
		if s.recorder != nil {
			if err := s.recorder.SetMarketAlignment(ctx, c.PostID, alignment.AlignmentScore); err != nil {
				s.logger.Error("failed to record alignment on analysis",
					"post_id", c.PostID, "error", err)
			}
		}
		result.Scored++
	}

	s.logger.Info("market alignment batch completed",
		"checked", result.Checked,
		"scored", result.Scored,
		"skipped", result.Skipped)
	return result, nil
}

// InMemoryAlignmentStore is an in-memory AlignmentStore. Thread-safe.
type InMemoryAlignmentStore struct {
	mu         sync.RWMutex
	alignments []Alignment
}

// NewInMemoryAlignmentStore creates an empty in-memory alignment store.
func NewInMemoryAlignmentStore() *InMemoryAlignmentStore {
	return &InMemoryAlignmentStore{}
}

// Save stores an alignment.
func (s *InMemoryAlignmentStore) Save(_ context.Context, a Alignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alignments = append(s.alignments, a)
	return nil
}

// ListByUser returns all alignments recorded for a user.
func (s *InMemoryAlignmentStore) ListByUser(_ context.Context, userID string) ([]Alignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []Alignment
	for _, a := range s.alignments {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	return result, nil
}
