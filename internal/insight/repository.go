package insight

import (
	"context"
	"sync"
	"time"
)

// Repository persists insights keyed by post ID.
type Repository interface {
	// Save stores the analysis for a post, replacing any existing one.
	Save(ctx context.Context, ins Insight) error

	// GetByPost retrieves the analysis for a post.
	GetByPost(ctx context.Context, postID string) (*Insight, error)

	// GetByPosts retrieves analyses for a batch of posts. Posts without
	// an analysis are simply absent from the result.
	GetByPosts(ctx context.Context, postIDs []string) (map[string]*Insight, error)

	// SetMarketAlignment records a market alignment score on a post's
	// analysis.
	SetMarketAlignment(ctx context.Context, postID string, score float64) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu       sync.RWMutex
	insights map[string]Insight
}

// NewInMemoryRepository creates a new in-memory insight repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		insights: make(map[string]Insight),
	}
}

// Save stores the analysis for a post.
func (r *InMemoryRepository) Save(_ context.Context, ins Insight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ins.CreatedAt.IsZero() {
		ins.CreatedAt = time.Now()
	}
	r.insights[ins.PostID] = ins
	return nil
}

// GetByPost retrieves the analysis for a post.
func (r *InMemoryRepository) GetByPost(_ context.Context, postID string) (*Insight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ins, ok := r.insights[postID]
	if !ok {
		return nil, ErrInsightNotFound
	}
	// Return a copy to avoid external modification
	return &ins, nil
}

// GetByPosts retrieves analyses for a batch of posts.
func (r *InMemoryRepository) GetByPosts(_ context.Context, postIDs []string) (map[string]*Insight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]*Insight, len(postIDs))
	for _, id := range postIDs {
		if ins, ok := r.insights[id]; ok {
			copied := ins
			result[id] = &copied
		}
	}
	return result, nil
}

// SetMarketAlignment records a market alignment score on a post's analysis.
func (r *InMemoryRepository) SetMarketAlignment(_ context.Context, postID string, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ins, ok := r.insights[postID]
	if !ok {
		return ErrInsightNotFound
	}
	ins.MarketAlignmentScore = &score
	r.insights[postID] = ins
	return nil
}

// TopSector returns the most common sector across stored analyses, or an
// empty string when no analysis carries one.
func (r *InMemoryRepository) TopSector(_ context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, ins := range r.insights {
		if ins.Sector != "" {
			counts[ins.Sector]++
		}
	}
	top := ""
	best := 0
	for sector, n := range counts {
		if n > best || (n == best && sector < top) {
			top = sector
			best = n
		}
	}
	return top, nil
}
