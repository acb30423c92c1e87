package trend

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store persists detected trends.
type Store interface {
	// Save stores a trend.
	Save(ctx context.Context, t Trend) error

	// ListActive returns unexpired trends of one type, sorted by
	// confidence descending. An empty window matches all windows.
	ListActive(ctx context.Context, trendType, window string, limit int) ([]Trend, error)

	// ListByTicker returns unexpired trends mentioning a ticker, sorted
	// by confidence descending.
	ListByTicker(ctx context.Context, ticker string, limit int) ([]Trend, error)

	// All returns every stored trend, expired or not.
	All(ctx context.Context) ([]Trend, error)
}

// InMemoryStore is an in-memory implementation of Store. Thread-safe.
type InMemoryStore struct {
	mu     sync.RWMutex
	trends []Trend
}

// NewInMemoryStore creates an empty in-memory trend store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Save stores a trend.
func (s *InMemoryStore) Save(_ context.Context, t Trend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = NewTrendID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.trends = append(s.trends, t)
	return nil
}

// ListActive returns unexpired trends of one type by descending confidence.
func (s *InMemoryStore) ListActive(_ context.Context, trendType, window string, limit int) ([]Trend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var result []Trend
	for _, t := range s.trends {
		if !t.Active(now) {
			continue
		}
		if trendType != "" && t.TrendType != trendType {
			continue
		}
		if window != "" && t.TimeWindow != window {
			continue
		}
		result = append(result, t)
	}

	sortByConfidence(result)
	return capTrends(result, limit), nil
}

// ListByTicker returns unexpired trends mentioning a ticker.
func (s *InMemoryStore) ListByTicker(_ context.Context, ticker string, limit int) ([]Trend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticker = strings.ToUpper(ticker)
	now := time.Now()
	var result []Trend
	for _, t := range s.trends {
		if !t.Active(now) {
			continue
		}
		if strings.ToUpper(t.Ticker) != ticker {
			continue
		}
		result = append(result, t)
	}

	sortByConfidence(result)
	return capTrends(result, limit), nil
}

// All returns every stored trend.
func (s *InMemoryStore) All(_ context.Context) ([]Trend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Trend, len(s.trends))
	copy(result, s.trends)
	return result, nil
}

func sortByConfidence(trends []Trend) {
	sort.SliceStable(trends, func(i, j int) bool {
		return trends[i].Confidence > trends[j].Confidence
	})
}

func capTrends(trends []Trend, limit int) []Trend {
	if limit > 0 && len(trends) > limit {
		return trends[:limit]
	}
	return trends
}
