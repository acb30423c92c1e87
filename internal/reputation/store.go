package reputation

import (
	"sync"
	"time"
)

// EngagementTotals aggregates a user's processed post count and cumulative
// reaction counts, the inputs to engagement scoring.
type EngagementTotals struct {
	PostCount int
	Likes     int
	Dislikes  int
	Comments  int
}

// DataSource provides engagement inputs for reputation recomputation.
type DataSource interface {
	// GetEngagementTotals returns cumulative engagement totals for a user.
	GetEngagementTotals(userID string) (EngagementTotals, error)
}

// Store persists reputation records.
type Store interface {
	// Save stores a reputation record, replacing any existing one.
	Save(rep Reputation) error
	// Get retrieves a user's reputation. Returns (nil, nil) for unknown users.
	Get(userID string) (*Reputation, error)
}

// InMemoryStore is an in-memory implementation of Store. Thread-safe.
type InMemoryStore struct {
	mu   sync.RWMutex
	reps map[string]Reputation
}

// NewInMemoryStore creates a new in-memory reputation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		reps: make(map[string]Reputation),
	}
}

// Save stores a reputation record.
func (s *InMemoryStore) Save(rep Reputation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reps[rep.UserID] = rep
	return nil
}

// Get retrieves a user's reputation.
func (s *InMemoryStore) Get(userID string) (*Reputation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.reps[userID]
	if !ok {
		return nil, nil
	}
	// Return a copy to avoid external modification
	return &rep, nil
}

// All returns all stored reputations (for testing).
func (s *InMemoryStore) All() map[string]Reputation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]Reputation, len(s.reps))
	for k, v := range s.reps {
		result[k] = v
	}
	return result
}

// InMemoryDataSource is an in-memory implementation of DataSource for
// testing. Thread-safe.
type InMemoryDataSource struct {
	mu     sync.RWMutex
	totals map[string]EngagementTotals
}

// NewInMemoryDataSource creates a new in-memory data source.
func NewInMemoryDataSource() *InMemoryDataSource {
	return &InMemoryDataSource{
		totals: make(map[string]EngagementTotals),
	}
}

// GetEngagementTotals returns cumulative engagement totals for a user.
func (s *InMemoryDataSource) GetEngagementTotals(userID string) (EngagementTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals[userID], nil
}

// SetTotals sets the engagement totals for a user.
func (s *InMemoryDataSource) SetTotals(userID string, totals EngagementTotals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals[userID] = totals
}

// SlowDataSource wraps a DataSource with artificial delays for testing
// timeouts.
type SlowDataSource struct {
	ds    DataSource
	delay time.Duration
}

// NewSlowDataSource creates a new slow data source wrapper.
func NewSlowDataSource(ds DataSource, delay time.Duration) *SlowDataSource {
	return &SlowDataSource{
		ds:    ds,
		delay: delay,
	}
}

// GetEngagementTotals returns totals after a delay.
func (s *SlowDataSource) GetEngagementTotals(userID string) (EngagementTotals, error) {
	time.Sleep(s.delay)
	return s.ds.GetEngagementTotals(userID)
}

// AverageAccuracy returns the mean historical accuracy across all tracked
// users, zero when none are tracked.
func (s *InMemoryStore) AverageAccuracy() (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.reps) == 0 {
		return 0, nil
	}
	sum := 0.0
	for _, rep := range s.reps {
		sum += rep.HistoricalAccuracy
	}
	return sum / float64(len(s.reps)), nil
}
