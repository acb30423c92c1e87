package market

import (
	"context"
	"sync"
	"time"
)

// PriceWindow holds the two prices an alignment needs: the close nearest
// to post time and the close roughly 24 hours later.
type PriceWindow struct {
	AtPost   float64
	Later24h float64
}

// PriceSource provides historical prices for alignment scoring.
type PriceSource interface {
	// GetWindow returns the price window around postedAt for a ticker.
	// Implementations return ErrInsufficientData when the market was
	// closed or history is unavailable.
	GetWindow(ctx context.Context, ticker string, postedAt time.Time) (PriceWindow, error)
}

// StaticPriceSource is an in-memory PriceSource for testing and local
// development. Thread-safe.
type StaticPriceSource struct {
	mu      sync.RWMutex
	windows map[string]PriceWindow
}

// NewStaticPriceSource creates an empty static price source.
func NewStaticPriceSource() *StaticPriceSource {
	return &StaticPriceSource{
		windows: make(map[string]PriceWindow),
	}
}

// SetWindow sets the price window returned for a ticker.
func (s *StaticPriceSource) SetWindow(ticker string, window PriceWindow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[ticker] = window
}

// GetWindow returns the configured window for a ticker.
func (s *StaticPriceSource) GetWindow(_ context.Context, ticker string, _ time.Time) (PriceWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	window, ok := s.windows[ticker]
	if !ok {
		return PriceWindow{}, ErrInsufficientData
	}
	return window, nil
}
