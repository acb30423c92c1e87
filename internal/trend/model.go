// Package trend detects and serves emerging market and community trends
// derived from recent post activity.
package trend

import (
	"time"

	"github.com/google/uuid"
)

// Trend categories.
const (
	TypeMarket    = "market"
	TypeCommunity = "community"
	TypeSector    = "sector"
)

// Trend is one detected pattern across recent posts. Trends expire; only
// unexpired trends are served.
type Trend struct {
	ID                 string    `json:"id"`
	TrendType          string    `json:"trend_type"`
	Ticker             string    `json:"ticker,omitempty"`
	Sector             string    `json:"sector,omitempty"`
	Description        string    `json:"description"`
	Confidence         float64   `json:"confidence"`
	SentimentDirection string    `json:"sentiment_direction,omitempty"`
	TimeWindow         string    `json:"time_window"`
	KeyThemes          []string  `json:"key_themes,omitempty"`
	SupportingPostIDs  []string  `json:"supporting_post_ids,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	ExpiresAt          time.Time `json:"expires_at"`
}

// NewTrendID generates an identifier for a stored trend.
func NewTrendID() string {
	return uuid.New().String()
}

// Active reports whether the trend has not yet expired.
func (t Trend) Active(now time.Time) bool {
	return t.ExpiresAt.After(now)
}

// windowHours maps supported analysis windows to their span.
var windowHours = map[string]int{
	"1h":  1,
	"4h":  4,
	"24h": 24,
	"7d":  168,
}

// ParseWindow resolves a time window name to a duration. Unknown names
// fall back to 24 hours.
func ParseWindow(window string) (string, time.Duration) {
	hours, ok := windowHours[window]
	if !ok {
		return "24h", 24 * time.Hour
	}
	return window, time.Duration(hours) * time.Hour
}

// Summary aggregates stored trends for dashboard display.
type Summary struct {
	TotalTrends   int            `json:"total_trends"`
	ByType        map[string]int `json:"by_type"`
	BySentiment   map[string]int `json:"by_sentiment"`
	AvgConfidence float64        `json:"avg_confidence"`
}

// ComputeSummary derives a summary from a set of trends. Trends without a
// sentiment direction count as neutral.
func ComputeSummary(trends []Trend) Summary {
	summary := Summary{
		ByType:      make(map[string]int),
		BySentiment: make(map[string]int),
	}
	if len(trends) == 0 {
		return summary
	}

	summary.TotalTrends = len(trends)
	var confidenceSum float64
	for _, t := range trends {
		trendType := t.TrendType
		if trendType == "" {
			trendType = "unknown"
		}
		summary.ByType[trendType]++

		sentiment := t.SentimentDirection
		if sentiment == "" {
			sentiment = "neutral"
		}
		summary.BySentiment[sentiment]++

		confidenceSum += t.Confidence
	}
	summary.AvgConfidence = confidenceSum / float64(len(trends))
	return summary
}
