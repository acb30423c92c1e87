// Package insight stores structured analyses of posts and runs the
// processing pipeline that produces them.
package insight

import (
	"errors"
	"time"
)

// Sentiment values attached to analyses.
const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"
)

// ErrInsightNotFound is returned when a post has no stored analysis.
var ErrInsightNotFound = errors.New("insight not found")

// Insight is the stored structured analysis of one post. Score fields are
// pointers because the analysis model may decline to produce them; ranking
// applies neutral defaults for missing values.
type Insight struct {
	PostID      string `json:"post_id"`
	InsightType string `json:"insight_type,omitempty"`
	Sector      string `json:"sector,omitempty"`
	SubSector   string `json:"sub_sector,omitempty"`
	Catalyst    string `json:"catalyst,omitempty"`
	RiskProfile string `json:"risk_profile,omitempty"`
	TimeHorizon string `json:"time_horizon,omitempty"`

	QualityScore         *float64 `json:"quality_score,omitempty"`
	ConfidenceLevel      *float64 `json:"confidence_level,omitempty"`
	RelevanceScore       *float64 `json:"relevance_score,omitempty"`
	MarketAlignmentScore *float64 `json:"market_alignment_score,omitempty"`

	Summary     string   `json:"summary,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Sentiment   string   `json:"sentiment,omitempty"`
	KeyPoints   []string `json:"key_points,omitempty"`
	Catalysts   []string `json:"potential_catalysts,omitempty"`
	RiskFactors []string `json:"risk_factors,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
