package ranking

import "time"

// LLM processing status values carried on a record.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Sentiment values carried on a record.
const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"
)

// Record is the flat, pre-enriched representation of a post as consumed by
// the engine: the post itself plus its upstream-computed LLM, market,
// reputation and engagement attributes. The engine reads it, never mutates
// it.
//
// Optional [0, 1] scores are pointers; nil means "absent" and falls back to
// the neutral default documented on each extractor. All present values are
// assumed to already be in [0, 1]; normalizing out-of-range upstream values
// is the caller's job.
type Record struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Content string    `json:"content"`
	Tickers []string  `json:"tickers"` // uppercase, deduplicated
	Created time.Time `json:"created_at"`

	LLMStatus string `json:"llm_status"` // pending|processed|failed

	// LLM-derived insight attributes.
	QualityScore         *float64 `json:"quality_score,omitempty"`
	ConfidenceLevel      *float64 `json:"confidence_level,omitempty"`
	RelevanceScore       *float64 `json:"relevance_score,omitempty"`
	MarketAlignmentScore *float64 `json:"market_alignment_score,omitempty"`
	Sector               string   `json:"sector,omitempty"`
	InsightType          string   `json:"insight_type,omitempty"`
	Sentiment            string   `json:"sentiment,omitempty"`
	KeyPoints            []string `json:"key_points,omitempty"`
	PotentialCatalysts   []string `json:"potential_catalysts,omitempty"`

	// Engagement counters.
	LikeCount    int `json:"like_count"`
	CommentCount int `json:"comment_count"`
	ViewCount    int `json:"view_count"`

	// Author attributes.
	AuthorReputation     *float64 `json:"author_reputation,omitempty"`
	HistoricalAccuracy   *float64 `json:"historical_accuracy,omitempty"`
	SectorExpertiseScore *float64 `json:"sector_expertise_score,omitempty"`

	// Market attributes.
	IsTrendingTicker bool `json:"is_trending_ticker"`
}

// Signals holds the six named signal scores computed for one record.
// Every value is in [0, 1].
type Signals struct {
	Quality   float64 `json:"quality"`
	Community float64 `json:"community"`
	Author    float64 `json:"author"`
	Market    float64 `json:"market"`
	Recency   float64 `json:"recency"`
	Diversity float64 `json:"diversity"`
}

// Scored is a ranked record: the input plus its signal breakdown and final
// weighted score.
type Scored struct {
	Record
	Signals    Signals `json:"signals"`
	FinalScore float64 `json:"final_score"`
}

// Preferences carries per-user ranking preferences. The field is accepted
// and threaded through RankPosts for interface compatibility, but no signal
// extractor consults it yet; personalization is reserved for a future
// strategy.
type Preferences struct {
	FavoriteTickers []string `json:"favorite_tickers,omitempty"`
}

// orDefault dereferences an optional score, falling back to def when absent.
func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
