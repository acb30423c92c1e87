package insight

import (
	"context"
)

// Analysis is the raw result produced by an analysis backend before
// normalization. Score fields are pointers so "the model said 0" and "the
// model said nothing" stay distinguishable.
type Analysis struct {
	QualityScore    *float64 `json:"quality_score,omitempty"`
	ConfidenceLevel *float64 `json:"confidence_level,omitempty"`
	RelevanceScore  *float64 `json:"relevance_score,omitempty"`

	InsightType string `json:"insight_type,omitempty"`
	Sector      string `json:"sector,omitempty"`
	SubSector   string `json:"sub_sector,omitempty"`
	Catalyst    string `json:"catalyst,omitempty"`
	RiskProfile string `json:"risk_profile,omitempty"`
	TimeHorizon string `json:"time_horizon,omitempty"`

	Summary     string   `json:"summary,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Sentiment   string   `json:"sentiment,omitempty"`
	KeyPoints   []string `json:"key_points,omitempty"`
	Catalysts   []string `json:"potential_catalysts,omitempty"`
	RiskFactors []string `json:"risk_factors,omitempty"`

	// Flags the model raised about the content itself.
	ModerationFlags []string `json:"moderation_flags,omitempty"`

	// Provenance for the audit log.
	Model     string `json:"model,omitempty"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
}

// Analyzer produces a structured analysis of post content. Implementations
// wrap whichever model backend serves the deployment; the pipeline only
// depends on this interface.
type Analyzer interface {
	AnalyzePost(ctx context.Context, content string, tickers []string) (Analysis, error)
}

// Normalize trims an analysis into storable shape: scores are clamped to
// [0, 1] and an unrecognized sentiment becomes neutral.
func (a *Analysis) Normalize() {
	clampPtr(a.QualityScore)
	clampPtr(a.ConfidenceLevel)
	clampPtr(a.RelevanceScore)

	switch a.Sentiment {
	case SentimentBullish, SentimentBearish, SentimentNeutral:
	default:
		a.Sentiment = SentimentNeutral
	}
}

func clampPtr(v *float64) {
	if v == nil {
		return
	}
	if *v < 0 {
		*v = 0
	}
	if *v > 1 {
		*v = 1
	}
}

// ToInsight converts a normalized analysis into a stored insight for a
// post, applying the moderation-adjusted quality score.
func (a Analysis) ToInsight(postID string, adjustedQuality float64) Insight {
	quality := adjustedQuality
	return Insight{
		PostID:          postID,
		InsightType:     a.InsightType,
		Sector:          a.Sector,
		SubSector:       a.SubSector,
		Catalyst:        a.Catalyst,
		RiskProfile:     a.RiskProfile,
		TimeHorizon:     a.TimeHorizon,
		QualityScore:    &quality,
		ConfidenceLevel: a.ConfidenceLevel,
		RelevanceScore:  a.RelevanceScore,
		Summary:         a.Summary,
		Explanation:     a.Explanation,
		Sentiment:       a.Sentiment,
		KeyPoints:       a.KeyPoints,
		Catalysts:       a.Catalysts,
		RiskFactors:     a.RiskFactors,
	}
}
