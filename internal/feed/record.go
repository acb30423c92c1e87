// Package feed assembles ranked post feeds from stored posts, their
// analyses, author reputation and active market trends.
package feed

import (
	"strings"

	"github.com/socialstocks/backend/internal/insight"
	"github.com/socialstocks/backend/internal/post"
	"github.com/socialstocks/backend/internal/ranking"
	"github.com/socialstocks/backend/internal/reputation"
)

// BuildRecord flattens a post and its enrichments into the representation
// the ranking engine consumes. The insight, reputation and trending inputs
// are all optional; absent values stay nil so the engine applies its
// neutral defaults. Upstream scores are clamped into [0, 1] here because
// the engine assumes its inputs are already in range.
func BuildRecord(p *post.Post, ins *insight.Insight, rep *reputation.Reputation, trending map[string]bool) ranking.Record {
	rec := ranking.Record{
		ID:           p.ID,
		UserID:       p.UserID,
		Content:      p.Content,
		Tickers:      normalizeTickers(p.Tickers),
		Created:      p.CreatedAt,
		LLMStatus:    p.Status,
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
		ViewCount:    p.ViewCount,
	}

	if ins != nil {
		rec.QualityScore = clampPtr(ins.QualityScore)
		rec.ConfidenceLevel = clampPtr(ins.ConfidenceLevel)
		rec.RelevanceScore = clampPtr(ins.RelevanceScore)
		rec.MarketAlignmentScore = clampPtr(ins.MarketAlignmentScore)
		rec.Sector = ins.Sector
		rec.InsightType = ins.InsightType
		rec.Sentiment = ins.Sentiment
		rec.KeyPoints = ins.KeyPoints
		rec.PotentialCatalysts = ins.Catalysts
	}

	if rep != nil {
		rec.AuthorReputation = clampPtr(&rep.OverallScore)
		rec.HistoricalAccuracy = clampPtr(&rep.HistoricalAccuracy)
	}

	for _, ticker := range rec.Tickers {
		if trending[ticker] {
			rec.IsTrendingTicker = true
			break
		}
	}

	return rec
}

// normalizeTickers uppercases and deduplicates while preserving order.
func normalizeTickers(tickers []string) []string {
	if len(tickers) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tickers))
	result := make([]string, 0, len(tickers))
	for _, t := range tickers {
		upper := strings.ToUpper(strings.TrimSpace(t))
		if upper == "" {
			continue
		}
		if _, ok := seen[upper]; ok {
			continue
		}
		seen[upper] = struct{}{}
		result = append(result, upper)
	}
	return result
}

// clampPtr copies an optional score into [0, 1]. nil stays nil.
func clampPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return &c
}
