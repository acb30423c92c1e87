package ranking

import (
	"math"
	"time"
)

// Session accumulates the tickers and sectors already surfaced earlier in
// the current ranking batch. One session is owned by a single RankPosts
// call; the diversity signal reads it and Observe grows it, strictly in
// input order. It is not safe for concurrent use and never crosses calls.
type Session struct {
	seenTickers map[string]struct{}
	seenSectors map[string]struct{}
}

// NewSession creates an empty diversity session.
func NewSession() *Session {
	return &Session{
		seenTickers: make(map[string]struct{}),
		seenSectors: make(map[string]struct{}),
	}
}

// Observe records the post's tickers and sector as seen. It is called after
// a post is scored, regardless of where the post lands in the final
// ordering.
func (s *Session) Observe(r Record) {
	for _, ticker := range r.Tickers {
		s.seenTickers[ticker] = struct{}{}
	}
	if r.Sector != "" {
		s.seenSectors[r.Sector] = struct{}{}
	}
}

// QualitySignal scores content quality from the LLM quality assessment plus
// bonuses for high confidence, substantial content length, and the presence
// of both key points and catalysts. Missing quality_score defaults to 0.5.
func QualitySignal(r Record) float64 {
	score := orDefault(r.QualityScore, 0.5)

	if orDefault(r.ConfidenceLevel, 0.5) > 0.8 {
		score += 0.1
	}
	if n := len(r.Content); n > 200 && n < 2000 {
		score += 0.05
	}
	if len(r.KeyPoints) > 0 && len(r.PotentialCatalysts) > 0 {
		score += 0.05
	}

	return math.Min(1.0, score)
}

// Log-normalization divisors for engagement counts. Views need far more
// volume than likes or comments to saturate.
const (
	likeDivisor    = 5.0
	commentDivisor = 3.0
	viewDivisor    = 10.0
)

// CommunitySignal scores engagement with diminishing returns: each counter
// is normalized via min(1, ln(1+count)/divisor), then combined as
// likes*0.5 + comments*0.3 + views*0.2.
func CommunitySignal(r Record) float64 {
	likeScore := math.Min(1.0, math.Log1p(float64(r.LikeCount))/likeDivisor)
	commentScore := math.Min(1.0, math.Log1p(float64(r.CommentCount))/commentDivisor)
	viewScore := math.Min(1.0, math.Log1p(float64(r.ViewCount))/viewDivisor)

	return likeScore*0.5 + commentScore*0.3 + viewScore*0.2
}

// AuthorSignal scores the author from reputation and historical accuracy
// (both defaulting to 0.5), with a +0.1 bonus for demonstrated sector
// expertise above 0.7. Expertise defaults to 0: it must be earned to count.
func AuthorSignal(r Record) float64 {
	base := orDefault(r.AuthorReputation, 0.5)*0.5 + orDefault(r.HistoricalAccuracy, 0.5)*0.5

	if orDefault(r.SectorExpertiseScore, 0) > 0.7 {
		base += 0.1
	}

	return math.Min(1.0, base)
}

// MarketSignal scores market relevance from the alignment and relevance
// scores (both defaulting to 0.5), with a +0.15 bonus for posts about
// currently trending tickers.
func MarketSignal(r Record) float64 {
	base := orDefault(r.MarketAlignmentScore, 0.5)*0.5 + orDefault(r.RelevanceScore, 0.5)*0.5

	if r.IsTrendingTicker {
		base += 0.15
	}

	return math.Min(1.0, base)
}

// recencyFloor is the minimum recency signal; even old posts keep a small
// residual score.
const recencyFloor = 0.1

// RecencySignal scores freshness with exponential decay
// exp(-age/half_life), floored at 0.1 and capped at 1.0. A missing
// creation timestamp returns a neutral 0.5 rather than a decayed value:
// an unknown age is not evidence of staleness.
func RecencySignal(r Record, now time.Time, halfLife time.Duration) float64 {
	if r.Created.IsZero() {
		return 0.5
	}

	ageHours := now.Sub(r.Created).Hours()
	decay := math.Exp(-ageHours / halfLife.Hours())

	return math.Min(1.0, math.Max(recencyFloor, decay))
}

// diversityFloor is the minimum diversity signal; repetition is penalized,
// never zeroed.
const diversityFloor = 0.3

// DiversitySignal penalizes repetition within the batch: overlap with
// already-seen tickers scales the score down by up to 50% proportional to
// the overlap ratio, and a repeated sector multiplies it by 0.7. Floored at
// 0.3. The session is read-only here; callers advance it via Observe.
func DiversitySignal(r Record, s *Session) float64 {
	score := 1.0

	if len(r.Tickers) > 0 && len(s.seenTickers) > 0 {
		overlap := 0
		for _, ticker := range r.Tickers {
			if _, seen := s.seenTickers[ticker]; seen {
				overlap++
			}
		}
		ratio := float64(overlap) / float64(len(r.Tickers))
		score *= 1 - ratio*0.5
	}

	if r.Sector != "" {
		if _, seen := s.seenSectors[r.Sector]; seen {
			score *= 0.7
		}
	}

	return math.Max(diversityFloor, score)
}
