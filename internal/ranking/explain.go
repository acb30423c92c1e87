package ranking

import (
	"fmt"
	"sort"
	"strings"
)

// Minimum weighted contribution a signal needs before the explainer will
// mention it. Quality and author claims quote concrete numbers, so they
// need a stronger contribution than the generic phrases.
const (
	explainQualityThreshold   = 0.15
	explainAuthorThreshold    = 0.15
	explainMarketThreshold    = 0.10
	explainRecencyThreshold   = 0.10
	explainCommunityThreshold = 0.10
)

// explainPrefix opens every rendered explanation.
const explainPrefix = "This post is recommended because it has "

// signalContribution pairs a signal name with its weighted contribution.
type signalContribution struct {
	name  string
	value float64
}

// ExplainRanking renders a natural-language justification for a scored
// post: the top three signals by weighted contribution, each passed through
// its rendering rule, joined with natural conjunction. Signals below their
// threshold are skipped; if none qualify a generic phrase is emitted.
//
// The output is deterministic: the same scored post and strategy always
// produce byte-identical text.
func (r *Ranker) ExplainRanking(s Scored) string {
	contributions := []signalContribution{
		{"quality", s.Signals.Quality * r.weights.Quality},
		{"community", s.Signals.Community * r.weights.Community},
		{"author", s.Signals.Author * r.weights.Author},
		{"market", s.Signals.Market * r.weights.Market},
		{"recency", s.Signals.Recency * r.weights.Recency},
		{"diversity", s.Signals.Diversity * r.weights.Diversity},
	}
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].value > contributions[j].value
	})

	var phrases []string
	for _, c := range contributions[:3] {
		switch {
		case c.name == "quality" && c.value > explainQualityThreshold:
			phrases = append(phrases, fmt.Sprintf(
				"high-quality analysis (score: %.2f)", orDefault(s.QualityScore, 0)))
		case c.name == "author" && c.value > explainAuthorThreshold:
			phrases = append(phrases, fmt.Sprintf(
				"experienced author (reputation: %.2f, accuracy: %.2f)",
				orDefault(s.AuthorReputation, 0), orDefault(s.HistoricalAccuracy, 0)))
		case c.name == "market" && c.value > explainMarketThreshold:
			phrases = append(phrases, "strong market alignment and relevance")
		case c.name == "recency" && c.value > explainRecencyThreshold:
			phrases = append(phrases, "timely and recent insight")
		case c.name == "community" && c.value > explainCommunityThreshold:
			phrases = append(phrases, fmt.Sprintf(
				"high community engagement (%d likes)", s.LikeCount))
		}
	}

	if len(phrases) == 0 {
		phrases = append(phrases, "balanced across multiple factors")
	}

	return explainPrefix + joinNatural(phrases) + "."
}

// joinNatural joins phrases with English conjunction: "a", "a and b",
// "a, b, and c".
func joinNatural(phrases []string) string {
	switch len(phrases) {
	case 1:
		return phrases[0]
	case 2:
		return phrases[0] + " and " + phrases[1]
	default:
		return strings.Join(phrases[:len(phrases)-1], ", ") + ", and " + phrases[len(phrases)-1]
	}
}
