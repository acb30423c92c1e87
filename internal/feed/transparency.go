package feed

import (
	"context"
	"fmt"
	"sort"

	"github.com/socialstocks/backend/internal/post"
	"github.com/socialstocks/backend/internal/ranking"
)

// Breakdown exposes the full scoring math for one post under one strategy:
// raw signals, the strategy's weights, the weighted contribution of each
// signal and the rendered explanation.
type Breakdown struct {
	PostID        string          `json:"post_id"`
	Strategy      string          `json:"strategy"`
	Signals       ranking.Signals `json:"signals"`
	Weights       ranking.Weights `json:"weights"`
	Contributions ranking.Signals `json:"contributions"`
	FinalScore    float64         `json:"final_score"`
	Explanation   string          `json:"explanation"`
}

// SignalContribution is one signal's share of a post's final score.
type SignalContribution struct {
	Signal       string  `json:"signal"`
	Score        float64 `json:"score"`
	Contribution float64 `json:"weighted_contribution"`
}

// ExplanationExample shows why one feed post ranks where it does.
type ExplanationExample struct {
	PostID         string               `json:"post_id"`
	ContentPreview string               `json:"content_preview"`
	FinalScore     float64              `json:"final_score"`
	Explanation    string               `json:"explanation"`
	TopSignals     []SignalContribution `json:"top_signals"`
}

// RankingExplanation annotates the current feed's top posts with the
// strategy weights and each post's dominant signals.
type RankingExplanation struct {
	Strategy    string               `json:"strategy"`
	Weights     ranking.Weights      `json:"strategy_weights"`
	Examples    []ExplanationExample `json:"examples"`
	Description string               `json:"description"`
}

const (
	defaultExplainLimit = 5
	maxExplainLimit     = 20
	previewLength       = 150
	topSignalCount      = 3
)

// ExplainRanking ranks the most recent posts under the named strategy and
// returns worked examples for the top of the feed.
func (s *Service) ExplainRanking(ctx context.Context, strategy string, limit int) (RankingExplanation, error) {
	if limit <= 0 {
		limit = defaultExplainLimit
	}
	if limit > maxExplainLimit {
		limit = maxExplainLimit
	}

	resolved := ranking.ParseStrategy(strategy)
	ranker := s.table.Ranker(resolved)
	result := RankingExplanation{
		Strategy: resolved.String(),
		Weights:  ranker.Weights(),
		Examples: []ExplanationExample{},
	}
	result.Description = fmt.Sprintf(
		"Feed ranked using the %q strategy, which weighs signals as shown above.", resolved)

	posts, _, err := s.posts.ListRecent(limit, nil)
	if err != nil {
		return result, fmt.Errorf("failed to list posts: %w", err)
	}
	if len(posts) == 0 {
		return result, nil
	}

	records, byID, _ := s.enrich(ctx, posts)
	scored := ranker.RankPosts(records, nil)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	for _, sc := range scored {
		p := byID[sc.ID]
		if p == nil {
			continue
		}
		result.Examples = append(result.Examples, ExplanationExample{
			PostID:         sc.ID,
			ContentPreview: preview(p.Content),
			FinalScore:     sc.FinalScore,
			Explanation:    ranker.ExplainRanking(sc),
			TopSignals:     topSignals(sc.Signals, result.Weights),
		})
	}
	return result, nil
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}

// topSignals returns the strongest weighted contributions, largest first.
func topSignals(sig ranking.Signals, w ranking.Weights) []SignalContribution {
	all := []SignalContribution{
		{Signal: "quality", Score: sig.Quality, Contribution: sig.Quality * w.Quality},
		{Signal: "community", Score: sig.Community, Contribution: sig.Community * w.Community},
		{Signal: "author", Score: sig.Author, Contribution: sig.Author * w.Author},
		{Signal: "market", Score: sig.Market, Contribution: sig.Market * w.Market},
		{Signal: "recency", Score: sig.Recency, Contribution: sig.Recency * w.Recency},
		{Signal: "diversity", Score: sig.Diversity, Contribution: sig.Diversity * w.Diversity},
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Contribution > all[j].Contribution
	})
	return all[:topSignalCount]
}

// Transparency scores a single post under the named strategy and returns
// the breakdown. The post is scored in isolation, so the diversity signal
// reflects an empty session.
func (s *Service) Transparency(ctx context.Context, postID, strategy string) (Breakdown, error) {
	p, err := s.posts.GetByID(postID)
	if err != nil {
		return Breakdown{}, err
	}

	resolved := ranking.ParseStrategy(strategy)
	ranker := s.table.Ranker(resolved)

	records, _, _ := s.enrich(ctx, []*post.Post{p})
	scored := ranker.RankPosts(records, nil)
	if len(scored) != 1 {
		return Breakdown{}, fmt.Errorf("expected one scored post, got %d", len(scored))
	}
	sc := scored[0]
	w := ranker.Weights()

	return Breakdown{
		PostID:   p.ID,
		Strategy: resolved.String(),
		Signals:  sc.Signals,
		Weights:  w,
		Contributions: ranking.Signals{
			Quality:   sc.Signals.Quality * w.Quality,
			Community: sc.Signals.Community * w.Community,
			Author:    sc.Signals.Author * w.Author,
			Market:    sc.Signals.Market * w.Market,
			Recency:   sc.Signals.Recency * w.Recency,
			Diversity: sc.Signals.Diversity * w.Diversity,
		},
		FinalScore:  sc.FinalScore,
		Explanation: ranker.ExplainRanking(sc),
	}, nil
}
