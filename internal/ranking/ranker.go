package ranking

import (
	"sort"
	"time"
)

// Ranker scores and orders batches of post records under one strategy.
// A Ranker is immutable after construction and safe for concurrent use;
// each RankPosts call owns its own diversity session.
type Ranker struct {
	strategy Strategy
	weights  Weights
}

// GetRanker resolves a strategy name to a ranker using the default weight
// table. Unknown names fall back to balanced.
func GetRanker(name string) *Ranker {
	return DefaultTable().Ranker(ParseStrategy(name))
}

// Ranker builds a ranker for the given strategy from this table. A strategy
// missing from the table falls back to the balanced defaults.
func (t Table) Ranker(strategy Strategy) *Ranker {
	weights, ok := t[strategy]
	if !ok {
		weights = DefaultTable()[StrategyBalanced]
	}
	return &Ranker{
		strategy: strategy,
		weights:  weights,
	}
}

// Strategy returns the ranker's strategy.
func (r *Ranker) Strategy() Strategy {
	return r.strategy
}

// Weights returns the ranker's weight vector.
func (r *Ranker) Weights() Weights {
	return r.weights
}

// RankPosts scores every record and returns the batch sorted by final score
// descending. Ties preserve input order (the sort is stable). The diversity
// session advances in input order as each post is scored, so the same batch
// in the same order always produces the same scores.
//
// prefs is accepted for interface compatibility but does not influence any
// signal yet; pass nil.
func (r *Ranker) RankPosts(posts []Record, prefs *Preferences) []Scored {
	if len(posts) == 0 {
		return []Scored{}
	}

	_ = prefs // reserved for a future personalized strategy

	now := time.Now().UTC()
	session := NewSession()
	halfLife := r.strategy.RecencyHalfLife()

	scored := make([]Scored, 0, len(posts))
	for _, post := range posts {
		signals := Signals{
			Quality:   QualitySignal(post),
			Community: CommunitySignal(post),
			Author:    AuthorSignal(post),
			Market:    MarketSignal(post),
			Recency:   RecencySignal(post, now, halfLife),
			Diversity: DiversitySignal(post, session),
		}
		session.Observe(post)

		scored = append(scored, Scored{
			Record:     post,
			Signals:    signals,
			FinalScore: r.Aggregate(signals),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})

	return scored
}

// Aggregate combines the six signals into a final score using the ranker's
// weight vector. With a valid vector (weights summing to 1) and signals in
// [0, 1], the result is in [0, 1].
func (r *Ranker) Aggregate(s Signals) float64 {
	return s.Quality*r.weights.Quality +
		s.Community*r.weights.Community +
		s.Author*r.weights.Author +
		s.Market*r.weights.Market +
		s.Recency*r.weights.Recency +
		s.Diversity*r.weights.Diversity
}
