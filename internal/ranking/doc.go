// Package ranking implements the ensemble ranking engine that orders the
// feed. Six independent signal extractors (quality, community, author,
// market, recency, diversity) each map a post record to a score in [0, 1];
// a strategy-selected weight vector combines them into a final score, and
// an explainer renders the top weighted contributions as a human-readable
// justification.
//
// Basic Usage:
//
//	ranker := ranking.GetRanker("balanced")
//	scored := ranker.RankPosts(records, nil)
//	for _, s := range scored[:3] {
//		fmt.Println(s.FinalScore, ranker.ExplainRanking(s))
//	}
//
// The engine is pure and total: it performs no I/O, never fails, and
// degrades missing inputs to documented neutral defaults. Callers are
// responsible for normalizing upstream values into [0, 1] before ranking
// (see feed.BuildRecord); the engine does not re-validate its inputs.
//
// Diversity scoring carries state across a single RankPosts call: tickers
// and sectors already surfaced earlier in the batch penalize later posts.
// The state evolves strictly in input order, so reproducible diversity
// scores require a deterministic input order.
//
// Calibration:
//
// Strategy weight vectors can be tuned at deploy time via a JSON
// calibration file loaded at startup. Overrides that break the sum-to-one
// property of a strategy row are rejected with a warning and the defaults
// kept. See configs/ranking.calibration.json.
package ranking
