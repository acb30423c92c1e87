package market

import "context"

// AccuracyStats summarizes a user's historical prediction accuracy.
type AccuracyStats struct {
	TotalPredictions int                `json:"total_predictions"`
	AvgAccuracy      float64            `json:"avg_accuracy"`
	AccuracyByTiming map[string]float64 `json:"accuracy_by_timing"`
	TickersAnalyzed  int                `json:"total_tickers_analyzed"`
	BestTiming       string             `json:"best_timing,omitempty"`
}

// UserAccuracyStats aggregates a user's stored alignments into accuracy
// statistics. A user with no alignments gets a zero-valued result.
func UserAccuracyStats(ctx context.Context, store AlignmentStore, userID string) (AccuracyStats, error) {
	alignments, err := store.ListByUser(ctx, userID)
	if err != nil {
		return AccuracyStats{}, err
	}
	return ComputeAccuracyStats(alignments), nil
}

// ComputeAccuracyStats derives accuracy statistics from a set of
// alignments.
func ComputeAccuracyStats(alignments []Alignment) AccuracyStats {
	stats := AccuracyStats{
		AccuracyByTiming: make(map[string]float64),
	}
	if len(alignments) == 0 {
		return stats
	}

	stats.TotalPredictions = len(alignments)

	var sum float64
	timingSums := make(map[string]float64)
	timingCounts := make(map[string]int)
	tickers := make(map[string]struct{})

	for _, a := range alignments {
		sum += a.AlignmentScore
		timing := a.TimingAccuracy
		if timing == "" {
			timing = "unknown"
		}
		timingSums[timing] += a.AlignmentScore
		timingCounts[timing]++
		if a.Ticker != "" {
			tickers[a.Ticker] = struct{}{}
		}
	}

	stats.AvgAccuracy = sum / float64(len(alignments))
	stats.TickersAnalyzed = len(tickers)

	bestScore := -1.0
	for timing, total := range timingSums {
		avg := total / float64(timingCounts[timing])
		stats.AccuracyByTiming[timing] = avg
		if avg > bestScore {
			bestScore = avg
			stats.BestTiming = timing
		}
	}

	return stats
}
