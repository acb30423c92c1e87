package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"
)

// Strategy selects a named weight vector over the six signals.
type Strategy int

// The closed set of ranking strategies.
const (
	StrategyBalanced Strategy = iota
	StrategyQualityFocused
	StrategyTimely
	StrategyDiverse
	StrategyPersonalized
)

// strategyNames maps each strategy to its wire name.
var strategyNames = map[Strategy]string{
	StrategyBalanced:       "balanced",
	StrategyQualityFocused: "quality_focused",
	StrategyTimely:         "timely",
	StrategyDiverse:        "diverse",
	StrategyPersonalized:   "personalized",
}

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "balanced"
}

// ParseStrategy resolves a strategy name. Unknown names fall back to
// balanced rather than erroring, matching the runtime behavior callers
// depend on.
func ParseStrategy(name string) Strategy {
	switch name {
	case "balanced":
		return StrategyBalanced
	case "quality_focused":
		return StrategyQualityFocused
	case "timely":
		return StrategyTimely
	case "diverse":
		return StrategyDiverse
	case "personalized":
		return StrategyPersonalized
	default:
		return StrategyBalanced
	}
}

// Weights defines the weight vector for one strategy. The six weights of a
// valid vector sum to 1.0, which bounds the final score to [0, 1].
type Weights struct {
	Quality   float64 `json:"quality"`
	Community float64 `json:"community"`
	Author    float64 `json:"author"`
	Market    float64 `json:"market"`
	Recency   float64 `json:"recency"`
	Diversity float64 `json:"diversity"`
}

// Sum returns the total of all six weights.
func (w Weights) Sum() float64 {
	return w.Quality + w.Community + w.Author + w.Market + w.Recency + w.Diversity
}

// weightSumTolerance is the floating tolerance for the sum-to-one check.
const weightSumTolerance = 1e-9

// Valid reports whether the weight vector sums to 1.0 within tolerance.
func (w Weights) Valid() bool {
	return math.Abs(w.Sum()-1.0) < weightSumTolerance
}

// Table maps every strategy to its weight vector.
type Table map[Strategy]Weights

// DefaultTable returns the canonical strategy table.
//
// personalized reuses balanced's weights: no extractor consults user
// preferences yet, so a distinct vector would be unearned precision.
func DefaultTable() Table {
	balanced := Weights{
		Quality:   0.25,
		Community: 0.20,
		Author:    0.20,
		Market:    0.15,
		Recency:   0.15,
		Diversity: 0.05,
	}
	return Table{
		StrategyBalanced: balanced,
		StrategyQualityFocused: {
			Quality:   0.40,
			Community: 0.10,
			Author:    0.30,
			Market:    0.10,
			Recency:   0.05,
			Diversity: 0.05,
		},
		StrategyTimely: {
			Quality:   0.15,
			Community: 0.15,
			Author:    0.10,
			Market:    0.30,
			Recency:   0.25,
			Diversity: 0.05,
		},
		StrategyDiverse: {
			Quality:   0.20,
			Community: 0.15,
			Author:    0.15,
			Market:    0.10,
			Recency:   0.15,
			Diversity: 0.25,
		},
		StrategyPersonalized: balanced,
	}
}

// RecencyHalfLife returns the exponential-decay half-life for the strategy:
// 12h for timely, 72h for quality_focused, 24h otherwise.
func (s Strategy) RecencyHalfLife() time.Duration {
	switch s {
	case StrategyTimely:
		return 12 * time.Hour
	case StrategyQualityFocused:
		return 72 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// CalibrationConfig represents the JSON structure of the calibration file.
// Weight overrides are keyed by strategy wire name; zero-valued fields are
// left at their defaults so partial overrides are possible.
type CalibrationConfig struct {
	Version string             `json:"version"`
	Weights map[string]Weights `json:"weights"`
}

// LoadCalibration loads strategy weight overrides from a JSON calibration
// file and merges them over the default table. If the file is missing or
// malformed the default table is returned along with the error, so callers
// degrade gracefully. A merged row that no longer sums to 1.0 is rejected
// and its defaults kept.
func LoadCalibration(filePath string) (Table, error) {
	table := DefaultTable()
	if filePath == "" {
		return table, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read ranking calibration, using defaults",
			"path", filePath,
			"error", err)
		return table, fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse ranking calibration, using defaults",
			"path", filePath,
			"error", err)
		return table, fmt.Errorf("failed to parse calibration file: %w", err)
	}

	for name, override := range config.Weights {
		strategy := ParseStrategy(name)
		if strategy.String() != name {
			slog.Warn("ignoring calibration for unknown strategy", "strategy", name)
			continue
		}
		merged := mergeWeights(table[strategy], override)
		if !merged.Valid() {
			slog.Warn("rejecting calibration that breaks weight normalization",
				"strategy", name,
				"sum", merged.Sum())
			continue
		}
		if merged != table[strategy] {
			slog.Info("loaded ranking calibration override",
				"strategy", name,
				"weights", merged)
		}
		table[strategy] = merged
	}

	return table, nil
}

// mergeWeights overlays non-zero override fields onto the base vector,
// allowing partial overrides in the calibration file.
func mergeWeights(base, override Weights) Weights {
	result := base
	if override.Quality != 0 {
		result.Quality = override.Quality
	}
	if override.Community != 0 {
		result.Community = override.Community
	}
	if override.Author != 0 {
		result.Author = override.Author
	}
	if override.Market != 0 {
		result.Market = override.Market
	}
	if override.Recency != 0 {
		result.Recency = override.Recency
	}
	if override.Diversity != 0 {
		result.Diversity = override.Diversity
	}
	return result
}
